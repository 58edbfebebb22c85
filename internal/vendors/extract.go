package vendors

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"goldradar/internal/model"
)

// Extraction strategy names, tallied in diagnostics.
const (
	StrategyJSONLD    = "jsonld"
	StrategyMicrodata = "microdata"
	StrategyRDFa      = "rdfa"
	StrategyMeta      = "meta"
	StrategyInline    = "inline"
)

// listFanout bounds how many ItemList links are followed per page.
const listFanout = 8

// ExtractResult is everything one page yielded: product nodes, follow-up
// links from ItemList nodes, and per-strategy hit counts.
type ExtractResult struct {
	Products []model.ProductNode
	Links    []string
	Hits     map[string]int
}

// Extract runs every strategy over the page; all matching strategies
// contribute nodes since shops often mix encodings. Only the raw script
// scan is held back until nothing else produced a product.
func Extract(body []byte) *ExtractResult {
	res := &ExtractResult{Hits: make(map[string]int)}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return res
	}
	extractJSONLD(doc, res)
	extractMicrodata(doc, res)
	extractRDFa(doc, res)
	extractMeta(doc, res)
	extractInline(doc, res)
	if len(res.Products) == 0 {
		extractScriptScan(doc, res)
	}
	if len(res.Links) > listFanout {
		res.Links = res.Links[:listFanout]
	}
	return res
}

func (r *ExtractResult) push(p model.ProductNode) {
	r.Products = append(r.Products, p)
	r.Hits[p.Strategy]++
}

// ---- JSON-LD ----

func extractJSONLD(doc *goquery.Document, res *ExtractResult) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		for _, n := range flattenGraph(v) {
			collectLDNode(n, res)
		}
	})
}

// flattenGraph expands top-level arrays and one level of @graph containers
// into a flat node list.
func flattenGraph(v any) []map[string]any {
	var out []map[string]any
	nodes, ok := v.([]any)
	if !ok {
		nodes = []any{v}
	}
	for _, n := range nodes {
		m, ok := n.(map[string]any)
		if !ok {
			continue
		}
		if g, ok := m["@graph"].([]any); ok {
			for _, gn := range g {
				if gm, ok := gn.(map[string]any); ok {
					out = append(out, gm)
				}
			}
			continue
		}
		out = append(out, m)
	}
	return out
}

func collectLDNode(m map[string]any, res *ExtractResult) {
	switch {
	case hasLDType(m, "product"):
		res.push(productFromLD(m))
	case hasLDType(m, "offer"):
		item, ok := m["itemOffered"].(map[string]any)
		if !ok {
			return
		}
		if _, has := item["offers"]; !has {
			item["offers"] = m
		}
		res.push(productFromLD(item))
	case hasLDType(m, "itemlist"):
		elems, ok := m["itemListElement"].([]any)
		if !ok {
			return
		}
		for _, e := range elems {
			em, ok := e.(map[string]any)
			if !ok {
				continue
			}
			u := asString(em["url"])
			if u == "" {
				if im, ok := em["item"].(map[string]any); ok {
					u = asString(im["@id"])
				}
			}
			if u != "" {
				res.Links = append(res.Links, u)
			}
		}
	}
}

// hasLDType matches @type against a schema.org type name, allowing both
// bare names and full URLs, as a string or a list.
func hasLDType(m map[string]any, want string) bool {
	match := func(t string) bool {
		t = strings.ToLower(t)
		return t == want || strings.HasSuffix(t, "/"+want)
	}
	switch t := m["@type"].(type) {
	case string:
		return match(t)
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && match(s) {
				return true
			}
		}
	}
	return false
}

func productFromLD(m map[string]any) model.ProductNode {
	p := model.ProductNode{
		Name:        strings.TrimSpace(asString(m["name"])),
		Description: strings.TrimSpace(asString(m["description"])),
		Strategy:    StrategyJSONLD,
	}
	switch w := m["weight"].(type) {
	case map[string]any:
		if v := asFloat(w["value"]); v != nil {
			unit := asString(w["unitCode"])
			if unit == "" {
				unit = asString(w["unitText"])
			}
			p.Weight = &model.Weight{Value: *v, Unit: strings.ToLower(unit)}
		}
	case float64:
		p.Weight = &model.Weight{Value: w}
	case string:
		if v := asFloat(w); v != nil {
			p.Weight = &model.Weight{Value: *v}
		}
	}
	p.Offers, p.Aggregate = offersFromLD(m["offers"])
	return p
}

func offersFromLD(v any) ([]model.Offer, *model.AggregateOffer) {
	switch o := v.(type) {
	case []any:
		var offers []model.Offer
		for _, e := range o {
			if em, ok := e.(map[string]any); ok {
				offers = append(offers, offerFromLD(em))
			}
		}
		return offers, nil
	case map[string]any:
		if hasLDType(o, "aggregateoffer") {
			agg := &model.AggregateOffer{
				LowPrice:  asFloat(o["lowPrice"]),
				HighPrice: asFloat(o["highPrice"]),
				Currency:  strings.ToUpper(asString(o["priceCurrency"])),
				Spec:      specFromLD(o),
			}
			if nested, ok := o["offers"].([]any); ok {
				for _, e := range nested {
					if em, ok := e.(map[string]any); ok {
						agg.Offers = append(agg.Offers, offerFromLD(em))
					}
				}
			}
			return nil, agg
		}
		return []model.Offer{offerFromLD(o)}, nil
	}
	return nil, nil
}

func offerFromLD(m map[string]any) model.Offer {
	// Shops publish range-only offers without an AggregateOffer tag; take
	// lowPrice, then highPrice, when the flat price is absent.
	price := asFloat(m["price"])
	if price == nil {
		price = asFloat(m["lowPrice"])
	}
	if price == nil {
		price = asFloat(m["highPrice"])
	}
	o := model.Offer{
		Price:        price,
		Currency:     strings.ToUpper(asString(m["priceCurrency"])),
		Availability: availabilityName(asString(m["availability"])),
		Spec:         specFromLD(m),
	}
	if _, ok := m["shippingDetails"].(map[string]any); ok {
		t := true
		o.ShippingIncluded = &t
	}
	return o
}

func specFromLD(m map[string]any) *model.PriceSpec {
	spec, ok := m["priceSpecification"].(map[string]any)
	if !ok {
		return nil
	}
	return &model.PriceSpec{
		Price:    asFloat(spec["price"]),
		Currency: strings.ToUpper(asString(spec["priceCurrency"])),
	}
}

// availabilityName reduces a schema.org availability URL to its last segment
// (InStock, OutOfStock, ...).
func availabilityName(s string) string {
	if s == "" {
		return ""
	}
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ---- Microdata ----

func extractMicrodata(doc *goquery.Document, res *ExtractResult) {
	doc.Find("[itemscope][itemtype]").Each(func(_ int, s *goquery.Selection) {
		t, _ := s.Attr("itemtype")
		if !strings.HasSuffix(strings.ToLower(t), "product") {
			return
		}
		p := model.ProductNode{
			Name:        itempropValue(s, "name"),
			Description: itempropValue(s, "description"),
			Strategy:    StrategyMicrodata,
		}
		if raw := itempropValue(s, "weight"); raw != "" {
			if w := weightFromText(raw); w != nil {
				p.Weight = w
			}
		}
		offer := model.Offer{
			Currency:     strings.ToUpper(itempropValue(s, "priceCurrency")),
			Availability: availabilityName(itempropAttrOrValue(s, "availability", "href")),
		}
		offer.Price = asFloat(itempropValue(s, "price"))
		if offer.Price != nil || offer.Currency != "" {
			p.Offers = []model.Offer{offer}
		}
		res.push(p)
	})
}

// itempropValue reads an itemprop, preferring the content attribute over the
// visible text as microdata usually carries machine values there.
func itempropValue(s *goquery.Selection, prop string) string {
	sel := s.Find(`[itemprop="` + prop + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	if c, ok := sel.Attr("content"); ok && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	return strings.TrimSpace(sel.Text())
}

func itempropAttrOrValue(s *goquery.Selection, prop, attr string) string {
	sel := s.Find(`[itemprop="` + prop + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	if v, ok := sel.Attr(attr); ok && v != "" {
		return v
	}
	return itempropValue(s, prop)
}

// ---- RDFa ----

func extractRDFa(doc *goquery.Document, res *ExtractResult) {
	doc.Find("[typeof]").Each(func(_ int, s *goquery.Selection) {
		t, _ := s.Attr("typeof")
		if !strings.HasSuffix(strings.ToLower(t), "product") {
			return
		}
		p := model.ProductNode{
			Name:        propertyValue(s, "name"),
			Description: propertyValue(s, "description"),
			Strategy:    StrategyRDFa,
		}
		if raw := propertyValue(s, "weight"); raw != "" {
			p.Weight = weightFromText(raw)
		}
		offer := model.Offer{
			Price:        asFloat(propertyValue(s, "price")),
			Currency:     strings.ToUpper(propertyValue(s, "priceCurrency")),
			Availability: availabilityName(propertyValue(s, "availability")),
		}
		if offer.Price != nil || offer.Currency != "" {
			p.Offers = []model.Offer{offer}
		}
		res.push(p)
	})
}

func propertyValue(s *goquery.Selection, prop string) string {
	sel := s.Find(`[property="` + prop + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	if c, ok := sel.Attr("content"); ok && strings.TrimSpace(c) != "" {
		return strings.TrimSpace(c)
	}
	return strings.TrimSpace(sel.Text())
}

// ---- Page metadata ----

func extractMeta(doc *goquery.Document, res *ExtractResult) {
	price := metaContent(doc,
		`meta[property="product:price:amount"]`,
		`meta[property="og:price:amount"]`)
	if asFloat(price) == nil {
		return
	}
	currency := metaContent(doc,
		`meta[property="product:price:currency"]`,
		`meta[property="og:price:currency"]`)
	name := metaContent(doc, `meta[property="og:title"]`)
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	res.push(model.ProductNode{
		Name:     name,
		Strategy: StrategyMeta,
		Offers: []model.Offer{{
			Price:    asFloat(price),
			Currency: strings.ToUpper(currency),
		}},
	})
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if c, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(c) != "" {
			return strings.TrimSpace(c)
		}
	}
	return ""
}

// ---- Inline fallback ----

// extractInline picks up explicit item-level price/currency markup outside
// any product scope.
func extractInline(doc *goquery.Document, res *ExtractResult) {
	priceSel := doc.Find(`[itemprop="price"]`).First()
	if priceSel.Length() == 0 {
		return
	}
	// Skip when the price already belongs to a microdata product scope.
	if priceSel.Closest(`[itemscope][itemtype*="roduct"]`).Length() > 0 {
		return
	}
	raw, ok := priceSel.Attr("content")
	if !ok {
		raw = priceSel.Text()
	}
	price := asFloat(strings.TrimSpace(raw))
	if price == nil {
		return
	}
	currency := ""
	curSel := doc.Find(`[itemprop="priceCurrency"]`).First()
	if curSel.Length() > 0 {
		if c, ok := curSel.Attr("content"); ok {
			currency = c
		} else {
			currency = curSel.Text()
		}
	}
	name := metaContent(doc, `meta[property="og:title"]`)
	if name == "" {
		name = strings.TrimSpace(doc.Find("title").First().Text())
	}
	res.push(model.ProductNode{
		Name:     name,
		Strategy: StrategyInline,
		Offers: []model.Offer{{
			Price:    price,
			Currency: strings.ToUpper(strings.TrimSpace(currency)),
		}},
	})
}

var (
	reScriptPrice    = regexp.MustCompile(`"(?:price|lowPrice)"\s*:\s*"?(\d+(?:[.,]\d+)?)"?`)
	reScriptCurrency = regexp.MustCompile(`"(?:priceCurrency|currency)"\s*:\s*"([A-Za-z]{3})"`)
)

// extractScriptScan is the last resort: a pattern match over embedded script
// payloads for price/currency-looking key-value pairs.
func extractScriptScan(doc *goquery.Document, res *ExtractResult) {
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := s.Text()
		pm := reScriptPrice.FindStringSubmatch(text)
		cm := reScriptCurrency.FindStringSubmatch(text)
		if pm == nil || cm == nil {
			return true
		}
		price := asFloat(pm[1])
		if price == nil {
			return true
		}
		name := metaContent(doc, `meta[property="og:title"]`)
		if name == "" {
			name = strings.TrimSpace(doc.Find("title").First().Text())
		}
		res.push(model.ProductNode{
			Name:     name,
			Strategy: StrategyInline,
			Offers: []model.Offer{{
				Price:    price,
				Currency: strings.ToUpper(cm[1]),
			}},
		})
		return false
	})
}

// ---- loose value helpers ----

// asString reads a string out of a loosely-typed JSON value.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asFloat converts a loosely-typed value to a float, accepting numbers and
// decimal strings with either comma or dot separators.
func asFloat(v any) *float64 {
	switch n := v.(type) {
	case float64:
		return &n
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return &f
		}
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return &f
		}
	}
	return nil
}

// weightFromText parses a "123 g" / "1 oz" style declaration.
func weightFromText(raw string) *model.Weight {
	if m := reGram.FindStringSubmatch(raw); m != nil {
		if v := asFloat(m[1]); v != nil {
			return &model.Weight{Value: *v, Unit: "gram"}
		}
	}
	if m := reOunce.FindStringSubmatch(raw); m != nil {
		if v := asFloat(m[1]); v != nil {
			return &model.Weight{Value: *v, Unit: "oz"}
		}
	}
	if v := asFloat(raw); v != nil {
		return &model.Weight{Value: *v}
	}
	return nil
}
