package vendors

import (
	"regexp"
	"strings"

	"goldradar/internal/model"
)

// Product class identifiers, in catalog order.
const (
	ClassBar100g    = "bar-100g"
	ClassMaple      = "coin-1oz-maple"
	ClassKrugerrand = "coin-1oz-krugerrand"
	ClassCoin1oz    = "coin-1oz"
)

// ProductClasses lists every class the catalog tracks.
var ProductClasses = []string{ClassBar100g, ClassMaple, ClassKrugerrand, ClassCoin1oz}

// Premium values outside this band are treated as parse noise.
const (
	premiumMin = -0.2
	premiumMax = 2.0
)

var (
	reGram  = regexp.MustCompile(`(?i)(\d{1,4}[,.]?\d*)\s*g\b`)
	reOunce = regexp.MustCompile(`(?i)(\d{1,2}(?:[,.]\d+)?)\s*(?:oz|unze)`)
)

// ResolveWeightG resolves a node's weight in grams: structured weight first
// (ounces converted via the troy constant, bare numbers taken as grams),
// otherwise a gram or ounce pattern in the combined name and description.
func ResolveWeightG(p *model.ProductNode) *float64 {
	if p.Weight != nil {
		u := p.Weight.Unit
		switch {
		case u == "":
			v := p.Weight.Value
			return &v
		case strings.HasPrefix(u, "grm") || strings.Contains(u, "gram"):
			v := p.Weight.Value
			return &v
		case strings.Contains(u, "oz") || strings.Contains(u, "ounce") || strings.Contains(u, "unze"):
			v := p.Weight.Value * model.GramsPerTroyOunce
			return &v
		}
	}

	text := p.Name + " " + p.Description
	if m := reGram.FindStringSubmatch(text); m != nil {
		return parseDecimal(m[1])
	}
	if m := reOunce.FindStringSubmatch(text); m != nil {
		if v := parseDecimal(m[1]); v != nil {
			w := *v * model.GramsPerTroyOunce
			return &w
		}
	}
	return nil
}

func parseDecimal(s string) *float64 {
	return asFloat(s)
}

func containsAny(s string, keys ...string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// Classify maps (name keywords, resolved weight) to a product class: weight
// bands plus keywords first, keyword-only rules as a lower-confidence
// fallback for the brand coins. An empty result means unclassifiable.
func Classify(name string, weightG *float64) string {
	n := strings.ToLower(name)
	if weightG != nil {
		w := *weightG
		if w >= 95 && w <= 105 && containsAny(n, "barren", "bar", "cast", "linge", "tafel") {
			return ClassBar100g
		}
		if w >= 30 && w <= 32.5 {
			switch {
			case strings.Contains(n, "maple"):
				return ClassMaple
			case containsAny(n, "kruger", "krügerrand", "kruegerrand"):
				return ClassKrugerrand
			case containsAny(n, "unze", "oz", "coin", "münze", "muenze"):
				return ClassCoin1oz
			}
		}
	}
	if strings.Contains(n, "maple") {
		return ClassMaple
	}
	if containsAny(n, "kruger", "krügerrand", "kruegerrand") {
		return ClassKrugerrand
	}
	return ""
}

// ResolvedOffer is an offer reduced to the fields the catalog needs.
type ResolvedOffer struct {
	Price            float64
	Currency         string
	Availability     string
	ShippingIncluded *bool
}

func resolveOffer(o model.Offer) *ResolvedOffer {
	price := o.Price
	if price == nil && o.Spec != nil {
		price = o.Spec.Price
	}
	currency := o.Currency
	if currency == "" && o.Spec != nil {
		currency = o.Spec.Currency
	}
	if price == nil || currency == "" {
		return nil
	}
	return &ResolvedOffer{
		Price:            *price,
		Currency:         currency,
		Availability:     o.Availability,
		ShippingIncluded: o.ShippingIncluded,
	}
}

// BestOffer resolves price and currency from whichever offer shape the node
// carries and picks the lowest-priced candidate. Nil means the node has no
// resolvable (price, currency) pair and must be dropped.
func BestOffer(p *model.ProductNode) *ResolvedOffer {
	var cands []*ResolvedOffer
	for _, o := range p.Offers {
		if r := resolveOffer(o); r != nil {
			cands = append(cands, r)
		}
	}
	if agg := p.Aggregate; agg != nil {
		low := agg.LowPrice
		if low == nil && len(agg.Offers) > 0 {
			low = agg.Offers[0].Price
		}
		currency := agg.Currency
		if currency == "" && agg.Spec != nil {
			currency = agg.Spec.Currency
		}
		if low != nil && currency != "" {
			cands = append(cands, &ResolvedOffer{Price: *low, Currency: currency})
		}
	}

	var best *ResolvedOffer
	for _, c := range cands {
		if best == nil || c.Price < best.Price {
			best = c
		}
	}
	return best
}

// Premium computes price over melt value minus one, only when a positive
// spot-per-gram and weight are known. Values outside the plausible band are
// reported as nil, not as an extreme number.
func Premium(price, spotPerGram, weightG float64) *float64 {
	if spotPerGram <= 0 || weightG <= 0 {
		return nil
	}
	prem := price/(spotPerGram*weightG) - 1
	if prem < premiumMin || prem > premiumMax {
		return nil
	}
	return &prem
}

// DedupeItems keeps at most one item per product class: lowest non-null
// premium wins, ties break on lowest price, and when no contender has a
// premium the first seen item is retained. Class order follows first
// appearance.
func DedupeItems(items []model.CatalogItem) []model.CatalogItem {
	best := make(map[string]model.CatalogItem)
	var order []string
	for _, it := range items {
		cur, ok := best[it.Product]
		if !ok {
			best[it.Product] = it
			order = append(order, it.Product)
			continue
		}
		if betterItem(it, cur) {
			best[it.Product] = it
		}
	}
	out := make([]model.CatalogItem, 0, len(order))
	for _, cls := range order {
		out = append(out, best[cls])
	}
	return out
}

func betterItem(a, b model.CatalogItem) bool {
	switch {
	case a.Premium == nil:
		return false
	case b.Premium == nil:
		return true
	case *a.Premium != *b.Premium:
		return *a.Premium < *b.Premium
	default:
		return a.Price.Value < b.Price.Value
	}
}
