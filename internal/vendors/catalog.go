package vendors

import (
	"fmt"
	"log"
	"math"
	"net/url"
	"strings"
	"time"

	"goldradar/internal/fx"
	"goldradar/internal/model"
)

// settlementCurrency is the currency every catalog price is reported in.
const settlementCurrency = "EUR"

// DomainConfig describes one whitelisted vendor domain.
type DomainConfig struct {
	Domain string
	Trust  int
	Seeds  []string
}

// Builder generates the vendor catalog for one cycle.
type Builder struct {
	Crawler *Crawler
	FX      *fx.Source
	Now     func() time.Time
}

// NewBuilder creates a catalog builder.
func NewBuilder(crawler *Crawler, fxSource *fx.Source) *Builder {
	return &Builder{Crawler: crawler, FX: fxSource, Now: time.Now}
}

// Build crawls every whitelisted domain and assembles the catalog document.
// The quote supplies the melt-value basis; with a null quote the catalog is
// still produced, just without premiums.
func (b *Builder) Build(domains []DomainConfig, quote *model.SpotQuote) *model.VendorCatalog {
	out := &model.VendorCatalog{
		Generated:   b.Now().UTC().Format("2006-01-02T15:04:05Z"),
		FX:          map[string]float64{},
		Products:    ProductClasses,
		Vendors:     []*model.Vendor{},
		Diagnostics: model.NewCatalogDiag(),
	}

	eurusd := b.FX.EURUSD()
	out.FX["EURUSD"] = eurusd

	// Premiums compare against the unrounded per-gram melt value.
	var eurPerGram float64
	if quote != nil && quote.Price != nil && *quote.Price > 0 {
		eurPerGram = *quote.Price / model.GramsPerTroyOunce / eurusd
	}

	for _, dom := range domains {
		vendor, dstat := b.buildDomain(dom, eurusd, eurPerGram, out.Diagnostics)
		out.Vendors = append(out.Vendors, vendor)
		out.Diagnostics.Domains = append(out.Diagnostics.Domains, dstat)
		out.Diagnostics.Totals.Domains++
		out.Diagnostics.Totals.Pages += dstat.Pages
		out.Diagnostics.Totals.PagesBlocked += dstat.PagesBlocked
		out.Diagnostics.Totals.Products += dstat.Products
		out.Diagnostics.Totals.Offers += dstat.Offers
		out.Diagnostics.Totals.Items += dstat.Items
	}
	return out
}

func (b *Builder) buildDomain(dom DomainConfig, eurusd, eurPerGram float64, diag *model.CatalogDiag) (*model.Vendor, *model.DomainDiag) {
	dstat := &model.DomainDiag{Domain: dom.Domain, Notes: []string{}}
	vendor := &model.Vendor{Domain: dom.Domain, Trust: dom.Trust, Items: []model.CatalogItem{}}

	urls := b.Crawler.DiscoverCandidates(dom.Domain, dom.Seeds, dstat)
	log.Printf("[INFO] %s: %d candidate urls", dom.Domain, len(urls))

	seen := make(map[string]struct{})
	var items []model.CatalogItem
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		if !sameDomain(u, dom.Domain) {
			continue
		}
		if !b.Crawler.Robots.Allowed(dom.Domain, u) {
			dstat.Notes = append(dstat.Notes, "blocked robots: "+u)
			continue
		}

		for _, prod := range b.fetchProducts(u, dom.Domain, dstat, diag, seen) {
			if item := b.normalize(prod, u, eurusd, eurPerGram, dstat); item != nil {
				items = append(items, *item)
			}
		}
	}

	vendor.Items = DedupeItems(items)
	dstat.Items = len(vendor.Items)
	return vendor, dstat
}

// fetchProducts fetches one page, extracts its nodes, and resolves ItemList
// links one level deep with bounded fan-out.
func (b *Builder) fetchProducts(pageURL, domain string, dstat *model.DomainDiag, diag *model.CatalogDiag, seen map[string]struct{}) []model.ProductNode {
	res := b.fetchExtract(pageURL, dstat, diag)
	if res == nil {
		return nil
	}
	products := res.Products

	for _, link := range res.Links {
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		if !sameDomain(link, domain) || !b.Crawler.Robots.Allowed(domain, link) {
			continue
		}
		if more := b.fetchExtract(link, dstat, diag); more != nil {
			products = append(products, more.Products...)
		}
	}
	return products
}

func (b *Builder) fetchExtract(pageURL string, dstat *model.DomainDiag, diag *model.CatalogDiag) *ExtractResult {
	body, blocked, err := b.Crawler.FetchPage(pageURL)
	if err != nil {
		dstat.Notes = append(dstat.Notes, fmt.Sprintf("bad fetch: %s (%v)", pageURL, err))
		return nil
	}
	if blocked {
		dstat.PagesBlocked++
		return nil
	}
	dstat.Pages++
	res := Extract(body)
	dstat.Products += len(res.Products)
	for strategy, n := range res.Hits {
		diag.Strategies[strategy] += n
	}
	return res
}

// normalize turns one extracted node into a catalog item, or nil when the
// node fails classification, offer resolution, or currency rules.
func (b *Builder) normalize(prod model.ProductNode, pageURL string, eurusd, eurPerGram float64, dstat *model.DomainDiag) *model.CatalogItem {
	name := strings.TrimSpace(prod.Name)
	if name == "" {
		return nil
	}
	weightG := ResolveWeightG(&prod)
	class := Classify(name, weightG)
	if class == "" {
		return nil
	}
	offer := BestOffer(&prod)
	if offer == nil {
		return nil
	}
	dstat.Offers++

	price := offer.Price
	currency := offer.Currency
	if currency == "USD" {
		price /= eurusd
		currency = settlementCurrency
	}
	// Single-hop conversion only: anything but EUR or USD is dropped.
	if currency != settlementCurrency {
		return nil
	}

	availability := offer.Availability
	if availability == "" {
		availability = "Unknown"
	}

	item := &model.CatalogItem{
		Product: class,
		Name:    name,
		Price: model.ItemPrice{
			Value:            roundTo(price, 2),
			Currency:         settlementCurrency,
			ShippingIncluded: offer.ShippingIncluded,
		},
		Availability: availability,
		CheckedAt:    b.Now().UTC().Format("2006-01-02T15:04:05Z"),
		Source:       prod.Strategy,
		URL:          pageURL,
	}
	if weightG != nil {
		w := roundTo(*weightG, 3)
		item.WeightG = &w
	}
	if eurPerGram > 0 && weightG != nil {
		if prem := Premium(price, eurPerGram, *weightG); prem != nil {
			p := roundTo(*prem, 4)
			item.Premium = &p
		}
	}
	return item
}

func sameDomain(rawURL, domain string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "" || strings.HasSuffix(host, domain)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
