package vendors

import (
	"testing"
)

func TestExtractJSONLDProduct(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@context": "https://schema.org",
	  "@type": "Product",
	  "name": "Goldbarren 100g",
	  "weight": {"@type": "QuantitativeValue", "value": 100, "unitCode": "GRM"},
	  "offers": {
	    "@type": "Offer",
	    "price": "7450,00",
	    "priceCurrency": "EUR",
	    "availability": "https://schema.org/InStock",
	    "shippingDetails": {"@type": "OfferShippingDetails"}
	  }
	}
	</script></head><body></body></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	p := res.Products[0]
	if p.Name != "Goldbarren 100g" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Strategy != StrategyJSONLD {
		t.Errorf("strategy = %q", p.Strategy)
	}
	if p.Weight == nil || p.Weight.Value != 100 || p.Weight.Unit != "grm" {
		t.Errorf("weight = %+v", p.Weight)
	}
	if len(p.Offers) != 1 {
		t.Fatalf("offers = %d, want 1", len(p.Offers))
	}
	o := p.Offers[0]
	if o.Price == nil || *o.Price != 7450 {
		t.Errorf("price = %v", o.Price)
	}
	if o.Currency != "EUR" {
		t.Errorf("currency = %q", o.Currency)
	}
	if o.Availability != "InStock" {
		t.Errorf("availability = %q", o.Availability)
	}
	if o.ShippingIncluded == nil || !*o.ShippingIncluded {
		t.Errorf("shipping = %v", o.ShippingIncluded)
	}
	if res.Hits[StrategyJSONLD] != 1 {
		t.Errorf("jsonld hits = %d", res.Hits[StrategyJSONLD])
	}
}

func TestExtractJSONLDGraph(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@context": "https://schema.org",
	  "@graph": [
	    {"@type": "WebSite", "name": "Shop"},
	    {"@type": "Product", "name": "Maple Leaf 1oz",
	     "offers": {"@type": "Offer", "price": 2480.5, "priceCurrency": "EUR"}}
	  ]
	}
	</script></head></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	if res.Products[0].Name != "Maple Leaf 1oz" {
		t.Errorf("name = %q", res.Products[0].Name)
	}
}

func TestExtractJSONLDOfferWithItemOffered(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@type": "Offer",
	  "price": "2399.00",
	  "priceCurrency": "EUR",
	  "itemOffered": {"@type": "Product", "name": "Krugerrand 1 Unze"}
	}
	</script></head></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	p := res.Products[0]
	if p.Name != "Krugerrand 1 Unze" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Offers) != 1 || p.Offers[0].Price == nil || *p.Offers[0].Price != 2399 {
		t.Fatalf("carried offer missing: %+v", p.Offers)
	}
}

func TestExtractJSONLDRangeOnlyOffer(t *testing.T) {
	// Range-only offer without an AggregateOffer tag: lowPrice stands in
	// for the missing flat price.
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@type": "Product",
	  "name": "Goldbarren 100g",
	  "offers": {"lowPrice": "7450.00", "highPrice": "7600.00", "priceCurrency": "EUR"}
	}
	</script></head></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	best := BestOffer(&res.Products[0])
	if best == nil {
		t.Fatal("range-only offer not resolvable")
	}
	if best.Price != 7450 || best.Currency != "EUR" {
		t.Errorf("resolved offer = %+v", best)
	}

	// highPrice alone still yields a price.
	page = []byte(`<html><head><script type="application/ld+json">
	{"@type": "Product", "name": "Goldbarren 100g",
	 "offers": {"highPrice": "7600.00", "priceCurrency": "EUR"}}
	</script></head></html>`)
	res = Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	if best := BestOffer(&res.Products[0]); best == nil || best.Price != 7600 {
		t.Errorf("highPrice fallback: got %+v", best)
	}
}

func TestExtractJSONLDAggregateOffer(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@type": "Product",
	  "name": "Goldbarren 100 g",
	  "offers": {
	    "@type": "AggregateOffer",
	    "lowPrice": "7400.00",
	    "highPrice": "7600.00",
	    "priceCurrency": "EUR"
	  }
	}
	</script></head></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	agg := res.Products[0].Aggregate
	if agg == nil {
		t.Fatal("aggregate offer not extracted")
	}
	if agg.LowPrice == nil || *agg.LowPrice != 7400 {
		t.Errorf("lowPrice = %v", agg.LowPrice)
	}
	if agg.Currency != "EUR" {
		t.Errorf("currency = %q", agg.Currency)
	}
}

func TestExtractItemListLinks(t *testing.T) {
	page := []byte(`<html><head><script type="application/ld+json">
	{
	  "@type": "ItemList",
	  "itemListElement": [
	    {"@type": "ListItem", "position": 1, "url": "https://shop.example/gold/a"},
	    {"@type": "ListItem", "position": 2, "item": {"@id": "https://shop.example/gold/b"}},
	    {"@type": "ListItem", "position": 3, "url": "https://shop.example/gold/c"},
	    {"@type": "ListItem", "position": 4, "url": "https://shop.example/gold/d"},
	    {"@type": "ListItem", "position": 5, "url": "https://shop.example/gold/e"},
	    {"@type": "ListItem", "position": 6, "url": "https://shop.example/gold/f"},
	    {"@type": "ListItem", "position": 7, "url": "https://shop.example/gold/g"},
	    {"@type": "ListItem", "position": 8, "url": "https://shop.example/gold/h"},
	    {"@type": "ListItem", "position": 9, "url": "https://shop.example/gold/i"},
	    {"@type": "ListItem", "position": 10, "url": "https://shop.example/gold/j"}
	  ]
	}
	</script></head></html>`)

	res := Extract(page)
	if len(res.Products) != 0 {
		t.Errorf("products = %d, want 0", len(res.Products))
	}
	if len(res.Links) != listFanout {
		t.Fatalf("links = %d, want %d", len(res.Links), listFanout)
	}
	if res.Links[0] != "https://shop.example/gold/a" {
		t.Errorf("links[0] = %q", res.Links[0])
	}
	if res.Links[1] != "https://shop.example/gold/b" {
		t.Errorf("links[1] = %q (item @id not read)", res.Links[1])
	}
}

func TestExtractMicrodata(t *testing.T) {
	page := []byte(`<html><body>
	<div itemscope itemtype="https://schema.org/Product">
	  <span itemprop="name">Maple Leaf 1 oz Gold</span>
	  <div itemprop="offers" itemscope itemtype="https://schema.org/Offer">
	    <meta itemprop="price" content="2465.30">
	    <meta itemprop="priceCurrency" content="EUR">
	    <link itemprop="availability" href="https://schema.org/InStock">
	  </div>
	</div>
	</body></html>`)

	res := Extract(page)
	var md []int
	for i, p := range res.Products {
		if p.Strategy == StrategyMicrodata {
			md = append(md, i)
		}
	}
	if len(md) != 1 {
		t.Fatalf("microdata products = %d, want 1", len(md))
	}
	p := res.Products[md[0]]
	if p.Name != "Maple Leaf 1 oz Gold" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Offers) != 1 {
		t.Fatalf("offers = %d", len(p.Offers))
	}
	if p.Offers[0].Price == nil || *p.Offers[0].Price != 2465.30 {
		t.Errorf("price = %v", p.Offers[0].Price)
	}
	if p.Offers[0].Availability != "InStock" {
		t.Errorf("availability = %q", p.Offers[0].Availability)
	}
	if res.Hits[StrategyMicrodata] != 1 {
		t.Errorf("microdata hits = %d", res.Hits[StrategyMicrodata])
	}
}

func TestExtractRDFa(t *testing.T) {
	page := []byte(`<html><body>
	<div vocab="https://schema.org/" typeof="Product">
	  <span property="name">Krugerrand 1oz</span>
	  <span property="price" content="2440.00">2.440,00</span>
	  <span property="priceCurrency" content="EUR">EUR</span>
	</div>
	</body></html>`)

	res := Extract(page)
	var found bool
	for _, p := range res.Products {
		if p.Strategy == StrategyRDFa {
			found = true
			if p.Name != "Krugerrand 1oz" {
				t.Errorf("name = %q", p.Name)
			}
			if len(p.Offers) != 1 || p.Offers[0].Price == nil || *p.Offers[0].Price != 2440 {
				t.Errorf("offer = %+v", p.Offers)
			}
		}
	}
	if !found {
		t.Fatal("no rdfa product extracted")
	}
}

func TestExtractMetaTags(t *testing.T) {
	page := []byte(`<html><head>
	<title>Goldbarren 100g kaufen</title>
	<meta property="og:title" content="Goldbarren 100g">
	<meta property="product:price:amount" content="7399.00">
	<meta property="product:price:currency" content="EUR">
	</head><body></body></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	p := res.Products[0]
	if p.Strategy != StrategyMeta {
		t.Errorf("strategy = %q", p.Strategy)
	}
	if p.Name != "Goldbarren 100g" {
		t.Errorf("name = %q", p.Name)
	}
	if len(p.Offers) != 1 || p.Offers[0].Price == nil || *p.Offers[0].Price != 7399 {
		t.Errorf("offer = %+v", p.Offers)
	}
}

func TestExtractInlinePrice(t *testing.T) {
	page := []byte(`<html><head><title>1 Unze Maple Leaf</title></head><body>
	<span itemprop="price" content="2470.00">2.470,00 &euro;</span>
	<span itemprop="priceCurrency" content="EUR"></span>
	</body></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	p := res.Products[0]
	if p.Strategy != StrategyInline {
		t.Errorf("strategy = %q", p.Strategy)
	}
	if p.Name != "1 Unze Maple Leaf" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Offers[0].Price == nil || *p.Offers[0].Price != 2470 {
		t.Errorf("price = %v", p.Offers[0].Price)
	}
}

func TestExtractScriptScanOnlyAsLastResort(t *testing.T) {
	page := []byte(`<html><head><title>Goldbarren 100g</title>
	<script>window.__STATE__ = {"product":{"price":"7410.50","priceCurrency":"EUR"}};</script>
	</head><body></body></html>`)

	res := Extract(page)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want 1", len(res.Products))
	}
	if p := res.Products[0]; p.Offers[0].Price == nil || *p.Offers[0].Price != 7410.50 {
		t.Errorf("price = %v", p.Offers[0].Price)
	}

	// With a structured product present, the raw scan must stay quiet.
	withLD := []byte(`<html><head><title>X</title>
	<script type="application/ld+json">{"@type":"Product","name":"A","offers":{"price":"1","priceCurrency":"EUR"}}</script>
	<script>var s = {"price":"9999","currency":"USD"};</script>
	</head></html>`)
	res = Extract(withLD)
	if len(res.Products) != 1 {
		t.Fatalf("products = %d, want only the json-ld one", len(res.Products))
	}
	if res.Products[0].Strategy != StrategyJSONLD {
		t.Errorf("strategy = %q", res.Products[0].Strategy)
	}
}

func TestExtractMalformedInput(t *testing.T) {
	for _, body := range [][]byte{
		nil,
		[]byte(""),
		[]byte(`<html><script type="application/ld+json">{not json</script></html>`),
	} {
		res := Extract(body)
		if len(res.Products) != 0 || len(res.Links) != 0 {
			t.Errorf("body %q: got %d products, %d links", body, len(res.Products), len(res.Links))
		}
	}
}
