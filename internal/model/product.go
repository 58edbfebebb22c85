package model

// Weight is a structured weight declaration from a product page. Unit is the
// lower-cased unit code or text as published; it is empty when the source gave
// a bare number (taken as grams downstream).
type Weight struct {
	Value float64
	Unit  string
}

// PriceSpec is a nested price specification sub-object, consulted when the
// flat price/currency fields of an offer are absent.
type PriceSpec struct {
	Price    *float64
	Currency string
}

// Offer is a single offer attached to a product node.
type Offer struct {
	Price            *float64
	Currency         string
	Availability     string
	ShippingIncluded *bool
	Spec             *PriceSpec
}

// AggregateOffer is a low/high price range covering several offers.
type AggregateOffer struct {
	LowPrice  *float64
	HighPrice *float64
	Currency  string
	Spec      *PriceSpec
	Offers    []Offer
}

// ProductNode is the uniform shape every extraction strategy produces.
// Exactly one of Offers / Aggregate may be empty; the normalizer treats all
// origins the same.
type ProductNode struct {
	Name        string
	Description string
	Weight      *Weight
	Offers      []Offer
	Aggregate   *AggregateOffer
	Strategy    string
}

// ItemPrice is the settlement-currency price of a catalog item.
type ItemPrice struct {
	Value            float64 `json:"value"`
	Currency         string  `json:"currency"`
	ShippingIncluded *bool   `json:"shipping_included"`
}

// CatalogItem is a normalized, classified vendor product.
type CatalogItem struct {
	Product      string    `json:"product"`
	Name         string    `json:"name"`
	WeightG      *float64  `json:"weight_g"`
	Price        ItemPrice `json:"price"`
	Availability string    `json:"availability"`
	CheckedAt    string    `json:"checked_at"`
	Source       string    `json:"source"`
	URL          string    `json:"url"`
	Premium      *float64  `json:"premium"`
}

// Vendor is one whitelisted domain's catalog entry.
type Vendor struct {
	Domain string        `json:"domain"`
	Trust  int           `json:"trust"`
	Items  []CatalogItem `json:"items"`
}

// VendorCatalog is the vendor catalog document written once per cycle.
type VendorCatalog struct {
	Generated   string             `json:"generated"`
	FX          map[string]float64 `json:"fx"`
	Products    []string           `json:"products"`
	Vendors     []*Vendor          `json:"vendors"`
	Diagnostics *CatalogDiag       `json:"diagnostics"`
}
