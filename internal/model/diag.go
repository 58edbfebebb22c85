package model

// SnapshotDiag reports what the history/spot cycle actually received.
type SnapshotDiag struct {
	Start        string         `json:"start"`
	SeriesCounts map[string]int `json:"series_counts"`
	GoldSources  []string       `json:"gold_sources"`
	GoldBackfill int            `json:"gold_backfill"`
	GoldValid    int            `json:"gold_valid"`
	Rows         int            `json:"rows"`
	Notes        []string       `json:"notes"`
}

// NewSnapshotDiag returns a diag with all collections initialized so the JSON
// document never contains null where a count or list is expected.
func NewSnapshotDiag(start string) *SnapshotDiag {
	return &SnapshotDiag{
		Start:        start,
		SeriesCounts: make(map[string]int),
		GoldSources:  []string{},
		Notes:        []string{},
	}
}

// CatalogTotals sums the per-domain crawl counters.
type CatalogTotals struct {
	Domains      int `json:"domains"`
	Pages        int `json:"pages"`
	PagesBlocked int `json:"pages_blocked"`
	Products     int `json:"products"`
	Offers       int `json:"offers"`
	Items        int `json:"items"`
}

// DomainDiag is the crawl breakdown for one vendor domain. Pages counts
// successfully parsed pages; PagesBlocked counts bot-wall/consent-wall hits,
// which are never treated as successful empty pages.
type DomainDiag struct {
	Domain       string   `json:"domain"`
	Pages        int      `json:"pages"`
	PagesBlocked int      `json:"pages_blocked"`
	Products     int      `json:"products"`
	Offers       int      `json:"offers"`
	Items        int      `json:"items"`
	Notes        []string `json:"notes"`
}

// CatalogDiag is the diagnostics block of the vendor catalog document.
// Strategies tallies extraction hits by method, independent of whether the
// node survived normalization.
type CatalogDiag struct {
	Totals     CatalogTotals  `json:"totals"`
	Strategies map[string]int `json:"strategies"`
	Domains    []*DomainDiag  `json:"domains"`
}

// NewCatalogDiag returns an empty catalog diag with initialized collections.
func NewCatalogDiag() *CatalogDiag {
	return &CatalogDiag{
		Strategies: make(map[string]int),
		Domains:    []*DomainDiag{},
	}
}
