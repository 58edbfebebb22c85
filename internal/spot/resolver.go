package spot

import (
	"log"
	"math"
	"time"

	"goldradar/internal/fetch"
	"goldradar/internal/model"
	"goldradar/internal/source"
)

// Resolver fetches the current XAUUSD quote from redundant endpoints.
type Resolver struct {
	Client *fetch.Client
	URLs   []string
	Now    func() time.Time
}

// NewResolver creates a resolver against the default stooq endpoints.
func NewResolver(client *fetch.Client) *Resolver {
	return &Resolver{Client: client, URLs: source.DefaultSpotURLs, Now: time.Now}
}

// Resolve returns the current quote. Total failure yields a null-price quote
// stamped with the current instant instead of an error, so a broken quote
// feed never fails the cycle.
func (r *Resolver) Resolve() *model.SpotQuote {
	var rec *source.SpotRecord
	_, used, err := r.Client.FetchFirstFunc(r.URLs, 3, 600*time.Millisecond, func(body []byte) error {
		parsed, err := source.ParseSpotCSV(body)
		if err != nil {
			return err
		}
		rec = parsed
		return nil
	})
	if err != nil {
		log.Printf("[WARN] spot: %v", err)
		return &model.SpotQuote{Timestamp: r.Now().UTC()}
	}

	q := &model.SpotQuote{Source: used, Timestamp: r.Now().UTC()}
	if ts, err := time.Parse("2006-01-02T15:04:05Z", rec.Date+"T"+rec.Time+"Z"); err == nil {
		q.Timestamp = ts
		d := rec.Date
		q.SpotDate = &d
	}
	if rec.Price != nil {
		q.Price = rec.Price
		perOunce := round(*rec.Price, 4)
		perGram := round(*rec.Price/model.GramsPerTroyOunce, 6)
		perKg := round(*rec.Price/model.GramsPerTroyOunce*1000, 2)
		q.USDPerOunce = &perOunce
		q.USDPerGram = &perGram
		q.USDPerKg = &perKg
	}
	return q
}

func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(v*p) / p
}
