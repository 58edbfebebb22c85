package fx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log"
	"strconv"
	"time"

	"goldradar/internal/fetch"
)

const defaultECBDailyURL = "https://www.ecb.europa.eu/stats/eurofxref/eurofxref-daily.xml"

// FallbackEURUSD is used when the ECB reference feed is unreachable.
const FallbackEURUSD = 1.08

// Source reads the EURUSD reference rate from the ECB daily feed.
type Source struct {
	Client *fetch.Client
	URL    string
}

// NewSource creates an FX source against the default ECB feed.
func NewSource(client *fetch.Client) *Source {
	return &Source{Client: client, URL: defaultECBDailyURL}
}

// EURUSD returns USD per EUR, falling back to a fixed constant when the feed
// is unreachable or malformed. It never fails.
func (s *Source) EURUSD() float64 {
	raw, err := s.Client.FetchRetry(s.URL, 2, 500*time.Millisecond)
	if err != nil {
		log.Printf("[WARN] ecb eurusd: %v, using fallback %.2f", err, FallbackEURUSD)
		return FallbackEURUSD
	}
	rate, err := ParseEuroFxRef(raw)
	if err != nil {
		log.Printf("[WARN] ecb eurusd: %v, using fallback %.2f", err, FallbackEURUSD)
		return FallbackEURUSD
	}
	return rate
}

// ParseEuroFxRef extracts the USD rate from an ECB eurofxref XML document
// (Cube elements with currency/rate attributes).
func ParseEuroFxRef(raw []byte) (float64, error) {
	dec := xml.NewDecoder(bytes.NewReader(raw))
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, fmt.Errorf("eurofxref: no USD rate found")
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Cube" {
			continue
		}
		var currency, rate string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "currency":
				currency = a.Value
			case "rate":
				rate = a.Value
			}
		}
		if currency != "USD" {
			continue
		}
		v, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return 0, fmt.Errorf("eurofxref: bad USD rate %q: %w", rate, err)
		}
		return v, nil
	}
}
