package source

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"goldradar/internal/fetch"
	"goldradar/internal/model"
)

const defaultFredBase = "https://api.stlouisfed.org/fred/series/observations"

// FredClient fetches point-observation series from the FRED API.
type FredClient struct {
	Client  *fetch.Client
	APIKey  string
	BaseURL string
}

// NewFredClient creates a FRED client. An empty API key is allowed; every
// fetch then degrades to an empty series instead of failing the cycle.
func NewFredClient(client *fetch.Client, apiKey string) *FredClient {
	return &FredClient{Client: client, APIKey: apiKey, BaseURL: defaultFredBase}
}

// FetchSeries returns the daily observations of one series starting at
// startDate (YYYY-MM-DD). Any source-level failure yields an empty series.
func (f *FredClient) FetchSeries(seriesID, startDate string) model.TimeSeries {
	if f.APIKey == "" {
		return model.TimeSeries{}
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", f.APIKey)
	params.Set("file_type", "json")
	params.Set("observation_start", startDate)
	endpoint := f.BaseURL + "?" + params.Encode()

	var ts model.TimeSeries
	_, err := f.Client.FetchRetryFunc(endpoint, 3, 800*time.Millisecond, func(body []byte) error {
		parsed, err := ParseFredJSON(body)
		if err != nil {
			return err
		}
		ts = parsed
		return nil
	})
	if err != nil {
		log.Printf("[WARN] fred %s: %v", seriesID, err)
		return model.TimeSeries{}
	}
	return ts
}

// ParseFredJSON decodes a FRED observations payload. Values that fail numeric
// conversion (FRED reports gaps as ".") map to null; observations without a
// date are dropped; duplicate dates keep the last value.
func ParseFredJSON(raw []byte) (model.TimeSeries, error) {
	var doc struct {
		Observations []struct {
			Date  string `json:"date"`
			Value string `json:"value"`
		} `json:"observations"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode fred json: %w", err)
	}

	out := model.TimeSeries{}
	for _, o := range doc.Observations {
		d := o.Date
		if len(d) > 10 {
			d = d[:10]
		}
		if d == "" {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(o.Value), 64); err == nil {
			out[d] = &v
		} else {
			out[d] = nil
		}
	}
	return out, nil
}
