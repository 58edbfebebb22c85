package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"goldradar/internal/fetch"
	"goldradar/internal/model"
)

// Redundant stooq mirrors for the XAUUSD daily history. The adjusted-path
// variants usually serve the same content but fill gaps in the primary dump.
var defaultGoldHistoryURLs = []string{
	"https://stooq.com/q/d/l/?s=xauusd&i=d",
	"https://stooq.pl/q/d/l/?s=xauusd&i=d",
	"https://stooq.com/q/a/?s=xauusd&i=d",
	"https://stooq.pl/q/a/?s=xauusd&i=d",
}

// DefaultSpotURLs are the redundant endpoints for the single current quote.
var DefaultSpotURLs = []string{
	"https://stooq.com/q/l/?s=xauusd&f=sd2t2ohlcv&h&e=csv",
	"https://stooq.pl/q/l/?s=xauusd&f=sd2t2ohlcv&h&e=csv",
}

// StooqClient fetches daily-close CSV data from stooq mirrors.
type StooqClient struct {
	Client      *fetch.Client
	HistoryURLs []string
}

// NewStooqClient creates a stooq client against the default mirror list.
func NewStooqClient(client *fetch.Client) *StooqClient {
	return &StooqClient{Client: client, HistoryURLs: defaultGoldHistoryURLs}
}

// FetchGoldHistory pulls the XAUUSD history from every mirror and merges the
// results first-non-null-wins per date. Returns the merged series plus the
// list of mirrors that actually delivered data.
func (s *StooqClient) FetchGoldHistory() (model.TimeSeries, []string) {
	merged := model.TimeSeries{}
	used := []string{}
	for _, u := range s.HistoryURLs {
		var part model.TimeSeries
		_, err := s.Client.FetchRetryFunc(u, 3, 600*time.Millisecond, func(body []byte) error {
			parsed, err := ParseDailyCSV(body)
			if err != nil {
				return err
			}
			part = parsed
			return nil
		})
		if err != nil {
			log.Printf("[WARN] stooq history %s: %v", u, err)
			continue
		}
		used = append(used, u)
		merged.MergeMissing(part)
	}
	return merged, used
}

// ParseDailyCSV decodes a stooq daily-close dump (Date,Open,High,Low,Close,
// Volume). Rows with fewer than 5 columns or an unparseable date are dropped;
// an unparseable close becomes a null observation. The header row falls out
// of the date check.
func ParseDailyCSV(raw []byte) (model.TimeSeries, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read daily csv: %w", err)
	}

	out := model.TimeSeries{}
	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		d := strings.TrimSpace(row[0])
		if len(d) > 10 {
			d = d[:10]
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			continue
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(row[4]), 64); err == nil {
			out[d] = &v
		} else {
			out[d] = nil
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("daily csv: no usable rows")
	}
	return out, nil
}

// SpotRecord is the single most-recent quote row of a stooq snapshot CSV.
type SpotRecord struct {
	Date  string
	Time  string
	Price *float64
}

// ParseSpotCSV decodes a one-line quote CSV (symbol,date,time,open,high,low,
// close,volume) keyed by its header, case-insensitively. A price that fails
// conversion (stooq reports "N/D" off-hours) stays null; a malformed time
// falls back to midnight.
func ParseSpotCSV(raw []byte) (*SpotRecord, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read spot csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("spot csv: empty")
	}

	idx := map[string]int{}
	for i, h := range rows[0] {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rows[1]) {
			return ""
		}
		return strings.TrimSpace(rows[1][i])
	}

	rec := &SpotRecord{Date: field("date"), Time: field("time")}
	if len(rec.Date) > 10 {
		rec.Date = rec.Date[:10]
	}
	if len(rec.Time) != 8 {
		rec.Time = "00:00:00"
	}
	if v, err := strconv.ParseFloat(field("close"), 64); err == nil {
		rec.Price = &v
	}
	return rec, nil
}
