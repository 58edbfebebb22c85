package history

import (
	"math"
	"sort"
	"time"

	"goldradar/internal/model"
)

// LookbackDays is the reconciliation window: ~20 years plus a buffer.
const LookbackDays = 365*20 + 30

// Input is everything the reconciler consumes for one cycle. Primary holds
// the authoritative series keyed by series id; BenchmarkFallback is the
// redundant backfill consulted only for the benchmark series.
type Input struct {
	BenchmarkID       string
	SeriesIDs         []string
	Primary           map[string]model.TimeSeries
	BenchmarkFallback model.TimeSeries
}

// Result is the reconciled history plus the count of rows that ended up with
// a usable benchmark value.
type Result struct {
	Rows           []model.HistoryRow
	BenchmarkValid int
}

// WindowStart returns the first calendar day inside the lookback window.
func WindowStart(today time.Time) string {
	return today.AddDate(0, 0, -LookbackDays).Format("2006-01-02")
}

// Reconcile merges all sources into one date-indexed history. The date set is
// the union of every source's dates restricted to the lookback window
// (window start through today inclusive; quote feeds can run a calendar day
// ahead of UTC near midnight), rows ascend strictly by date. The benchmark
// takes the primary value, falls back to the redundant source when the
// primary is absent or NaN, and stays null otherwise; auxiliary series take
// the primary value verbatim. An empty superset yields an empty (valid)
// history.
func Reconcile(in Input, today time.Time) Result {
	start := WindowStart(today)
	end := today.Format("2006-01-02")

	dateSet := map[string]struct{}{}
	for d := range in.BenchmarkFallback {
		dateSet[d] = struct{}{}
	}
	for _, ts := range in.Primary {
		for d := range ts {
			dateSet[d] = struct{}{}
		}
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		if d >= start && d <= end {
			dates = append(dates, d)
		}
	}
	sort.Strings(dates)

	res := Result{Rows: make([]model.HistoryRow, 0, len(dates))}
	for _, d := range dates {
		row := model.HistoryRow{Timestamp: d, Values: make(map[string]*float64, len(in.SeriesIDs))}

		g := lookup(in.Primary[in.BenchmarkID], d)
		if g == nil {
			g = lookup(in.BenchmarkFallback, d)
		}
		if g != nil {
			res.BenchmarkValid++
		}
		row.Values[in.BenchmarkID] = g

		for _, sid := range in.SeriesIDs {
			if sid == in.BenchmarkID {
				continue
			}
			row.Values[sid] = lookup(in.Primary[sid], d)
		}
		res.Rows = append(res.Rows, row)
	}
	return res
}

// lookup reads one observation, treating NaN like null.
func lookup(ts model.TimeSeries, d string) *float64 {
	v, ok := ts[d]
	if !ok || v == nil || math.IsNaN(*v) {
		return nil
	}
	return v
}
