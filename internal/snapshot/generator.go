package snapshot

import (
	"fmt"
	"log"
	"math"
	"time"

	"goldradar/internal/history"
	"goldradar/internal/model"
	"goldradar/internal/source"
	"goldradar/internal/spot"
)

// BenchmarkSeries is the LBMA gold fixing, the series every cycle is built
// around.
const BenchmarkSeries = "GOLDAMGBD228NLBM"

// AuxSeries are the macro context series fetched alongside the benchmark.
// They have no redundant source and stay null on gaps.
var AuxSeries = []string{
	"DFII10",
	"DTWEXBGS",
	"VIXCLS",
	"DCOILBRENTEU",
	"T10YIE",
	"BAMLH0A0HYM2",
	"NAPM",
	"RECPROUSM156N",
	"T10Y2Y",
}

// Generator produces one market snapshot: the reconciled history, the spot
// quote, and the cycle diagnostics.
type Generator struct {
	Fred  *source.FredClient
	Stooq *source.StooqClient
	Spot  *spot.Resolver
	Now   func() time.Time
}

// NewGenerator wires a generator over the given source clients.
func NewGenerator(fred *source.FredClient, stooq *source.StooqClient, resolver *spot.Resolver) *Generator {
	return &Generator{Fred: fred, Stooq: stooq, Spot: resolver, Now: time.Now}
}

// Result is the outcome of one snapshot cycle. Every field is always
// populated; total source failure shows up as empty rows and a null quote,
// never as a missing document.
type Result struct {
	Rows  []model.HistoryRow
	Quote *model.SpotQuote
	Diag  *model.SnapshotDiag
}

// Run executes one full snapshot cycle. Sources degrade independently; the
// diagnostics record what each one actually delivered.
func (g *Generator) Run() *Result {
	today := g.Now().UTC()
	start := history.WindowStart(today)
	diag := model.NewSnapshotDiag(start)

	seriesIDs := append([]string{BenchmarkSeries}, AuxSeries...)
	primary := make(map[string]model.TimeSeries, len(seriesIDs))
	for _, id := range seriesIDs {
		ts := g.Fred.FetchSeries(id, start)
		primary[id] = ts
		diag.SeriesCounts[id] = len(ts)
	}
	if len(primary[BenchmarkSeries]) == 0 {
		diag.Notes = append(diag.Notes, "benchmark primary empty")
	}

	fallback, mirrors := g.Stooq.FetchGoldHistory()
	diag.GoldSources = mirrors
	if len(mirrors) == 0 {
		diag.Notes = append(diag.Notes, "no gold history mirror reachable")
	}

	rec := history.Reconcile(history.Input{
		BenchmarkID:       BenchmarkSeries,
		SeriesIDs:         seriesIDs,
		Primary:           primary,
		BenchmarkFallback: fallback,
	}, today)

	diag.Rows = len(rec.Rows)
	diag.GoldValid = rec.BenchmarkValid
	diag.GoldBackfill = countBackfilled(rec.Rows, primary[BenchmarkSeries])

	quote := g.Spot.Resolve()
	if quote.Price == nil {
		diag.Notes = append(diag.Notes, "spot unavailable")
	}

	log.Printf("[INFO] snapshot: %d rows, %d benchmark valid (%d backfilled), spot %s",
		diag.Rows, diag.GoldValid, diag.GoldBackfill, describeQuote(quote))

	return &Result{Rows: rec.Rows, Quote: quote, Diag: diag}
}

// countBackfilled counts rows whose benchmark value exists only because the
// redundant source supplied it.
func countBackfilled(rows []model.HistoryRow, primary model.TimeSeries) int {
	n := 0
	for _, row := range rows {
		if row.Values[BenchmarkSeries] == nil {
			continue
		}
		pv, ok := primary[row.Timestamp]
		if !ok || pv == nil || math.IsNaN(*pv) {
			n++
		}
	}
	return n
}

func describeQuote(q *model.SpotQuote) string {
	if q.Price == nil {
		return "null"
	}
	return fmt.Sprintf("%.2f (%s)", *q.Price, q.Source)
}
