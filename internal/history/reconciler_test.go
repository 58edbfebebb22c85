package history

import (
	"math"
	"reflect"
	"testing"
	"time"

	"goldradar/internal/model"
)

func f(v float64) *float64 { return &v }

var today = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func twoSourceInput(primary, fallback model.TimeSeries) Input {
	return Input{
		BenchmarkID:       "GOLDAMGBD228NLBM",
		SeriesIDs:         []string{"GOLDAMGBD228NLBM", "DFII10"},
		Primary:           map[string]model.TimeSeries{"GOLDAMGBD228NLBM": primary},
		BenchmarkFallback: fallback,
	}
}

func TestReconcile_BenchmarkPrecedence(t *testing.T) {
	in := twoSourceInput(
		model.TimeSeries{"2024-05-01": f(2300), "2024-05-02": nil, "2024-05-03": f(math.NaN())},
		model.TimeSeries{"2024-05-01": f(9999), "2024-05-02": f(2310), "2024-05-03": f(2320)},
	)
	res := Reconcile(in, today)
	if len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(res.Rows))
	}
	if v := res.Rows[0].Values["GOLDAMGBD228NLBM"]; v == nil || *v != 2300 {
		t.Errorf("primary must win over redundant, got %v", v)
	}
	if v := res.Rows[1].Values["GOLDAMGBD228NLBM"]; v == nil || *v != 2310 {
		t.Errorf("null primary must fall back, got %v", v)
	}
	if v := res.Rows[2].Values["GOLDAMGBD228NLBM"]; v == nil || *v != 2320 {
		t.Errorf("NaN primary must fall back, got %v", v)
	}
	if res.BenchmarkValid != 3 {
		t.Errorf("expected 3 valid benchmark points, got %d", res.BenchmarkValid)
	}
}

func TestReconcile_AuxiliaryNoFallback(t *testing.T) {
	in := Input{
		BenchmarkID: "GOLDAMGBD228NLBM",
		SeriesIDs:   []string{"GOLDAMGBD228NLBM", "DFII10"},
		Primary: map[string]model.TimeSeries{
			"GOLDAMGBD228NLBM": {"2024-05-01": f(2300)},
			"DFII10":           {"2024-05-01": nil},
		},
		BenchmarkFallback: model.TimeSeries{"2024-05-01": f(1)},
	}
	res := Reconcile(in, today)
	if v := res.Rows[0].Values["DFII10"]; v != nil {
		t.Errorf("auxiliary series must not backfill, got %v", v)
	}
}

func TestReconcile_WindowAndOrdering(t *testing.T) {
	in := twoSourceInput(
		model.TimeSeries{"1999-01-01": f(280), "2024-05-02": f(2310), "2024-05-01": f(2300)},
		model.TimeSeries{},
	)
	res := Reconcile(in, today)
	start := WindowStart(today)
	prev := ""
	for _, row := range res.Rows {
		if row.Timestamp < start {
			t.Errorf("row %s outside window (start %s)", row.Timestamp, start)
		}
		if row.Timestamp <= prev {
			t.Errorf("rows not strictly ascending: %s after %s", row.Timestamp, prev)
		}
		prev = row.Timestamp
	}
	if len(res.Rows) != 2 {
		t.Errorf("expected the 1999 row to be dropped, got %d rows", len(res.Rows))
	}
}

func TestReconcile_FutureDatesDropped(t *testing.T) {
	// A quote feed running a calendar day ahead of UTC must not leak a row
	// beyond today.
	in := twoSourceInput(
		model.TimeSeries{"2024-05-31": f(2340), "2024-06-01": f(2345)},
		model.TimeSeries{"2024-06-02": f(2350)},
	)
	res := Reconcile(in, today)
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	for _, row := range res.Rows {
		if row.Timestamp > "2024-06-01" {
			t.Errorf("row %s lies beyond today", row.Timestamp)
		}
	}
	if res.Rows[1].Timestamp != "2024-06-01" {
		t.Errorf("today itself must stay included, got %s", res.Rows[1].Timestamp)
	}
}

func TestReconcile_Idempotent(t *testing.T) {
	in := twoSourceInput(
		model.TimeSeries{"2024-05-01": f(2300), "2024-05-02": nil},
		model.TimeSeries{"2024-05-02": f(2310), "2024-05-03": f(2320)},
	)
	a := Reconcile(in, today)
	b := Reconcile(in, today)
	if !reflect.DeepEqual(a, b) {
		t.Error("reconciling the same input twice must yield identical output")
	}
}

func TestReconcile_EmptySupersetIsValid(t *testing.T) {
	res := Reconcile(twoSourceInput(model.TimeSeries{}, model.TimeSeries{}), today)
	if len(res.Rows) != 0 {
		t.Errorf("expected empty history, got %d rows", len(res.Rows))
	}
	if res.BenchmarkValid != 0 {
		t.Errorf("expected zero valid count, got %d", res.BenchmarkValid)
	}
}
