package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"goldradar/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestWriteHistoryFlattensRows(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	rows := []model.HistoryRow{
		{Timestamp: "2026-08-20", Values: map[string]*float64{
			"GOLDAMGBD228NLBM": fptr(2400.5),
			"DFII10":           nil,
		}},
		{Timestamp: "2026-08-21", Values: map[string]*float64{
			"GOLDAMGBD228NLBM": fptr(2395.0),
			"DFII10":           fptr(1.95),
		}},
	}
	if err := w.WriteHistory(rows); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, HistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		History []map[string]any `json:"history"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.History) != 2 {
		t.Fatalf("rows = %d, want 2", len(doc.History))
	}
	first := doc.History[0]
	if first["timestamp"] != "2026-08-20" {
		t.Errorf("timestamp = %v", first["timestamp"])
	}
	if first["GOLDAMGBD228NLBM"] != 2400.5 {
		t.Errorf("benchmark = %v", first["GOLDAMGBD228NLBM"])
	}
	if v, present := first["DFII10"]; !present || v != nil {
		t.Errorf("null value must serialize as explicit null, got %v (present=%v)", v, present)
	}
}

func TestWriteSpotDocument(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	date := "2026-08-25"
	q := &model.SpotQuote{
		Timestamp:   time.Date(2026, 8, 25, 5, 59, 59, 0, time.UTC),
		Price:       fptr(2402.0),
		Source:      "https://stooq.com/q/l/?s=xauusd",
		SpotDate:    &date,
		USDPerOunce: fptr(2402.0),
		USDPerGram:  fptr(77.226089),
		USDPerKg:    fptr(77226.09),
	}
	if err := w.WriteSpot(q); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, SpotFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["timestamp"] != "2026-08-25T05:59:59Z" {
		t.Errorf("timestamp = %v", doc["timestamp"])
	}
	if doc["XAUUSD"] != 2402.0 {
		t.Errorf("XAUUSD = %v", doc["XAUUSD"])
	}
	if doc["spot_date"] != "2026-08-25" {
		t.Errorf("spot_date = %v", doc["spot_date"])
	}
}

func TestWriteSpotNullQuote(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	q := &model.SpotQuote{Timestamp: time.Date(2026, 8, 25, 6, 0, 0, 0, time.UTC)}
	if err := w.WriteSpot(q); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, SpotFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc["XAUUSD"] != nil {
		t.Errorf("XAUUSD = %v, want null", doc["XAUUSD"])
	}
	if doc["timestamp"] == "" {
		t.Error("null quote must still carry a timestamp")
	}
}

func TestWriteReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir)

	if err := w.WriteDiag(model.NewSnapshotDiag("2006-07-26")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteDiag(model.NewSnapshotDiag("2006-07-27")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("leftover temp files: %v", entries)
	}

	raw, err := os.ReadFile(filepath.Join(dir, DiagFile))
	if err != nil {
		t.Fatal(err)
	}
	var doc model.SnapshotDiag
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Start != "2006-07-27" {
		t.Errorf("start = %q, want latest write", doc.Start)
	}
}
