package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"goldradar/internal/model"
)

// Document file names, one per cycle artifact.
const (
	HistoryFile = "history.json"
	SpotFile    = "spot.json"
	DiagFile    = "diag.json"
	CatalogFile = "vendors_auto.json"
)

// Writer persists the cycle documents into one data directory. Writes are
// atomic (temp file + rename) so a crashed cycle never leaves a truncated
// document behind.
type Writer struct {
	Dir string
}

// NewWriter creates a writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir}
}

// WriteHistory writes the reconciled history document. Each row is flattened
// into one object carrying the timestamp next to the per-series values.
func (w *Writer) WriteHistory(rows []model.HistoryRow) error {
	flat := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]any, len(row.Values)+1)
		m["timestamp"] = row.Timestamp
		for id, v := range row.Values {
			m[id] = v
		}
		flat = append(flat, m)
	}
	return w.write(HistoryFile, map[string]any{"history": flat})
}

type spotDoc struct {
	Timestamp   string   `json:"timestamp"`
	XAUUSD      *float64 `json:"XAUUSD"`
	Source      string   `json:"source"`
	SpotDate    *string  `json:"spot_date"`
	USDPerOunce *float64 `json:"usd_per_ounce"`
	USDPerGram  *float64 `json:"usd_per_gram"`
	USDPerKg    *float64 `json:"usd_per_kg"`
}

// WriteSpot writes the spot quote document.
func (w *Writer) WriteSpot(q *model.SpotQuote) error {
	return w.write(SpotFile, spotDoc{
		Timestamp:   q.Timestamp.UTC().Format(time.RFC3339),
		XAUUSD:      q.Price,
		Source:      q.Source,
		SpotDate:    q.SpotDate,
		USDPerOunce: q.USDPerOunce,
		USDPerGram:  q.USDPerGram,
		USDPerKg:    q.USDPerKg,
	})
}

// WriteDiag writes the snapshot diagnostics document.
func (w *Writer) WriteDiag(d *model.SnapshotDiag) error {
	return w.write(DiagFile, d)
}

// WriteCatalog writes the vendor catalog document.
func (w *Writer) WriteCatalog(c *model.VendorCatalog) error {
	return w.write(CatalogFile, c)
}

func (w *Writer) write(name string, v any) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", w.Dir, err)
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	raw = append(raw, '\n')

	tmp, err := os.CreateTemp(w.Dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp %s: %w", name, err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.Dir, name)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
