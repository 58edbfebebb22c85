package recorder

import "goldradar/internal/model"

// SnapshotCycle holds everything one snapshot run leaves behind.
type SnapshotCycle struct {
	Diag  *model.SnapshotDiag
	Quote *model.SpotQuote
}

// CatalogCycle holds the outcome of one vendor catalog run.
type CatalogCycle struct {
	Diag   *model.CatalogDiag
	EURUSD float64
}

// Recorder persists per-cycle diagnostics for later analysis.
type Recorder interface {
	RecordSnapshot(cycle *SnapshotCycle) error
	RecordCatalog(cycle *CatalogCycle) error
	Close() error
}
