package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSnapshot(_ *SnapshotCycle) error { return nil }
func (n *NoopRecorder) RecordCatalog(_ *CatalogCycle) error   { return nil }
func (n *NoopRecorder) Close() error                          { return nil }
