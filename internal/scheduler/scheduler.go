package scheduler

import (
	"fmt"
	"log"

	"goldradar/internal/output"
	"goldradar/internal/recorder"
	"goldradar/internal/snapshot"
	"goldradar/internal/spot"
	"goldradar/internal/vendors"

	"github.com/robfig/cron/v3"
)

// Scheduler manages the periodic snapshot and catalog tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Generator *snapshot.Generator
	Builder   *vendors.Builder
	Spot      *spot.Resolver
	Writer    *output.Writer
	Recorder  recorder.Recorder
	Domains   []vendors.DomainConfig
}

// NewScheduler creates a new Scheduler.
func NewScheduler(gen *snapshot.Generator, builder *vendors.Builder, resolver *spot.Resolver,
	w *output.Writer, rec recorder.Recorder, domains []vendors.DomainConfig) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Generator: gen,
		Builder:   builder,
		Spot:      resolver,
		Writer:    w,
		Recorder:  rec,
		Domains:   domains,
	}
}

// RegisterAll registers the snapshot and catalog tasks.
func (s *Scheduler) RegisterAll(snapshotCron, catalogCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.snapshotTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	if _, err := s.Cron.AddFunc(catalogCron, s.catalogTask); err != nil {
		return fmt.Errorf("register catalog task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunSnapshotNow executes the snapshot task immediately (manual trigger /
// RUN_ON_START).
func (s *Scheduler) RunSnapshotNow() {
	s.snapshotTask()
}

// RunCatalogNow executes the catalog task immediately.
func (s *Scheduler) RunCatalogNow() {
	s.catalogTask()
}

func (s *Scheduler) snapshotTask() {
	log.Println("[INFO] running snapshot task")
	res := s.Generator.Run()

	if err := s.Writer.WriteHistory(res.Rows); err != nil {
		log.Printf("[ERROR] write history: %v", err)
	}
	if err := s.Writer.WriteSpot(res.Quote); err != nil {
		log.Printf("[ERROR] write spot: %v", err)
	}
	if err := s.Writer.WriteDiag(res.Diag); err != nil {
		log.Printf("[ERROR] write diag: %v", err)
	}
	if err := s.Recorder.RecordSnapshot(&recorder.SnapshotCycle{Diag: res.Diag, Quote: res.Quote}); err != nil {
		log.Printf("[ERROR] record snapshot: %v", err)
	}
}

func (s *Scheduler) catalogTask() {
	log.Println("[INFO] running catalog task")
	quote := s.Spot.Resolve()
	catalog := s.Builder.Build(s.Domains, quote)

	if err := s.Writer.WriteCatalog(catalog); err != nil {
		log.Printf("[ERROR] write catalog: %v", err)
	}
	if err := s.Recorder.RecordCatalog(&recorder.CatalogCycle{
		Diag:   catalog.Diagnostics,
		EURUSD: catalog.FX["EURUSD"],
	}); err != nil {
		log.Printf("[ERROR] record catalog: %v", err)
	}
}
