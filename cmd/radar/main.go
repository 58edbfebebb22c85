package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goldradar/internal/config"
	"goldradar/internal/fetch"
	"goldradar/internal/fx"
	"goldradar/internal/output"
	"goldradar/internal/recorder"
	"goldradar/internal/scheduler"
	"goldradar/internal/snapshot"
	"goldradar/internal/source"
	"goldradar/internal/spot"
	"goldradar/internal/vendors"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] goldradar starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// One fetch client for all sources
	client := fetch.NewClient(30*time.Second, cfg.Proxy)

	// Snapshot pipeline
	fred := source.NewFredClient(client, cfg.Fred.APIKey)
	if cfg.Fred.BaseURL != "" {
		fred.BaseURL = cfg.Fred.BaseURL
	}
	if cfg.Fred.APIKey == "" {
		log.Println("[WARN] no FRED api key, macro series will be empty")
	}
	stooq := source.NewStooqClient(client)
	resolver := spot.NewResolver(client)
	gen := snapshot.NewGenerator(fred, stooq, resolver)

	// Vendor catalog pipeline
	crawler := vendors.NewCrawler(client)
	builder := vendors.NewBuilder(crawler, fx.NewSource(client))
	domains := make([]vendors.DomainConfig, 0, len(cfg.Vendors))
	for _, v := range cfg.Vendors {
		domains = append(domains, vendors.DomainConfig{Domain: v.Domain, Trust: v.Trust, Seeds: v.Seeds})
	}

	writer := output.NewWriter(cfg.Output.DataDir)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Init scheduler
	sched := scheduler.NewScheduler(gen, builder, resolver, writer, rec, domains)
	if err := sched.RegisterAll(cfg.Schedule.SnapshotCron, cfg.Schedule.CatalogCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Optional: run immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing snapshot and catalog now")
		go func() {
			sched.RunSnapshotNow()
			sched.RunCatalogNow()
		}()
	}

	log.Println("[INFO] goldradar is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	log.Println("[INFO] goldradar stopped")
}
