package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists cycle diagnostics to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (dashboards read while
	// the radar writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			window_start  TEXT,
			rows          INTEGER,
			gold_valid    INTEGER,
			gold_backfill INTEGER,
			gold_sources  INTEGER,
			spot_price    REAL,
			spot_source   TEXT,
			notes         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_ts ON snapshot_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS catalog_cycles (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp     INTEGER NOT NULL,
			eurusd        REAL,
			domains       INTEGER,
			pages         INTEGER,
			pages_blocked INTEGER,
			products      INTEGER,
			offers        INTEGER,
			items         INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_catalog_ts ON catalog_cycles(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordSnapshot(cycle *SnapshotCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var spotPrice sql.NullFloat64
	var spotSource string
	if cycle.Quote != nil {
		spotSource = cycle.Quote.Source
		if cycle.Quote.Price != nil {
			spotPrice = sql.NullFloat64{Float64: *cycle.Quote.Price, Valid: true}
		}
	}
	var notes string
	for i, n := range cycle.Diag.Notes {
		if i > 0 {
			notes += "; "
		}
		notes += n
	}

	_, err := r.db.Exec(`INSERT INTO snapshot_cycles
		(timestamp, window_start, rows, gold_valid, gold_backfill, gold_sources, spot_price, spot_source, notes)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), cycle.Diag.Start, cycle.Diag.Rows,
		cycle.Diag.GoldValid, cycle.Diag.GoldBackfill, len(cycle.Diag.GoldSources),
		spotPrice, spotSource, notes,
	)
	return err
}

func (r *SQLiteRecorder) RecordCatalog(cycle *CatalogCycle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := cycle.Diag.Totals
	_, err := r.db.Exec(`INSERT INTO catalog_cycles
		(timestamp, eurusd, domains, pages, pages_blocked, products, offers, items)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), cycle.EURUSD,
		t.Domains, t.Pages, t.PagesBlocked, t.Products, t.Offers, t.Items,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
