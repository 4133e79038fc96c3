// Package history is an optional MySQL ledger of make_base and
// process_requests runs: when a database is reachable, every run is
// recorded for later audit (what catalogue was built, how many stat
// requests a batch answered, how long it took). Absence of a reachable
// database is not an error anywhere else in this program — every
// caller treats a nil *Store the same as a disabled ledger.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Store wraps a MySQL connection pool recording run history. The zero
// value is not usable; construct one with Open.
type Store struct {
	db *sql.DB
}

// Open connects to MySQL using the TRANSITCAT_DB_* environment
// variables and ensures the catalogue_runs table exists. It returns (nil, nil) — not
// an error — when neither TRANSITCAT_DB_HOST nor TRANSITCAT_DB_NAME is
// set, since a history ledger is an optional feature: a bare
// make_base/process_requests run should work with zero configuration.
func Open(ctx context.Context) (*Store, error) {
	if os.Getenv("TRANSITCAT_DB_HOST") == "" && os.Getenv("TRANSITCAT_DB_NAME") == "" {
		return nil, nil
	}

	user := os.Getenv("TRANSITCAT_DB_USER")
	pass := os.Getenv("TRANSITCAT_DB_PASS")
	host := os.Getenv("TRANSITCAT_DB_HOST")
	port := os.Getenv("TRANSITCAT_DB_PORT")
	name := os.Getenv("TRANSITCAT_DB_NAME")
	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3306"
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&collation=utf8mb4_unicode_ci&loc=Local&timeout=10s",
		user, pass, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	log.Println("history: connected, catalogue_runs table ready")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	if skip := strings.TrimSpace(os.Getenv("TRANSITCAT_DB_SKIP_SCHEMA")); strings.EqualFold(skip, "true") || skip == "1" {
		log.Printf("history: ensureSchema skipped (TRANSITCAT_DB_SKIP_SCHEMA=%q)", skip)
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS catalogue_runs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			mode VARCHAR(32) NOT NULL,
			snapshot_path VARCHAR(500) NULL,
			stop_count INT NOT NULL DEFAULT 0,
			bus_count INT NOT NULL DEFAULT 0,
			request_count INT NOT NULL DEFAULT 0,
			duration_ms BIGINT NOT NULL DEFAULT 0,
			ran_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;
	`)
	if err != nil {
		return fmt.Errorf("history: ensure schema: %w", err)
	}
	return nil
}

// Run is one recorded make_base or process_requests invocation.
type Run struct {
	Mode         string // "make_base" or "process_requests"
	SnapshotPath string
	StopCount    int
	BusCount     int
	RequestCount int
	Duration     time.Duration
}

// Record inserts r into the ledger. A nil Store is a documented no-op,
// so callers do not need to branch on whether history is enabled.
func (s *Store) Record(ctx context.Context, r Run) error {
	if s == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalogue_runs (mode, snapshot_path, stop_count, bus_count, request_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.Mode, r.SnapshotPath, r.StopCount, r.BusCount, r.RequestCount, r.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("history: record: %w", err)
	}
	return nil
}

// Recent returns the most recent limit runs, newest first. A nil Store
// returns an empty slice rather than an error.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if s == nil {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT mode, snapshot_path, stop_count, bus_count, request_count, duration_ms
		FROM catalogue_runs ORDER BY ran_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var snapshotPath sql.NullString
		var durationMs int64
		if err := rows.Scan(&r.Mode, &snapshotPath, &r.StopCount, &r.BusCount, &r.RequestCount, &durationMs); err != nil {
			return nil, fmt.Errorf("history: recent: scan: %w", err)
		}
		r.SnapshotPath = snapshotPath.String
		r.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent: %w", err)
	}
	return runs, nil
}

// Close releases the underlying connection pool. A nil Store is a
// no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}
