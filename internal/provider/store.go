// Package provider stores imported signal samples in SQLite and serves
// them to the chart engine.
package provider

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/trendview/internal/monitoring"
	"github.com/banshee-data/trendview/internal/timeutil"
)

// ErrUnknownSignal is returned for signals that were never imported.
var ErrUnknownSignal = errors.New("unknown signal")

// Series is one signal's samples as read from a source file. NaN values
// are stored as NULL and read back as NaN.
type Series struct {
	Name   string
	Unit   string
	TS     []float64 // unix seconds
	Values []float64
}

// Batch describes one import.
type Batch struct {
	ID         uuid.UUID
	Source     string
	ImportedAt time.Time
	Signals    int
	Samples    int
}

// Store is a SQLite-backed sample store.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the store at path and migrates its
// schema to the latest version.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Store{db: db, clock: timeutil.RealClock{}}
	if err := s.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock replaces the clock used to stamp imports.
func (s *Store) SetClock(c timeutil.Clock) {
	s.clock = c
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Import stores series in a single transaction and returns the batch id.
// A signal that already exists has its unit and samples replaced.
func (s *Store) Import(source string, series []Series) (uuid.UUID, error) {
	for _, sr := range series {
		if sr.Name == "" {
			return uuid.Nil, fmt.Errorf("import %s: series with empty name", source)
		}
		if len(sr.TS) != len(sr.Values) {
			return uuid.Nil, fmt.Errorf("import %s: %s has %d timestamps but %d values", source, sr.Name, len(sr.TS), len(sr.Values))
		}
	}

	id := uuid.New()
	tx, err := s.db.Begin()
	if err != nil {
		return uuid.Nil, fmt.Errorf("import %s: %w", source, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO imports (import_id, source, imported_at) VALUES (?, ?, ?)`,
		id.String(), source, s.clock.Now().UnixNano(),
	); err != nil {
		return uuid.Nil, fmt.Errorf("import %s: record batch: %w", source, err)
	}

	upsert, err := tx.Prepare(`
		INSERT INTO signals (name, unit, import_id) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET unit = excluded.unit, import_id = excluded.import_id`)
	if err != nil {
		return uuid.Nil, err
	}
	defer upsert.Close()
	insert, err := tx.Prepare(`INSERT OR REPLACE INTO samples (signal, ts, value) VALUES (?, ?, ?)`)
	if err != nil {
		return uuid.Nil, err
	}
	defer insert.Close()

	total := 0
	for _, sr := range series {
		if _, err := upsert.Exec(sr.Name, sr.Unit, id.String()); err != nil {
			return uuid.Nil, fmt.Errorf("import %s: signal %s: %w", source, sr.Name, err)
		}
		if _, err := tx.Exec(`DELETE FROM samples WHERE signal = ?`, sr.Name); err != nil {
			return uuid.Nil, fmt.Errorf("import %s: clear %s: %w", source, sr.Name, err)
		}
		for i, ts := range sr.TS {
			var v interface{}
			if !math.IsNaN(sr.Values[i]) && !math.IsInf(sr.Values[i], 0) {
				v = sr.Values[i]
			}
			if _, err := insert.Exec(sr.Name, ts, v); err != nil {
				return uuid.Nil, fmt.Errorf("import %s: %s sample %d: %w", source, sr.Name, i, err)
			}
		}
		total += len(sr.TS)
	}

	if _, err := tx.Exec(
		`UPDATE imports SET signal_count = ?, sample_count = ? WHERE import_id = ?`,
		len(series), total, id.String(),
	); err != nil {
		return uuid.Nil, fmt.Errorf("import %s: %w", source, err)
	}
	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("import %s: commit: %w", source, err)
	}
	monitoring.Logf("imported %d signals (%d samples) from %s as batch %s", len(series), total, source, id)
	return id, nil
}

// Samples returns the samples of name in timestamp order.
func (s *Store) Samples(name string) (ts, values []float64, err error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM signals WHERE name = ?`, name).Scan(&exists); err != nil {
		return nil, nil, fmt.Errorf("samples %s: %w", name, err)
	}
	if exists == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownSignal, name)
	}

	rows, err := s.db.Query(`SELECT ts, value FROM samples WHERE signal = ? ORDER BY ts`, name)
	if err != nil {
		return nil, nil, fmt.Errorf("samples %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var t float64
		var v sql.NullFloat64
		if err := rows.Scan(&t, &v); err != nil {
			return nil, nil, fmt.Errorf("samples %s: %w", name, err)
		}
		ts = append(ts, t)
		if v.Valid {
			values = append(values, v.Float64)
		} else {
			values = append(values, math.NaN())
		}
	}
	return ts, values, rows.Err()
}

// Unit returns the unit of name, or "" when unknown.
func (s *Store) Unit(name string) string {
	var unit string
	if err := s.db.QueryRow(`SELECT unit FROM signals WHERE name = ?`, name).Scan(&unit); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			monitoring.Logf("unit %s: %v", name, err)
		}
		return ""
	}
	return unit
}

// Signals returns every stored signal name, sorted.
func (s *Store) Signals() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM signals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Batches returns every import, oldest first.
func (s *Store) Batches() ([]Batch, error) {
	rows, err := s.db.Query(`
		SELECT import_id, source, imported_at, signal_count, sample_count
		FROM imports ORDER BY imported_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []Batch
	for rows.Next() {
		var (
			b     Batch
			id    string
			nanos int64
		)
		if err := rows.Scan(&id, &b.Source, &nanos, &b.Signals, &b.Samples); err != nil {
			return nil, err
		}
		if b.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("import %q: %w", id, err)
		}
		b.ImportedAt = time.Unix(0, nanos).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}
