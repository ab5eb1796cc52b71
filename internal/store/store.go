// Package store keeps a history of analysed proposals in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dlwalsh/wa2019/pkg/apportion"
)

//go:embed schema.sql
var schema string

// ErrRunNotFound is returned when a run id is not in the history.
var ErrRunNotFound = errors.New("run not found")

// DB wraps a SQLite database connection.
type DB struct {
	*sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at dsn and applies the
// schema. Use ":memory:" for a throwaway history.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return &DB{DB: db, now: time.Now}, nil
}

// RunSummary is one row of the history.
type RunSummary struct {
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Policy     string           `json:"policy"`
	Total      apportion.Totals `json:"total"`
	Missing    int              `json:"missing"`
	Duplicates int              `json:"duplicates"`
	Valid      bool             `json:"valid"`
}

// DistrictRow is the stored figures for one district of a run.
type DistrictRow struct {
	Name       string               `json:"name"`
	Current    int                  `json:"current"`
	Area       float64              `json:"area"`
	AreaSource apportion.AreaSource `json:"area_source"`
	Phantom    float64              `json:"phantom"`
	Total      float64              `json:"total"`
	UnitCount  int                  `json:"unit_count"`
	Issues     int                  `json:"issues"`
}

// SaveRun stores the run and its districts and returns the new run id.
func (db *DB) SaveRun(ctx context.Context, run *apportion.Run) (string, error) {
	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	valid := run.Report == nil || run.Report.Valid
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, policy, current, area, phantom, total, missing, duplicates, valid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		db.now().UTC(),
		run.Policy,
		run.Total.Current,
		run.Total.Area,
		run.Total.Phantom,
		run.Total.Total,
		len(run.Coverage.Missing),
		len(run.Coverage.Duplicates),
		valid,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO districts (run_id, position, name, current, area, area_source, phantom, total, unit_count, issues)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare district insert: %w", err)
	}
	defer stmt.Close()

	for i, d := range run.Districts {
		_, err := stmt.ExecContext(ctx, id, i, d.Name, d.Current, d.Area, string(d.AreaSource),
			d.Phantom, d.Total, d.UnitCount, len(d.Issues))
		if err != nil {
			return "", fmt.Errorf("failed to save district %q: %w", d.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// ListRuns returns up to limit runs, newest first. A limit below one
// returns every run.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit < 1 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, policy, current, area, phantom, total, missing, duplicates, valid
		FROM runs
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Policy,
			&r.Total.Current, &r.Total.Area, &r.Total.Phantom, &r.Total.Total,
			&r.Missing, &r.Duplicates, &r.Valid); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// Districts returns the stored districts of a run in proposal order.
func (db *DB) Districts(ctx context.Context, runID string) ([]DistrictRow, error) {
	var exists int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT name, current, area, area_source, phantom, total, unit_count, issues
		FROM districts
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	defer rows.Close()

	districts := []DistrictRow{}
	for rows.Next() {
		var d DistrictRow
		var source string
		if err := rows.Scan(&d.Name, &d.Current, &d.Area, &source,
			&d.Phantom, &d.Total, &d.UnitCount, &d.Issues); err != nil {
			return nil, fmt.Errorf("failed to scan district: %w", err)
		}
		d.AreaSource = apportion.AreaSource(source)
		districts = append(districts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list districts: %w", err)
	}
	return districts, nil
}
