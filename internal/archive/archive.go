// Package archive keeps finished runs, with their workbook, in SQLite.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"sales-auditor-go/internal/types"
)

var ErrNotFound = errors.New("archive: run not found")

// Store wraps SQLite access for archived runs.
type Store struct {
	db *sql.DB
}

// Entry is one run as written to the archive.
type Entry struct {
	ID          string
	CreatedAt   time.Time
	FileCount   int
	Report      types.Report
	Diagnostics []string
	Workbook    []byte
}

// Summary is an archived run without its payloads.
type Summary struct {
	ID          string    `json:"run_id"`
	CreatedAt   time.Time `json:"created_at"`
	FileCount   int       `json:"file_count"`
	RecordCount int       `json:"record_count"`
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer at a time.
	db.SetMaxOpenConns(1)
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER,
			updated_at INTEGER,
			file_count INTEGER,
			record_count INTEGER,
			diagnostics_json TEXT,
			report_json TEXT,
			workbook BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts e, replacing the payload of an existing run with the same id.
// The original creation time is kept on replace.
func (s *Store) Save(ctx context.Context, e Entry) error {
	reportJSON, err := json.Marshal(e.Report)
	if err != nil {
		return fmt.Errorf("archive: encode report: %w", err)
	}
	diagJSON, err := json.Marshal(e.Diagnostics)
	if err != nil {
		return fmt.Errorf("archive: encode diagnostics: %w", err)
	}
	now := time.Now().UTC().UnixNano()
	created := e.CreatedAt.UTC().UnixNano()
	if e.CreatedAt.IsZero() {
		created = now
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO runs(id, created_at, updated_at, file_count, record_count, diagnostics_json, report_json, workbook)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at=excluded.updated_at, file_count=excluded.file_count, record_count=excluded.record_count,
			diagnostics_json=excluded.diagnostics_json, report_json=excluded.report_json, workbook=excluded.workbook`,
		e.ID, created, now, e.FileCount, len(e.Report.Records), string(diagJSON), string(reportJSON), e.Workbook)
	if err != nil {
		return fmt.Errorf("archive: save %s: %w", e.ID, err)
	}
	return nil
}

// List returns the newest runs first.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, file_count, record_count FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum     Summary
			created int64
		)
		if err := rows.Scan(&sum.ID, &created, &sum.FileCount, &sum.RecordCount); err != nil {
			return nil, err
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Report returns the stored report and diagnostics of run id.
func (s *Store) Report(ctx context.Context, id string) (types.Report, []string, error) {
	var reportJSON, diagJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json, diagnostics_json FROM runs WHERE id = ?`, id).Scan(&reportJSON, &diagJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Report{}, nil, ErrNotFound
	}
	if err != nil {
		return types.Report{}, nil, err
	}
	var (
		rep  types.Report
		diag []string
	)
	if err := json.Unmarshal([]byte(reportJSON), &rep); err != nil {
		return types.Report{}, nil, fmt.Errorf("archive: decode report: %w", err)
	}
	if err := json.Unmarshal([]byte(diagJSON), &diag); err != nil {
		return types.Report{}, nil, fmt.Errorf("archive: decode diagnostics: %w", err)
	}
	return rep, diag, nil
}

// Workbook returns the xlsx bytes stored for run id.
func (s *Store) Workbook(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT workbook FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return data, err
}
