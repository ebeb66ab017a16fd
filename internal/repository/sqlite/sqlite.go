package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"invclean/internal/domain"

	_ "modernc.org/sqlite"
)

// Repository implements repository.Repository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository. ":memory:" gives a private database
// that lives as long as the repository.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer; also keeps an in-memory database on one connection
	db.SetMaxOpenConns(1)

	repo := &Repository{db: db}
	if err := repo.configure(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return repo, nil
}

func (r *Repository) configure(dbPath string) error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if dbPath != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := r.db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func (r *Repository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL,
		finished_at DATETIME,
		status TEXT NOT NULL,
		error TEXT,
		input_path TEXT NOT NULL,
		input_format TEXT NOT NULL,
		override_path TEXT,
		row_count INTEGER NOT NULL DEFAULT 0,
		rows_flagged INTEGER NOT NULL DEFAULT 0,
		anomalies INTEGER NOT NULL DEFAULT 0,
		overrides INTEGER NOT NULL DEFAULT 0,
		by_kind JSON
	);

	CREATE TABLE IF NOT EXISTS records (
		run_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		source_row_id TEXT NOT NULL,
		ip TEXT,
		ip_version INTEGER,
		subnet_cidr TEXT,
		reverse_ptr TEXT,
		mac TEXT,
		hostname TEXT,
		fqdn TEXT,
		fqdn_consistent INTEGER,
		owner_email TEXT,
		owner_team TEXT,
		site TEXT,
		device_type TEXT NOT NULL,
		device_type_confidence REAL NOT NULL,
		normalization_steps JSON,
		PRIMARY KEY (run_id, source_row_id),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS anomalies (
		run_id TEXT NOT NULL,
		source_row_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		field TEXT NOT NULL,
		issue_kind TEXT NOT NULL,
		original_value TEXT,
		PRIMARY KEY (run_id, source_row_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_anomalies_kind ON anomalies(run_id, issue_kind);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveRun stores a run with its records and report in one transaction
func (r *Repository) SaveRun(ctx context.Context, run *domain.Run, records []domain.FinalizedRecord, report domain.Report) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	args, err := runInsertArgs(run)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, args...); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	recStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (run_id, position, `+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer recStmt.Close()

	for i := range records {
		args, err := recordInsertArgs(&records[i])
		if err != nil {
			return fmt.Errorf("record %s: %w", records[i].SourceRowID, err)
		}
		args = append([]interface{}{run.ID, i}, args...)
		if _, err := recStmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", records[i].SourceRowID, err)
		}
	}

	anomStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomalies (run_id, source_row_id, seq, field, issue_kind, original_value)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare anomaly insert: %w", err)
	}
	defer anomStmt.Close()

	for _, rowID := range report.RowIDs() {
		for seq, e := range report[rowID] {
			if _, err := anomStmt.ExecContext(ctx, run.ID, rowID, seq, e.Field, string(e.IssueKind), e.OriginalValue); err != nil {
				return fmt.Errorf("failed to insert anomaly for %s: %w", rowID, err)
			}
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (r *Repository) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	var row runRow
	err := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id).Scan(row.scanArgs()...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return row.toDomain()
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// GetRecords returns a run's finalized records in input order
func (r *Repository) GetRecords(ctx context.Context, runID string) ([]domain.FinalizedRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM records WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []domain.FinalizedRecord
	for rows.Next() {
		var row recordRow
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}

	return records, nil
}

// GetReport rebuilds a run's anomaly report with entries in their original order
func (r *Repository) GetReport(ctx context.Context, runID string) (domain.Report, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT source_row_id, field, issue_kind, original_value
		FROM anomalies WHERE run_id = ? ORDER BY source_row_id, seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer rows.Close()

	report := make(domain.Report)
	for rows.Next() {
		var (
			rowID, field, kind string
			original           sql.NullString
		)
		if err := rows.Scan(&rowID, &field, &kind, &original); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		report[rowID] = append(report[rowID], domain.ReportEntry{
			Field:         field,
			IssueKind:     domain.IssueKind(kind),
			OriginalValue: nullToString(original),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating anomalies: %w", err)
	}

	return report, nil
}

// DeleteRun removes a run and, by cascade, its records and anomalies
func (r *Repository) DeleteRun(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}
