package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	// Set defaults
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 25
	}
	if cfg.MaxIdleConns == 0 {
		cfg.MaxIdleConns = 5
	}
	if cfg.ConnMaxLifetime == 0 {
		cfg.ConnMaxLifetime = 5 * time.Minute
	}

	return &SQLiteStore{
		path: cfg.Path,
	}, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	// Open database with SQLite-specific connection parameters
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection and set PRAGMAs
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Ensure foreign keys are enabled (connection-level setting)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// BeginTx starts a new transaction
func (s *SQLiteStore) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
}

// CommitTx commits a transaction
func (s *SQLiteStore) CommitTx(tx *sql.Tx) error {
	return tx.Commit()
}

// RollbackTx rolls back a transaction
func (s *SQLiteStore) RollbackTx(tx *sql.Tx) error {
	return tx.Rollback()
}

// CreateRun creates a new resolution run record
func (s *SQLiteStore) CreateRun(ctx context.Context, run *ResolutionRun) error {
	query := `
		INSERT INTO resolution_runs (id, service, environment, framework, status, started_at, completed_at, error, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.ID,
		run.Service,
		run.Environment,
		run.Framework,
		run.Status,
		run.StartedAt,
		run.CompletedAt,
		run.Error,
		run.Metadata,
		run.CreatedAt,
		run.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetRun retrieves a resolution run by ID
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*ResolutionRun, error) {
	query := `
		SELECT id, service, environment, framework, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM resolution_runs
		WHERE id = ?
	`

	run := &ResolutionRun{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&run.Service,
		&run.Environment,
		&run.Framework,
		&run.Status,
		&run.StartedAt,
		&run.CompletedAt,
		&run.Error,
		&run.Metadata,
		&run.CreatedAt,
		&run.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return run, nil
}

// UpdateRunStatus updates the status of a resolution run
func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, id string, status RunStatus, errMsg *string) error {
	query := `
		UPDATE resolution_runs
		SET status = ?, error = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	var completedAt *time.Time
	if status == RunStatusReady || status == RunStatusFailed {
		now := time.Now()
		completedAt = &now
	}

	result, err := s.db.ExecContext(ctx, query, status, errMsg, completedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// ListRuns lists resolution runs with optional service filter and pagination
func (s *SQLiteStore) ListRuns(ctx context.Context, service *string, limit, offset int) ([]*ResolutionRun, error) {
	query := `
		SELECT id, service, environment, framework, status, started_at, completed_at, error, metadata, created_at, updated_at
		FROM resolution_runs
		WHERE (? IS NULL OR service = ?)
		ORDER BY started_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, service, service, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := []*ResolutionRun{}
	for rows.Next() {
		run := &ResolutionRun{}
		err := rows.Scan(
			&run.ID,
			&run.Service,
			&run.Environment,
			&run.Framework,
			&run.Status,
			&run.StartedAt,
			&run.CompletedAt,
			&run.Error,
			&run.Metadata,
			&run.CreatedAt,
			&run.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun deletes a resolution run by ID
func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	query := `DELETE FROM resolution_runs WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// CreateComponentOutcome creates a new component outcome record
func (s *SQLiteStore) CreateComponentOutcome(ctx context.Context, outcome *ComponentOutcome) error {
	query := `
		INSERT INTO component_outcomes (id, run_id, name, type, status, position, config, patches, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		outcome.ID,
		outcome.RunID,
		outcome.Name,
		outcome.Type,
		outcome.Status,
		outcome.Position,
		outcome.Config,
		outcome.Patches,
		outcome.Error,
		outcome.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create component outcome: %w", err)
	}

	return nil
}

// ListComponentOutcomes lists all component outcomes for a run in
// instantiation order
func (s *SQLiteStore) ListComponentOutcomes(ctx context.Context, runID string) ([]*ComponentOutcome, error) {
	query := `
		SELECT id, run_id, name, type, status, position, config, patches, error, created_at
		FROM component_outcomes
		WHERE run_id = ?
		ORDER BY position ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list component outcomes: %w", err)
	}
	defer rows.Close()

	outcomes := []*ComponentOutcome{}
	for rows.Next() {
		outcome := &ComponentOutcome{}
		err := rows.Scan(
			&outcome.ID,
			&outcome.RunID,
			&outcome.Name,
			&outcome.Type,
			&outcome.Status,
			&outcome.Position,
			&outcome.Config,
			&outcome.Patches,
			&outcome.Error,
			&outcome.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan component outcome: %w", err)
		}
		outcomes = append(outcomes, outcome)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating component outcomes: %w", err)
	}

	return outcomes, nil
}

// CreateGrant creates a new grant record
func (s *SQLiteStore) CreateGrant(ctx context.Context, grant *GrantRecord) error {
	query := `
		INSERT INTO access_grants (id, run_id, consumer, producer, capability, access, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		grant.ID,
		grant.RunID,
		grant.Consumer,
		grant.Producer,
		grant.Capability,
		grant.Access,
		grant.Payload,
		grant.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create grant: %w", err)
	}

	return nil
}

// ListGrantsByRun lists all grants issued during a run
func (s *SQLiteStore) ListGrantsByRun(ctx context.Context, runID string) ([]*GrantRecord, error) {
	query := `
		SELECT id, run_id, consumer, producer, capability, access, payload, created_at
		FROM access_grants
		WHERE run_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list grants: %w", err)
	}
	defer rows.Close()

	grants := []*GrantRecord{}
	for rows.Next() {
		grant := &GrantRecord{}
		err := rows.Scan(
			&grant.ID,
			&grant.RunID,
			&grant.Consumer,
			&grant.Producer,
			&grant.Capability,
			&grant.Access,
			&grant.Payload,
			&grant.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grants: %w", err)
	}

	return grants, nil
}

// CreatePatchAuditEntry creates a new patch audit entry
func (s *SQLiteStore) CreatePatchAuditEntry(ctx context.Context, entry *PatchAuditEntry) error {
	query := `
		INSERT INTO patch_audit (run_id, component, patch, justification, approved_by, approved_date, values_json, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		entry.RunID,
		entry.Component,
		entry.Patch,
		entry.Justification,
		entry.ApprovedBy,
		entry.ApprovedDate,
		entry.Values,
		entry.Timestamp,
	)

	if err != nil {
		return fmt.Errorf("failed to create patch audit entry: %w", err)
	}

	// Get the auto-generated ID
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get patch audit entry ID: %w", err)
	}

	entry.ID = id
	return nil
}

// ListPatchAuditEntries lists patch audit entries with optional filters and
// pagination
func (s *SQLiteStore) ListPatchAuditEntries(ctx context.Context, runID *string, component *string, limit, offset int) ([]*PatchAuditEntry, error) {
	query := `
		SELECT id, run_id, component, patch, justification, approved_by, approved_date, values_json, timestamp
		FROM patch_audit
		WHERE (? IS NULL OR run_id = ?)
		  AND (? IS NULL OR component = ?)
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`

	rows, err := s.db.QueryContext(ctx, query, runID, runID, component, component, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list patch audit entries: %w", err)
	}
	defer rows.Close()

	entries := []*PatchAuditEntry{}
	for rows.Next() {
		entry := &PatchAuditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Component,
			&entry.Patch,
			&entry.Justification,
			&entry.ApprovedBy,
			&entry.ApprovedDate,
			&entry.Values,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patch audit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patch audit entries: %w", err)
	}

	return entries, nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
