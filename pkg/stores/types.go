package stores

import (
	"context"
	"database/sql"
	"time"
)

// RunStatus represents the status of a resolution run record.
type RunStatus string

const (
	RunStatusPending RunStatus = "pending"
	RunStatusRunning RunStatus = "running"
	RunStatusReady   RunStatus = "ready"
	RunStatusFailed  RunStatus = "failed"
)

// OutcomeStatus represents the per-component result within a run.
type OutcomeStatus string

const (
	OutcomeResolved OutcomeStatus = "resolved"
	OutcomeFailed   OutcomeStatus = "failed"
	OutcomeSkipped  OutcomeStatus = "skipped"
)

// ResolutionRun is the history record for one resolution run.
type ResolutionRun struct {
	ID          string     `json:"id"`
	Service     string     `json:"service"`
	Environment string     `json:"environment"`
	Framework   string     `json:"framework"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	Metadata    string     `json:"metadata"` // JSON blob
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ComponentOutcome records how one component fared in a run.
type ComponentOutcome struct {
	ID     string        `json:"id"`
	RunID  string        `json:"run_id"`
	Name   string        `json:"name"`
	Type   string        `json:"type"`
	Status OutcomeStatus `json:"status"`

	// Position is the component's index in instantiation order, -1 when the
	// run never reached ordering.
	Position int `json:"position"`

	// Config is the frozen resolved configuration as JSON. Nil for
	// components that failed before configuration resolved.
	Config *string `json:"config,omitempty"`

	// Patches is a JSON array of manifest patch names applied to the
	// component, in application order.
	Patches   string    `json:"patches"`
	Error     *string   `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// GrantRecord is the persisted form of an access grant.
type GrantRecord struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	Consumer   string    `json:"consumer"`
	Producer   string    `json:"producer"`
	Capability string    `json:"capability"`
	Access     string    `json:"access"`
	Payload    string    `json:"payload"` // JSON blob
	CreatedAt  time.Time `json:"created_at"`
}

// PatchAuditEntry records one manifest patch that was applied during a run,
// with its approval trail.
type PatchAuditEntry struct {
	ID            int64     `json:"id"`
	RunID         string    `json:"run_id"`
	Component     string    `json:"component"`
	Patch         string    `json:"patch"`
	Justification string    `json:"justification"`
	ApprovedBy    string    `json:"approved_by"`
	ApprovedDate  string    `json:"approved_date"`
	Values        string    `json:"values"` // JSON blob
	Timestamp     time.Time `json:"timestamp"`
}

// Store defines the interface for the resolution history persistence layer.
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Transaction support
	BeginTx(ctx context.Context) (*sql.Tx, error)
	CommitTx(tx *sql.Tx) error
	RollbackTx(tx *sql.Tx) error

	// Run operations
	CreateRun(ctx context.Context, run *ResolutionRun) error
	GetRun(ctx context.Context, id string) (*ResolutionRun, error)
	UpdateRunStatus(ctx context.Context, id string, status RunStatus, err *string) error
	ListRuns(ctx context.Context, service *string, limit, offset int) ([]*ResolutionRun, error)
	DeleteRun(ctx context.Context, id string) error

	// Component outcome operations
	CreateComponentOutcome(ctx context.Context, outcome *ComponentOutcome) error
	ListComponentOutcomes(ctx context.Context, runID string) ([]*ComponentOutcome, error)

	// Grant operations
	CreateGrant(ctx context.Context, grant *GrantRecord) error
	ListGrantsByRun(ctx context.Context, runID string) ([]*GrantRecord, error)

	// Patch audit operations
	CreatePatchAuditEntry(ctx context.Context, entry *PatchAuditEntry) error
	ListPatchAuditEntries(ctx context.Context, runID *string, component *string, limit, offset int) ([]*PatchAuditEntry, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
