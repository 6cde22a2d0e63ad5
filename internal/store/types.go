package store

import (
	"encoding/json"
	"time"
)

// CompiledDocument is the persisted form of one successful compile: the
// source text that produced it and the resolved document JSON side by side.
type CompiledDocument struct {
	DocumentID     string          `json:"document_id"` // deterministic, from the resolver
	Name           string          `json:"name"`
	Kind           string          `json:"kind"`
	SourcePath     string          `json:"source_path,omitempty"`
	Source         string          `json:"source"`
	Document       json.RawMessage `json:"document"`
	PaletteVersion string          `json:"palette_version,omitempty"`
	CompiledAt     time.Time       `json:"compiled_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// DocumentFilter narrows ListDocuments.
type DocumentFilter struct {
	Kind     string
	NameLike string
	Limit    int
}

// Export run statuses.
const (
	ExportPending   = "pending"
	ExportRunning   = "running"
	ExportSucceeded = "succeeded"
	ExportFailed    = "failed"
)

// ExportRun records one invocation of a rendering backend for one target.
type ExportRun struct {
	ID          string     `json:"id"` // uuid, generated when empty
	DocumentID  string     `json:"document_id"`
	Path        string     `json:"path"`
	Format      string     `json:"format"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Frames      int        `json:"frames,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMs  int64      `json:"duration_ms,omitempty"`
}

// ExportRunUpdate carries the mutable fields of an export run.
type ExportRunUpdate struct {
	Status     string
	Error      string
	Frames     int
	DurationMs int64
}

// ExportRunFilter narrows ListExportRuns.
type ExportRunFilter struct {
	DocumentID string
	Status     string
	Limit      int
}

// Compile event types.
const (
	EventCompiled       = "compiled"
	EventExportStarted  = "export_started"
	EventExportFinished = "export_finished"
	EventExportFailed   = "export_failed"
	EventScheduleFired  = "schedule_fired"
)

// CompileEvent is an immutable entry in the append-only compile log.
// Sequence is monotonic per document.
type CompileEvent struct {
	ID         int64           `json:"id"`
	DocumentID string          `json:"document_id"`
	Type       string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	Sequence   int64           `json:"sequence"`
}

// ScheduledExport re-runs a document's exports on a cron cadence.
type ScheduledExport struct {
	ID         string     `json:"id"` // uuid, generated when empty
	DocumentID string     `json:"document_id"`
	CronExpr   string     `json:"cron_expr"`
	Enabled    bool       `json:"enabled"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
