// Package store persists the compile catalog: compiled documents, export
// runs, the append-only compile event log and scheduled re-exports.
package store

import "context"

// Store defines the persistence layer contract.
// All implementations must be safe for concurrent use.
type Store interface {
	// Compiled documents (upsert keyed by the deterministic document ID)
	SaveDocument(ctx context.Context, doc *CompiledDocument) error
	GetDocument(ctx context.Context, documentID string) (*CompiledDocument, error)
	ListDocuments(ctx context.Context, filter DocumentFilter) ([]*CompiledDocument, error)
	DeleteDocument(ctx context.Context, documentID string) error

	// Export runs
	CreateExportRun(ctx context.Context, run *ExportRun) error
	UpdateExportRun(ctx context.Context, id string, update ExportRunUpdate) error
	ListExportRuns(ctx context.Context, filter ExportRunFilter) ([]*ExportRun, error)

	// Compile events (append-only)
	AppendEvent(ctx context.Context, event *CompileEvent) error
	GetEvents(ctx context.Context, documentID string, since int64) ([]*CompileEvent, error)

	// Scheduled re-exports
	CreateScheduledExport(ctx context.Context, job *ScheduledExport) error
	GetScheduledExport(ctx context.Context, id string) (*ScheduledExport, error)
	ListScheduledExports(ctx context.Context, enabledOnly bool) ([]*ScheduledExport, error)
	MarkScheduledExportRun(ctx context.Context, id string) error
	SetScheduledExportEnabled(ctx context.Context, id string, enabled bool) error
	DeleteScheduledExport(ctx context.Context, id string) error

	// Maintenance
	Migrate(ctx context.Context) error
	Vacuum(ctx context.Context) error

	// Lifecycle
	Close() error
}
