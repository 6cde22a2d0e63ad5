package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite fork).
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/catalog.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA cache_size=-20000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// DB returns the underlying *sql.DB for advanced usage.
func (s *LibSQLStore) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

// Vacuum runs VACUUM on the database.
func (s *LibSQLStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// --- Compiled documents ---

func (s *LibSQLStore) SaveDocument(ctx context.Context, doc *CompiledDocument) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (document_id, name, kind, source_path, source, document, palette_version, compiled_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(document_id) DO UPDATE SET
		   name=excluded.name, kind=excluded.kind, source_path=excluded.source_path,
		   source=excluded.source, document=excluded.document,
		   palette_version=excluded.palette_version, updated_at=excluded.updated_at`,
		doc.DocumentID, doc.Name, doc.Kind, nullStr(doc.SourcePath), doc.Source,
		string(doc.Document), nullStr(doc.PaletteVersion), timeOrNow(doc.CompiledAt), now,
	)
	return err
}

func (s *LibSQLStore) GetDocument(ctx context.Context, documentID string) (*CompiledDocument, error) {
	doc := &CompiledDocument{}
	var sourcePath, paletteVersion sql.NullString
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, name, kind, source_path, source, document, palette_version, compiled_at, updated_at
		 FROM documents WHERE document_id = ?`, documentID,
	).Scan(&doc.DocumentID, &doc.Name, &doc.Kind, &sourcePath, &doc.Source,
		&raw, &paletteVersion, &doc.CompiledAt, &doc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("document", documentID)
	}
	if err != nil {
		return nil, err
	}
	doc.SourcePath = sourcePath.String
	doc.PaletteVersion = paletteVersion.String
	doc.Document = []byte(raw)
	return doc, nil
}

func (s *LibSQLStore) ListDocuments(ctx context.Context, filter DocumentFilter) ([]*CompiledDocument, error) {
	query := `SELECT document_id, name, kind, source_path, source, document, palette_version, compiled_at, updated_at FROM documents`
	var conds []string
	var args []any
	if filter.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, filter.Kind)
	}
	if filter.NameLike != "" {
		conds = append(conds, "name LIKE ?")
		args = append(args, "%"+filter.NameLike+"%")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY updated_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*CompiledDocument
	for rows.Next() {
		doc := &CompiledDocument{}
		var sourcePath, paletteVersion sql.NullString
		var raw string
		if err := rows.Scan(&doc.DocumentID, &doc.Name, &doc.Kind, &sourcePath, &doc.Source,
			&raw, &paletteVersion, &doc.CompiledAt, &doc.UpdatedAt); err != nil {
			return nil, err
		}
		doc.SourcePath = sourcePath.String
		doc.PaletteVersion = paletteVersion.String
		doc.Document = []byte(raw)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *LibSQLStore) DeleteDocument(ctx context.Context, documentID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE document_id = ?`, documentID)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "document", documentID)
}

// --- Export runs ---

func (s *LibSQLStore) CreateExportRun(ctx context.Context, run *ExportRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = ExportPending
	}
	run.CreatedAt = timeOrNow(run.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO export_runs (id, document_id, path, format, status, error, frames, created_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DocumentID, run.Path, run.Format, run.Status,
		nullStr(run.Error), run.Frames, run.CreatedAt, run.DurationMs,
	)
	return err
}

func (s *LibSQLStore) UpdateExportRun(ctx context.Context, id string, update ExportRunUpdate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE export_runs SET status = ?, error = ?, frames = ?, duration_ms = ?,
		   completed_at = CASE WHEN ? IN ('succeeded','failed') THEN CURRENT_TIMESTAMP ELSE completed_at END
		 WHERE id = ?`,
		update.Status, nullStr(update.Error), update.Frames, update.DurationMs, update.Status, id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "export run", id)
}

func (s *LibSQLStore) ListExportRuns(ctx context.Context, filter ExportRunFilter) ([]*ExportRun, error) {
	query := `SELECT id, document_id, path, format, status, error, frames, created_at, completed_at, duration_ms FROM export_runs`
	var conds []string
	var args []any
	if filter.DocumentID != "" {
		conds = append(conds, "document_id = ?")
		args = append(args, filter.DocumentID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*ExportRun
	for rows.Next() {
		run := &ExportRun{}
		var errMsg sql.NullString
		var completed sql.NullTime
		if err := rows.Scan(&run.ID, &run.DocumentID, &run.Path, &run.Format, &run.Status,
			&errMsg, &run.Frames, &run.CreatedAt, &completed, &run.DurationMs); err != nil {
			return nil, err
		}
		run.Error = errMsg.String
		if completed.Valid {
			run.CompletedAt = &completed.Time
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// --- Compile events ---

// AppendEvent writes one immutable log entry, assigning the next per-document
// sequence number atomically.
func (s *LibSQLStore) AppendEvent(ctx context.Context, event *CompileEvent) error {
	event.Timestamp = timeOrNow(event.Timestamp)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO compile_events (document_id, event_type, payload, timestamp, sequence)
		 VALUES (?, ?, ?, ?,
		   (SELECT COALESCE(MAX(sequence), 0) + 1 FROM compile_events WHERE document_id = ?))`,
		event.DocumentID, event.Type, nullStr(string(event.Payload)), event.Timestamp, event.DocumentID,
	)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil {
		event.ID = id
	}
	return nil
}

func (s *LibSQLStore) GetEvents(ctx context.Context, documentID string, since int64) ([]*CompileEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document_id, event_type, payload, timestamp, sequence
		 FROM compile_events WHERE document_id = ? AND sequence > ?
		 ORDER BY sequence ASC`, documentID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*CompileEvent
	for rows.Next() {
		ev := &CompileEvent{}
		var payload sql.NullString
		if err := rows.Scan(&ev.ID, &ev.DocumentID, &ev.Type, &payload, &ev.Timestamp, &ev.Sequence); err != nil {
			return nil, err
		}
		if payload.Valid {
			ev.Payload = []byte(payload.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// --- Scheduled re-exports ---

func (s *LibSQLStore) CreateScheduledExport(ctx context.Context, job *ScheduledExport) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	job.CreatedAt = timeOrNow(job.CreatedAt)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_exports (id, document_id, cron_expr, enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		job.ID, job.DocumentID, job.CronExpr, job.Enabled, job.CreatedAt, now,
	)
	return err
}

func (s *LibSQLStore) GetScheduledExport(ctx context.Context, id string) (*ScheduledExport, error) {
	job := &ScheduledExport{}
	var lastRun sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, cron_expr, enabled, last_run_at, created_at, updated_at
		 FROM scheduled_exports WHERE id = ?`, id,
	).Scan(&job.ID, &job.DocumentID, &job.CronExpr, &job.Enabled, &lastRun, &job.CreatedAt, &job.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storeNotFound("scheduled export", id)
	}
	if err != nil {
		return nil, err
	}
	if lastRun.Valid {
		job.LastRunAt = &lastRun.Time
	}
	return job, nil
}

func (s *LibSQLStore) ListScheduledExports(ctx context.Context, enabledOnly bool) ([]*ScheduledExport, error) {
	query := `SELECT id, document_id, cron_expr, enabled, last_run_at, created_at, updated_at FROM scheduled_exports`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*ScheduledExport
	for rows.Next() {
		job := &ScheduledExport{}
		var lastRun sql.NullTime
		if err := rows.Scan(&job.ID, &job.DocumentID, &job.CronExpr, &job.Enabled,
			&lastRun, &job.CreatedAt, &job.UpdatedAt); err != nil {
			return nil, err
		}
		if lastRun.Valid {
			job.LastRunAt = &lastRun.Time
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *LibSQLStore) MarkScheduledExportRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_exports SET last_run_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "scheduled export", id)
}

func (s *LibSQLStore) SetScheduledExportEnabled(ctx context.Context, id string, enabled bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_exports SET enabled = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, enabled, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "scheduled export", id)
}

func (s *LibSQLStore) DeleteScheduledExport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_exports WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkRowsAffected(res, "scheduled export", id)
}

// --- Helpers ---

func storeNotFound(resource, id string) *schema.CreatorError {
	return schema.NewErrorf(schema.ErrCodeNotFound, "%s %q not found", resource, id)
}

func checkRowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storeNotFound(resource, id)
	}
	return nil
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
