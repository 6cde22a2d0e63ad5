// Package catalog is the orchestration layer over the pipeline: it compiles
// sources, persists the results, runs exports through the rendering backends
// and records every run in the compile event log.
package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/siddharth-1118/creatorlang/internal/compiler"
	"github.com/siddharth-1118/creatorlang/internal/logging"
	"github.com/siddharth-1118/creatorlang/internal/render"
	"github.com/siddharth-1118/creatorlang/internal/store"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Service compiles, persists and exports documents.
type Service struct {
	store    store.Store
	compiler *compiler.Compiler
	backends render.Backends
	render   render.Options
	logger   *slog.Logger
}

// New builds a Service. The store may be nil for compile-only use; Compile
// then skips persistence.
func New(st store.Store, comp *compiler.Compiler, backends render.Backends, opts render.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		compiler: comp,
		backends: backends,
		render:   opts,
		logger:   logger,
	}
}

// Compile compiles one source and, when a store is configured, upserts the
// result into the catalog and logs a compile event.
func (s *Service) Compile(ctx context.Context, sourcePath, source string) (*schema.Document, error) {
	doc, err := s.compiler.Compile(ctx, source)
	if err != nil {
		return nil, err
	}
	if s.store == nil {
		return doc, nil
	}

	ctx = logging.WithDocumentID(ctx, doc.ID)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore,
			"cannot serialize document: %s", err.Error()).WithCause(err)
	}
	record := &store.CompiledDocument{
		DocumentID:     doc.ID,
		Name:           doc.Name,
		Kind:           string(doc.Kind),
		SourcePath:     sourcePath,
		Source:         source,
		Document:       raw,
		PaletteVersion: doc.PaletteVersion,
		CompiledAt:     time.Now().UTC(),
	}
	if err := s.store.SaveDocument(ctx, record); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeStore,
			"cannot save document: %s", err.Error()).WithCause(err)
	}
	if err := s.store.AppendEvent(ctx, &store.CompileEvent{
		DocumentID: doc.ID,
		Type:       store.EventCompiled,
	}); err != nil {
		logging.LogWith(ctx, s.logger).WarnContext(ctx, "compile event not logged", "error", err)
	}
	return doc, nil
}

// Export runs every export target of an in-memory document, recording one
// export run per target when a store is configured.
func (s *Service) Export(ctx context.Context, doc *schema.Document) error {
	ctx = logging.WithDocumentID(ctx, doc.ID)
	for _, target := range doc.Exports {
		if err := s.exportTarget(ctx, doc, target); err != nil {
			return err
		}
	}
	return nil
}

// ExportDocument loads a stored document by ID and re-runs its exports.
// This is the scheduler's entry point.
func (s *Service) ExportDocument(ctx context.Context, documentID string) error {
	record, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	var doc schema.Document
	if err := json.Unmarshal(record.Document, &doc); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore,
			"stored document %q is corrupt: %s", documentID, err.Error()).WithCause(err)
	}
	if err := s.store.AppendEvent(ctx, &store.CompileEvent{
		DocumentID: documentID,
		Type:       store.EventScheduleFired,
	}); err != nil {
		s.logger.WarnContext(ctx, "schedule event not logged", "error", err)
	}
	return s.Export(ctx, &doc)
}

func (s *Service) exportTarget(ctx context.Context, doc *schema.Document, target schema.ExportTarget) error {
	var runID string
	if s.store != nil {
		run := &store.ExportRun{
			DocumentID: doc.ID,
			Path:       target.Path,
			Format:     target.Format,
			Status:     store.ExportRunning,
			Frames:     doc.FrameCount(),
		}
		if err := s.store.CreateExportRun(ctx, run); err != nil {
			return schema.NewErrorf(schema.ErrCodeStore,
				"cannot record export run: %s", err.Error()).WithCause(err)
		}
		runID = run.ID
		ctx = logging.WithExportID(ctx, runID)
		s.appendEvent(ctx, doc.ID, store.EventExportStarted, target.Path)
	}

	started := time.Now()
	single := *doc
	single.Exports = []schema.ExportTarget{target}
	err := render.Export(ctx, &single, s.backends, s.render)
	elapsed := time.Since(started).Milliseconds()

	if s.store != nil {
		update := store.ExportRunUpdate{
			Status:     store.ExportSucceeded,
			Frames:     doc.FrameCount(),
			DurationMs: elapsed,
		}
		event := store.EventExportFinished
		if err != nil {
			update.Status = store.ExportFailed
			update.Error = err.Error()
			event = store.EventExportFailed
		}
		if uerr := s.store.UpdateExportRun(ctx, runID, update); uerr != nil {
			logging.LogWith(ctx, s.logger).WarnContext(ctx, "export run not updated", "error", uerr)
		}
		s.appendEvent(ctx, doc.ID, event, target.Path)
	}
	return err
}

func (s *Service) appendEvent(ctx context.Context, documentID, eventType, path string) {
	payload, _ := json.Marshal(map[string]string{"path": path})
	if err := s.store.AppendEvent(ctx, &store.CompileEvent{
		DocumentID: documentID,
		Type:       eventType,
		Payload:    payload,
	}); err != nil {
		logging.LogWith(ctx, s.logger).WarnContext(ctx, "export event not logged", "error", err)
	}
}
