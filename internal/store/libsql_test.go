package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

func newTestStore(t *testing.T) *LibSQLStore {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewLibSQLStore("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() {
		_ = s.Close()
		_ = os.RemoveAll(dir)
	})
	return s
}

func seedDocument(t *testing.T, s *LibSQLStore, id, name, kind string) *CompiledDocument {
	t.Helper()
	doc := &CompiledDocument{
		DocumentID:     id,
		Name:           name,
		Kind:           kind,
		Source:         `image "` + name + `":`,
		Document:       json.RawMessage(`{"document_kind":"` + kind + `"}`),
		PaletteVersion: "2025.1",
	}
	require.NoError(t, s.SaveDocument(context.Background(), doc))
	return doc
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var cerr *schema.CreatorError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, schema.ErrCodeNotFound, cerr.Code)
}

func TestSaveAndGetDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "greeting", "image")

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "greeting", got.Name)
	assert.Equal(t, "image", got.Kind)
	assert.Equal(t, "2025.1", got.PaletteVersion)
	assert.JSONEq(t, `{"document_kind":"image"}`, string(got.Document))
	assert.False(t, got.CompiledAt.IsZero())
}

func TestSaveDocumentUpserts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "v1", "image")
	seedDocument(t, s, "doc-1", "v2", "image")

	got, err := s.GetDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)

	docs, err := s.ListDocuments(ctx, DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListDocumentsFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "clip-one", "video")
	seedDocument(t, s, "doc-2", "clip-two", "video")
	seedDocument(t, s, "doc-3", "logo", "image")

	videos, err := s.ListDocuments(ctx, DocumentFilter{Kind: "video"})
	require.NoError(t, err)
	assert.Len(t, videos, 2)

	named, err := s.ListDocuments(ctx, DocumentFilter{NameLike: "clip"})
	require.NoError(t, err)
	assert.Len(t, named, 2)

	limited, err := s.ListDocuments(ctx, DocumentFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "bye", "image")
	require.NoError(t, s.DeleteDocument(ctx, "doc-1"))

	_, err := s.GetDocument(ctx, "doc-1")
	assertNotFound(t, err)
	assertNotFound(t, s.DeleteDocument(ctx, "doc-1"))
}

func TestExportRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "clip", "video")

	run := &ExportRun{DocumentID: "doc-1", Path: "out.mp4", Format: "mp4"}
	require.NoError(t, s.CreateExportRun(ctx, run))
	require.NotEmpty(t, run.ID) // generated uuid
	assert.Equal(t, ExportPending, run.Status)

	require.NoError(t, s.UpdateExportRun(ctx, run.ID, ExportRunUpdate{
		Status: ExportSucceeded, Frames: 180, DurationMs: 1200,
	}))

	runs, err := s.ListExportRuns(ctx, ExportRunFilter{DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ExportSucceeded, runs[0].Status)
	assert.Equal(t, 180, runs[0].Frames)
	assert.NotNil(t, runs[0].CompletedAt)

	failed, err := s.ListExportRuns(ctx, ExportRunFilter{Status: ExportFailed})
	require.NoError(t, err)
	assert.Empty(t, failed)

	assertNotFound(t, s.UpdateExportRun(ctx, "missing", ExportRunUpdate{Status: ExportFailed}))
}

func TestAppendEventSequencing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, typ := range []string{EventCompiled, EventExportStarted, EventExportFinished} {
		require.NoError(t, s.AppendEvent(ctx, &CompileEvent{
			DocumentID: "doc-1",
			Type:       typ,
			Payload:    json.RawMessage(`{"ok":true}`),
		}))
	}
	// a second document keeps its own sequence
	require.NoError(t, s.AppendEvent(ctx, &CompileEvent{DocumentID: "doc-2", Type: EventCompiled}))

	events, err := s.GetEvents(ctx, "doc-1", 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Sequence)
	}

	tail, err := s.GetEvents(ctx, "doc-1", 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, EventExportFinished, tail[0].Type)

	other, err := s.GetEvents(ctx, "doc-2", 0)
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, int64(1), other[0].Sequence)
}

func TestScheduledExportLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, s, "doc-1", "clip", "video")

	job := &ScheduledExport{DocumentID: "doc-1", CronExpr: "0 3 * * *", Enabled: true}
	require.NoError(t, s.CreateScheduledExport(ctx, job))
	require.NotEmpty(t, job.ID)

	got, err := s.GetScheduledExport(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", got.CronExpr)
	assert.True(t, got.Enabled)
	assert.Nil(t, got.LastRunAt)

	require.NoError(t, s.MarkScheduledExportRun(ctx, job.ID))
	got, err = s.GetScheduledExport(ctx, job.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.LastRunAt)

	require.NoError(t, s.SetScheduledExportEnabled(ctx, job.ID, false))
	enabled, err := s.ListScheduledExports(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	all, err := s.ListScheduledExports(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteScheduledExport(ctx, job.ID))
	_, err = s.GetScheduledExport(ctx, job.ID)
	assertNotFound(t, err)
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, s.Vacuum(context.Background()))
}
