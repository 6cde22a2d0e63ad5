package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/internal/compiler"
	"github.com/siddharth-1118/creatorlang/internal/render"
	"github.com/siddharth-1118/creatorlang/internal/store"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

type captureImageBackend struct{ paths []string }

func (b *captureImageBackend) RenderImage(_ context.Context, _ *schema.ResolvedFrame, target schema.ExportTarget) error {
	b.paths = append(b.paths, target.Path)
	return nil
}

func newTestService(t *testing.T) (*Service, *store.LibSQLStore, *captureImageBackend) {
	t.Helper()
	st, err := store.NewLibSQLStore("file:" + filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })

	img := &captureImageBackend{}
	svc := New(st, compiler.New(), render.Backends{Image: img}, render.Options{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, st, img
}

const source = `image "logo":
    size 200x200
    background white
    export "logo.png"
    circle:
        position center
        radius 50
        color navy
`

func TestCompilePersistsDocument(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)

	record, err := st.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "logo", record.Name)
	assert.Equal(t, "image", record.Kind)
	assert.Equal(t, "logo.create", record.SourcePath)
	assert.Equal(t, source, record.Source)

	var stored schema.Document
	require.NoError(t, json.Unmarshal(record.Document, &stored))
	assert.Equal(t, doc.ID, stored.ID)

	events, err := st.GetEvents(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, store.EventCompiled, events[0].Type)
}

func TestRecompileUpsertsSameRow(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)
	b, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	docs, err := st.ListDocuments(ctx, store.DocumentFilter{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestExportRecordsRun(t *testing.T) {
	svc, st, img := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)
	require.NoError(t, svc.Export(ctx, doc))

	assert.Equal(t, []string{"logo.png"}, img.paths)

	runs, err := st.ListExportRuns(ctx, store.ExportRunFilter{DocumentID: doc.ID})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.ExportSucceeded, runs[0].Status)

	events, err := st.GetEvents(ctx, doc.ID, 0)
	require.NoError(t, err)
	require.Len(t, events, 3) // compiled, export_started, export_finished
	assert.Equal(t, store.EventExportFinished, events[2].Type)
}

func TestExportDocumentFromStore(t *testing.T) {
	svc, st, img := newTestService(t)
	ctx := context.Background()

	doc, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)

	// re-export purely from the stored record, as the scheduler does
	require.NoError(t, svc.ExportDocument(ctx, doc.ID))
	assert.Equal(t, []string{"logo.png"}, img.paths)

	runs, err := st.ListExportRuns(ctx, store.ExportRunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestExportFailureRecorded(t *testing.T) {
	svc, st, _ := newTestService(t)
	svc.backends = render.Backends{} // no image backend wired

	ctx := context.Background()
	doc, err := svc.Compile(ctx, "logo.create", source)
	require.NoError(t, err)

	require.Error(t, svc.Export(ctx, doc))

	runs, err := st.ListExportRuns(ctx, store.ExportRunFilter{Status: store.ExportFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "no image backend")
}

func TestCompileWithoutStore(t *testing.T) {
	svc := New(nil, compiler.New(), render.Backends{Image: &captureImageBackend{}},
		render.Options{}, nil)
	doc, err := svc.Compile(context.Background(), "", source)
	require.NoError(t, err)
	require.NoError(t, svc.Export(context.Background(), doc))
}
