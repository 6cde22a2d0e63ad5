package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// fakeVideoBackend records frame submission order.
type fakeVideoBackend struct {
	mu      sync.Mutex
	spec    schema.VideoSpec
	indexes []int
	ended   bool
	failAt  int // fail WriteFrame at this index, -1 to never fail
}

func newFakeVideoBackend() *fakeVideoBackend { return &fakeVideoBackend{failAt: -1} }

func (b *fakeVideoBackend) BeginVideo(_ context.Context, spec schema.VideoSpec) error {
	b.spec = spec
	return nil
}

func (b *fakeVideoBackend) WriteFrame(_ context.Context, frame *schema.ResolvedFrame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAt >= 0 && frame.Index == b.failAt {
		return errors.New("encoder exploded")
	}
	b.indexes = append(b.indexes, frame.Index)
	return nil
}

func (b *fakeVideoBackend) EndVideo(context.Context) error {
	b.ended = true
	return nil
}

func testVideoDoc(durationSec float64, fps int) *schema.Document {
	return &schema.Document{
		Kind: schema.DocVideo, Width: 64, Height: 64,
		Duration: durationSec, FPS: fps,
		Background: schema.Background{Kind: schema.BackgroundFlat, Flat: schema.RGB(0, 0, 0)},
		Elements: []schema.Element{{
			ID: "circle#1", Kind: schema.ElemCircle,
			Props: map[string]schema.Value{
				"position": schema.PositionValue(schema.Position{X: 32, Y: 32}),
				"radius":   schema.NumberValue(10),
				"opacity":  schema.NumberValue(1),
			},
			Tracks: []schema.AnimationTrack{{
				Property: "opacity", Kind: schema.TrackInterpolate,
				From: schema.NumberValue(0), To: schema.NumberValue(1),
				Duration: durationSec, Easing: "linear",
			}},
		}},
	}
}

func TestRenderVideoInOrder(t *testing.T) {
	doc := testVideoDoc(2, 30) // 60 frames
	backend := newFakeVideoBackend()
	target := schema.ExportTarget{Path: "out.mp4", Format: "mp4"}

	err := RenderVideo(context.Background(), doc, backend, target, Options{Workers: 8})
	require.NoError(t, err)

	assert.Equal(t, 60, backend.spec.Frames)
	assert.True(t, backend.ended)
	require.Len(t, backend.indexes, 60)
	for i, idx := range backend.indexes {
		require.Equal(t, i, idx, "frames must arrive in index order")
	}
}

func TestRenderVideoWriteFailure(t *testing.T) {
	doc := testVideoDoc(2, 30)
	backend := newFakeVideoBackend()
	backend.failAt = 10

	err := RenderVideo(context.Background(), doc, backend,
		schema.ExportTarget{Path: "out.mp4", Format: "mp4"}, Options{Workers: 4})
	require.Error(t, err)

	var cerr *schema.CreatorError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, schema.ErrCodeExport, cerr.Code)
	assert.False(t, backend.ended)
	// everything before the failure went out in order
	require.Len(t, backend.indexes, 10)
}

func TestRenderVideoCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := testVideoDoc(10, 60)
	err := RenderVideo(ctx, doc, newFakeVideoBackend(),
		schema.ExportTarget{Path: "out.mp4", Format: "mp4"}, Options{Workers: 2})
	require.Error(t, err)

	var cerr *schema.CreatorError
	if errors.As(err, &cerr) {
		assert.Equal(t, schema.ErrCodeCancelled, cerr.Code)
	}
}

func TestRenderVideoRejectsImageDoc(t *testing.T) {
	doc := &schema.Document{Kind: schema.DocImage}
	err := RenderVideo(context.Background(), doc, newFakeVideoBackend(),
		schema.ExportTarget{Path: "out.mp4", Format: "mp4"}, Options{})
	require.Error(t, err)
}

type fakeImageBackend struct {
	frames []*schema.ResolvedFrame
	paths  []string
}

func (b *fakeImageBackend) RenderImage(_ context.Context, frame *schema.ResolvedFrame, target schema.ExportTarget) error {
	b.frames = append(b.frames, frame)
	b.paths = append(b.paths, target.Path)
	return nil
}

type fakeMeshBackend struct{ graphs []*schema.GeometryGraph }

func (b *fakeMeshBackend) ExportMesh(_ context.Context, graph *schema.GeometryGraph, _ schema.ExportTarget) error {
	b.graphs = append(b.graphs, graph)
	return nil
}

func TestExportRoutesByFormat(t *testing.T) {
	doc := &schema.Document{
		Kind: schema.DocImage, Width: 100, Height: 100,
		Elements: []schema.Element{},
		Exports: []schema.ExportTarget{
			{Path: "a.png", Format: "png"},
			{Path: "b.jpg", Format: "jpg", Quality: 90},
		},
	}
	img := &fakeImageBackend{}
	err := Export(context.Background(), doc, Backends{Image: img}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "b.jpg"}, img.paths)
}

func TestExportUnknownFormat(t *testing.T) {
	doc := &schema.Document{
		Kind:    schema.DocImage,
		Exports: []schema.ExportTarget{{Path: "a.xyz", Format: "xyz"}},
	}
	err := Export(context.Background(), doc, Backends{Image: &fakeImageBackend{}}, Options{})
	require.Error(t, err)
}

func TestExportMesh(t *testing.T) {
	doc := &schema.Document{
		Kind: schema.DocModel3D,
		Elements: []schema.Element{{
			ID: "cube#1", Kind: schema.ElemCube,
			Props: map[string]schema.Value{
				"position": schema.PositionValue(schema.Position{}),
			},
		}},
		Exports: []schema.ExportTarget{{Path: "m.obj", Format: "obj"}},
	}
	mesh := &fakeMeshBackend{}
	err := Export(context.Background(), doc, Backends{Mesh: mesh}, Options{})
	require.NoError(t, err)
	require.Len(t, mesh.graphs, 1)
	assert.Len(t, mesh.graphs[0].Nodes, 1)
}

func TestFramePoolRecoversPanic(t *testing.T) {
	pool := newFramePool(2)
	err := pool.submit(context.Background(), func(context.Context) error {
		panic("boom")
	})
	require.NoError(t, err)
	pool.close()
	assert.Equal(t, int64(1), pool.snapshot().Panics)
}

func TestFramePoolBackpressure(t *testing.T) {
	pool := newFramePool(1)
	release := make(chan struct{})
	require.NoError(t, pool.submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := pool.submit(ctx, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	pool.close()
}

func TestFramePoolShutdownRejects(t *testing.T) {
	pool := newFramePool(1)
	pool.close()
	err := pool.submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolShutdown)
}
