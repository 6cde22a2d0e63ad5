// Package render drives rendering backends from a resolved document. Video
// frames are evaluated concurrently on a bounded pool and handed to the
// backend strictly in index order, since most encoders require sequential
// submission.
package render

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/siddharth-1118/creatorlang/internal/timeline"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Options tunes the sequencer.
type Options struct {
	// Workers bounds concurrent frame evaluation. Defaults to NumCPU.
	Workers int
	Logger  *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Backends bundles the per-kind rendering backends. Only the ones matching
// the document's export targets need to be non-nil.
type Backends struct {
	Image schema.ImageBackend
	Video schema.VideoBackend
	Mesh  schema.MeshBackend
}

var formatKinds = map[string]string{
	"png": "image", "jpg": "image", "jpeg": "image", "webp": "image", "bmp": "image",
	"mp4": "video", "mov": "video", "webm": "video", "gif": "video",
	"obj": "mesh", "gltf": "mesh", "glb": "mesh", "stl": "mesh",
}

// Export honors every export target of the document, routing each to the
// backend for its format family.
func Export(ctx context.Context, doc *schema.Document, backends Backends, opts Options) error {
	opts = opts.withDefaults()
	for _, target := range doc.Exports {
		if err := exportOne(ctx, doc, backends, target, opts); err != nil {
			return err
		}
		opts.Logger.InfoContext(ctx, "export written",
			"path", target.Path, "format", target.Format)
	}
	return nil
}

func exportOne(ctx context.Context, doc *schema.Document, backends Backends, target schema.ExportTarget, opts Options) error {
	switch formatKinds[target.Format] {
	case "image":
		if backends.Image == nil {
			return schema.NewErrorf(schema.ErrCodeExport, "no image backend for %q", target.Path)
		}
		return RenderImage(ctx, doc, backends.Image, target)
	case "video":
		if backends.Video == nil {
			return schema.NewErrorf(schema.ErrCodeExport, "no video backend for %q", target.Path)
		}
		return RenderVideo(ctx, doc, backends.Video, target, opts)
	case "mesh":
		if backends.Mesh == nil {
			return schema.NewErrorf(schema.ErrCodeExport, "no mesh backend for %q", target.Path)
		}
		return RenderMesh(ctx, doc, backends.Mesh, target)
	}
	return schema.NewErrorf(schema.ErrCodeExport,
		"no backend understands format %q (%s)", target.Format, target.Path)
}

// RenderImage evaluates the single t=0 frame and rasterizes it.
func RenderImage(ctx context.Context, doc *schema.Document, backend schema.ImageBackend, target schema.ExportTarget) error {
	frame := timeline.New(doc).Snapshot(0)
	if err := backend.RenderImage(ctx, frame, target); err != nil {
		return schema.ExportErrorf(err, "image backend failed for %q", target.Path)
	}
	return nil
}

// RenderMesh resolves the geometry graph and hands it to the mesh backend.
func RenderMesh(ctx context.Context, doc *schema.Document, backend schema.MeshBackend, target schema.ExportTarget) error {
	graph, err := timeline.New(doc).Geometry()
	if err != nil {
		return err
	}
	if err := backend.ExportMesh(ctx, graph, target); err != nil {
		return schema.ExportErrorf(err, "mesh backend failed for %q", target.Path)
	}
	return nil
}

// RenderVideo evaluates every frame concurrently and streams them to the
// backend in strict index order. Out-of-order completions park in a reorder
// buffer until their predecessors have been written.
func RenderVideo(ctx context.Context, doc *schema.Document, backend schema.VideoBackend, target schema.ExportTarget, opts Options) error {
	if doc.Kind != schema.DocVideo {
		return schema.NewErrorf(schema.ErrCodeExport,
			"%s documents cannot render to video", doc.Kind)
	}
	opts = opts.withDefaults()
	eng := timeline.New(doc)
	total := doc.FrameCount()

	spec := schema.VideoSpec{
		Width:    doc.Width,
		Height:   doc.Height,
		FPS:      doc.FPS,
		Duration: doc.Duration,
		Frames:   total,
		Target:   target,
	}
	if err := backend.BeginVideo(ctx, spec); err != nil {
		return schema.ExportErrorf(err, "video backend rejected %q", target.Path)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pool := newFramePool(opts.Workers)
	frames := make(chan *schema.ResolvedFrame, opts.Workers*2)

	var (
		writeErr   error
		writerDone = make(chan struct{})
	)
	go func() {
		defer close(writerDone)
		pending := make(map[int]*schema.ResolvedFrame, opts.Workers*2)
		next := 0
		for frame := range frames {
			if writeErr != nil {
				continue // drain so producers never block
			}
			pending[frame.Index] = frame
			for {
				f, ok := pending[next]
				if !ok {
					break
				}
				if err := backend.WriteFrame(ctx, f); err != nil {
					writeErr = schema.ExportErrorf(err, "frame %d failed for %q", next, target.Path)
					cancel()
					break
				}
				delete(pending, next)
				next++
			}
		}
	}()

	var submitErr error
	var evalErr error
	var evalOnce sync.Once
	for i := 0; i < total; i++ {
		idx := i
		err := pool.submit(ctx, func(ctx context.Context) error {
			frame := eng.FrameAt(idx)
			select {
			case frames <- frame:
				return nil
			case <-ctx.Done():
				evalOnce.Do(func() { evalErr = ctx.Err() })
				return ctx.Err()
			}
		})
		if err != nil {
			submitErr = err
			break
		}
	}

	pool.close()
	close(frames)
	<-writerDone

	switch {
	case writeErr != nil:
		return writeErr
	case submitErr != nil:
		return cancelledErr(submitErr)
	case evalErr != nil:
		return cancelledErr(evalErr)
	}

	if err := backend.EndVideo(ctx); err != nil {
		return schema.ExportErrorf(err, "video backend failed to finalize %q", target.Path)
	}
	opts.Logger.InfoContext(ctx, "video rendered",
		"path", target.Path, "frames", total, "metrics", pool.snapshot())
	return nil
}

func cancelledErr(cause error) error {
	return schema.NewError(schema.ErrCodeCancelled, "render cancelled").WithCause(cause)
}
