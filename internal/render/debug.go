package render

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// DebugBackend implements all three backend contracts by serializing the
// resolved data as JSON next to the requested target path. It stands in until
// a real rasterizer or encoder is wired, and is what `creator export` uses by
// default so pipelines can be verified end to end.
type DebugBackend struct {
	video *bufio.Writer
	file  *os.File
}

// NewDebugBackend creates a backend that dumps resolved frames and geometry
// as JSON files.
func NewDebugBackend() *DebugBackend { return &DebugBackend{} }

// DebugBackends returns Backends with a DebugBackend filling every slot.
func DebugBackends() Backends {
	b := NewDebugBackend()
	return Backends{Image: b, Video: b, Mesh: b}
}

func debugPath(target schema.ExportTarget) string {
	return target.Path + ".json"
}

func (b *DebugBackend) RenderImage(_ context.Context, frame *schema.ResolvedFrame, target schema.ExportTarget) error {
	return writeJSON(debugPath(target), frame)
}

func (b *DebugBackend) BeginVideo(_ context.Context, spec schema.VideoSpec) error {
	f, err := os.Create(debugPath(spec.Target))
	if err != nil {
		return schema.ExportErrorf(err, "create %s", debugPath(spec.Target))
	}
	b.file = f
	b.video = bufio.NewWriter(f)
	header, err := json.Marshal(spec)
	if err != nil {
		return schema.ExportErrorf(err, "encode video spec")
	}
	_, err = b.video.Write(append(header, '\n'))
	return err
}

func (b *DebugBackend) WriteFrame(_ context.Context, frame *schema.ResolvedFrame) error {
	line, err := json.Marshal(frame)
	if err != nil {
		return schema.ExportErrorf(err, "encode frame %d", frame.Index)
	}
	_, err = b.video.Write(append(line, '\n'))
	return err
}

func (b *DebugBackend) EndVideo(_ context.Context) error {
	if b.video == nil {
		return nil
	}
	if err := b.video.Flush(); err != nil {
		return err
	}
	err := b.file.Close()
	b.video, b.file = nil, nil
	return err
}

func (b *DebugBackend) ExportMesh(_ context.Context, graph *schema.GeometryGraph, target schema.ExportTarget) error {
	return writeJSON(debugPath(target), graph)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return schema.ExportErrorf(err, "encode %s", filepath.Base(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return schema.ExportErrorf(err, "write %s", path)
	}
	return nil
}
