package schema

import "context"

// VideoSpec is the header a video backend receives before any frame.
type VideoSpec struct {
	Width    int          `json:"width"`
	Height   int          `json:"height"`
	FPS      int          `json:"fps"`
	Duration float64      `json:"duration"`
	Frames   int          `json:"frames"`
	Target   ExportTarget `json:"target"`
}

// ImageBackend rasterizes one resolved frame to a file. Pixel drawing, font
// shaping and file writing happen behind this boundary.
type ImageBackend interface {
	RenderImage(ctx context.Context, frame *ResolvedFrame, target ExportTarget) error
}

// VideoBackend encodes an ordered frame sequence. WriteFrame is called
// strictly in frame-index order (i before i+1); most encoders require
// sequential submission.
type VideoBackend interface {
	BeginVideo(ctx context.Context, spec VideoSpec) error
	WriteFrame(ctx context.Context, frame *ResolvedFrame) error
	EndVideo(ctx context.Context) error
}

// MeshBackend triangulates and serializes a resolved geometry graph.
type MeshBackend interface {
	ExportMesh(ctx context.Context, graph *GeometryGraph, target ExportTarget) error
}

// ExportErrorf wraps a backend failure in the export error category, keeping
// it distinct from compilation errors: it occurs after a valid Document exists.
func ExportErrorf(cause error, format string, args ...any) *CreatorError {
	return NewErrorf(ErrCodeExport, format, args...).WithCause(cause)
}
