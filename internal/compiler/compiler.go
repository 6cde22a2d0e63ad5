// Package compiler chains the pipeline stages: lex, parse, resolve. It is
// the single entry point the CLI, the store and the tool surface compile
// through.
package compiler

import (
	"context"
	"log/slog"
	"time"

	"github.com/siddharth-1118/creatorlang/internal/lexer"
	"github.com/siddharth-1118/creatorlang/internal/logging"
	"github.com/siddharth-1118/creatorlang/internal/palette"
	"github.com/siddharth-1118/creatorlang/internal/parser"
	"github.com/siddharth-1118/creatorlang/internal/resolver"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Compiler holds the pipeline configuration shared across compiles. Safe for
// concurrent use; each Compile call builds its own resolver state.
type Compiler struct {
	palette *palette.Palette
	budget  int
	logger  *slog.Logger
}

// Option customizes a Compiler.
type Option func(*Compiler)

// WithPalette layers a custom palette over the builtin one.
func WithPalette(p *palette.Palette) Option {
	return func(c *Compiler) { c.palette = p }
}

// WithFrameBudget overrides the video frame budget.
func WithFrameBudget(frames int) Option {
	return func(c *Compiler) { c.budget = frames }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) { c.logger = logger }
}

// New builds a Compiler with the builtin palette and default budget.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		palette: palette.Builtin(),
		budget:  resolver.DefaultFrameBudget,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile turns one source text into a resolved Document or fails with a
// positioned CreatorError. Cancellation is checked between stages; a single
// stage is never interrupted mid-flight.
func (c *Compiler) Compile(ctx context.Context, source string) (*schema.Document, error) {
	start := time.Now()

	if err := c.cancelled(ctx, "lex"); err != nil {
		return nil, err
	}
	tokens, err := lexer.Lex(source)
	if err != nil {
		return nil, c.stageFailed(ctx, "lex", err)
	}

	if err := c.cancelled(ctx, "parse"); err != nil {
		return nil, err
	}
	root, err := parser.Parse(tokens)
	if err != nil {
		return nil, c.stageFailed(ctx, "parse", err)
	}

	if err := c.cancelled(ctx, "resolve"); err != nil {
		return nil, err
	}
	r := resolver.New(
		resolver.WithPalette(c.palette),
		resolver.WithFrameBudget(c.budget),
	)
	doc, err := r.Resolve(root)
	if err != nil {
		return nil, c.stageFailed(ctx, "resolve", err)
	}

	logging.LogWith(logging.WithDocumentID(ctx, doc.ID), c.logger).
		InfoContext(ctx, "compiled",
			"kind", doc.Kind,
			"name", doc.Name,
			"elements", len(doc.Elements),
			"scenes", len(doc.Scenes),
			"elapsed", time.Since(start))
	return doc, nil
}

func (c *Compiler) cancelled(ctx context.Context, stage string) error {
	if err := ctx.Err(); err != nil {
		return schema.NewErrorf(schema.ErrCodeCancelled,
			"compile cancelled before %s", stage).WithCause(err)
	}
	return nil
}

func (c *Compiler) stageFailed(ctx context.Context, stage string, err error) error {
	logging.LogWith(logging.WithStage(ctx, stage), c.logger).
		ErrorContext(ctx, "stage failed", "error", err)
	return err
}
