package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

const watchInterval = time.Second

// runWatch polls the source file's mtime and recompiles whenever it changes.
// Compile errors are logged, not fatal; the loop keeps watching so an editor
// session gets feedback on every save.
func runWatch(ctx context.Context, cfg Config, logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("watch: missing source file")
	}
	path := args[0]

	comp := newCompiler(cfg, logger)
	var lastMod time.Time

	recompile := func() {
		source, err := os.ReadFile(path)
		if err != nil {
			logger.Error("read failed", "path", path, "error", err)
			return
		}
		start := time.Now()
		doc, err := comp.Compile(ctx, string(source))
		if err != nil {
			logger.Error("compile failed", "path", path, "error", err)
			return
		}
		logger.Info("compiled",
			"path", path,
			"document_id", doc.ID,
			"kind", doc.Kind,
			"elements", len(doc.Elements),
			"elapsed", time.Since(start).Round(time.Millisecond))
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	logger.Info("watching", "path", path, "interval", watchInterval)
	for {
		if info, err := os.Stat(path); err != nil {
			logger.Warn("stat failed", "path", path, "error", err)
		} else if info.ModTime().After(lastMod) {
			lastMod = info.ModTime()
			recompile()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
