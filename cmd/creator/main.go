package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/siddharth-1118/creatorlang/internal/catalog"
	"github.com/siddharth-1118/creatorlang/internal/compiler"
	"github.com/siddharth-1118/creatorlang/internal/inspect"
	"github.com/siddharth-1118/creatorlang/internal/logging"
	"github.com/siddharth-1118/creatorlang/internal/render"
	"github.com/siddharth-1118/creatorlang/internal/scheduler"
	"github.com/siddharth-1118/creatorlang/internal/store"
	"github.com/siddharth-1118/creatorlang/internal/timeline"
	"github.com/siddharth-1118/creatorlang/pkg/mcp"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := loadConfig()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "compile":
		err = runCompile(ctx, cfg, os.Args[2:])
	case "snapshot":
		err = runSnapshot(ctx, cfg, os.Args[2:])
	case "query":
		err = runQuery(ctx, cfg, os.Args[2:])
	case "export":
		err = runExport(ctx, cfg, logger, os.Args[2:])
	case "watch":
		err = runWatch(ctx, cfg, logger, os.Args[2:])
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "version":
		printVersion()
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: creator <command> [args]

commands:
  compile  <file.create>              compile a script and print the document JSON
  snapshot <file.create> -t <secs>    evaluate the timeline at a point in time
  query    <file.create> -q <jq>      run a jq expression against the document
  export   <file.create>              render the script's export targets
  watch    <file.create>              recompile on change
  serve                               run the MCP server with the catalog store
  version                             print the build version`)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	inner := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logging.NewCorrelationHandler(inner))
}

func newCompiler(cfg Config, logger *slog.Logger) *compiler.Compiler {
	opts := []compiler.Option{compiler.WithLogger(logger)}
	if cfg.FrameBudget > 0 {
		opts = append(opts, compiler.WithFrameBudget(cfg.FrameBudget))
	}
	return compiler.New(opts...)
}

func compileFile(ctx context.Context, cfg Config, path string) (*schema.Document, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newCompiler(cfg, slog.Default()).Compile(ctx, string(source))
}

func runCompile(ctx context.Context, cfg Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("compile: missing source file")
	}
	doc, err := compileFile(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	return printJSON(doc)
}

func runSnapshot(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	at := fs.Float64("t", 0, "time in seconds")
	path, err := parseFileArgs(fs, args, "snapshot")
	if err != nil {
		return err
	}
	doc, err := compileFile(ctx, cfg, path)
	if err != nil {
		return err
	}
	return printJSON(timeline.New(doc).Snapshot(*at))
}

func runQuery(ctx context.Context, cfg Config, args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	query := fs.String("q", ".", "jq expression")
	path, err := parseFileArgs(fs, args, "query")
	if err != nil {
		return err
	}
	doc, err := compileFile(ctx, cfg, path)
	if err != nil {
		return err
	}
	result, err := inspect.New().QueryDocument(ctx, doc, *query)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func runExport(ctx context.Context, cfg Config, logger *slog.Logger, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("export: missing source file")
	}
	doc, err := compileFile(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	opts := render.Options{Workers: cfg.Workers, Logger: logger}
	svc := catalog.New(nil, newCompiler(cfg, logger), render.DebugBackends(), opts, logger)
	return svc.Export(ctx, doc)
}

// parseFileArgs accepts `<file> [flags]` or `[flags] <file>`.
func parseFileArgs(fs *flag.FlagSet, args []string, cmd string) (string, error) {
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		if err := fs.Parse(args[1:]); err != nil {
			return "", err
		}
		return args[0], nil
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if fs.NArg() < 1 {
		return "", fmt.Errorf("%s: missing source file", cmd)
	}
	return fs.Arg(0), nil
}

func runServe(ctx context.Context, cfg Config, logger *slog.Logger) error {
	if err := os.MkdirAll(creatorDir(), 0o755); err != nil {
		return err
	}
	st, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	opts := render.Options{Workers: cfg.Workers, Logger: logger}
	svc := catalog.New(st, newCompiler(cfg, logger), render.DebugBackends(), opts, logger)

	sched := scheduler.New(st, svc, logger)
	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	srv := mcp.NewCreatorServer(mcp.CreatorServerDeps{
		Catalog: svc,
		Store:   st,
		Logger:  logger,
	})
	logger.Info("creator mcp server listening on stdio", "db_path", cfg.DBPath)
	return srv.Serve(ctx)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
