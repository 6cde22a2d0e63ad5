package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/siddharth-1118/creatorlang/internal/catalog"
	"github.com/siddharth-1118/creatorlang/internal/compiler"
	"github.com/siddharth-1118/creatorlang/internal/inspect"
	"github.com/siddharth-1118/creatorlang/internal/palette"
	"github.com/siddharth-1118/creatorlang/internal/render"
	"github.com/siddharth-1118/creatorlang/internal/store"
)

// CreatorServerDeps holds the dependencies for creating a CreatorServer.
type CreatorServerDeps struct {
	Catalog   *catalog.Service
	Store     store.Store
	Inspector *inspect.Inspector
	Palette   *palette.Palette
	Logger    *slog.Logger
}

// CreatorServer wraps an MCP server with the CreatorLang tool handlers.
type CreatorServer struct {
	catalog   *catalog.Service
	store     store.Store
	inspector *inspect.Inspector
	palette   *palette.Palette
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewCreatorServer creates a new CreatorServer with all 4 tools registered.
func NewCreatorServer(deps CreatorServerDeps) *CreatorServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	pal := deps.Palette
	if pal == nil {
		pal = palette.Builtin()
	}
	inspector := deps.Inspector
	if inspector == nil {
		inspector = inspect.New()
	}
	svc := deps.Catalog
	if svc == nil {
		comp := compiler.New(compiler.WithPalette(pal), compiler.WithLogger(logger))
		svc = catalog.New(deps.Store, comp, render.Backends{}, render.Options{Logger: logger}, logger)
	}

	s := &CreatorServer{
		catalog:   svc,
		store:     deps.Store,
		inspector: inspector,
		palette:   pal,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"creatorlang",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("CreatorLang compiles declarative creative-content scripts into time-indexed documents. Use creator.compile to compile source text, creator.snapshot to evaluate the timeline at a point in time, creator.query to run jq expressions against a compiled document or frame, and creator.palette to list the named colors available to scripts."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *CreatorServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *CreatorServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the registered MCP tools as ServerTool entries.
func (s *CreatorServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: compileTool(), Handler: s.handleCompile},
		{Tool: snapshotTool(), Handler: s.handleSnapshot},
		{Tool: queryTool(), Handler: s.handleQuery},
		{Tool: paletteTool(), Handler: s.handlePalette},
	}
}
