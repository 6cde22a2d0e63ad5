package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/siddharth-1118/creatorlang/internal/timeline"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// --- Tool definitions ---

func compileTool() mcp.Tool {
	return mcp.NewTool("creator.compile",
		mcp.WithDescription("Compile CreatorLang source text into a time-indexed document"),
		mcp.WithString("source", mcp.Required(), mcp.Description("CreatorLang source text")),
		mcp.WithString("path", mcp.Description("Logical source path, recorded alongside the compiled document")),
	)
}

func snapshotTool() mcp.Tool {
	return mcp.NewTool("creator.snapshot",
		mcp.WithDescription("Evaluate the timeline of a compiled document at a point in time"),
		mcp.WithString("source", mcp.Description("CreatorLang source text to compile (alternative to document_id)")),
		mcp.WithString("document_id", mcp.Description("ID of a previously compiled document in the catalog")),
		mcp.WithNumber("time", mcp.Required(), mcp.Description("Time in seconds; clamped to the document duration")),
	)
}

func queryTool() mcp.Tool {
	return mcp.NewTool("creator.query",
		mcp.WithDescription("Run a jq expression against a compiled document, or against a frame when time is given"),
		mcp.WithString("source", mcp.Description("CreatorLang source text to compile (alternative to document_id)")),
		mcp.WithString("document_id", mcp.Description("ID of a previously compiled document in the catalog")),
		mcp.WithString("query", mcp.Required(), mcp.Description("jq expression, e.g. '.elements | length'")),
		mcp.WithNumber("time", mcp.Description("If set, the query runs against the resolved frame at this time")),
	)
}

func paletteTool() mcp.Tool {
	return mcp.NewTool("creator.palette",
		mcp.WithDescription("List the named colors available to CreatorLang scripts"),
	)
}

// --- Handlers ---

// handleCompile compiles source text and returns the compiled document. When a
// store is configured the document is persisted under its deterministic ID.
func (s *CreatorServer) handleCompile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}
	path := req.GetString("path", "")

	doc, compileErr := s.catalog.Compile(ctx, path, source)
	if compileErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compile failed: %v", compileErr)), nil
	}
	return marshalResult(doc)
}

// handleSnapshot resolves the document (by ID or by compiling source) and
// evaluates its timeline at the requested time.
func (s *CreatorServer) handleSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	at, err := req.RequireFloat("time")
	if err != nil {
		return mcp.NewToolResultError("time is required"), nil
	}

	doc, docErr := s.resolveDocument(ctx, req)
	if docErr != nil {
		return mcp.NewToolResultError(docErr.Error()), nil
	}

	frame := timeline.New(doc).Snapshot(at)
	return marshalResult(frame)
}

// handleQuery runs a jq expression against the compiled document, or against
// the resolved frame at a given time.
func (s *CreatorServer) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query is required"), nil
	}

	doc, docErr := s.resolveDocument(ctx, req)
	if docErr != nil {
		return mcp.NewToolResultError(docErr.Error()), nil
	}

	var (
		result   any
		queryErr error
	)
	if at := req.GetFloat("time", -1); at >= 0 {
		frame := timeline.New(doc).Snapshot(at)
		result, queryErr = s.inspector.QueryFrame(ctx, frame, query)
	} else {
		result, queryErr = s.inspector.QueryDocument(ctx, doc, query)
	}
	if queryErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", queryErr)), nil
	}
	return marshalResult(map[string]any{
		"query":  query,
		"result": result,
	})
}

// handlePalette lists the palette's named colors with their RGB components.
func (s *CreatorServer) handlePalette(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := s.palette.Names()
	colors := make(map[string]schema.Color, len(names))
	for _, name := range names {
		if c, ok := s.palette.Lookup(name); ok {
			colors[name] = c
		}
	}
	return marshalResult(map[string]any{
		"version": s.palette.Version(),
		"names":   names,
		"colors":  colors,
	})
}

// resolveDocument loads a document by ID from the catalog store, or compiles
// the supplied source. Exactly one of document_id / source must be set.
func (s *CreatorServer) resolveDocument(ctx context.Context, req mcp.CallToolRequest) (*schema.Document, error) {
	documentID := req.GetString("document_id", "")
	source := req.GetString("source", "")

	switch {
	case documentID != "" && source != "":
		return nil, fmt.Errorf("document_id and source are mutually exclusive")
	case documentID != "":
		if s.store == nil {
			return nil, fmt.Errorf("no catalog store configured; pass source instead")
		}
		rec, err := s.store.GetDocument(ctx, documentID)
		if err != nil {
			return nil, fmt.Errorf("document lookup failed: %v", err)
		}
		var doc schema.Document
		if err := json.Unmarshal(rec.Document, &doc); err != nil {
			return nil, fmt.Errorf("stored document is corrupt: %v", err)
		}
		return &doc, nil
	case source != "":
		doc, err := s.catalog.Compile(ctx, "", source)
		if err != nil {
			return nil, fmt.Errorf("compile failed: %v", err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("either document_id or source is required")
	}
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
