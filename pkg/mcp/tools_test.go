package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/internal/store"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

const cardSource = `image "card":
    size 400x300
    background blue
    export "card.png"
    circle:
        position (200, 150)
        radius 50
        color red
`

const clipSource = `video "clip":
    size 640x480
    duration 2s
    fps 10
    export "clip.mp4"
    text:
        position center
        content "hi"
        opacity 0 to 1
        duration 2s
`

// --- Mock store ---

type mockStore struct {
	store.Store // embed for unimplemented methods

	documents map[string]*store.CompiledDocument
}

func newMockStore() *mockStore {
	return &mockStore{documents: make(map[string]*store.CompiledDocument)}
}

func (m *mockStore) GetDocument(_ context.Context, documentID string) (*store.CompiledDocument, error) {
	if doc, ok := m.documents[documentID]; ok {
		return doc, nil
	}
	return nil, schema.NewError(schema.ErrCodeNotFound, "document not found")
}

func (m *mockStore) SaveDocument(_ context.Context, doc *store.CompiledDocument) error {
	m.documents[doc.DocumentID] = doc
	return nil
}

func (m *mockStore) AppendEvent(_ context.Context, _ *store.CompileEvent) error { return nil }

// --- Helpers ---

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func decodeResult(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	require.NotNil(t, result)
	require.False(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	require.NoError(t, json.Unmarshal([]byte(text.Text), out))
}

func errorText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.True(t, result.IsError)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

// --- Tests ---

func TestCompileTool(t *testing.T) {
	ms := newMockStore()
	s := NewCreatorServer(CreatorServerDeps{Store: ms})

	req := buildRequest("creator.compile", map[string]any{
		"source": cardSource,
		"path":   "card.create",
	})

	result, err := s.handleCompile(context.Background(), req)
	require.NoError(t, err)

	var doc schema.Document
	decodeResult(t, result, &doc)
	assert.Equal(t, schema.DocImage, doc.Kind)
	assert.Equal(t, 400, doc.Width)
	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "circle#1", doc.Elements[0].ID)

	// Compiling through the catalog persists the document.
	require.Contains(t, ms.documents, doc.ID)
	assert.Equal(t, "card.create", ms.documents[doc.ID].SourcePath)
}

func TestCompileToolMissingSource(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	result, err := s.handleCompile(context.Background(), buildRequest("creator.compile", nil))
	require.NoError(t, err)
	assert.Equal(t, "source is required", errorText(t, result))
}

func TestCompileToolBadSource(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	req := buildRequest("creator.compile", map[string]any{"source": `circle "nope":` + "\n"})
	result, err := s.handleCompile(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "compile failed")
}

func TestSnapshotToolFromSource(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	req := buildRequest("creator.snapshot", map[string]any{
		"source": clipSource,
		"time":   1.0,
	})

	result, err := s.handleSnapshot(context.Background(), req)
	require.NoError(t, err)

	var frame schema.ResolvedFrame
	decodeResult(t, result, &frame)
	assert.Equal(t, 1.0, frame.Time)
	require.Len(t, frame.Elements, 1)
	assert.InDelta(t, 0.5, frame.Elements[0].Props["opacity"].Number, 1e-9)
}

func TestSnapshotToolFromStore(t *testing.T) {
	ms := newMockStore()
	s := NewCreatorServer(CreatorServerDeps{Store: ms})

	// Compile once through the tool so the store holds the document.
	compileReq := buildRequest("creator.compile", map[string]any{"source": cardSource})
	compileResult, err := s.handleCompile(context.Background(), compileReq)
	require.NoError(t, err)
	var doc schema.Document
	decodeResult(t, compileResult, &doc)

	req := buildRequest("creator.snapshot", map[string]any{
		"document_id": doc.ID,
		"time":        0.0,
	})
	result, err := s.handleSnapshot(context.Background(), req)
	require.NoError(t, err)

	var frame schema.ResolvedFrame
	decodeResult(t, result, &frame)
	require.Len(t, frame.Elements, 1)
	assert.Equal(t, "circle#1", frame.Elements[0].ID)
}

func TestSnapshotToolUnknownDocument(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{Store: newMockStore()})

	req := buildRequest("creator.snapshot", map[string]any{
		"document_id": "deadbeef",
		"time":        0.0,
	})
	result, err := s.handleSnapshot(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "document lookup failed")
}

func TestSnapshotToolMissingTime(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	result, err := s.handleSnapshot(context.Background(), buildRequest("creator.snapshot", map[string]any{
		"source": cardSource,
	}))
	require.NoError(t, err)
	assert.Equal(t, "time is required", errorText(t, result))
}

func TestQueryToolDocument(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	req := buildRequest("creator.query", map[string]any{
		"source": cardSource,
		"query":  ".elements | length",
	})
	result, err := s.handleQuery(context.Background(), req)
	require.NoError(t, err)

	var payload struct {
		Query  string `json:"query"`
		Result any    `json:"result"`
	}
	decodeResult(t, result, &payload)
	assert.Equal(t, ".elements | length", payload.Query)
	assert.Equal(t, float64(1), payload.Result)
}

func TestQueryToolFrame(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	req := buildRequest("creator.query", map[string]any{
		"source": clipSource,
		"query":  ".elements[0].props.opacity.number",
		"time":   1.0,
	})
	result, err := s.handleQuery(context.Background(), req)
	require.NoError(t, err)

	var payload struct {
		Result any `json:"result"`
	}
	decodeResult(t, result, &payload)
	assert.InDelta(t, 0.5, payload.Result.(float64), 1e-9)
}

func TestQueryToolMutuallyExclusiveInputs(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{Store: newMockStore()})

	req := buildRequest("creator.query", map[string]any{
		"source":      cardSource,
		"document_id": "abc",
		"query":       ".",
	})
	result, err := s.handleQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "mutually exclusive")
}

func TestQueryToolBadExpression(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	req := buildRequest("creator.query", map[string]any{
		"source": cardSource,
		"query":  ".elements | (",
	})
	result, err := s.handleQuery(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, errorText(t, result), "query failed")
}

func TestPaletteTool(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})

	result, err := s.handlePalette(context.Background(), buildRequest("creator.palette", nil))
	require.NoError(t, err)

	var payload struct {
		Version string                  `json:"version"`
		Names   []string                `json:"names"`
		Colors  map[string]schema.Color `json:"colors"`
	}
	decodeResult(t, result, &payload)
	assert.NotEmpty(t, payload.Version)
	assert.Contains(t, payload.Names, "red")
	assert.Equal(t, schema.RGB(255, 0, 0), payload.Colors["red"])
}

func TestServerRegistersTools(t *testing.T) {
	s := NewCreatorServer(CreatorServerDeps{})
	require.NotNil(t, s.MCPServer())
	assert.Len(t, s.tools(), 4)
}

func TestToolDefinitions(t *testing.T) {
	names := []string{
		compileTool().Name,
		snapshotTool().Name,
		queryTool().Name,
		paletteTool().Name,
	}
	assert.Equal(t, []string{"creator.compile", "creator.snapshot", "creator.query", "creator.palette"}, names)
}
