package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitStatements(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (id INTEGER PRIMARY KEY);

CREATE INDEX idx_a ON a(id);
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE a"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE INDEX idx_a"))
}

func TestSplitStatementsSemicolonInsideComment(t *testing.T) {
	script := `-- event log; sequence is monotonic per document.
CREATE TABLE events (id INTEGER PRIMARY KEY);
CREATE TABLE docs (id TEXT PRIMARY KEY); -- trailing note; still a comment
`
	stmts := splitStatements(script)
	require.Len(t, stmts, 2)
	assert.True(t, strings.HasPrefix(stmts[0], "CREATE TABLE events"))
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE docs"))
	for _, s := range stmts {
		assert.NotContains(t, s, "--")
		assert.NotContains(t, s, "monotonic")
	}
}

func TestSplitStatementsEmbeddedSchema(t *testing.T) {
	// The shipped script contains a ";" inside a line comment; every split
	// statement must still start with executable SQL.
	stmts := splitStatements(initialSchemaSQL)
	require.NotEmpty(t, stmts)
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE "), "statement %q", s)
	}
}
