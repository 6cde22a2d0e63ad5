// Package inspect runs jq queries against compiled documents and resolved
// frames, for debugging sources and for the agent tool surface. Querying
// never goes through reflection: the document is round-tripped through its
// JSON form so queries see exactly what an export would.
package inspect

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/itchyny/gojq"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Inspector evaluates jq queries over JSON views of compiled artifacts.
// Thread-safe: compiled *Code objects are cached and reused across
// goroutines.
type Inspector struct {
	mu    sync.RWMutex
	cache map[string]*gojq.Code
}

// New creates an Inspector with an empty query cache.
func New() *Inspector {
	return &Inspector{cache: make(map[string]*gojq.Code)}
}

// QueryDocument runs a jq query against the document's JSON form.
func (i *Inspector) QueryDocument(ctx context.Context, doc *schema.Document, query string) (any, error) {
	return i.run(ctx, doc, query)
}

// QueryFrame runs a jq query against a resolved frame's JSON form.
func (i *Inspector) QueryFrame(ctx context.Context, frame *schema.ResolvedFrame, query string) (any, error) {
	return i.run(ctx, frame, query)
}

// run marshals the value to its JSON object form and evaluates the query.
// jq queries can produce multiple outputs; a single output is returned
// directly, multiple are collected into []any.
func (i *Inspector) run(ctx context.Context, value any, query string) (any, error) {
	if query == "" {
		return nil, schema.NewError(schema.ErrCodeValidation, "empty jq query")
	}
	code, err := i.getOrCompile(query)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"cannot marshal value for query: %s", err.Error()).WithCause(err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"cannot rebuild value for query: %s", err.Error()).WithCause(err)
	}

	iter := code.RunWithContext(ctx, input)
	var results []any
	for {
		val, ok := iter.Next()
		if !ok {
			break
		}
		if qerr, isErr := val.(error); isErr {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"jq evaluation failed for %q: %s", query, qerr.Error()).
				WithCause(qerr).
				WithDetails(map[string]any{"query": query})
		}
		results = append(results, val)
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

// getOrCompile returns a cached compiled query or compiles and caches a new one.
func (i *Inspector) getOrCompile(query string) (*gojq.Code, error) {
	i.mu.RLock()
	if code, ok := i.cache[query]; ok {
		i.mu.RUnlock()
		return code, nil
	}
	i.mu.RUnlock()

	i.mu.Lock()
	defer i.mu.Unlock()

	// Double-check after acquiring write lock.
	if code, ok := i.cache[query]; ok {
		return code, nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq parse error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}
	code, err := gojq.Compile(parsed,
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"jq compile error in %q: %s", query, err.Error()).
			WithCause(err).
			WithDetails(map[string]any{"query": query})
	}

	i.cache[query] = code
	return code, nil
}
