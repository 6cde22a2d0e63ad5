package resolver

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// staggerEngine evaluates the restricted per-iteration arithmetic form
// `var.index * literal` during loop expansion. Compiled programs are cached
// and reused; the engine is safe for concurrent use.
type staggerEngine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

func newStaggerEngine() *staggerEngine {
	return &staggerEngine{cache: make(map[string]*vm.Program)}
}

// Eval computes `loopVar.index * factor` for the given zero-based iteration
// index. The result keeps the factor's unit tag.
func (e *staggerEngine) Eval(loopVar string, factor schema.Value, index int) (schema.Value, error) {
	expression := fmt.Sprintf("%s.index * factor", loopVar)
	prg, err := e.getOrCompile(expression, loopVar)
	if err != nil {
		return schema.Value{}, err
	}

	env := map[string]any{
		loopVar:  map[string]any{"index": index},
		"factor": factor.Number,
	}
	out, err := vm.Run(prg, env)
	if err != nil {
		return schema.Value{}, schema.NewErrorf(schema.ErrCodeValidation,
			"stagger evaluation failed for %q: %s", expression, err.Error()).WithCause(err)
	}

	n, ok := toNumber(out)
	if !ok {
		return schema.Value{}, schema.NewErrorf(schema.ErrCodeValidation,
			"stagger expression %q produced %T, want a number", expression, out)
	}
	if factor.Kind == schema.ValueDimension {
		return schema.DimensionValue(n, factor.Unit), nil
	}
	return schema.NumberValue(n), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a
// new one.
func (e *staggerEngine) getOrCompile(expression, loopVar string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[expression]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[expression]; ok {
		return prg, nil
	}

	env := map[string]any{
		loopVar:  map[string]any{"index": 0},
		"factor": 0.0,
	}
	prg, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"stagger compile error in %q: %s", expression, err.Error()).WithCause(err)
	}

	e.cache[expression] = prg
	return prg, nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
