package palette

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

func TestBuiltinLookup(t *testing.T) {
	p := Builtin()

	red, ok := p.Lookup("red")
	require.True(t, ok)
	assert.Equal(t, schema.RGB(255, 0, 0), red)

	sky, ok := p.Lookup("skyblue")
	require.True(t, ok)
	assert.Equal(t, schema.RGB(135, 206, 235), sky)

	_, ok = p.Lookup("not_a_color")
	assert.False(t, ok)
}

func TestBuiltinNamesSorted(t *testing.T) {
	names := Builtin().Names()
	require.NotEmpty(t, names)
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "white")
}

func TestMergeLayersOverBase(t *testing.T) {
	base := Builtin()
	merged := base.Merge("brand-v1", map[string]schema.Color{
		"brand": schema.RGB(10, 20, 30),
		"red":   schema.RGB(200, 0, 0), // shadow a builtin
	})

	assert.Equal(t, "brand-v1", merged.Version())

	brand, ok := merged.Lookup("brand")
	require.True(t, ok)
	assert.Equal(t, schema.RGB(10, 20, 30), brand)

	red, _ := merged.Lookup("red")
	assert.Equal(t, schema.RGB(200, 0, 0), red)

	// The base palette is untouched.
	baseRed, _ := base.Lookup("red")
	assert.Equal(t, schema.RGB(255, 0, 0), baseRed)
	_, ok = base.Lookup("brand")
	assert.False(t, ok)
}
