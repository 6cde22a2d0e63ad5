// Package palette owns the named-color lookup table injected into the
// resolver. The table is immutable and versioned so resolution stays
// deterministic and testable in isolation.
package palette

import (
	"sort"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Palette maps color names to canonical RGBA values.
type Palette struct {
	version string
	colors  map[string]schema.Color
}

// BuiltinVersion identifies the built-in table. Bump when entries change.
const BuiltinVersion = "2025.1"

// SkyBlue is the default canvas background when no background statement is
// present.
var SkyBlue = schema.RGB(135, 206, 235)

var builtin = map[string]schema.Color{
	"white":       schema.RGB(255, 255, 255),
	"black":       schema.RGB(0, 0, 0),
	"red":         schema.RGB(255, 0, 0),
	"green":       schema.RGB(0, 128, 0),
	"blue":        schema.RGB(0, 0, 255),
	"yellow":      schema.RGB(255, 255, 0),
	"orange":      schema.RGB(255, 165, 0),
	"purple":      schema.RGB(128, 0, 128),
	"pink":        schema.RGB(255, 192, 203),
	"brown":       schema.RGB(139, 69, 19),
	"gray":        schema.RGB(128, 128, 128),
	"grey":        schema.RGB(128, 128, 128),
	"lightgray":   schema.RGB(211, 211, 211),
	"darkgray":    schema.RGB(64, 64, 64),
	"cyan":        schema.RGB(0, 255, 255),
	"magenta":     schema.RGB(255, 0, 255),
	"lime":        schema.RGB(0, 255, 0),
	"navy":        schema.RGB(0, 0, 128),
	"teal":        schema.RGB(0, 128, 128),
	"maroon":      schema.RGB(128, 0, 0),
	"olive":       schema.RGB(128, 128, 0),
	"gold":        schema.RGB(255, 215, 0),
	"silver":      schema.RGB(192, 192, 192),
	"coral":       schema.RGB(255, 127, 80),
	"salmon":      schema.RGB(250, 128, 114),
	"turquoise":   schema.RGB(64, 224, 208),
	"violet":      schema.RGB(238, 130, 238),
	"indigo":      schema.RGB(75, 0, 130),
	"skyblue":     schema.RGB(135, 206, 235),
	"lightblue":   schema.RGB(173, 216, 230),
	"darkblue":    schema.RGB(0, 0, 139),
	"transparent": {R: 0, G: 0, B: 0, A: 0},
}

// Builtin returns the built-in palette.
func Builtin() *Palette {
	return &Palette{version: BuiltinVersion, colors: builtin}
}

// New builds a palette from an explicit table. The map is copied.
func New(version string, colors map[string]schema.Color) *Palette {
	cp := make(map[string]schema.Color, len(colors))
	for k, v := range colors {
		cp[k] = v
	}
	return &Palette{version: version, colors: cp}
}

// Version returns the palette version string.
func (p *Palette) Version() string { return p.version }

// Lookup resolves a color name.
func (p *Palette) Lookup(name string) (schema.Color, bool) {
	c, ok := p.colors[name]
	return c, ok
}

// Names returns all color names in sorted order.
func (p *Palette) Names() []string {
	names := make([]string, 0, len(p.colors))
	for k := range p.colors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Merge layers overrides on top of this palette and returns a new one tagged
// with the override version. The receiver is not modified.
func (p *Palette) Merge(version string, overrides map[string]schema.Color) *Palette {
	merged := make(map[string]schema.Color, len(p.colors)+len(overrides))
	for k, v := range p.colors {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return &Palette{version: version, colors: merged}
}
