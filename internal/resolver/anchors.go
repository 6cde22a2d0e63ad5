package resolver

import (
	"math"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// anchorFractions maps named positions to canvas-relative fractions. The
// table is fixed; aliases cover both orderings of the compound names.
var anchorFractions = map[string][2]float64{
	"center":        {0.5, 0.5},
	"top_left":      {0.0, 0.0},
	"top_center":    {0.5, 0.0},
	"center_top":    {0.5, 0.0},
	"top_right":     {1.0, 0.0},
	"center_left":   {0.0, 0.5},
	"left_center":   {0.0, 0.5},
	"center_right":  {1.0, 0.5},
	"right_center":  {1.0, 0.5},
	"bottom_left":   {0.0, 1.0},
	"bottom_center": {0.5, 1.0},
	"center_bottom": {0.5, 1.0},
	"bottom_right":  {1.0, 1.0},
}

// anchorPosition resolves a named anchor against a bounding box. Returns
// false for names handled elsewhere (auto_grid) or unknown.
func anchorPosition(name string, originX, originY, width, height float64) (schema.Position, bool) {
	if name == "inside_center" {
		name = "center"
	}
	f, ok := anchorFractions[name]
	if !ok {
		return schema.Position{}, false
	}
	return schema.Position{
		X: originX + width*f[0],
		Y: originY + height*f[1],
	}, true
}

// gridCell computes the center of cell i in the deterministic auto_grid
// packing: row-major, columns = ceil(sqrt(n)). The rule is a documented
// policy; no numeric literal in the source specifies it.
func gridCell(i, n int, width, height float64) schema.Position {
	if n < 1 {
		n = 1
	}
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	rows := (n + cols - 1) / cols
	cellW := width / float64(cols)
	cellH := height / float64(rows)
	row := i / cols
	col := i % cols
	return schema.Position{
		X: cellW*float64(col) + cellW/2,
		Y: cellH*float64(row) + cellH/2,
	}
}
