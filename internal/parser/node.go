package parser

import "github.com/siddharth-1118/creatorlang/pkg/schema"

// ExprKind discriminates parsed value expressions. Expressions stay untyped
// until the resolver canonicalizes them against canvas context.
type ExprKind string

const (
	ExprLiteral ExprKind = "literal" // number, dimension, string, ident, color
	ExprSize    ExprKind = "size"    // WxH
	ExprTuple   ExprKind = "tuple"   // (a, b) or (a, b, c)
	ExprList    ExprKind = "list"    // [a, b, c]
	ExprRange   ExprKind = "range"   // A to B
	ExprCall    ExprKind = "call"    // rgb(...), rgba(...), gradient(...)
	ExprStagger ExprKind = "stagger" // var.index * literal
)

// ValueExpr is one parsed value expression.
type ValueExpr struct {
	Kind   ExprKind
	Lit    schema.Value // literal payload
	W, H   float64      // size payload
	Items  []ValueExpr  // tuple/list elements, call arguments
	From   *ValueExpr   // range start
	To     *ValueExpr   // range end
	Call   string       // callee name
	Var    string       // stagger loop variable
	Factor schema.Value // stagger multiplier literal
	Pos    schema.Pos
}

// Property is one `key value-expr...` statement. Keys with trailing arguments
// (export "p" quality 90, transition fade 1s) keep them in order.
type Property struct {
	Key    string
	Values []ValueExpr
	Pos    schema.Pos
}

// ForHeader is the expansion header of a `for var in [list]:` block.
type ForHeader struct {
	Var   string
	Items []ValueExpr
}

// Window is the unresolved time window of a `scene NAME from X to Y:` block.
type Window struct {
	From ValueExpr
	To   ValueExpr
}

// Node is a generic syntax-tree node: a block with ordered property statements
// and ordered child blocks. Produced once by the parser, read-only afterwards.
type Node struct {
	Kind     string
	Name     string
	For      *ForHeader
	Window   *Window
	Props    []Property
	Children []*Node
	Pos      schema.Pos
}

// Prop returns the first property with the given key.
func (n *Node) Prop(key string) (Property, bool) {
	for _, p := range n.Props {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// documentBlocks are the keywords allowed at the top level.
var documentBlocks = map[string]bool{
	"image": true, "video": true, "model3d": true, "material": true,
}

// knownBlocks is the closed set of block keywords. An unrecognized block
// keyword fails the parse rather than being silently skipped.
var knownBlocks = map[string]bool{
	"image": true, "video": true, "model3d": true, "scene": true, "for": true,
	"material": true, "camera": true, "light": true, "audio": true,
	"particles": true, "effect": true,

	"circle": true, "rectangle": true, "triangle": true, "polygon": true,
	"ellipse": true, "line": true, "arrow": true, "path": true, "text": true,

	"cube": true, "sphere": true, "cylinder": true, "cone": true,
	"pyramid": true, "torus": true, "plane": true, "capsule": true,
	"custom_mesh": true,
}
