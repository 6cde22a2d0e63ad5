package resolver

import (
	"fmt"

	"github.com/siddharth-1118/creatorlang/internal/parser"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// controlKeys are consumed by track extraction and never appear in Props.
var controlKeys = map[string]bool{
	"animation": true, "delay": true, "duration": true, "easing": true,
}

// colorKeys resolve bare identifiers through the palette.
var colorKeys = map[string]bool{
	"color": true, "fill": true, "stroke": true, "background": true,
}

// positionKeys resolve tuples into Position values and identifiers into
// anchors.
var positionKeys = map[string]bool{
	"position": true, "from": true, "to": true, "look_at": true, "emit_at": true,
}

// enumKeys accept bare identifiers as enumerated keywords passed through to
// the backend or interpreted downstream.
var enumKeys = map[string]bool{
	"type": true, "align": true, "material": true, "preset": true,
	"mode": true, "style": true, "direction": true,
}

// requiredProps lists the per-variant required properties, checked after all
// values resolve.
var requiredProps = map[schema.ElementKind][]string{
	schema.ElemCircle:     {"position", "radius"},
	schema.ElemRectangle:  {"position", "size"},
	schema.ElemTriangle:   {"position", "size"},
	schema.ElemEllipse:    {"position", "size"},
	schema.ElemPolygon:    {"position", "points"},
	schema.ElemLine:       {"from"},
	schema.ElemArrow:      {"from"},
	schema.ElemPath:       {"points"},
	schema.ElemText:       {"position", "content"},
	schema.ElemCube:       {"position", "size"},
	schema.ElemSphere:     {"position", "radius"},
	schema.ElemCylinder:   {"position", "radius", "height"},
	schema.ElemCone:       {"position", "radius", "height"},
	schema.ElemPyramid:    {"position", "size"},
	schema.ElemTorus:      {"position", "radius"},
	schema.ElemPlane:      {"position", "size"},
	schema.ElemCapsule:    {"position", "radius", "height"},
	schema.ElemCustomMesh: {"source"},
	schema.ElemCamera:     {"position"},
	schema.ElemAudio:      {"source"},
	schema.ElemLight:      {"position"},
}

// propDefaults apply only to the explicitly enumerated optional fields.
var propDefaults = map[string]schema.Value{
	"opacity":  schema.NumberValue(1.0),
	"rotation": schema.NumberValue(0),
	"scale":    schema.NumberValue(1.0),
	"color":    schema.ColorValue(schema.RGB(255, 255, 255)),
}

// bbox is the bounding box nested anchors resolve against.
type bbox struct {
	x, y, w, h float64
}

// elemCtx carries canvas and parent context through element resolution.
type elemCtx struct {
	canvas bbox
	parent *bbox
	window [2]float64 // element life window in document time
}

// resolveElements resolves an ordered block of sibling element nodes,
// flattening nested children and applying the auto_grid packing to siblings
// sharing that keyword within the same block.
func (r *Resolver) resolveElements(nodes []*parser.Node, ctx elemCtx) ([]schema.Element, error) {
	var (
		elements []schema.Element
		gridIdx  []int // indexes into elements awaiting auto_grid placement
	)

	for _, node := range nodes {
		elem, children, err := r.resolveElement(node, ctx)
		if err != nil {
			return nil, err
		}
		if pos, ok := elem.Props["position"]; ok && pos.Kind == schema.ValueIdent && pos.Str == "auto_grid" {
			gridIdx = append(gridIdx, len(elements))
		}
		elements = append(elements, elem)

		if len(children) > 0 {
			childCtx := ctx
			parent := elementBBox(&elem)
			childCtx.parent = &parent
			nested, err := r.resolveElements(children, childCtx)
			if err != nil {
				return nil, err
			}
			elements = append(elements, nested...)
		}
	}

	for i, ei := range gridIdx {
		cell := gridCell(i, len(gridIdx), ctx.canvas.w, ctx.canvas.h)
		elements[ei].Props["position"] = schema.PositionValue(cell)
	}
	return elements, nil
}

// resolveElement types one block, resolves its property mapping and extracts
// its animation tracks. Child element blocks are returned for the caller to
// flatten with parent context.
func (r *Resolver) resolveElement(node *parser.Node, ctx elemCtx) (schema.Element, []*parser.Node, error) {
	kind := schema.ElementKind(node.Kind)
	elem := schema.Element{
		ID:    r.nextID(node.Kind),
		Kind:  kind,
		Name:  node.Name,
		Props: make(map[string]schema.Value),
	}

	for _, prop := range node.Props {
		if controlKeys[prop.Key] {
			continue
		}
		if prop.Key == "material" {
			v, err := r.resolveProp(prop, ctx)
			if err != nil {
				return schema.Element{}, nil, err
			}
			elem.Material = v.Str
			continue
		}
		v, err := r.resolveProp(prop, ctx)
		if err != nil {
			return schema.Element{}, nil, err
		}
		elem.Props[prop.Key] = v
	}

	for key, def := range propDefaults {
		if _, ok := elem.Props[key]; !ok {
			elem.Props[key] = def
		}
	}

	if err := r.checkRequired(&elem, node.Pos); err != nil {
		return schema.Element{}, nil, err
	}

	tracks, err := r.extractTracks(node, &elem, ctx)
	if err != nil {
		return schema.Element{}, nil, err
	}
	elem.Tracks = tracks

	return elem, node.Children, nil
}

// resolveProp resolves one property statement to a single canonical value.
// Multi-value statements (export, transition) are handled by the document
// resolver before this point.
func (r *Resolver) resolveProp(prop parser.Property, ctx elemCtx) (schema.Value, error) {
	if len(prop.Values) != 1 {
		return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
			"property %q takes exactly one value, got %d", prop.Key, len(prop.Values)).
			WithPos(prop.Pos)
	}
	return r.resolveExpr(prop.Key, prop.Values[0], ctx)
}

// resolveExpr canonicalizes one value expression in the context of its key.
// Case handling is exhaustive and explicit; every symbolic form either maps
// to a canonical value or fails loudly.
func (r *Resolver) resolveExpr(key string, v parser.ValueExpr, ctx elemCtx) (schema.Value, error) {
	switch v.Kind {
	case parser.ExprLiteral:
		return r.resolveLiteral(key, v, ctx)

	case parser.ExprSize:
		return schema.Value{Kind: schema.ValueList, List: []schema.Value{
			schema.NumberValue(v.W), schema.NumberValue(v.H),
		}}, nil

	case parser.ExprTuple:
		return r.resolveTuple(key, v)

	case parser.ExprList:
		items := make([]schema.Value, len(v.Items))
		for i, it := range v.Items {
			rv, err := r.resolveExpr(key, it, ctx)
			if err != nil {
				return schema.Value{}, err
			}
			items[i] = rv
		}
		return schema.Value{Kind: schema.ValueList, List: items}, nil

	case parser.ExprCall:
		return r.resolveCall(key, v)

	case parser.ExprRange:
		from, err := r.resolveExpr(key, *v.From, ctx)
		if err != nil {
			return schema.Value{}, err
		}
		to, err := r.resolveExpr(key, *v.To, ctx)
		if err != nil {
			return schema.Value{}, err
		}
		return schema.RangeValue(from, to), nil

	case parser.ExprStagger:
		return schema.Value{}, schema.NewErrorf(schema.ErrCodeValidation,
			"loop variable %q used outside its loop", v.Var).WithPos(v.Pos)
	}
	return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
		"cannot resolve %s expression for %q", v.Kind, key).WithPos(v.Pos)
}

func (r *Resolver) resolveLiteral(key string, v parser.ValueExpr, ctx elemCtx) (schema.Value, error) {
	lit := v.Lit
	if lit.Kind != schema.ValueIdent {
		return lit, nil
	}

	name := lit.Str
	switch {
	case colorKeys[key]:
		c, ok := r.palette.Lookup(name)
		if !ok {
			return schema.Value{}, schema.NewErrorf(schema.ErrCodeUnknownColor,
				"unknown color %q", name).WithPos(v.Pos)
		}
		return schema.ColorValue(c), nil

	case positionKeys[key]:
		if name == "auto_grid" {
			// Placed after all siblings in this block are known.
			return schema.IdentValue("auto_grid"), nil
		}
		box := ctx.canvas
		if name == "inside_center" {
			if ctx.parent == nil {
				return schema.Value{}, schema.NewErrorf(schema.ErrCodeUnknownAnchor,
					"inside_center requires an enclosing element").WithPos(v.Pos)
			}
			box = *ctx.parent
		}
		pos, ok := anchorPosition(name, box.x, box.y, box.w, box.h)
		if !ok {
			return schema.Value{}, schema.NewErrorf(schema.ErrCodeUnknownAnchor,
				"unknown position anchor %q", name).WithPos(v.Pos)
		}
		return schema.PositionValue(pos), nil

	case enumKeys[key]:
		return lit, nil

	case key == "visible" || key == "loop" || key == "cast_shadow":
		if name == "true" || name == "false" {
			return lit, nil
		}
	}
	return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
		"unresolved identifier %q for property %q", name, key).WithPos(v.Pos)
}

func (r *Resolver) resolveTuple(key string, v parser.ValueExpr) (schema.Value, error) {
	comps := make([]float64, len(v.Items))
	for i, it := range v.Items {
		if it.Kind != parser.ExprLiteral {
			return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"tuple components for %q must be numeric literals", key).WithPos(it.Pos)
		}
		n, ok := it.Lit.Scalar()
		if !ok {
			return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"tuple components for %q must be numeric literals", key).WithPos(it.Pos)
		}
		comps[i] = n
	}

	if positionKeys[key] {
		pos := schema.Position{X: comps[0], Y: comps[1]}
		if len(comps) == 3 {
			pos.Z = comps[2]
		}
		return schema.PositionValue(pos), nil
	}

	items := make([]schema.Value, len(comps))
	for i, n := range comps {
		items[i] = schema.NumberValue(n)
	}
	return schema.Value{Kind: schema.ValueList, List: items}, nil
}

func (r *Resolver) resolveCall(key string, v parser.ValueExpr) (schema.Value, error) {
	switch v.Call {
	case "rgb", "rgba":
		want := 3
		if v.Call == "rgba" {
			want = 4
		}
		if len(v.Items) != want {
			return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
				"%s takes %d arguments, got %d", v.Call, want, len(v.Items)).WithPos(v.Pos)
		}
		comps := make([]float64, want)
		for i, it := range v.Items {
			n, ok := it.Lit.Scalar()
			if it.Kind != parser.ExprLiteral || !ok {
				return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
					"%s arguments must be numbers", v.Call).WithPos(it.Pos)
			}
			comps[i] = n
		}
		c := schema.Color{R: comps[0], G: comps[1], B: comps[2], A: 255}
		if want == 4 {
			c.A = comps[3]
		}
		return schema.ColorValue(c), nil
	}
	return schema.Value{}, schema.NewErrorf(schema.ErrCodeTypeMismatch,
		"%s(...) is not valid for property %q", v.Call, key).WithPos(v.Pos)
}

// checkRequired validates the per-variant required property set. A range
// satisfies a requirement (the base value is its From endpoint).
func (r *Resolver) checkRequired(elem *schema.Element, pos schema.Pos) error {
	for _, key := range requiredProps[elem.Kind] {
		if _, ok := elem.Props[key]; !ok {
			return schema.NewErrorf(schema.ErrCodeMissingRequiredField,
				"%s requires %q", elem.Kind, key).WithPos(pos)
		}
	}
	return nil
}

// elementBBox derives the box nested anchors resolve against. Circles are
// centered on their position; size-carrying shapes hang from it.
func elementBBox(elem *schema.Element) bbox {
	var b bbox
	if pos, ok := elem.Props["position"]; ok && pos.Kind == schema.ValuePosition {
		b.x, b.y = pos.Position.X, pos.Position.Y
	}
	if radius, ok := elem.Props["radius"]; ok {
		if n, ok := radius.Scalar(); ok {
			b.x, b.y = b.x-n, b.y-n
			b.w, b.h = 2*n, 2*n
			return b
		}
	}
	if size, ok := elem.Props["size"]; ok && size.Kind == schema.ValueList && len(size.List) >= 2 {
		b.w, _ = size.List[0].Scalar()
		b.h, _ = size.List[1].Scalar()
	}
	return b
}

// nextID hands out deterministic per-kind ordinals so re-resolving the same
// tree yields a structurally identical document.
func (r *Resolver) nextID(kind string) string {
	r.ordinals[kind]++
	return fmt.Sprintf("%s#%d", kind, r.ordinals[kind])
}
