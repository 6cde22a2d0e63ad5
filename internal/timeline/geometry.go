package timeline

import (
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Geometry resolves a model3d document into the graph handed to mesh
// backends. 3D documents have no timeline; every transform is static.
func (e *Engine) Geometry() (*schema.GeometryGraph, error) {
	if e.doc.Kind != schema.DocModel3D {
		return nil, schema.NewErrorf(schema.ErrCodeTypeMismatch,
			"geometry graphs exist only for model3d documents, not %s", e.doc.Kind)
	}

	graph := &schema.GeometryGraph{Materials: e.doc.Materials}
	for i := range e.doc.Elements {
		el := &e.doc.Elements[i]
		switch {
		case el.Kind.Is3D():
			graph.Nodes = append(graph.Nodes, geometryNode(el))
		case el.Kind == schema.ElemLight:
			graph.Lights = append(graph.Lights, evalElement(el, 0, 0, ""))
		case el.Kind == schema.ElemCamera:
			graph.Cameras = append(graph.Cameras, evalElement(el, 0, 0, ""))
		}
	}
	return graph, nil
}

// geometryNode lifts position/rotation/scale out of the property mapping into
// the explicit transform. Scalar rotation reads as a Z spin; scalar scale is
// uniform.
func geometryNode(el *schema.Element) schema.GeometryNode {
	node := schema.GeometryNode{
		ID:       el.ID,
		Kind:     el.Kind,
		Name:     el.Name,
		Material: el.Material,
		Scale:    [3]float64{1, 1, 1},
		Props:    make(map[string]schema.Value, len(el.Props)),
	}

	for k, v := range el.Props {
		switch k {
		case "position":
			if v.Kind == schema.ValuePosition {
				node.Position = v.Position
				continue
			}
		case "rotation":
			if n, ok := v.Scalar(); ok {
				node.Rotation = [3]float64{0, 0, n}
				continue
			}
			if xyz, ok := triple(v); ok {
				node.Rotation = xyz
				continue
			}
		case "scale":
			if n, ok := v.Scalar(); ok {
				node.Scale = [3]float64{n, n, n}
				continue
			}
			if xyz, ok := triple(v); ok {
				node.Scale = xyz
				continue
			}
		}
		node.Props[k] = v
	}
	return node
}

func triple(v schema.Value) ([3]float64, bool) {
	if v.Kind != schema.ValueList || len(v.List) != 3 {
		return [3]float64{}, false
	}
	var out [3]float64
	for i, item := range v.List {
		n, ok := item.Scalar()
		if !ok {
			return [3]float64{}, false
		}
		out[i] = n
	}
	return out, true
}
