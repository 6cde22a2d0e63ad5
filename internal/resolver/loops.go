package resolver

import (
	"github.com/siddharth-1118/creatorlang/internal/parser"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// expandLoops replaces every `for` node among the children with one cloned
// copy of its body per list element, substituting the loop variable into
// every property expression of the clones. Outer loops expand before inner
// ones; the expanded tree is always loop-free.
func (r *Resolver) expandLoops(node *parser.Node) (*parser.Node, error) {
	out := &parser.Node{
		Kind:   node.Kind,
		Name:   node.Name,
		For:    node.For,
		Window: node.Window,
		Props:  node.Props,
		Pos:    node.Pos,
	}
	for _, child := range node.Children {
		if child.Kind == "for" {
			expanded, err := r.expandFor(child)
			if err != nil {
				return nil, err
			}
			out.Children = append(out.Children, expanded...)
			continue
		}
		rec, err := r.expandLoops(child)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, rec)
	}
	return out, nil
}

// expandFor produces the sibling clones for one loop node.
func (r *Resolver) expandFor(loop *parser.Node) ([]*parser.Node, error) {
	var siblings []*parser.Node
	for idx, item := range loop.For.Items {
		for _, body := range loop.Children {
			clone, err := r.substitute(body, loop.For.Var, item, idx)
			if err != nil {
				return nil, err
			}
			// The clone body may itself contain nested loops.
			expanded, err := r.expandLoops(clone)
			if err != nil {
				return nil, err
			}
			siblings = append(siblings, expanded)
		}
	}
	return siblings, nil
}

// substitute deep-copies a node with the loop variable replaced in every
// property expression.
func (r *Resolver) substitute(node *parser.Node, loopVar string, item parser.ValueExpr, idx int) (*parser.Node, error) {
	out := &parser.Node{
		Kind:   node.Kind,
		Name:   node.Name,
		For:    node.For,
		Window: node.Window,
		Pos:    node.Pos,
	}
	for _, prop := range node.Props {
		sub := parser.Property{Key: prop.Key, Pos: prop.Pos}
		for _, v := range prop.Values {
			sv, err := r.substituteExpr(v, loopVar, item, idx)
			if err != nil {
				return nil, err
			}
			sub.Values = append(sub.Values, sv)
		}
		out.Props = append(out.Props, sub)
	}
	for _, child := range node.Children {
		sc, err := r.substitute(child, loopVar, item, idx)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, sc)
	}
	return out, nil
}

func (r *Resolver) substituteExpr(v parser.ValueExpr, loopVar string, item parser.ValueExpr, idx int) (parser.ValueExpr, error) {
	switch v.Kind {
	case parser.ExprLiteral:
		if v.Lit.Kind == schema.ValueIdent && v.Lit.Str == loopVar {
			sub := item
			sub.Pos = v.Pos
			return sub, nil
		}
		return v, nil
	case parser.ExprStagger:
		if v.Var != loopVar {
			return v, nil // belongs to an enclosing loop still to expand
		}
		val, err := r.stagger.Eval(v.Var, v.Factor, idx)
		if err != nil {
			return parser.ValueExpr{}, err
		}
		return parser.ValueExpr{Kind: parser.ExprLiteral, Lit: val, Pos: v.Pos}, nil
	case parser.ExprTuple, parser.ExprList, parser.ExprCall:
		out := v
		out.Items = make([]parser.ValueExpr, len(v.Items))
		for i, it := range v.Items {
			si, err := r.substituteExpr(it, loopVar, item, idx)
			if err != nil {
				return parser.ValueExpr{}, err
			}
			out.Items[i] = si
		}
		return out, nil
	case parser.ExprRange:
		from, err := r.substituteExpr(*v.From, loopVar, item, idx)
		if err != nil {
			return parser.ValueExpr{}, err
		}
		to, err := r.substituteExpr(*v.To, loopVar, item, idx)
		if err != nil {
			return parser.ValueExpr{}, err
		}
		out := v
		out.From, out.To = &from, &to
		return out, nil
	}
	return v, nil
}
