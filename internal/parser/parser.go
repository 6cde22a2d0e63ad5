// Package parser builds the untyped syntax tree from the token stream. One
// top-down recursive-descent pass with a single token of lookahead and no
// backtracking.
package parser

import (
	"strconv"

	"github.com/siddharth-1118/creatorlang/internal/lexer"
	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Parse consumes the token sequence and returns the root block. Exactly one
// top-level block (image/video/model3d/material) is expected.
func Parse(tokens []lexer.Token) (*Node, error) {
	p := &parser{tokens: tokens}
	p.skipNewlines()

	root, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	if !documentBlocks[root.Kind] {
		return nil, schema.NewErrorf(schema.ErrCodeUnknownBlock,
			"%q cannot open a document; expected image, video, model3d or material", root.Kind).
			WithPos(root.Pos)
	}

	p.skipNewlines()
	if tok := p.peek(); tok.Kind != lexer.KindEOF {
		return nil, p.unexpected(tok, "end of file after top-level block")
	}
	return root, nil
}

type parser struct {
	tokens []lexer.Token
	pos    int
}

func (p *parser) peek() lexer.Token { return p.tokens[p.pos] }

func (p *parser) peekAt(n int) lexer.Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() lexer.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.peek().Kind == lexer.KindNewline {
		p.next()
	}
}

func (p *parser) expect(kind lexer.Kind, what string) (lexer.Token, error) {
	t := p.next()
	if t.Kind != kind {
		return t, p.unexpected(t, what)
	}
	return t, nil
}

func (p *parser) unexpected(t lexer.Token, what string) error {
	return schema.NewErrorf(schema.ErrCodeUnexpectedToken,
		"unexpected %s, expected %s", t, what).WithPos(t.Pos)
}

// parseBlockStatement parses `keyword [name] [header] ":" body`.
func (p *parser) parseBlockStatement() (*Node, error) {
	head := p.next()
	if head.Kind == lexer.KindKeyword && head.Str == "for" {
		return p.parseForBlock(head)
	}
	if head.Kind != lexer.KindIdent {
		return nil, p.unexpected(head, "a block keyword")
	}
	if !knownBlocks[head.Str] {
		return nil, schema.NewErrorf(schema.ErrCodeUnknownBlock,
			"unknown block %q", head.Str).WithPos(head.Pos)
	}

	node := &Node{Kind: head.Str, Pos: head.Pos}

	// Optional name: a string, or a bare identifier for materials and effects
	// (`material steel:`, `effect glow:`).
	switch {
	case p.peek().Kind == lexer.KindString:
		node.Name = p.next().Str
	case p.peek().Kind == lexer.KindIdent && (node.Kind == "material" || node.Kind == "effect"):
		node.Name = p.next().Str
	}

	if node.Kind == "scene" {
		w, err := p.parseSceneWindow()
		if err != nil {
			return nil, err
		}
		node.Window = w
	}

	if _, err := p.expect(lexer.KindColon, "\":\" to open the block"); err != nil {
		return nil, err
	}
	return p.parseBlockBody(node)
}

// parseSceneWindow parses `from <expr> to <expr>` in a scene header.
func (p *parser) parseSceneWindow() (*Window, error) {
	t := p.next()
	if t.Kind != lexer.KindKeyword || t.Str != "from" {
		return nil, p.unexpected(t, "\"from\" in scene header")
	}
	from, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	t = p.next()
	if t.Kind != lexer.KindKeyword || t.Str != "to" {
		return nil, p.unexpected(t, "\"to\" in scene header")
	}
	to, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	return &Window{From: from, To: to}, nil
}

// parseForBlock parses `for IDENT in [list]:` and its body. The body is
// parsed once and tagged for expansion; it is not evaluated here.
func (p *parser) parseForBlock(head lexer.Token) (*Node, error) {
	v, err := p.expect(lexer.KindIdent, "loop variable")
	if err != nil {
		return nil, err
	}
	t := p.next()
	if t.Kind != lexer.KindKeyword || t.Str != "in" {
		return nil, p.unexpected(t, "\"in\"")
	}
	list, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if list.Kind != ExprList {
		return nil, schema.NewError(schema.ErrCodeUnsupportedExpression,
			"for iterates over a literal list only").WithPos(list.Pos)
	}
	if _, err := p.expect(lexer.KindColon, "\":\" to open the loop body"); err != nil {
		return nil, err
	}

	node := &Node{
		Kind: "for",
		For:  &ForHeader{Var: v.Str, Items: list.Items},
		Pos:  head.Pos,
	}
	return p.parseBlockBody(node)
}

// parseBlockBody consumes NEWLINE INDENT stmt* DEDENT after a block header.
func (p *parser) parseBlockBody(node *Node) (*Node, error) {
	if _, err := p.expect(lexer.KindNewline, "a newline after \":\""); err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KindIndent, "an indented block body"); err != nil {
		return nil, err
	}

	for {
		p.skipNewlines()
		tok := p.peek()
		switch tok.Kind {
		case lexer.KindDedent:
			p.next()
			return node, nil
		case lexer.KindEOF:
			return node, nil
		case lexer.KindIdent, lexer.KindKeyword:
			if p.startsBlock() {
				child, err := p.parseBlockStatement()
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			} else {
				prop, err := p.parseProperty()
				if err != nil {
					return nil, err
				}
				node.Props = append(node.Props, prop)
			}
		default:
			return nil, p.unexpected(tok, "a property or nested block")
		}
	}
}

// startsBlock reports whether the statement at the cursor is a nested block.
// A statement is a block when its header line ends in a colon; properties
// never contain colons, so scanning the lookahead window to the newline is
// unambiguous.
func (p *parser) startsBlock() bool {
	tok := p.peek()
	if tok.Kind == lexer.KindKeyword && tok.Str == "for" {
		return true
	}
	if tok.Kind != lexer.KindIdent {
		return false
	}
	for n := 1; ; n++ {
		switch p.peekAt(n).Kind {
		case lexer.KindColon:
			return true
		case lexer.KindNewline, lexer.KindEOF:
			return false
		}
	}
}

// parseProperty parses `key value-expr*` up to the end of the line.
func (p *parser) parseProperty() (Property, error) {
	key := p.next()
	// `from` doubles as a property key for line/arrow endpoints.
	if key.Kind != lexer.KindIdent && !(key.Kind == lexer.KindKeyword && key.Str == "from") {
		return Property{}, p.unexpected(key, "a property key")
	}

	prop := Property{Key: key.Str, Pos: key.Pos}
	for {
		tok := p.peek()
		if tok.Kind == lexer.KindNewline || tok.Kind == lexer.KindEOF {
			if tok.Kind == lexer.KindNewline {
				p.next()
			}
			return prop, nil
		}
		expr, err := p.parseExpr()
		if err != nil {
			return Property{}, err
		}
		prop.Values = append(prop.Values, expr)
	}
}

// parseExpr parses a primary expression, then an optional `to` range tail.
func (p *parser) parseExpr() (ValueExpr, error) {
	from, err := p.parsePrimary()
	if err != nil {
		return ValueExpr{}, err
	}
	tok := p.peek()
	if tok.Kind == lexer.KindKeyword && tok.Str == "to" {
		p.next()
		to, err := p.parsePrimary()
		if err != nil {
			return ValueExpr{}, err
		}
		return ValueExpr{Kind: ExprRange, From: &from, To: &to, Pos: from.Pos}, nil
	}
	return from, nil
}

// parsePrimary parses a single value expression: literals, tuples, lists,
// calls, and the restricted stagger arithmetic. Any other expression form is
// unsupported by design.
func (p *parser) parsePrimary() (ValueExpr, error) {
	tok := p.next()
	switch tok.Kind {
	case lexer.KindNumber:
		return ValueExpr{Kind: ExprLiteral, Lit: schema.NumberValue(tok.Num), Pos: tok.Pos}, nil
	case lexer.KindDim:
		return ValueExpr{Kind: ExprLiteral, Lit: schema.DimensionValue(tok.Num, tok.Unit), Pos: tok.Pos}, nil
	case lexer.KindSize:
		return ValueExpr{Kind: ExprSize, W: tok.Num, H: tok.Num2, Pos: tok.Pos}, nil
	case lexer.KindString:
		return ValueExpr{Kind: ExprLiteral, Lit: schema.StringValue(tok.Str), Pos: tok.Pos}, nil
	case lexer.KindColor:
		c, err := parseHexColor(tok.Str)
		if err != nil {
			return ValueExpr{}, schema.NewErrorf(schema.ErrCodeInvalidToken,
				"malformed color literal #%s", tok.Str).WithPos(tok.Pos)
		}
		return ValueExpr{Kind: ExprLiteral, Lit: schema.ColorValue(c), Pos: tok.Pos}, nil
	case lexer.KindLParen:
		return p.parseTuple(tok)
	case lexer.KindLBrack:
		return p.parseList(tok)
	case lexer.KindIdent:
		switch p.peek().Kind {
		case lexer.KindLParen:
			p.next()
			return p.parseCall(tok)
		case lexer.KindDot:
			return p.parseStagger(tok)
		}
		return ValueExpr{Kind: ExprLiteral, Lit: schema.IdentValue(tok.Str), Pos: tok.Pos}, nil
	}
	return ValueExpr{}, p.unexpected(tok, "a value expression")
}

// parseTuple parses `(a, b)` or `(a, b, c)` after the opening paren.
func (p *parser) parseTuple(open lexer.Token) (ValueExpr, error) {
	items, err := p.parseExprSeq(lexer.KindRParen)
	if err != nil {
		return ValueExpr{}, err
	}
	if len(items) < 2 || len(items) > 3 {
		return ValueExpr{}, schema.NewErrorf(schema.ErrCodeUnsupportedExpression,
			"tuples take 2 or 3 components, got %d", len(items)).WithPos(open.Pos)
	}
	return ValueExpr{Kind: ExprTuple, Items: items, Pos: open.Pos}, nil
}

// parseList parses `[a, b, c]` after the opening bracket.
func (p *parser) parseList(open lexer.Token) (ValueExpr, error) {
	items, err := p.parseExprSeq(lexer.KindRBrack)
	if err != nil {
		return ValueExpr{}, err
	}
	return ValueExpr{Kind: ExprList, Items: items, Pos: open.Pos}, nil
}

// parseCall parses `name(arg, ...)` after the opening paren. Only the color
// constructors are callable.
func (p *parser) parseCall(name lexer.Token) (ValueExpr, error) {
	switch name.Str {
	case "rgb", "rgba", "gradient":
	default:
		return ValueExpr{}, schema.NewErrorf(schema.ErrCodeUnsupportedExpression,
			"unsupported function %q", name.Str).WithPos(name.Pos)
	}
	args, err := p.parseExprSeq(lexer.KindRParen)
	if err != nil {
		return ValueExpr{}, err
	}
	return ValueExpr{Kind: ExprCall, Call: name.Str, Items: args, Pos: name.Pos}, nil
}

// parseStagger parses the one permitted arithmetic form:
// `ident.index * literal`. Everything else after a dot is rejected.
func (p *parser) parseStagger(ident lexer.Token) (ValueExpr, error) {
	p.next() // consume the dot
	field, err := p.expect(lexer.KindIdent, "\"index\" after \".\"")
	if err != nil {
		return ValueExpr{}, err
	}
	if field.Str != "index" {
		return ValueExpr{}, schema.NewErrorf(schema.ErrCodeUnsupportedExpression,
			"only .index is addressable on a loop variable, got .%s", field.Str).
			WithPos(field.Pos)
	}
	if _, err := p.expect(lexer.KindStar, "\"*\" in stagger expression"); err != nil {
		return ValueExpr{}, err
	}
	lit := p.next()
	var factor schema.Value
	switch lit.Kind {
	case lexer.KindNumber:
		factor = schema.NumberValue(lit.Num)
	case lexer.KindDim:
		factor = schema.DimensionValue(lit.Num, lit.Unit)
	default:
		return ValueExpr{}, schema.NewError(schema.ErrCodeUnsupportedExpression,
			"stagger multiplier must be a numeric literal").WithPos(lit.Pos)
	}
	return ValueExpr{Kind: ExprStagger, Var: ident.Str, Factor: factor, Pos: ident.Pos}, nil
}

// parseExprSeq parses a comma-separated expression sequence up to the given
// closing token.
func (p *parser) parseExprSeq(closer lexer.Kind) ([]ValueExpr, error) {
	var items []ValueExpr
	for {
		if p.peek().Kind == closer {
			p.next()
			return items, nil
		}
		item, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		switch p.peek().Kind {
		case lexer.KindComma:
			p.next()
		case closer:
		default:
			return nil, p.unexpected(p.peek(), "\",\" or closing delimiter")
		}
	}
}

// parseHexColor converts 3/6/8 hex digits into an RGBA color.
func parseHexColor(hex string) (schema.Color, error) {
	expand := hex
	if len(hex) == 3 {
		expand = ""
		for _, c := range hex {
			expand += string(c) + string(c)
		}
	}
	component := func(s string) (float64, error) {
		n, err := strconv.ParseUint(s, 16, 8)
		return float64(n), err
	}
	r, err := component(expand[0:2])
	if err != nil {
		return schema.Color{}, err
	}
	g, err := component(expand[2:4])
	if err != nil {
		return schema.Color{}, err
	}
	b, err := component(expand[4:6])
	if err != nil {
		return schema.Color{}, err
	}
	a := 255.0
	if len(expand) == 8 {
		if a, err = component(expand[6:8]); err != nil {
			return schema.Color{}, err
		}
	}
	return schema.Color{R: r, G: g, B: b, A: a}, nil
}
