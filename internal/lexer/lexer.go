// Package lexer tokenizes CreatorLang source text. Indentation is significant:
// width increases emit Indent, decreases emit one Dedent per surrendered
// level. The lexer is not incremental; re-invoke it on the full text.
package lexer

import (
	"strconv"
	"strings"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Lex tokenizes the full source text into an ordered, finite token sequence
// terminated by an EOF token. It fails fast on the first malformed token.
func Lex(source string) ([]Token, error) {
	l := &lexer{indents: []int{0}}
	for i, line := range strings.Split(source, "\n") {
		if err := l.lexLine(line, i+1); err != nil {
			return nil, err
		}
	}
	l.closeIndents()
	l.emit(Token{Kind: KindEOF, Pos: schema.Pos{Line: l.line + 1, Col: 1}})
	return l.tokens, nil
}

type lexer struct {
	tokens  []Token
	indents []int // open indentation widths, always starts with 0
	line    int
}

func (l *lexer) emit(t Token) { l.tokens = append(l.tokens, t) }

// closeIndents pops every open indentation level, emitting Dedents.
func (l *lexer) closeIndents() {
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(Token{Kind: KindDedent, Pos: schema.Pos{Line: l.line, Col: 1}})
	}
}

func (l *lexer) lexLine(raw string, lineNo int) error {
	l.line = lineNo

	width, rest, err := leadingIndent(raw, lineNo)
	if err != nil {
		return err
	}
	if rest == "" || isCommentStart(rest) {
		return nil // blank lines and comment lines carry no indentation meaning
	}

	if err := l.applyIndent(width, lineNo); err != nil {
		return err
	}
	if err := l.lexContent(rest, lineNo, width+1); err != nil {
		return err
	}
	l.emit(Token{Kind: KindNewline, Pos: schema.Pos{Line: lineNo, Col: len(raw) + 1}})
	return nil
}

// leadingIndent measures the leading whitespace run. Tabs count as one column
// each but must not be mixed with spaces within one run.
func leadingIndent(raw string, lineNo int) (int, string, error) {
	var spaces, tabs, width int
	for width < len(raw) {
		switch raw[width] {
		case ' ':
			spaces++
		case '\t':
			tabs++
		default:
			if spaces > 0 && tabs > 0 {
				return 0, "", schema.NewError(schema.ErrCodeInconsistentIndentation,
					"tabs and spaces mixed in one indentation run").
					WithPos(schema.Pos{Line: lineNo, Col: 1})
			}
			return width, raw[width:], nil
		}
		width++
	}
	return width, "", nil
}

// applyIndent emits Indent/Dedent tokens for a width change. A dedent that
// does not land on an enclosing level is inconsistent indentation.
func (l *lexer) applyIndent(width, lineNo int) error {
	top := l.indents[len(l.indents)-1]
	switch {
	case width > top:
		l.indents = append(l.indents, width)
		l.emit(Token{Kind: KindIndent, Pos: schema.Pos{Line: lineNo, Col: 1}})
	case width < top:
		for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
			l.indents = l.indents[:len(l.indents)-1]
			l.emit(Token{Kind: KindDedent, Pos: schema.Pos{Line: lineNo, Col: 1}})
		}
		if l.indents[len(l.indents)-1] != width {
			return schema.NewError(schema.ErrCodeInconsistentIndentation,
				"dedent does not match any enclosing indentation level").
				WithPos(schema.Pos{Line: lineNo, Col: 1})
		}
	}
	return nil
}

func (l *lexer) lexContent(s string, lineNo, startCol int) error {
	i := 0
	for i < len(s) {
		c := s[i]
		pos := schema.Pos{Line: lineNo, Col: startCol + i}
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			if hexLen := colorLiteralLen(s[i+1:]); hexLen > 0 {
				l.emit(Token{Kind: KindColor, Str: s[i+1 : i+1+hexLen], Pos: pos})
				i += 1 + hexLen
				continue
			}
			return nil // comment to end of line
		case c == '"':
			str, n, err := lexString(s[i:], pos)
			if err != nil {
				return err
			}
			l.emit(Token{Kind: KindString, Str: str, Pos: pos})
			i += n
		case isDigit(c) || (c == '-' && i+1 < len(s) && isDigit(s[i+1])):
			tok, n, err := lexNumeric(s[i:], pos)
			if err != nil {
				return err
			}
			l.emit(tok)
			i += n
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			kind := KindIdent
			if keywords[word] {
				kind = KindKeyword
			}
			l.emit(Token{Kind: kind, Str: word, Pos: pos})
			i = j
		default:
			kind, ok := punctKind(c)
			if !ok {
				return schema.NewErrorf(schema.ErrCodeInvalidToken,
					"unexpected character %q", string(c)).WithPos(pos)
			}
			l.emit(Token{Kind: kind, Str: string(c), Pos: pos})
			i++
		}
	}
	return nil
}

func punctKind(c byte) (Kind, bool) {
	switch c {
	case '(':
		return KindLParen, true
	case ')':
		return KindRParen, true
	case '[':
		return KindLBrack, true
	case ']':
		return KindRBrack, true
	case ',':
		return KindComma, true
	case ':':
		return KindColon, true
	case '*':
		return KindStar, true
	case '.':
		return KindDot, true
	}
	return "", false
}

// lexString consumes a double-quoted string with \" and \\ escapes. Strings
// may not span lines.
func lexString(s string, pos schema.Pos) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		switch s[i] {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 < len(s) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
			i++
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return "", 0, schema.NewError(schema.ErrCodeUnterminatedString,
		"string literal is not terminated before end of line").WithPos(pos)
}

// lexNumeric consumes a number and any trailing unit. `800x600` becomes one
// Size token; `50px`, `45deg`, `1.5s`, `80%` become Dimension tokens.
func lexNumeric(s string, pos schema.Pos) (Token, int, error) {
	i := numberLen(s)
	num, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return Token{}, 0, schema.NewErrorf(schema.ErrCodeInvalidToken,
			"malformed number %q", s[:i]).WithPos(pos).WithCause(err)
	}

	// WxH size pair: the `x` must be followed by another number.
	if i < len(s) && s[i] == 'x' && i+1 < len(s) && isDigit(s[i+1]) {
		j := i + 1 + numberLen(s[i+1:])
		h, err := strconv.ParseFloat(s[i+1:j], 64)
		if err != nil {
			return Token{}, 0, schema.NewErrorf(schema.ErrCodeInvalidToken,
				"malformed size literal %q", s[:j]).WithPos(pos).WithCause(err)
		}
		return Token{Kind: KindSize, Num: num, Num2: h, Pos: pos}, j, nil
	}

	// Unit suffix.
	j := i
	for j < len(s) && (isAlpha(s[j]) || s[j] == '%') {
		j++
	}
	if j == i {
		return Token{Kind: KindNumber, Num: num, Pos: pos}, i, nil
	}
	unit, ok := knownUnit(s[i:j])
	if !ok {
		return Token{}, 0, schema.NewErrorf(schema.ErrCodeInvalidToken,
			"unknown unit suffix %q", s[i:j]).WithPos(pos)
	}
	return Token{Kind: KindDim, Num: num, Unit: unit, Pos: pos}, j, nil
}

func knownUnit(s string) (schema.Unit, bool) {
	switch s {
	case "px":
		return schema.UnitPixels, true
	case "deg":
		return schema.UnitDegrees, true
	case "s":
		return schema.UnitSeconds, true
	case "%":
		return schema.UnitPercent, true
	}
	return schema.UnitNone, false
}

func numberLen(s string) int {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' && i+1 < len(s) && isDigit(s[i+1]) {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	return i
}

// colorLiteralLen returns 3, 6 or 8 if the text starts with exactly that many
// hex digits followed by a non-hex boundary, 0 otherwise. This is the `#`
// disambiguation rule: hex run of a valid length is a color, anything else
// starts a comment.
func colorLiteralLen(s string) int {
	n := 0
	for n < len(s) && isHex(s[n]) {
		n++
	}
	if n < len(s) && isIdentPart(s[n]) {
		return 0 // e.g. "#center" or "#ffx" — a comment, not a color
	}
	switch n {
	case 3, 6, 8:
		return n
	}
	return 0
}

func isCommentStart(rest string) bool {
	return rest[0] == '#' && colorLiteralLen(rest[1:]) == 0
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
func isIdentStart(c byte) bool { return isAlpha(c) || c == '_' }
func isIdentPart(c byte) bool  { return isAlpha(c) || isDigit(c) || c == '_' }
