package lexer

import (
	"fmt"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

// Kind enumerates token kinds produced by the lexer.
type Kind string

const (
	KindIdent   Kind = "ident"
	KindKeyword Kind = "keyword"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindDim     Kind = "dimension" // unit-suffixed number, e.g. 50px, 2s, 45deg
	KindSize    Kind = "size"      // WxH pair, e.g. 800x600
	KindColor   Kind = "color"     // #RGB / #RRGGBB / #RRGGBBAA hex literal
	KindLParen  Kind = "lparen"
	KindRParen  Kind = "rparen"
	KindLBrack  Kind = "lbracket"
	KindRBrack  Kind = "rbracket"
	KindComma   Kind = "comma"
	KindColon   Kind = "colon"
	KindStar    Kind = "star"
	KindDot     Kind = "dot"
	KindNewline Kind = "newline"
	KindIndent  Kind = "indent"
	KindDedent  Kind = "dedent"
	KindEOF     Kind = "eof"
)

// keywords are the only reserved words of the language; every other word is a
// plain identifier resolved contextually.
var keywords = map[string]bool{
	"for":  true,
	"in":   true,
	"to":   true,
	"from": true,
}

// Token is one lexical unit. Immutable once produced.
type Token struct {
	Kind Kind
	Str  string      // ident/keyword/string text, or raw hex digits for colors
	Num  float64     // numeric payload for number/dimension/size
	Num2 float64     // height for size tokens
	Unit schema.Unit // unit tag for dimension tokens
	Pos  schema.Pos
}

func (t Token) String() string {
	switch t.Kind {
	case KindIdent, KindKeyword, KindString:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Str)
	case KindNumber:
		return fmt.Sprintf("number(%g)", t.Num)
	case KindDim:
		return fmt.Sprintf("dimension(%g%s)", t.Num, t.Unit)
	case KindSize:
		return fmt.Sprintf("size(%gx%g)", t.Num, t.Num2)
	case KindColor:
		return fmt.Sprintf("color(#%s)", t.Str)
	}
	return string(t.Kind)
}
