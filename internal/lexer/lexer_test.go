package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siddharth-1118/creatorlang/pkg/schema"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var ce *schema.CreatorError
	require.ErrorAs(t, err, &ce)
	return ce.Code
}

func TestLexSimpleBlock(t *testing.T) {
	toks, err := Lex("image \"card\":\n    size 400x300\n")
	require.NoError(t, err)

	assert.Equal(t, []Kind{
		KindIdent, KindString, KindColon, KindNewline,
		KindIndent, KindIdent, KindSize, KindNewline,
		KindDedent, KindEOF,
	}, kinds(toks))

	assert.Equal(t, "image", toks[0].Str)
	assert.Equal(t, "card", toks[1].Str)
	assert.Equal(t, 400.0, toks[6].Num)
	assert.Equal(t, 300.0, toks[6].Num2)
}

func TestLexDimensionsAndNumbers(t *testing.T) {
	toks, err := Lex("delay 1.5s rotate 45deg radius 50px fade 80% plain -2.25")
	require.NoError(t, err)

	var dims []Token
	for _, tok := range toks {
		if tok.Kind == KindDim || tok.Kind == KindNumber {
			dims = append(dims, tok)
		}
	}
	require.Len(t, dims, 5)
	assert.Equal(t, schema.UnitSeconds, dims[0].Unit)
	assert.Equal(t, 1.5, dims[0].Num)
	assert.Equal(t, schema.UnitDegrees, dims[1].Unit)
	assert.Equal(t, schema.UnitPixels, dims[2].Unit)
	assert.Equal(t, schema.UnitPercent, dims[3].Unit)
	assert.Equal(t, KindNumber, dims[4].Kind)
	assert.Equal(t, -2.25, dims[4].Num)
}

func TestLexUnknownUnit(t *testing.T) {
	_, err := Lex("delay 5ms")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidToken, errCode(t, err))
}

func TestLexColorVersusComment(t *testing.T) {
	// A hex run of length 3, 6 or 8 after # is a color literal.
	toks, err := Lex("background #1a2b3c")
	require.NoError(t, err)
	require.Equal(t, KindColor, toks[1].Kind)
	assert.Equal(t, "1a2b3c", toks[1].Str)

	// Anything else after # starts a comment that runs to end of line.
	toks, err = Lex("radius 5 # the default looks too small")
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindIdent, KindNumber, KindNewline, KindEOF}, kinds(toks))

	// "#ffx" is a comment: the hex run has an ident continuation.
	toks, err = Lex("radius 5 #ffx")
	require.NoError(t, err)
	assert.Equal(t, []Kind{KindIdent, KindNumber, KindNewline, KindEOF}, kinds(toks))
}

func TestLexShortAndAlphaColors(t *testing.T) {
	toks, err := Lex("color #fff shade #80ff0022")
	require.NoError(t, err)
	assert.Equal(t, "fff", toks[1].Str)
	assert.Equal(t, "80ff0022", toks[3].Str)
}

func TestLexStringEscapes(t *testing.T) {
	toks, err := Lex(`content "say \"hi\" \\ done"`)
	require.NoError(t, err)
	require.Equal(t, KindString, toks[1].Kind)
	assert.Equal(t, `say "hi" \ done`, toks[1].Str)
}

func TestLexUnterminatedString(t *testing.T) {
	_, err := Lex(`content "no closing quote`)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeUnterminatedString, errCode(t, err))
}

func TestLexKeywords(t *testing.T) {
	toks, err := Lex("for x in [1, 2]: from 0s to 3s")
	require.NoError(t, err)

	words := map[string]Kind{}
	for _, tok := range toks {
		if tok.Kind == KindKeyword || tok.Kind == KindIdent {
			words[tok.Str] = tok.Kind
		}
	}
	assert.Equal(t, KindKeyword, words["for"])
	assert.Equal(t, KindKeyword, words["in"])
	assert.Equal(t, KindKeyword, words["from"])
	assert.Equal(t, KindKeyword, words["to"])
	assert.Equal(t, KindIdent, words["x"])
}

func TestLexNestedIndentation(t *testing.T) {
	src := "a:\n    b:\n        c 1\n    d 2\ne 3\n"
	toks, err := Lex(src)
	require.NoError(t, err)

	var indents, dedents int
	for _, tok := range toks {
		switch tok.Kind {
		case KindIndent:
			indents++
		case KindDedent:
			dedents++
		}
	}
	assert.Equal(t, 2, indents)
	assert.Equal(t, 2, dedents)
}

func TestLexDedentToUnknownLevel(t *testing.T) {
	_, err := Lex("a:\n        b 1\n    c 2\n")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInconsistentIndentation, errCode(t, err))
}

func TestLexMixedTabsAndSpaces(t *testing.T) {
	_, err := Lex("a:\n\t  b 1\n")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInconsistentIndentation, errCode(t, err))
}

func TestLexBlankAndCommentLinesAreNeutral(t *testing.T) {
	src := "a:\n    b 1\n\n# standalone comment\n    c 2\n"
	toks, err := Lex(src)
	require.NoError(t, err)

	// No dedent between b and c despite the intervening flush-left comment.
	var sawDedentBeforeC bool
	for i, tok := range toks {
		if tok.Kind == KindIdent && tok.Str == "c" {
			for _, prev := range toks[:i] {
				if prev.Kind == KindDedent {
					sawDedentBeforeC = true
				}
			}
		}
	}
	assert.False(t, sawDedentBeforeC)
}

func TestLexUnexpectedCharacter(t *testing.T) {
	_, err := Lex("radius @5")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidToken, errCode(t, err))
}

func TestLexEOFAlwaysPresent(t *testing.T) {
	toks, err := Lex("")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, KindEOF, toks[len(toks)-1].Kind)
}
