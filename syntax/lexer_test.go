package syntax

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"acc/report"
)

func lexAll(t *testing.T, src string) []*Token {
	t.Helper()

	l := NewLexer(strings.NewReader(src))

	var toks []*Token
	for {
		tok, err := l.NextToken()
		require.NoError(t, err)

		toks = append(toks, tok)
		if tok.Kind == TOK_EOF {
			return toks
		}
	}
}

func kinds(toks []*Token) []int {
	ks := make([]int, len(toks))
	for i, tok := range toks {
		ks[i] = tok.Kind
	}

	return ks
}

func TestLexTokens(t *testing.T) {
	toks := lexAll(t, "fn f(a, b) { let x = a*b/2 - 1 + (3); return x; } // done")

	assert.Equal(t, []int{
		TOK_FN, TOK_IDENT, TOK_LPAREN, TOK_IDENT, TOK_COMMA, TOK_IDENT, TOK_RPAREN, TOK_LBRACE,
		TOK_LET, TOK_IDENT, TOK_ASSIGN, TOK_IDENT, TOK_STAR, TOK_IDENT, TOK_DIV, TOK_NUMLIT,
		TOK_MINUS, TOK_NUMLIT, TOK_PLUS, TOK_LPAREN, TOK_NUMLIT, TOK_RPAREN, TOK_SEMI,
		TOK_RETURN, TOK_IDENT, TOK_SEMI, TOK_RBRACE, TOK_EOF,
	}, kinds(toks))

	assert.Equal(t, "f", toks[1].Value)
	assert.Equal(t, "2", toks[15].Value)
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "if else for fnord lets _x1")

	assert.Equal(t, []int{TOK_IF, TOK_ELSE, TOK_FOR, TOK_IDENT, TOK_IDENT, TOK_IDENT, TOK_EOF}, kinds(toks))
	assert.Equal(t, "fnord", toks[3].Value)
}

func TestLexSpans(t *testing.T) {
	toks := lexAll(t, "let\n  abc = 12;")

	assert.Equal(t, &report.TextSpan{StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 3}, toks[0].Span)
	assert.Equal(t, &report.TextSpan{StartLine: 1, StartCol: 2, EndLine: 1, EndCol: 5}, toks[1].Span)
	assert.Equal(t, &report.TextSpan{StartLine: 1, StartCol: 8, EndLine: 1, EndCol: 10}, toks[3].Span)
}

func TestLexStrings(t *testing.T) {
	toks := lexAll(t, `"a\tb\n\"q\"\\"`)

	require.Equal(t, TOK_STRINGLIT, toks[0].Kind)
	assert.Equal(t, "a\tb\n\"q\"\\", toks[0].Value)
}

func TestLexComments(t *testing.T) {
	toks := lexAll(t, "// all comment\n// more\nx // trailing")

	assert.Equal(t, []int{TOK_IDENT, TOK_EOF}, kinds(toks))
	assert.Equal(t, 2, toks[0].Span.StartLine)
}

func TestLexErrors(t *testing.T) {
	for _, src := range []string{
		"12ab",
		`"unclosed`,
		"\"new\nline\"",
		`"\q"`,
		"a % b",
	} {
		_, err := NewLexer(strings.NewReader(src)).NextToken()
		if err == nil {
			// the error may follow a valid token
			l := NewLexer(strings.NewReader(src))
			for err == nil {
				var tok *Token
				tok, err = l.NextToken()
				if tok != nil && tok.Kind == TOK_EOF {
					break
				}
			}
		}

		var lce *report.LocalCompileError
		assert.True(t, errors.As(err, &lce), "%q: got %v", src, err)
	}
}
