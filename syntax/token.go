package syntax

import "acc/report"

// Token represents a single lexical token.
type Token struct {
	// The kind of the token.  This must be one of the enumerated token kinds.
	Kind int

	// The string value of the token.
	Value string

	// The text span over which the token exists.  This may not directly
	// correspond to its value: eg. the value of a string token has the leading
	// quotes trimmed off for convenience.
	Span *report.TextSpan
}

// Enumeration of token kinds.
const (
	TOK_FN = iota
	TOK_LET
	TOK_RETURN
	TOK_IF
	TOK_ELSE
	TOK_FOR

	TOK_PLUS
	TOK_MINUS
	TOK_STAR
	TOK_DIV
	TOK_ASSIGN

	TOK_LPAREN
	TOK_RPAREN
	TOK_LBRACE
	TOK_RBRACE
	TOK_COMMA
	TOK_SEMI

	TOK_IDENT
	TOK_NUMLIT
	TOK_STRINGLIT

	TOK_EOF
)

// keywordPatterns maps keyword strings to their token kinds.
var keywordPatterns = map[string]int{
	"fn":     TOK_FN,
	"let":    TOK_LET,
	"return": TOK_RETURN,
	"if":     TOK_IF,
	"else":   TOK_ELSE,
	"for":    TOK_FOR,
}

// tokenNames maps token kinds to the names used for them in error messages.
var tokenNames = map[int]string{
	TOK_FN:        "`fn`",
	TOK_LET:       "`let`",
	TOK_RETURN:    "`return`",
	TOK_IF:        "`if`",
	TOK_ELSE:      "`else`",
	TOK_FOR:       "`for`",
	TOK_PLUS:      "`+`",
	TOK_MINUS:     "`-`",
	TOK_STAR:      "`*`",
	TOK_DIV:       "`/`",
	TOK_ASSIGN:    "`=`",
	TOK_LPAREN:    "`(`",
	TOK_RPAREN:    "`)`",
	TOK_LBRACE:    "`{`",
	TOK_RBRACE:    "`}`",
	TOK_COMMA:     "`,`",
	TOK_SEMI:      "`;`",
	TOK_IDENT:     "identifier",
	TOK_NUMLIT:    "integer literal",
	TOK_STRINGLIT: "string literal",
	TOK_EOF:       "end of file",
}
