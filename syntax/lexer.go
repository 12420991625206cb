package syntax

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"acc/report"
)

// Lexer is responsible for tokenizing a source file.
type Lexer struct {
	file    *bufio.Reader
	tokBuff *strings.Builder

	line, col           int
	startLine, startCol int
}

// NewLexer creates a new lexer reading from r.
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		file:    bufio.NewReader(r),
		tokBuff: &strings.Builder{},
	}
}

// NextToken retrieves the next token from the input file. If the file has
// ended, this will be an EOF token.
func (l *Lexer) NextToken() (*Token, error) {
	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		} else if c == -1 {
			break
		}

		switch c {
		case '\n', '\t', ' ', '\r', '\v', '\f':
			l.skip()
		case '/':
			if tok, err := l.lexCommentOrDiv(); tok != nil || err != nil {
				return tok, err
			}
		case '"':
			return l.lexStringLit()
		default:
			if isDecimalDigit(c) {
				return l.lexNumericLit()
			} else if isFirstIdentChar(c) {
				return l.lexIdentOrKeyword()
			} else {
				return l.lexPunctOrOper()
			}
		}
	}

	l.mark()
	return l.makeToken(TOK_EOF), nil
}

// -----------------------------------------------------------------------------

// symbolPatterns maps symbol strings (patterns) to their punctuation/operator
// token kind.
var symbolPatterns = map[rune]int{
	'+': TOK_PLUS,
	'-': TOK_MINUS,
	'*': TOK_STAR,
	// Division operator is handled with comment logic.
	'=': TOK_ASSIGN,

	'(': TOK_LPAREN,
	')': TOK_RPAREN,
	'{': TOK_LBRACE,
	'}': TOK_RBRACE,
	',': TOK_COMMA,
	';': TOK_SEMI,
}

// lexPunctOrOper lexes a punctuation or operator symbol.
func (l *Lexer) lexPunctOrOper() (*Token, error) {
	l.mark()
	c, err := l.eat()
	if err != nil {
		return nil, err
	}

	kind, ok := symbolPatterns[c]
	if !ok {
		return nil, report.Raise(l.getSpan(), "unknown rune: `%c`", c)
	}

	return l.makeToken(kind), nil
}

// lexIdentOrKeyword lexes an identifier or a keyword.
func (l *Lexer) lexIdentOrKeyword() (*Token, error) {
	l.mark()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if isFirstIdentChar(c) || isDecimalDigit(c) {
			l.eat()
		} else {
			break
		}
	}

	if kind, ok := keywordPatterns[l.tokBuff.String()]; ok {
		return l.makeToken(kind), nil
	}

	return l.makeToken(TOK_IDENT), nil
}

// lexNumericLit lexes a decimal integer literal.  Range checking is left to
// the parser.
func (l *Lexer) lexNumericLit() (*Token, error) {
	l.mark()

	for {
		c, err := l.peek()
		if err != nil {
			return nil, err
		}

		if isDecimalDigit(c) {
			l.eat()
		} else if isFirstIdentChar(c) {
			l.eat()
			return nil, report.Raise(l.getSpan(), "malformed integer literal")
		} else {
			break
		}
	}

	return l.makeToken(TOK_NUMLIT), nil
}

// lexStringLit lexes a double-quoted string literal.
func (l *Lexer) lexStringLit() (*Token, error) {
	l.mark()

	// skip the opening quote
	l.skip()

	for {
		c, err := l.skip()
		if err != nil {
			return nil, err
		}

		switch c {
		case -1:
			return nil, report.Raise(l.getSpan(), "unclosed string literal")
		case '\n':
			return nil, report.Raise(l.getSpan(), "string literal cannot contain a newline")
		case '"':
			return l.makeToken(TOK_STRINGLIT), nil
		case '\\':
			if err := l.eatEscapeSequence(); err != nil {
				return nil, err
			}
		default:
			l.tokBuff.WriteRune(c)
		}
	}
}

// eatEscapeSequence reads the character following a backslash and writes the
// character it denotes to the token buffer.
func (l *Lexer) eatEscapeSequence() error {
	c, err := l.skip()
	if err != nil {
		return err
	}

	switch c {
	case 'n':
		l.tokBuff.WriteRune('\n')
	case 't':
		l.tokBuff.WriteRune('\t')
	case 'r':
		l.tokBuff.WriteRune('\r')
	case '0':
		l.tokBuff.WriteRune(0)
	case '\\', '"', '\'':
		l.tokBuff.WriteRune(c)
	case -1:
		return report.Raise(l.getSpan(), "expected escape sequence not end of file")
	default:
		return report.Raise(l.getSpan(), "unknown escape sequence: `\\%c`", c)
	}

	return nil
}

// lexCommentOrDiv lexes a line comment or a division operator.  If a comment
// is lexed, both returned values are nil.
func (l *Lexer) lexCommentOrDiv() (*Token, error) {
	l.mark()
	l.skip()

	c, err := l.peek()
	if err != nil {
		return nil, err
	}

	if c == '/' {
		for {
			c, err := l.skip()
			if err != nil {
				return nil, err
			} else if c == -1 || c == '\n' {
				return nil, nil
			}
		}
	}

	tok := l.makeToken(TOK_DIV)
	tok.Value = "/"
	return tok, nil
}

// -----------------------------------------------------------------------------

// mark sets the lexer's stored start line and column to its current position.
func (l *Lexer) mark() {
	l.startLine = l.line
	l.startCol = l.col
}

// makeToken produces a new token of the given kind from the lexer's state and
// resets the lexer to begin building the next token.
func (l *Lexer) makeToken(kind int) *Token {
	value := l.tokBuff.String()
	l.tokBuff.Reset()

	return &Token{
		Kind:  kind,
		Value: value,
		Span:  l.getSpan(),
	}
}

// getSpan calculates a text span based on the lexer's current state.
func (l *Lexer) getSpan() *report.TextSpan {
	return &report.TextSpan{
		StartLine: l.startLine,
		StartCol:  l.startCol,
		EndLine:   l.line,
		EndCol:    l.col,
	}
}

// -----------------------------------------------------------------------------

// eat moves the lexer forward one rune and writes the rune to the token buffer.
// If the lexer encounters an EOF, -1 is returned as the rune value.
func (l *Lexer) eat() (rune, error) {
	c, err := l.skip()
	if err == nil && c != -1 {
		l.tokBuff.WriteRune(c)
	}

	return c, err
}

// skip moves the lexer forward one rune but does not write the rune to the
// token buffer.  If the lexer encounters an EOF, -1 is returned as the rune
// value.
func (l *Lexer) skip() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	l.updatePos(c)

	return c, nil
}

// peek returns the next rune in the file without moving the lexer forward or
// writing the rune to the token buffer.  If the lexer encounters an EOF, -1 is
// returned as rune value.
func (l *Lexer) peek() (rune, error) {
	c, _, err := l.file.ReadRune()
	if err != nil {
		if err == io.EOF {
			return -1, nil
		}

		return 0, err
	}

	if err = l.file.UnreadRune(); err != nil {
		return 0, err
	}

	return c, nil
}

// updatePos updates the lexer's position based on input character.
func (l *Lexer) updatePos(c rune) {
	switch c {
	case '\n':
		l.line++
		l.col = 0
	case '\t':
		l.col += 4
	default:
		l.col++
	}
}

// -----------------------------------------------------------------------------

// isDecimalDigit returns whether c is a decimal digit.
func isDecimalDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// isFirstIdentChar returns whether c could be the first rune of an identifier.
func isFirstIdentChar(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}
