package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jldupont/goprolog/pkg/types"
)

const eof = -1

// Lexer converts Prolog source text into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	layout := l.skipLayout()
	if l.err != nil {
		return Token{Type: TokenError, Position: l.current, Layout: layout}
	}

	t := l.scan()
	t.Layout = layout
	return t
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

func (l *Lexer) scan() Token {
	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	if tt := lookupPunctuation(ch); tt > 0 {
		return l.newToken(tt)
	}

	switch {
	case isSolo(ch):
		return l.newToken(TokenName)
	case unicode.IsLower(ch):
		l.acceptAll(isAlnum)
		return l.newToken(TokenName)
	case unicode.IsUpper(ch) || ch == '_':
		l.acceptAll(isAlnum)
		return l.newToken(TokenVariable)
	case isDigit(ch):
		l.backup()
		return l.scanNumber()
	case ch == '\'':
		t := l.scanQuoted(ch, TokenName)
		t.Quoted = true
		return t
	case ch == '"':
		return l.scanQuoted(ch, TokenString)
	case ch == '.' && l.atClauseEnd():
		return l.newToken(TokenEnd)
	case isSymbolChar(ch):
		l.acceptAll(isSymbolChar)
		return l.newToken(TokenName)
	}

	return l.error(types.ErrUnexpectedToken, "Unexpected character "+string(ch))
}

// atClauseEnd reports whether the '.' just read terminates a clause:
// it must be followed by layout, a line comment or the end of input.
func (l *Lexer) atClauseEnd() bool {
	r := l.peek()
	return r == eof || isWhitespace(r) || r == '%'
}

// scanNumber reads a number literal from the current position.
// Format: [0-9]+(\.[0-9]+)?([eE][+-]?[0-9]+)?
func (l *Lexer) scanNumber() Token {
	l.acceptAll(isDigit)

	// Decimal part, only when a digit follows the dot: "X = 1." ends a clause.
	if l.peek() == '.' {
		mark, width := l.current, l.width
		l.nextRune()
		if !l.acceptAll(isDigit) {
			l.current, l.width = mark, width
			return l.newToken(TokenNumber)
		}
	}

	// Exponent part
	if r := l.peek(); r == 'e' || r == 'E' {
		mark, width := l.current, l.width
		l.nextRune()
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			l.current, l.width = mark, width
		}
	}

	return l.newToken(TokenNumber)
}

// scanQuoted reads a quoted atom or string. The opening quote has already
// been consumed. A doubled quote stands for the quote character itself.
func (l *Lexer) scanQuoted(quote rune, tt TokenType) Token {
	var b strings.Builder
	for {
		r := l.nextRune()
		switch r {
		case eof:
			return l.error(types.ErrQuotedNotClosed, "Unterminated quoted text")
		case quote:
			if l.peek() != quote {
				t := Token{Type: tt, Value: b.String(), Position: l.start}
				l.width = 0
				l.start = l.current
				return t
			}
			l.nextRune()
			b.WriteRune(quote)
		case '\\':
			switch e := l.nextRune(); e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case eof:
				return l.error(types.ErrQuotedNotClosed, "Unterminated quoted text")
			default:
				b.WriteRune(e)
			}
		default:
			b.WriteRune(r)
		}
	}
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(code types.ErrorCode, message string) Token {
	t := l.newToken(TokenError)
	l.err = &types.Error{
		Code:     code,
		Message:  message,
		Position: t.Position,
		Token:    t.Value,
	}
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	if l.current >= l.length {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.current:])
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
	l.width = 0
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if r := l.nextRune(); r != eof && isValid(r) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipLayout skips whitespace, % line comments and /* block comments */.
// It reports whether anything was skipped.
func (l *Lexer) skipLayout() bool {
	begin := l.current
	for {
		if l.err != nil {
			return l.current > begin
		}

		l.acceptAll(isWhitespace)
		l.ignore()

		switch {
		case l.peek() == '%':
			for r := l.nextRune(); r != eof && r != '\n'; r = l.nextRune() {
			}
			l.ignore()
		case strings.HasPrefix(l.input[l.current:], "/*"):
			end := strings.Index(l.input[l.current+2:], "*/")
			if end < 0 {
				l.err = &types.Error{
					Code:     types.ErrCommentNotClosed,
					Message:  "Unclosed comment",
					Position: l.current,
				}
				return true
			}
			l.current += 2 + end + 2
			l.width = 0
			l.ignore()
		default:
			return l.current > begin
		}
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isAlnum(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
