package parser_test

import (
	"testing"

	"github.com/jldupont/goprolog/pkg/parser"
	"github.com/jldupont/goprolog/pkg/types"
)

type lexerTestCase struct {
	name     string
	input    string
	expected []parser.Token
	errCode  types.ErrorCode
}

func runLexerTests(t *testing.T, tests []lexerTestCase) {
	t.Helper()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := parser.NewLexer(tc.input)
			var got []parser.Token
			for {
				tok := l.Next()
				if tok.Type == parser.TokenEOF {
					break
				}
				if tok.Type == parser.TokenError {
					if tc.errCode == "" {
						t.Fatalf("unexpected error: %v", l.Error())
					}
					if !types.IsCode(l.Error(), tc.errCode) {
						t.Fatalf("expected error %s, got %v", tc.errCode, l.Error())
					}
					return
				}
				got = append(got, tok)
			}
			if tc.errCode != "" {
				t.Fatalf("expected error %s, got none", tc.errCode)
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("expected %d tokens, got %d: %v", len(tc.expected), len(got), got)
			}
			for i, exp := range tc.expected {
				tok := got[i]
				if tok.Type != exp.Type || tok.Value != exp.Value || tok.Position != exp.Position {
					t.Fatalf("token %d: expected %s %q @%d, got %s %q @%d",
						i, exp.Type, exp.Value, exp.Position, tok.Type, tok.Value, tok.Position)
				}
			}
		})
	}
}

func TestLexerNamesAndVariables(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "atom and variables",
			input: "foo X _Bar _",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "foo", Position: 0},
				{Type: parser.TokenVariable, Value: "X", Position: 4},
				{Type: parser.TokenVariable, Value: "_Bar", Position: 6},
				{Type: parser.TokenVariable, Value: "_", Position: 11},
			},
		},
		{
			name:  "symbolic atoms",
			input: ":- \\== =..",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: ":-", Position: 0},
				{Type: parser.TokenName, Value: "\\==", Position: 3},
				{Type: parser.TokenName, Value: "=..", Position: 7},
			},
		},
		{
			name:  "solo atoms do not combine",
			input: "!;!",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "!", Position: 0},
				{Type: parser.TokenName, Value: ";", Position: 1},
				{Type: parser.TokenName, Value: "!", Position: 2},
			},
		},
		{
			name:  "quoted atom with escapes",
			input: `'it''s\n'`,
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "it's\n", Position: 0},
			},
		},
		{
			name:  "string",
			input: `"hello"`,
			expected: []parser.Token{
				{Type: parser.TokenString, Value: "hello", Position: 0},
			},
		},
	})
}

func TestLexerNumbers(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "integer",
			input: "42",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "42", Position: 0},
			},
		},
		{
			name:  "decimal and exponent",
			input: "3.14 1.0e10 2E-3",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "3.14", Position: 0},
				{Type: parser.TokenNumber, Value: "1.0e10", Position: 5},
				{Type: parser.TokenNumber, Value: "2E-3", Position: 12},
			},
		},
		{
			name:  "number before clause end",
			input: "1.",
			expected: []parser.Token{
				{Type: parser.TokenNumber, Value: "1", Position: 0},
				{Type: parser.TokenEnd, Value: ".", Position: 1},
			},
		},
	})
}

func TestLexerLayout(t *testing.T) {
	runLexerTests(t, []lexerTestCase{
		{
			name:  "line comment",
			input: "a % comment\nb",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenName, Value: "b", Position: 12},
			},
		},
		{
			name:  "block comment",
			input: "a/* x */b",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "a", Position: 0},
				{Type: parser.TokenName, Value: "b", Position: 8},
			},
		},
		{
			name:    "unclosed comment",
			input:   "a /* x",
			errCode: types.ErrCommentNotClosed,
		},
		{
			name:    "unclosed quote",
			input:   "'abc",
			errCode: types.ErrQuotedNotClosed,
		},
		{
			name:  "punctuation",
			input: "f(a,[b|C]).",
			expected: []parser.Token{
				{Type: parser.TokenName, Value: "f", Position: 0},
				{Type: parser.TokenParenOpen, Value: "(", Position: 1},
				{Type: parser.TokenName, Value: "a", Position: 2},
				{Type: parser.TokenComma, Value: ",", Position: 3},
				{Type: parser.TokenBracketOpen, Value: "[", Position: 4},
				{Type: parser.TokenName, Value: "b", Position: 5},
				{Type: parser.TokenBar, Value: "|", Position: 6},
				{Type: parser.TokenVariable, Value: "C", Position: 7},
				{Type: parser.TokenBracketClose, Value: "]", Position: 8},
				{Type: parser.TokenParenClose, Value: ")", Position: 9},
				{Type: parser.TokenEnd, Value: ".", Position: 10},
			},
		},
	})
}

func TestLexerLayoutFlag(t *testing.T) {
	l := parser.NewLexer("f (a)")
	if tok := l.Next(); tok.Layout {
		t.Fatalf("expected no layout before %q", tok.Value)
	}
	if tok := l.Next(); !tok.Layout || tok.Type != parser.TokenParenOpen {
		t.Fatalf("expected layout before '(', got %+v", tok)
	}
}
