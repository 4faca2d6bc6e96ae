package parser_test

import (
	"testing"

	"github.com/jldupont/goprolog/pkg/parser"
	"github.com/jldupont/goprolog/pkg/types"
)

func mustParse(t *testing.T, src string) types.Term {
	t.Helper()
	term, err := parser.ParseClause(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	return term
}

func TestParseCanonicalForms(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"foo.", "foo"},
		{"f(a, b).", "f(a,b)"},
		{"p(X) :- q(X).", "rule(p(X),q(X))"},
		{"p :- a, b ; c.", "rule(p,disj(conj(a,b),c))"},
		{"p :- a, (b ; c).", "rule(p,conj(a,disj(b,c)))"},
		{"?- X = Y.", "query(unif(X,Y))"},
		{"X is 1 + 2 * 3.", "is(X,+(1,*(2,3)))"},
		{"X is 1 - 2 - 3.", "is(X,-(-(1,2),3))"},
		{"X is 7 mod 2.", "is(X,mod(7,2))"},
		{"X is -1.", "is(X,-1)"},
		{"X is - Y.", "is(X,-(Y))"},
		{"\\+ a.", "not(a)"},
		{"a \\== b.", "not_equal(a,b)"},
		{"f([1, 2 | T]).", "f([1,2|T])"},
		{"f([]).", "f([])"},
		{"'hello world'.", "'hello world'"},
		{"f(\"text\").", "f(text)"},
		{"X = 'A'.", "unif(X,'A')"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got := types.Format(mustParse(t, tc.input))
			if got != tc.expected {
				t.Fatalf("expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestParseAttributes(t *testing.T) {
	term := mustParse(t, "X < 3 + Y.")
	f, ok := term.(*types.Functor)
	if !ok {
		t.Fatalf("expected functor, got %T", term)
	}
	if !f.Has(types.AttrPrimitive | types.AttrBoolean) {
		t.Fatalf("expected primitive boolean attributes on %s", f.Name)
	}
	sum := f.Args[1].(*types.Functor)
	if !sum.Has(types.AttrPrimitive | types.AttrToEvaluate) {
		t.Fatalf("expected to_evaluate attribute on %s", sum.Name)
	}

	unif := mustParse(t, "a = b.").(*types.Functor)
	if unif.Name != "unif" || !unif.Has(types.AttrBuiltin) {
		t.Fatalf("expected builtin unif, got %s", unif.Name)
	}
}

func TestParseSharedVariables(t *testing.T) {
	rule := mustParse(t, "p(X, _, _) :- q(X).").(*types.Functor)
	head := rule.Args[0].(*types.Functor)
	body := rule.Args[1].(*types.Functor)
	if head.Args[0] != body.Args[0] {
		t.Fatalf("expected both X occurrences to be the same variable")
	}
	a1 := head.Args[1].(*types.Var)
	a2 := head.Args[2].(*types.Var)
	if a1.Name == a2.Name {
		t.Fatalf("expected distinct anonymous names, got %s twice", a1.Name)
	}
	if !types.IsAnonymous(a1.Name) {
		t.Fatalf("expected anonymous name, got %s", a1.Name)
	}
}

func TestParseProgram(t *testing.T) {
	src := `
% family
father_child(jld, charlot).
father_child(jld, julianne).
/* rule */
parent_child(X, Y) :- father_child(X, Y).
`
	clauses, err := parser.ParseProgram(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(clauses))
	}
	if got := types.Format(clauses[2]); got != "rule(parent_child(X,Y),father_child(X,Y))" {
		t.Fatalf("unexpected third clause %s", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		input      string
		code       types.ErrorCode
		incomplete bool
	}{
		{"foo(a", types.ErrUnexpectedEnd, true},
		{"foo(a)", types.ErrUnexpectedEnd, true},
		{"p :- ", types.ErrUnexpectedEnd, true},
		{"'abc", types.ErrQuotedNotClosed, true},
		{"foo(a)).", types.ErrUnexpectedToken, false},
		{"a = b = c.", types.ErrPriorityClash, false},
		{"a. b.", types.ErrUnexpectedToken, false},
		{"", types.ErrUnexpectedEnd, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			_, err := parser.ParseClause(tc.input)
			if err == nil {
				t.Fatalf("expected error %s, got none", tc.code)
			}
			if !types.IsCode(err, tc.code) {
				t.Fatalf("expected error %s, got %v", tc.code, err)
			}
			if parser.IsIncomplete(err) != tc.incomplete {
				t.Fatalf("expected incomplete=%v for %v", tc.incomplete, err)
			}
		})
	}
}

func FuzzParseProgram(f *testing.F) {
	seeds := []string{
		`p(1).`,
		`q(X) :- p(X), !.`,
		`f(a) ; f(b) ; f(c).`,
		`X is 2 + 3.`,
		`f([a, b | T]).`,
		`'unterminated`,
		`/* open`,
		`(`,
		``,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, input string) {
		_, _ = parser.ParseProgram(input)
	})
}
