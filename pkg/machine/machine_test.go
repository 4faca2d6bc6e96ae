package machine_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/jldupont/goprolog/pkg/compiler"
	"github.com/jldupont/goprolog/pkg/database"
	"github.com/jldupont/goprolog/pkg/functions"
	"github.com/jldupont/goprolog/pkg/machine"
	"github.com/jldupont/goprolog/pkg/parser"
	"github.com/jldupont/goprolog/pkg/types"
)

type fixture struct {
	db   *database.Manager
	comp *compiler.Compiler
	m    *machine.Machine
}

func newFixture(t testing.TB, program string, reg *functions.Registry, opts ...machine.Option) *fixture {
	t.Helper()
	if reg == nil {
		reg = functions.Default()
	}
	db := database.NewManager()
	if err := machine.InstallBuiltins(db, reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	comp := compiler.New(compiler.WithBuiltins(reg))

	terms, err := parser.ParseProgram(program)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, term := range terms {
		clause, err := comp.CompileClause(term)
		if err != nil {
			t.Fatalf("compile error: %v", err)
		}
		if err := db.UserInsertCode(clause.F, clause.A, clause); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	opts = append([]machine.Option{machine.WithBuiltins(reg)}, opts...)
	return &fixture{db: db, comp: comp, m: machine.New(db, opts...)}
}

func (f *fixture) ask(t testing.TB, query string) {
	t.Helper()
	term, err := parser.ParseClause(query)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	q, err := f.comp.CompileQuery(term)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	if err := f.m.SetQuestion(q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// answers collects every solution as "Name=Value" strings sorted by name.
func (f *fixture) answers(t testing.TB, query string) ([]string, error) {
	t.Helper()
	f.ask(t, query)

	var out []string
	for {
		status, _, err := f.m.Run(context.Background(), 0)
		if err != nil {
			return out, err
		}
		if status != machine.StatusAnswer {
			return out, nil
		}
		out = append(out, bindings(f.m))
		if !f.m.Redo() {
			return out, f.m.Err()
		}
	}
}

func bindings(m *machine.Machine) string {
	vars := m.QueryVars()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + "=" + types.Format(vars[name])
	}
	return strings.Join(parts, " ")
}

func expectAnswers(t *testing.T, f *fixture, query string, expected []string) {
	t.Helper()
	got, err := f.answers(t, query)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", query, err)
	}
	if len(got) == 0 && len(expected) == 0 {
		return
	}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("%s: expected %q, got %q", query, expected, got)
	}
}

const family = `
parent(tom, bob).
parent(bob, ann).
parent(bob, pat).
grandparent(X, Z) :- parent(X, Y), parent(Y, Z).
`

func TestClauseRetry(t *testing.T) {
	f := newFixture(t, "f(1). f(2).", nil)
	expectAnswers(t, f, "f(A).", []string{"A=1", "A=2"})

	if f.m.Status() != machine.StatusExhausted {
		t.Fatalf("expected exhausted, got %s", f.m.Status())
	}
	if f.m.Depth() != 1 {
		t.Fatalf("expected only the query environment left, got depth %d", f.m.Depth())
	}
	if f.m.Succeeded() {
		t.Fatalf("expected the unification flag to be cleared")
	}
}

func TestBacktrackIdempotent(t *testing.T) {
	f := newFixture(t, "f(1).", nil)
	expectAnswers(t, f, "f(A).", []string{"A=1"})

	for i := 0; i < 3; i++ {
		if f.m.Backtrack() {
			t.Fatalf("expected backtrack on an empty stack to return false")
		}
	}
	if f.m.Redo() {
		t.Fatalf("expected redo after exhaustion to return false")
	}
}

func TestCutPrunesAlternatives(t *testing.T) {
	f := newFixture(t, "p(1). p(2). q(X) :- p(X), !.", nil)
	expectAnswers(t, f, "q(X).", []string{"X=1"})
	if f.m.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", f.m.Depth())
	}
}

func TestCutInQuery(t *testing.T) {
	f := newFixture(t, "p(1). p(2). p(3).", nil)
	expectAnswers(t, f, "p(X), !.", []string{"X=1"})
	expectAnswers(t, f, "p(X), X > 1, !.", []string{"X=2"})
}

func TestCutCommitsClause(t *testing.T) {
	program := `
max(X, Y, X) :- X >= Y, !.
max(_, Y, Y).
`
	f := newFixture(t, program, nil)
	expectAnswers(t, f, "max(3, 1, M).", []string{"M=3"})
	expectAnswers(t, f, "max(1, 3, M).", []string{"M=3"})
}

func TestDisjunctionOrder(t *testing.T) {
	f := newFixture(t, "", nil)
	expectAnswers(t, f, "X = a ; X = b ; X = c.", []string{"X=a", "X=b", "X=c"})
}

func TestDisjunctionInClause(t *testing.T) {
	f := newFixture(t, "color(X) :- X = red ; X = blue.", nil)
	expectAnswers(t, f, "color(C).", []string{"C=red", "C=blue"})
	if f.m.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", f.m.Depth())
	}
}

func TestDisjunctionThenConjunction(t *testing.T) {
	f := newFixture(t, "", nil)
	expectAnswers(t, f, "(X is 1 ; X is 2), X > 1.", []string{"X=2"})
}

func TestConjunction(t *testing.T) {
	f := newFixture(t, family, nil)
	expectAnswers(t, f, "grandparent(tom, W).", []string{"W=ann", "W=pat"})
	if f.m.Depth() != 1 {
		t.Fatalf("expected depth 1, got %d", f.m.Depth())
	}
	expectAnswers(t, f, "parent(P, ann).", []string{"P=bob"})
	expectAnswers(t, f, "grandparent(ann, W).", nil)
}

func TestStructures(t *testing.T) {
	f := newFixture(t, "p(f(1, g(2))).", nil)
	tests := []struct {
		query    string
		expected []string
	}{
		{"p(Z).", []string{"Z=f(1,g(2))"}},
		{"p(f(A, g(B))).", []string{"A=1 B=2"}},
		{"p(f(A, A)).", nil},
		{"p(f(1, Z)).", []string{"Z=g(2)"}},
		{"X = f(Y), Y = 1.", []string{"X=f(1) Y=1"}},
		{"X = [1, 2|T], T = [3].", []string{"T=[3] X=[1,2,3]"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expectAnswers(t, f, tt.query, tt.expected)
		})
	}
}

func TestAppend(t *testing.T) {
	program := `
app([], L, L).
app([H|T], L, [H|R]) :- app(T, L, R).
`
	f := newFixture(t, program, nil)
	expectAnswers(t, f, "app(X, Y, [1, 2, 3]).", []string{
		"X=[] Y=[1,2,3]",
		"X=[1] Y=[2,3]",
		"X=[1,2] Y=[3]",
		"X=[1,2,3] Y=[]",
	})
	expectAnswers(t, f, "app([a], [b, c], Z).", []string{"Z=[a,b,c]"})
}

func TestArithmetic(t *testing.T) {
	f := newFixture(t, "", nil)
	tests := []struct {
		query    string
		expected []string
	}{
		{"X is 2 + 3.", []string{"X=5"}},
		{"X is 1 + 2 * 3.", []string{"X=7"}},
		{"X is (1 + 2) * 3.", []string{"X=9"}},
		{"X is 7 - 10.", []string{"X=-3"}},
		{"X is -(4).", []string{"X=-4"}},
		{"X is 7 / 2.", []string{"X=3.5"}},
		{"X is 7 // 2.", []string{"X=3"}},
		{"X is -7 // 2.", []string{"X=-3"}},
		{"X is 7 mod 3.", []string{"X=1"}},
		{"X is -7 mod 3.", []string{"X=2"}},
		{"X is 2, Y is X * X.", []string{"X=2 Y=4"}},
		{"5 > 3.", []string{""}},
		{"3 > 5.", nil},
		{"2 =< 2.", []string{""}},
		{"2 >= 3.", nil},
		{"1 + 1 =:= 2.", []string{""}},
		{"1 =\\= 1.", nil},
		{"1 < 2, 2 < 3.", []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expectAnswers(t, f, tt.query, tt.expected)
		})
	}
}

func TestRecursiveArithmetic(t *testing.T) {
	program := `
len([], 0).
len([_|T], N) :- len(T, M), N is M + 1.
`
	f := newFixture(t, program, nil)
	expectAnswers(t, f, "len([a, b, c], N).", []string{"N=3"})
}

func TestNegation(t *testing.T) {
	f := newFixture(t, "p(1).", nil)
	expectAnswers(t, f, "\\+ p(2).", []string{""})
	expectAnswers(t, f, "\\+ p(1).", nil)
	expectAnswers(t, f, "not(p(1)).", nil)
	expectAnswers(t, f, "X = 2, \\+ p(X).", []string{"X=2"})
	expectAnswers(t, f, "\\+ X = 1.", nil)
}

func TestNegatedControl(t *testing.T) {
	f := newFixture(t, `
p(1).
small(X) :- \+ X > 10.
`, nil)

	tests := []struct {
		query    string
		expected []string
	}{
		{"X = 1, \\+ X > 2.", []string{"X=1"}},
		{"X = 3, \\+ X > 2.", nil},
		{"\\+ (p(1), p(2)).", []string{""}},
		{"\\+ (p(1), p(1)).", nil},
		{"\\+ (p(2) ; p(3)).", []string{""}},
		{"\\+ (p(2) ; p(1)).", nil},
		{"\\+ \\+ p(1).", []string{""}},
		{"\\+ \\+ p(2).", nil},
		{"X = 1, \\+ \\+ p(X).", []string{"X=1"}},
		{"\\+ (p(1), !, fail).", []string{""}},
		{"\\+ true.", nil},
		{"\\+ fail.", []string{""}},
		{"small(3).", []string{""}},
		{"small(30).", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			expectAnswers(t, f, tt.query, tt.expected)
		})
	}
}

func TestCyclicTerms(t *testing.T) {
	f := newFixture(t, "p(X, f(X)).", nil)
	expectAnswers(t, f, "X = f(X).", []string{"X=f(...)"})
	expectAnswers(t, f, "X = f(X), Y = f(Y), X = Y.", []string{"X=f(...) Y=f(...)"})
	expectAnswers(t, f, "X = f(X), Y = f(g(Y)), X = Y.", nil)
	expectAnswers(t, f, "p(Y, Y).", []string{"Y=f(...)"})
	expectAnswers(t, f, "L = [a|L], L = [a, a|_].", []string{"L=[a|...]"})
}

func TestBuiltinPredicates(t *testing.T) {
	tests := []struct {
		query    string
		expected []string
	}{
		{"X = 1, X == 1.", []string{"X=1"}},
		{"X == Y.", nil},
		{"X \\== Y.", []string{"X=_G1 Y=_G2"}},
		{"a \\= b.", []string{""}},
		{"f(X) \\= f(1).", nil},
		{"var(X).", []string{"X=_G1"}},
		{"nonvar(a).", []string{""}},
		{"atom(a).", []string{""}},
		{"atom(1).", nil},
		{"number(1).", []string{""}},
		{"atomic(a), atomic(1).", []string{""}},
		{"compound(f(x)).", []string{""}},
		{"compound(a).", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			f := newFixture(t, "", nil)
			expectAnswers(t, f, tt.query, tt.expected)
		})
	}
}

func TestWriteOutput(t *testing.T) {
	var out bytes.Buffer
	f := newFixture(t, "", nil, machine.WithOutput(&out))
	expectAnswers(t, f, "write(hello), nl, write(f(X, 'A b')), nl.", []string{"X=_G1"})

	expected := "hello\nf(_G1,'A b')\n"
	if out.String() != expected {
		t.Fatalf("expected output %q, got %q", expected, out.String())
	}
}

func TestCustomNative(t *testing.T) {
	reg := functions.Default()
	err := reg.Register(functions.BuiltinDef{
		Name:  "double",
		Arity: 2,
		Fn: func(ctx functions.Context, args []types.Term) (bool, error) {
			n, ok := functions.NumberArg(args[0])
			if !ok {
				return false, nil
			}
			return ctx.Unify(args[1], types.NewNumber(n*2)), nil
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f := newFixture(t, "", reg)
	expectAnswers(t, f, "double(3, X).", []string{"X=6"})
	expectAnswers(t, f, "double(a, X).", nil)
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name  string
		query string
		code  types.ErrorCode
	}{
		{"bound is target", "3 is 1 + 2.", types.ErrExpectingVariable},
		{"rebound is target", "X = 1, X is 2.", types.ErrExpectingVariable},
		{"division by zero", "X is 1 / 0.", types.ErrDivisionByZero},
		{"integer division by zero", "X is 1 // 0.", types.ErrDivisionByZero},
		{"mod by zero", "X is 1 mod 0.", types.ErrDivisionByZero},
		{"atom operand", "X is foo + 1.", types.ErrExpectingNumber},
		{"unbound operand", "X is Y + 1.", types.ErrExpectingNumber},
		{"unknown predicate", "undefined(1).", types.ErrFunctorNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "", nil)
			_, err := f.answers(t, tt.query)
			if !types.IsCode(err, tt.code) {
				t.Fatalf("expected %s, got %v", tt.code, err)
			}
			if f.m.Err() == nil {
				t.Fatalf("expected the machine to keep its error")
			}
			if _, err := f.m.Step(); !types.IsCode(err, tt.code) {
				t.Fatalf("expected step to repeat %s, got %v", tt.code, err)
			}
		})
	}
}

func TestUnknownFails(t *testing.T) {
	f := newFixture(t, "p(1).", nil, machine.WithUnknownFails(true))
	expectAnswers(t, f, "undefined(1).", nil)
	expectAnswers(t, f, "undefined(1) ; p(X).", []string{"X=1"})
}

func TestStepLimit(t *testing.T) {
	f := newFixture(t, "loop :- loop.", nil, machine.WithMaxSteps(1000))
	_, err := f.answers(t, "loop.")
	if !types.IsCode(err, types.ErrStepLimit) {
		t.Fatalf("expected %s, got %v", types.ErrStepLimit, err)
	}
}

func TestInvalidCode(t *testing.T) {
	tests := []struct {
		name string
		code []types.Instruction
		err  types.ErrorCode
	}{
		{"invalid opcode", []types.Instruction{{Op: types.OpInvalid}}, types.ErrInvalidInstruction},
		{"unknown opcode", []types.Instruction{{Op: types.Opcode(250)}}, types.ErrInvalidInstruction},
		{"no exit", []types.Instruction{}, types.ErrNoMoreInstruction},
		{"push without prepare", []types.Instruction{{Op: types.OpPushNumber, V: types.NewNumber(1)}}, types.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := database.NewManager()
			m := machine.New(db)
			q := &types.Clause{F: types.QueryFunctor, Code: map[string][]types.Instruction{types.LabelBody: tt.code}}
			if err := m.SetQuestion(q); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, _, err := m.Run(context.Background(), 10)
			if !types.IsCode(err, tt.err) {
				t.Fatalf("expected %s, got %v", tt.err, err)
			}
		})
	}
}

func TestGetStructTwice(t *testing.T) {
	db := database.NewManager()
	p := &types.Clause{F: "p", A: 0, Code: map[string][]types.Instruction{
		types.LabelHead: {
			{Op: types.OpGetStruct, F: "p", A: 0, X: "$x0"},
			{Op: types.OpGetStruct, F: "p", A: 0, X: "$x0"},
			{Op: types.OpProceed},
		},
	}}
	if err := db.UserInsertCode("p", 0, p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m := machine.New(db)
	q := &types.Clause{F: types.QueryFunctor, Code: map[string][]types.Instruction{types.LabelBody: {
		{Op: types.OpAllocate},
		{Op: types.OpPutStruct, F: "p", A: 0, X: "$x0"},
		{Op: types.OpSetup},
		{Op: types.OpCall},
		{Op: types.OpMaybeRetry},
		{Op: types.OpDeallocate},
		{Op: types.OpEnd},
	}}}
	if err := m.SetQuestion(q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err := m.Run(context.Background(), 100)
	if !types.IsCode(err, types.ErrInternal) {
		t.Fatalf("expected %s, got %v", types.ErrInternal, err)
	}
	if !strings.Contains(err.Error(), "decoded twice") {
		t.Fatalf("expected the second get_struct to be rejected, got %v", err)
	}
}

func TestNoQuestion(t *testing.T) {
	m := machine.New(database.NewManager())
	if _, err := m.Step(); !types.IsCode(err, types.ErrNoQuestion) {
		t.Fatalf("expected %s, got %v", types.ErrNoQuestion, err)
	}
	if _, _, err := m.Run(context.Background(), 0); !types.IsCode(err, types.ErrNoQuestion) {
		t.Fatalf("expected %s, got %v", types.ErrNoQuestion, err)
	}
}

func TestRunSlices(t *testing.T) {
	f := newFixture(t, family, nil)
	f.ask(t, "grandparent(tom, W).")

	status, n, err := f.m.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != machine.StatusPaused || n != 1 {
		t.Fatalf("expected paused after 1 step, got %s after %d", status, n)
	}

	total := n
	for status == machine.StatusPaused {
		status, n, err = f.m.Run(context.Background(), 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total += n
	}
	if status != machine.StatusAnswer {
		t.Fatalf("expected an answer, got %s", status)
	}
	if total != f.m.Steps() {
		t.Fatalf("expected %d steps counted, got %d", total, f.m.Steps())
	}
	if got := bindings(f.m); got != "W=ann" {
		t.Fatalf("expected W=ann, got %s", got)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, "loop :- loop.", nil)
	f.ask(t, "loop.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	status, n, err := f.m.Run(ctx, 0)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if status != machine.StatusPaused || n != 0 {
		t.Fatalf("expected paused after 0 steps, got %s after %d", status, n)
	}
}

func TestDebugTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newFixture(t, "f(1).", nil, machine.WithLogger(logger), machine.WithDebug(true))
	expectAnswers(t, f, "f(A).", []string{"A=1"})

	if !strings.Contains(buf.String(), "get_struct f/1 $x0") {
		t.Fatalf("expected instruction trace, got %q", buf.String())
	}
}

func BenchmarkAppend(b *testing.B) {
	program := `
app([], L, L).
app([H|T], L, [H|R]) :- app(T, L, R).
`
	f := newFixture(b, program, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := f.answers(b, "app(X, Y, [1, 2, 3, 4, 5, 6, 7, 8])."); err != nil {
			b.Fatal(err)
		}
	}
}

func ExampleMachine() {
	db := database.NewManager()
	_ = machine.InstallBuiltins(db, functions.Default())
	comp := compiler.New(compiler.WithBuiltins(functions.Default()))

	terms, _ := parser.ParseProgram("f(1). f(2).")
	for _, term := range terms {
		clause, _ := comp.CompileClause(term)
		_ = db.UserInsertCode(clause.F, clause.A, clause)
	}

	term, _ := parser.ParseClause("f(A).")
	q, _ := comp.CompileQuery(term)

	m := machine.New(db)
	_ = m.SetQuestion(q)
	for {
		status, _, err := m.Run(context.Background(), 0)
		if err != nil || status != machine.StatusAnswer {
			break
		}
		fmt.Println("A =", types.Format(m.QueryVars()["A"]))
		if !m.Redo() {
			break
		}
	}
	// Output:
	// A = 1
	// A = 2
}
