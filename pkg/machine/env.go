package machine

import (
	"strings"

	"github.com/jldupont/goprolog/pkg/types"
)

// Pointer addresses one instruction: clause (F, A, CI), label L, index I.
type Pointer struct {
	F  string
	A  int
	CI int
	L  string
	I  int
}

// target is a pending disjunction alternative: jump to label when a
// failure happens while the stack is depth frames deep. Bindings trailed
// on the top frame after mark are undone first.
type target struct {
	label string
	depth int
	mark  int
}

// Continuation is where a call returns to.
type Continuation struct {
	P    Pointer
	Code *types.Clause
	Env  *Env
	te   []target
}

// Env is a stack frame. Each call gets one; it stays on the stack as a
// choice point while clause alternatives remain.
type Env struct {
	Vars  map[string]types.Term
	CP    Continuation
	Trail []*types.Var

	// CI is the clause being tried, Count the number of candidate clauses.
	CI    int
	Count int

	// Spos is the stack depth at allocation.
	Spos int
	// CutTo, when not negative, is the index of the frame backtracking must
	// unwind down to.
	CutTo int
	// Committed is set by a cut in this frame's clause: no other clause
	// may be tried.
	Committed bool

	te []target
}

func newEnv(spos int) *Env {
	return &Env{
		Vars:  make(map[string]types.Term),
		Spos:  spos,
		CutTo: -1,
	}
}

// isRegister reports names of machine registers ($x0, $y1, ...).
func isRegister(name string) bool {
	return strings.HasPrefix(name, "$")
}

func isXRegister(name string) bool {
	return strings.HasPrefix(name, "$x")
}

func copyTargets(te []target) []target {
	if len(te) == 0 {
		return nil
	}
	out := make([]target, len(te))
	copy(out, te)
	return out
}
