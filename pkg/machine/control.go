package machine

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// allocate pushes the frame of the call being constructed.
func (m *Machine) allocate() error {
	e := newEnv(len(m.stack))
	m.stack = append(m.stack, e)
	m.tse = e
	return nil
}

// setup saves the return point, just past the following call, together
// with the caller's pending disjunctions.
func (m *Machine) setup() error {
	next := m.p
	next.I++
	m.tse.CP = Continuation{
		P:    next,
		Code: m.cc,
		Env:  m.cse,
		te:   copyTargets(m.cse.te),
	}
	m.tse.CI = 0
	return nil
}

// call enters clause CI of the goal held in $x0 of the target frame.
// Native predicates run at once and return to the continuation.
func (m *Machine) call() error {
	e := m.tse
	x0 := e.Vars["$x0"]
	goal, ok := types.Deref(x0).(*types.Functor)
	if !ok {
		return types.Errorf(types.ErrExpectingFunctor, "call: goal is not a functor")
	}

	e.Vars = map[string]types.Term{"$x0": x0}
	e.te = nil
	e.CutTo = -1

	clauses, err := m.db.GetCode(goal.Name, len(goal.Args))
	if err != nil {
		if m.opts.UnknownFails && types.IsCode(err, types.ErrFunctorNotFound) {
			e.Count = 1
			m.cu = false
			m.returnTo(e)
			return nil
		}
		return err
	}
	e.Count = len(clauses)
	if e.CI >= len(clauses) {
		return types.Errorf(types.ErrFunctorClauseNotFound, "%s has no clause %d", goal.Signature(), e.CI)
	}

	clause := clauses[e.CI]
	if clause.Native {
		return m.native(e, goal)
	}

	m.cc = clause
	m.p = Pointer{F: clause.F, A: clause.A, CI: e.CI, L: types.LabelHead, I: 0}
	m.cse = e
	m.cu = true
	m.cs, m.csi, m.csx = nil, 0, ""
	return nil
}

// native runs a builtin handler for goal. Its bindings are trailed on e,
// the top frame.
func (m *Machine) native(e *Env, goal *types.Functor) error {
	def, ok := m.opts.Builtins.Lookup(goal.Name, len(goal.Args))
	if !ok {
		return types.Errorf(types.ErrFunctorCodeNotFound, "no handler for builtin %s", goal.Signature())
	}
	e.Count = 1

	succeeded, err := def.Call(m, goal.Args)
	if err != nil {
		return err
	}
	m.cu = succeeded
	m.returnTo(e)
	return nil
}

func (m *Machine) returnTo(e *Env) {
	m.p = e.CP.P
	m.cc = e.CP.Code
}

// maybeRetry retries the next clause of the target frame after a failure.
func (m *Machine) maybeRetry() error {
	if m.cu || m.tse == nil {
		return nil
	}
	e := m.tse
	if err := m.unwind(e); err != nil {
		return err
	}
	if !e.Committed && e.CI+1 < e.Count {
		e.CI++
		m.p.I -= 2
	}
	return nil
}

// maybeRetryN is maybeRetry for a negated goal: once the goal has no more
// clauses to try, its outcome is inverted and its frames are dropped.
func (m *Machine) maybeRetryN() error {
	e := m.tse
	if e == nil {
		return nil
	}

	if !m.cu {
		if err := m.unwind(e); err != nil {
			return err
		}
		if !e.Committed && e.CI+1 < e.Count {
			e.CI++
			m.p.I -= 2
			return nil
		}
	}

	if err := m.popTo(e.Spos); err != nil {
		return err
	}
	m.tse = nil
	m.cu = !m.cu
	return nil
}

// deallocate drops the target frame once it failed for good. A frame that
// succeeded stays as a choice point.
func (m *Machine) deallocate() error {
	if m.cu || m.tse == nil || m.tse == m.qenv || m.tse != m.top() {
		return nil
	}
	err := m.pop()
	m.tse = nil
	return err
}

func (m *Machine) maybeFail() error {
	if m.cu {
		return nil
	}
	return m.failure()
}

// tryElse records label as the alternative of the branch that follows.
func (m *Machine) tryElse(inst types.Instruction) error {
	m.cse.te = append(m.cse.te, target{
		label: inst.L,
		depth: len(m.stack),
		mark:  len(m.top().Trail),
	})
	return nil
}

// tryFinally marks the last alternative of a disjunction; alternatives
// recorded deeper than the current stack are dropped.
func (m *Machine) tryFinally() error {
	m.cse.te = pruneTargets(m.cse.te, len(m.stack))
	return nil
}

func pruneTargets(te []target, depth int) []target {
	for len(te) > 0 && te[len(te)-1].depth > depth {
		te = te[:len(te)-1]
	}
	return te
}

func (m *Machine) jump(label string) error {
	m.p.L = label
	m.p.I = 0
	return nil
}

// proceed returns from the current clause on success.
func (m *Machine) proceed() error {
	if !m.cu {
		return m.failure()
	}
	e := m.cse
	if e == m.qenv {
		return m.endQuery()
	}
	m.returnTo(e)
	m.tse = e
	m.cse = e.CP.Env
	return nil
}

// cut commits the current clause: its frame tries no other clause, and
// backtracking into any frame above it unwinds straight down to it.
func (m *Machine) cut() error {
	idx := m.cse.Spos
	top := m.top()
	if top.CutTo < 0 || idx < top.CutTo {
		top.CutTo = idx
	}
	m.cse.Committed = true
	m.cse.te = nil
	return nil
}

// endQuery ends the run at an answer, or looks for one on failure.
func (m *Machine) endQuery() error {
	if m.cu {
		m.end = true
		return nil
	}
	return m.failure()
}

// failure redirects a failed goal: to the innermost pending disjunction of
// the current clause when no choice point was created after it, else to
// the most recent choice point. When neither exists the search is over.
func (m *Machine) failure() error {
	m.cu = false
	depth := len(m.stack)

	e := m.cse
	e.te = pruneTargets(e.te, depth)
	if n := len(e.te); n > 0 && e.te[n-1].depth == depth {
		t := e.te[n-1]
		e.te = e.te[:n-1]
		if err := m.unwindTo(m.top(), t.mark); err != nil {
			return err
		}
		m.cu = true
		return m.jump(t.label)
	}

	ok, err := m.backtrack()
	if err != nil {
		return err
	}
	if !ok {
		m.end = true
		m.exhausted = true
	}
	return nil
}

// backtrack resumes the most recent choice point at its continuation with
// the failure flag set, so that its maybe_retry tries the next clause.
func (m *Machine) backtrack() (bool, error) {
	top := m.top()
	if top == m.qenv {
		return false, nil
	}

	if top.CutTo >= 0 {
		cut := top.CutTo
		for len(m.stack)-1 > cut {
			if err := m.pop(); err != nil {
				return false, err
			}
		}
		top = m.top()
		if top == m.qenv {
			return false, nil
		}
		top.CutTo = -1
	}

	m.returnTo(top)
	m.cse = top.CP.Env
	m.cse.te = copyTargets(top.CP.te)
	m.tse = top
	m.cu = false
	return true, nil
}

// headFail handles a mismatch while decoding a head.
func (m *Machine) headFail() error {
	m.cu = false
	ok, err := m.backtrack()
	if err != nil {
		return err
	}
	if !ok {
		m.end = true
		m.exhausted = true
	}
	return nil
}

// pop removes the top frame, undoing its bindings.
func (m *Machine) pop() error {
	if len(m.stack) <= 1 {
		return types.Errorf(types.ErrInternal, "cannot pop the query environment")
	}
	err := m.unwind(m.top())
	m.stack = m.stack[:len(m.stack)-1]
	return err
}

// popTo pops frames until depth remain.
func (m *Machine) popTo(depth int) error {
	for len(m.stack) > depth && len(m.stack) > 1 {
		if err := m.pop(); err != nil {
			return err
		}
	}
	return nil
}
