package machine

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// trail records v on the top environment unconditionally. It is the
// binding observer passed to the unifier.
func (m *Machine) trail(v *types.Var) {
	top := m.top()
	top.Trail = append(top.Trail, v)
}

// maybeTrail records v only while it is still unbound, just before a
// direct bind.
func (m *Machine) maybeTrail(v *types.Var) {
	if !v.IsBound() {
		m.trail(v)
	}
}

// bind binds v to t and trails it.
func (m *Machine) bind(v *types.Var, t types.Term) error {
	m.maybeTrail(v)
	if err := v.Bind(t); err != nil {
		return err
	}
	return nil
}

// unwind unbinds every variable trailed on e.
func (m *Machine) unwind(e *Env) error {
	return m.unwindTo(e, 0)
}

// unwindTo unbinds the variables trailed on e after position mark, newest
// first.
func (m *Machine) unwindTo(e *Env, mark int) error {
	for i := len(e.Trail) - 1; i >= mark; i-- {
		if err := e.Trail[i].Unbind(); err != nil {
			e.Trail = e.Trail[:i]
			return err
		}
	}
	if mark < len(e.Trail) {
		e.Trail = e.Trail[:mark]
	}
	return nil
}
