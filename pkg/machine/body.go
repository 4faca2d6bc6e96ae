package machine

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// putStruct starts a goal structure in register X of the target frame.
func (m *Machine) putStruct(inst types.Instruction) error {
	f := &types.Functor{Name: inst.F, Args: make([]types.Term, 0, inst.A), Position: -1}
	m.tse.Vars[inst.X] = f
	m.build = f
	return nil
}

func (m *Machine) putArg(t types.Term) error {
	if m.build == nil {
		return types.Errorf(types.ErrInternal, "no goal structure under construction")
	}
	m.build.Args = append(m.build.Args, t)
	return nil
}

// putVar creates a fresh clause variable.
func (m *Machine) putVar(inst types.Instruction) error {
	v := m.fresh(inst.P)
	m.cse.Vars[inst.P] = v
	return m.putArg(v)
}

func (m *Machine) putVoid() error {
	return m.putArg(m.fresh("_"))
}

// putValue passes a known variable, or a structure built earlier into an
// $x register of the target frame.
func (m *Machine) putValue(inst types.Instruction) error {
	if isXRegister(inst.P) {
		t, ok := m.tse.Vars[inst.P]
		if !ok {
			return types.Errorf(types.ErrInternal, "put_value: register %s is empty", inst.P)
		}
		return m.putArg(t)
	}
	return m.putArg(m.lookup(inst.P))
}

func (m *Machine) putConst(inst types.Instruction) error {
	if inst.V == nil {
		return types.Errorf(types.ErrInternal, "%s without a constant", inst.Op)
	}
	return m.putArg(inst.V)
}
