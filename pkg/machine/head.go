package machine

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// getStruct starts decoding the structure held in register X. A bound
// structure is checked in read mode; an unbound variable is bound to a new
// structure whose arguments the following instructions write.
func (m *Machine) getStruct(inst types.Instruction) error {
	if m.cs != nil && m.csx == inst.X {
		return types.Errorf(types.ErrInternal, "get_struct: register %s decoded twice", inst.X)
	}

	t, ok := m.cse.Vars[inst.X]
	if !ok {
		return types.Errorf(types.ErrInternal, "get_struct: register %s is empty", inst.X)
	}

	switch x := types.Deref(t).(type) {
	case *types.Functor:
		if x.Name != inst.F || len(x.Args) != inst.A {
			return m.headFail()
		}
		m.csm, m.cs = modeRead, x
	case *types.Var:
		f := &types.Functor{Name: inst.F, Args: make([]types.Term, 0, inst.A), Position: -1}
		if err := m.bind(x, f); err != nil {
			return err
		}
		m.csm, m.cs = modeWrite, f
	case *types.Token:
		if inst.A != 0 || x.Kind != types.TokenAtom || x.Name() != inst.F {
			return m.headFail()
		}
		m.csm, m.cs = modeRead, &types.Functor{Name: inst.F, Position: -1}
	default:
		return types.Errorf(types.ErrInternal, "get_struct: register %s holds no term", inst.X)
	}

	m.csi = 0
	m.csx = inst.X
	return nil
}

// nextArg returns the next argument of the structure in read mode.
func (m *Machine) nextArg() (types.Term, error) {
	if m.cs == nil || m.csi >= len(m.cs.Args) {
		return nil, types.Errorf(types.ErrInternal, "no argument left to decode")
	}
	arg := m.cs.Args[m.csi]
	m.csi++
	return arg, nil
}

// write appends an argument to the structure in write mode.
func (m *Machine) write(t types.Term) error {
	if m.cs == nil {
		return types.Errorf(types.ErrInternal, "no structure to write")
	}
	m.cs.Args = append(m.cs.Args, t)
	return nil
}

// getVar binds a first-occurrence head variable (or register
// placeholder) to the next argument.
func (m *Machine) getVar(inst types.Instruction) error {
	if m.csm == modeWrite {
		v := m.fresh(inst.P)
		m.cse.Vars[inst.P] = v
		return m.write(v)
	}
	arg, err := m.nextArg()
	if err != nil {
		return err
	}
	m.cse.Vars[inst.P] = arg
	return nil
}

// getValue unifies a known head variable with the next argument.
func (m *Machine) getValue(inst types.Instruction) error {
	val := m.lookup(inst.P)
	if m.csm == modeWrite {
		return m.write(val)
	}
	arg, err := m.nextArg()
	if err != nil {
		return err
	}
	if !types.Unify(val, arg, m.trail) {
		return m.headFail()
	}
	return nil
}

func (m *Machine) unifVoid() error {
	if m.csm == modeWrite {
		return m.write(m.fresh("_"))
	}
	_, err := m.nextArg()
	return err
}

// getConst matches a constant against the next argument.
func (m *Machine) getConst(inst types.Instruction) error {
	if inst.V == nil {
		return types.Errorf(types.ErrInternal, "%s without a constant", inst.Op)
	}
	if m.csm == modeWrite {
		return m.write(inst.V)
	}
	arg, err := m.nextArg()
	if err != nil {
		return err
	}
	if v, ok := types.Deref(arg).(*types.Var); ok {
		return m.bind(v, inst.V)
	}
	if !types.Unify(arg, inst.V, nil) {
		return m.headFail()
	}
	return nil
}

// lookup returns a clause variable, creating it on first use.
func (m *Machine) lookup(name string) types.Term {
	if t, ok := m.cse.Vars[name]; ok {
		return t
	}
	v := m.fresh(name)
	m.cse.Vars[name] = v
	return v
}
