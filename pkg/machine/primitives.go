package machine

import (
	"math"

	"github.com/jldupont/goprolog/pkg/types"
)

const scratch = "$y0"

// prepare resets the operand scratch structure.
func (m *Machine) prepare() error {
	m.cse.Vars[scratch] = &types.Functor{Name: scratch, Args: make([]types.Term, 0, 2), Position: -1}
	return nil
}

func (m *Machine) push(t types.Term) error {
	s, ok := m.cse.Vars[scratch].(*types.Functor)
	if !ok {
		return types.Errorf(types.ErrInternal, "push without prepare")
	}
	if t == nil {
		return types.Errorf(types.ErrInternal, "push of an empty operand")
	}
	s.Args = append(s.Args, t)
	return nil
}

// pushVar pushes a fresh variable, the target of is/2.
func (m *Machine) pushVar(inst types.Instruction) error {
	v := m.fresh(inst.P)
	m.cse.Vars[inst.P] = v
	return m.push(v)
}

func (m *Machine) pushValue(inst types.Instruction) error {
	return m.push(m.lookup(inst.P))
}

func (m *Machine) operands() (types.Term, types.Term, error) {
	s, ok := m.cse.Vars[scratch].(*types.Functor)
	if !ok || len(s.Args) != 2 {
		return nil, nil, types.Errorf(types.ErrInternal, "operator expects two operands")
	}
	return s.Args[0], s.Args[1], nil
}

func number(t types.Term) (float64, error) {
	switch x := types.Deref(t).(type) {
	case *types.Token:
		if n, ok := x.Number(); ok {
			return n, nil
		}
		return 0, types.Errorf(types.ErrExpectingNumber, "expecting a number, got %s", types.Format(x))
	case *types.Var:
		return 0, types.Errorf(types.ErrExpectingNumber, "unbound variable %s in arithmetic", x.Name)
	default:
		return 0, types.Errorf(types.ErrExpectingNumber, "expecting a number, got %s", types.Format(x))
	}
}

func (m *Machine) numbers() (float64, float64, error) {
	l, r, err := m.operands()
	if err != nil {
		return 0, 0, err
	}
	a, err := number(l)
	if err != nil {
		return 0, 0, err
	}
	b, err := number(r)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// opArith computes an operator and leaves the result in register Y.
func (m *Machine) opArith(inst types.Instruction) error {
	a, b, err := m.numbers()
	if err != nil {
		return err
	}

	var n float64
	switch inst.Op {
	case types.OpPlus:
		n = a + b
	case types.OpMinus:
		n = a - b
	case types.OpMult:
		n = a * b
	case types.OpDiv, types.OpIntDiv, types.OpMod:
		if b == 0 {
			return types.Errorf(types.ErrDivisionByZero, "%s: division by zero", inst.Op)
		}
		switch inst.Op {
		case types.OpDiv:
			n = a / b
		case types.OpIntDiv:
			n = math.Trunc(a / b)
		default:
			n = a - b*math.Floor(a/b)
		}
	}

	if inst.Y == "" {
		return types.Errorf(types.ErrInternal, "%s without a result register", inst.Op)
	}
	m.cse.Vars[inst.Y] = types.NewNumber(n)
	m.cu = true
	return m.exit()
}

func (m *Machine) opCompare(inst types.Instruction) error {
	a, b, err := m.numbers()
	if err != nil {
		return err
	}

	switch inst.Op {
	case types.OpLt:
		m.cu = a < b
	case types.OpGt:
		m.cu = a > b
	case types.OpLe:
		m.cu = a <= b
	case types.OpGe:
		m.cu = a >= b
	case types.OpEq:
		m.cu = a == b
	case types.OpNe:
		m.cu = a != b
	}
	return m.exit()
}

// opIs binds the left operand, which must be an unbound variable, to the
// value of the right one.
func (m *Machine) opIs() error {
	l, r, err := m.operands()
	if err != nil {
		return err
	}
	v, ok := types.Deref(l).(*types.Var)
	if !ok {
		return types.Errorf(types.ErrExpectingVariable, "is: left operand %s is not an unbound variable", types.Format(l))
	}
	n, err := number(r)
	if err != nil {
		return err
	}
	if err := m.bind(v, types.NewNumber(n)); err != nil {
		return err
	}
	m.cu = true
	return m.exit()
}

// exit redirects a failed primitive like maybe_fail.
func (m *Machine) exit() error {
	if m.cu {
		return nil
	}
	return m.failure()
}
