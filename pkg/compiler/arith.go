package compiler

import (
	"fmt"

	"github.com/jldupont/goprolog/pkg/types"
)

var primitiveOps = map[string]types.Opcode{
	"is":   types.OpIs,
	"+":    types.OpPlus,
	"-":    types.OpMinus,
	"*":    types.OpMult,
	"/":    types.OpDiv,
	"//":   types.OpIntDiv,
	"mod":  types.OpMod,
	"<":    types.OpLt,
	">":    types.OpGt,
	"=<":   types.OpLe,
	">=":   types.OpGe,
	"=:=":  types.OpEq,
	"=\\=": types.OpNe,
}

// primitive compiles an arithmetic or comparison goal. Operands are
// evaluated in post order: every operator is a prepare, two pushes and an
// op_* instruction leaving its result in a fresh $y register.
func (u *unit) primitive(f *types.Functor) ([]types.Instruction, error) {
	var code []types.Instruction

	if f.Name == "is" && len(f.Args) == 2 {
		code, rhs, err := u.operand(code, f.Args[1])
		if err != nil {
			return nil, err
		}
		lhs := u.isTarget(f.Args[0])
		return append(code,
			types.Instruction{Op: types.OpPrepare},
			lhs,
			rhs,
			types.Instruction{Op: types.OpIs, Y: u.nextY()},
		), nil
	}

	code, _, err := u.evaluate(code, f)
	return code, err
}

// evaluate emits the code computing f and returns the register holding
// its result. Unary minus is computed as 0 - X.
func (u *unit) evaluate(code []types.Instruction, f *types.Functor) ([]types.Instruction, string, error) {
	op, ok := primitiveOps[f.Name]
	if !ok || op == types.OpIs {
		return nil, "", types.NewError(types.ErrInvalidToken, fmt.Sprintf("%s is not evaluable", f.Signature()), f.Position)
	}

	var left, right types.Term
	switch len(f.Args) {
	case 2:
		left, right = f.Args[0], f.Args[1]
	case 1:
		if op != types.OpMinus {
			return nil, "", types.NewError(types.ErrInvalidToken, fmt.Sprintf("%s is not evaluable", f.Signature()), f.Position)
		}
		left, right = types.NewNumber(0), f.Args[0]
	default:
		return nil, "", types.NewError(types.ErrInvalidToken, fmt.Sprintf("%s is not evaluable", f.Signature()), f.Position)
	}

	code, a, err := u.operand(code, left)
	if err != nil {
		return nil, "", err
	}
	code, b, err := u.operand(code, right)
	if err != nil {
		return nil, "", err
	}

	y := ""
	if !f.Has(types.AttrBoolean) {
		y = u.nextY()
	}
	return append(code,
		types.Instruction{Op: types.OpPrepare},
		a,
		b,
		types.Instruction{Op: op, Y: y},
	), y, nil
}

// operand returns the push instruction for t, emitting the evaluation of
// nested expressions first.
func (u *unit) operand(code []types.Instruction, t types.Term) ([]types.Instruction, types.Instruction, error) {
	switch a := t.(type) {
	case *types.Var:
		u.seen[a.Name] = true
		return code, types.Instruction{Op: types.OpPushValue, P: a.Name}, nil
	case *types.Token:
		if a.Kind == types.TokenNumber {
			return code, types.Instruction{Op: types.OpPushNumber, V: a}, nil
		}
		return code, types.Instruction{Op: types.OpPushTerm, V: a}, nil
	case *types.Functor:
		if len(a.Args) == 0 {
			return code, types.Instruction{Op: types.OpPushTerm, V: types.NewAtom(a.Name)}, nil
		}
		if !a.Has(types.AttrToEvaluate) {
			return nil, types.Instruction{}, types.NewError(types.ErrInvalidToken,
				fmt.Sprintf("%s is not evaluable", a.Signature()), a.Position)
		}
		code, y, err := u.evaluate(code, a)
		if err != nil {
			return nil, types.Instruction{}, err
		}
		return code, types.Instruction{Op: types.OpPushValue, P: y}, nil
	}
	return nil, types.Instruction{}, types.Errorf(types.ErrInvalidToken, "invalid arithmetic operand")
}

// isTarget is the left operand of is/2: a fresh variable on its first
// occurrence.
func (u *unit) isTarget(t types.Term) types.Instruction {
	switch a := t.(type) {
	case *types.Var:
		if !types.IsAnonymous(a.Name) && u.seen[a.Name] {
			return types.Instruction{Op: types.OpPushValue, P: a.Name}
		}
		u.seen[a.Name] = true
		return types.Instruction{Op: types.OpPushVar, P: a.Name}
	case *types.Token:
		if a.Kind == types.TokenNumber {
			return types.Instruction{Op: types.OpPushNumber, V: a}
		}
		return types.Instruction{Op: types.OpPushTerm, V: a}
	}
	return types.Instruction{Op: types.OpPushTerm, V: types.NewAtom(types.Format(t))}
}
