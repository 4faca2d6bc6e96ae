package compiler

import (
	"github.com/jldupont/goprolog/pkg/types"
)

type headNode struct {
	f   *types.Functor
	reg string
}

// processHead emits the head-decoding code. Structures are visited from a
// stack: each structure's arguments are decoded in order, and nested
// structures get a register placeholder that is decoded after its parent.
func (u *unit) processHead(head *types.Functor, hasBody bool) []types.Instruction {
	var code []types.Instruction
	stack := []headNode{{head, reg(0)}}
	regs := 0

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		root := node.reg == reg(0)

		code = append(code, types.Instruction{Op: types.OpGetStruct, F: node.f.Name, A: len(node.f.Args), X: node.reg})

		var nested []headNode
		for _, arg := range node.f.Args {
			switch a := arg.(type) {
			case *types.Var:
				code = append(code, u.headVar(a, root))
			case *types.Token:
				code = append(code, headConst(a, root))
			case *types.Functor:
				if len(a.Args) == 0 {
					code = append(code, headConst(types.NewAtom(a.Name), root))
					continue
				}
				regs++
				x := reg(regs)
				op := types.OpUnifVar
				if root {
					op = types.OpGetVar
				}
				code = append(code, types.Instruction{Op: op, P: x})
				nested = append(nested, headNode{a, x})
			}
		}
		for i := len(nested) - 1; i >= 0; i-- {
			stack = append(stack, nested[i])
		}
	}

	if hasBody {
		return append(code, types.Instruction{Op: types.OpJump, L: types.LabelBody})
	}
	return append(code, types.Instruction{Op: types.OpProceed})
}

func (u *unit) headVar(v *types.Var, root bool) types.Instruction {
	if types.IsAnonymous(v.Name) {
		return types.Instruction{Op: types.OpUnifVoid}
	}
	first := !u.seen[v.Name]
	u.seen[v.Name] = true

	switch {
	case first && root:
		return types.Instruction{Op: types.OpGetVar, P: v.Name}
	case first:
		return types.Instruction{Op: types.OpUnifVar, P: v.Name}
	case root:
		return types.Instruction{Op: types.OpGetValue, P: v.Name}
	default:
		return types.Instruction{Op: types.OpUnifValue, P: v.Name}
	}
}

func headConst(t *types.Token, root bool) types.Instruction {
	var op types.Opcode
	switch t.Kind {
	case types.TokenNumber:
		op = types.OpUnifyNumber
		if root {
			op = types.OpGetNumber
		}
	case types.TokenNil:
		op = types.OpUnifyNil
		if root {
			op = types.OpGetNil
		}
	default:
		op = types.OpUnifyTerm
		if root {
			op = types.OpGetTerm
		}
	}
	return types.Instruction{Op: op, V: t}
}
