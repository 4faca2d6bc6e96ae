package compiler

import (
	"strconv"

	"github.com/jldupont/goprolog/pkg/types"
)

// leaf compiles one goal into its own labeled block.
func (u *unit) leaf(t types.Term) (fragment, error) {
	label := "g" + strconv.Itoa(u.leaves)
	u.leaves++

	code, primitive, err := u.processGoal(t)
	if err != nil {
		return fragment{}, err
	}
	u.blocks[label] = code
	return fragment{
		entry:  label,
		blocks: []string{label},
		exits:  []exit{{label: label, primitive: primitive}},
	}, nil
}

// processGoal returns the code of a leaf goal and whether that code
// manages its own failure.
func (u *unit) processGoal(t types.Term) ([]types.Instruction, bool, error) {
	f, err := asGoal(t)
	if err != nil {
		return nil, false, err
	}

	switch {
	case f.Name == "rule" && len(f.Args) == 2:
		if u.isQuery {
			return nil, false, types.NewError(types.ErrRuleInQuestion, "a question cannot contain a rule", f.Position)
		}
		return nil, false, types.NewError(types.ErrInvalidToken, "a rule cannot appear in a clause body", f.Position)
	case f.Name == "!" && len(f.Args) == 0:
		return []types.Instruction{{Op: types.OpCut}, u.tail()}, true, nil
	case (f.Name == "fail" || f.Name == "false") && len(f.Args) == 0:
		return []types.Instruction{{Op: types.OpFail}}, true, nil
	case f.Name == "true" && len(f.Args) == 0:
		return []types.Instruction{u.tail()}, true, nil
	case f.Name == "not" && len(f.Args) == 1:
		inner, err := asGoal(f.Args[0])
		if err != nil {
			return nil, false, err
		}
		if isControl(inner) || inner.Has(types.AttrPrimitive) {
			if inner, err = u.auxiliary(inner); err != nil {
				return nil, false, err
			}
		}
		return u.callCode(inner, true), false, nil
	case f.Has(types.AttrPrimitive):
		code, err := u.primitive(f)
		if err != nil {
			return nil, false, err
		}
		return append(code, u.tail()), true, nil
	}

	return u.callCode(f, false), false, nil
}

// asGoal checks that t can be called; atoms become 0-arity functors.
func asGoal(t types.Term) (*types.Functor, error) {
	switch g := t.(type) {
	case *types.Functor:
		return g, nil
	case *types.Token:
		if g.Kind == types.TokenAtom {
			return &types.Functor{Name: g.Name(), Position: g.Position}, nil
		}
		return nil, types.NewError(types.ErrExpectingFunctor, "goal must be callable", g.Position).WithToken(g.Name())
	case *types.Var:
		return nil, types.Errorf(types.ErrExpectingFunctor, "goal must be callable, got variable %s", g.Name)
	}
	return nil, types.Errorf(types.ErrExpectingFunctor, "goal must be callable")
}

// auxiliary compiles goal as the body of a new clause over the goal's
// variables and returns the call to it. Negation only knows how to invert
// a call, so control constructs and primitives go through one.
func (u *unit) auxiliary(goal *types.Functor) (*types.Functor, error) {
	name := types.AuxiliaryPrefix + strconv.FormatInt(u.c.aux.Add(1), 10)
	head := &types.Functor{Name: name, Args: goalVars(goal), Position: goal.Position}

	sub := u.c.newUnit(false)
	clause, err := sub.processRuleOrFact(&types.Functor{Name: "rule", Args: []types.Term{head, goal}, Position: goal.Position})
	if err != nil {
		return nil, err
	}
	u.aux = append(u.aux, clause)
	return head, nil
}

// goalVars lists the named variables of t in order of first occurrence.
func goalVars(t types.Term) []types.Term {
	var vars []types.Term
	seen := make(map[string]bool)

	var walk func(t types.Term)
	walk = func(t types.Term) {
		switch x := t.(type) {
		case *types.Var:
			if !types.IsAnonymous(x.Name) && !seen[x.Name] {
				seen[x.Name] = true
				vars = append(vars, x)
			}
		case *types.Functor:
			for _, arg := range x.Args {
				walk(arg)
			}
		}
	}
	walk(t)
	return vars
}

func isControl(f *types.Functor) bool {
	switch f.Name {
	case "conj", "disj", "rule":
		return len(f.Args) == 2
	case "not":
		return len(f.Args) == 1
	case "!", "fail", "false", "true":
		return len(f.Args) == 0
	}
	return false
}

// callCode builds the goal structure into $x0 of a fresh environment and
// calls it.
func (u *unit) callCode(f *types.Functor, negate bool) []types.Instruction {
	code := []types.Instruction{{Op: types.OpAllocate}}
	code = u.buildGoal(code, f)

	call := types.OpCall
	if u.c.isBuiltin(f) {
		call = types.OpBCall
	}
	retry := types.OpMaybeRetry
	if negate {
		retry = types.OpMaybeRetryN
	}

	return append(code,
		types.Instruction{Op: types.OpSetup},
		types.Instruction{Op: call},
		types.Instruction{Op: retry},
		types.Instruction{Op: types.OpDeallocate},
		u.tail(),
	)
}

// buildGoal emits put_* code for f. Nested structures are built first into
// their own registers and then referenced from the parent.
func (u *unit) buildGoal(code []types.Instruction, f *types.Functor) []types.Instruction {
	regs := 0

	var build func(f *types.Functor, x string)
	build = func(f *types.Functor, x string) {
		argRegs := make([]string, len(f.Args))
		for i, arg := range f.Args {
			if sub, ok := arg.(*types.Functor); ok && len(sub.Args) > 0 {
				regs++
				argRegs[i] = reg(regs)
				build(sub, argRegs[i])
			}
		}

		code = append(code, types.Instruction{Op: types.OpPutStruct, F: f.Name, A: len(f.Args), X: x})
		for i, arg := range f.Args {
			if argRegs[i] != "" {
				code = append(code, types.Instruction{Op: types.OpPutValue, P: argRegs[i]})
				continue
			}
			code = append(code, u.putArg(arg))
		}
	}
	build(f, reg(0))

	return code
}

func (u *unit) putArg(t types.Term) types.Instruction {
	switch a := t.(type) {
	case *types.Var:
		if types.IsAnonymous(a.Name) {
			return types.Instruction{Op: types.OpPutVoid}
		}
		if u.seen[a.Name] {
			return types.Instruction{Op: types.OpPutValue, P: a.Name}
		}
		u.seen[a.Name] = true
		return types.Instruction{Op: types.OpPutVar, P: a.Name}
	case *types.Token:
		switch a.Kind {
		case types.TokenNumber:
			return types.Instruction{Op: types.OpPutNumber, V: a}
		case types.TokenNil:
			return types.Instruction{Op: types.OpPutNil, V: a}
		}
		return types.Instruction{Op: types.OpPutTerm, V: a}
	case *types.Functor:
		return types.Instruction{Op: types.OpPutTerm, V: types.NewAtom(a.Name)}
	}
	return types.Instruction{Op: types.OpPutVoid}
}
