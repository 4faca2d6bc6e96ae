package functions

import (
	"fmt"

	"github.com/jldupont/goprolog/pkg/types"
)

// Core returns the native predicates every machine starts with.
func Core() []BuiltinDef {
	return []BuiltinDef{
		{Name: "unif", Arity: 2, Fn: unif},
		{Name: "not_unif", Arity: 2, Fn: notUnif},
		{Name: "equal", Arity: 2, Fn: equal},
		{Name: "not_equal", Arity: 2, Fn: notEqual},
		{Name: "var", Arity: 1, Fn: typeCheck(isVar)},
		{Name: "nonvar", Arity: 1, Fn: typeCheck(func(t types.Term) bool { return !isVar(t) })},
		{Name: "atom", Arity: 1, Fn: typeCheck(isAtom)},
		{Name: "number", Arity: 1, Fn: typeCheck(isNumber)},
		{Name: "atomic", Arity: 1, Fn: typeCheck(func(t types.Term) bool { return isAtom(t) || isNumber(t) })},
		{Name: "compound", Arity: 1, Fn: typeCheck(isCompound)},
		{Name: "write", Arity: 1, Fn: write},
		{Name: "nl", Arity: 0, Fn: nl},
	}
}

func unif(ctx Context, args []types.Term) (bool, error) {
	return ctx.Unify(args[0], args[1]), nil
}

// notUnif uses the unifier's no-bind mode.
func notUnif(_ Context, args []types.Term) (bool, error) {
	return !types.Unifiable(args[0], args[1]), nil
}

func equal(_ Context, args []types.Term) (bool, error) {
	return types.Identical(args[0], args[1]), nil
}

func notEqual(_ Context, args []types.Term) (bool, error) {
	return !types.Identical(args[0], args[1]), nil
}

func typeCheck(pred func(types.Term) bool) Handler {
	return func(_ Context, args []types.Term) (bool, error) {
		return pred(types.Deref(args[0])), nil
	}
}

func isVar(t types.Term) bool {
	_, ok := t.(*types.Var)
	return ok
}

func isAtom(t types.Term) bool {
	switch x := t.(type) {
	case *types.Token:
		return x.Kind != types.TokenNumber
	case *types.Functor:
		return len(x.Args) == 0
	}
	return false
}

func isNumber(t types.Term) bool {
	tok, ok := t.(*types.Token)
	return ok && tok.Kind == types.TokenNumber
}

func isCompound(t types.Term) bool {
	f, ok := t.(*types.Functor)
	return ok && len(f.Args) > 0
}

func write(ctx Context, args []types.Term) (bool, error) {
	if _, err := fmt.Fprint(ctx.Output(), writeForm(args[0])); err != nil {
		return false, err
	}
	return true, nil
}

// writeForm prints atoms unquoted, the way write/1 does.
func writeForm(t types.Term) string {
	if tok, ok := types.Deref(t).(*types.Token); ok && tok.Kind == types.TokenAtom {
		return tok.Name()
	}
	return types.Format(t)
}

func nl(ctx Context, _ []types.Term) (bool, error) {
	if _, err := fmt.Fprintln(ctx.Output()); err != nil {
		return false, err
	}
	return true, nil
}
