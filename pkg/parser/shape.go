package parser

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// shape is the internal form of a functor written with a source symbol.
type shape struct {
	name  string
	attrs types.Attr
}

const (
	arith      = types.AttrPrimitive | types.AttrToEvaluate
	comparison = types.AttrPrimitive | types.AttrBoolean
)

// shapes maps "symbol/arity" to the internal functor name and attributes
// the compiler dispatches on.
var shapes = map[string]shape{
	":-/2":  {"rule", 0},
	"?-/1":  {"query", 0},
	":-/1":  {"query", 0},
	";/2":   {"disj", 0},
	",/2":   {"conj", 0},
	"\\+/1": {"not", 0},
	"not/1": {"not", 0},

	"=/2":    {"unif", types.AttrBuiltin},
	"\\=/2":  {"not_unif", types.AttrBuiltin},
	"==/2":   {"equal", types.AttrBuiltin},
	"\\==/2": {"not_equal", types.AttrBuiltin},

	"is/2":   {"is", types.AttrPrimitive},
	"</2":    {"<", comparison},
	">/2":    {">", comparison},
	"=</2":   {"=<", comparison},
	">=/2":   {">=", comparison},
	"=:=/2":  {"=:=", comparison},
	"=\\=/2": {"=\\=", comparison},

	"+/2":   {"+", arith},
	"-/2":   {"-", arith},
	"*/2":   {"*", arith},
	"//2":   {"/", arith},
	"///2":  {"//", arith},
	"mod/2": {"mod", arith},
	"-/1":   {"-", arith},
}

// Shape rewrites a parsed term in place into the form the compiler reads:
// operators and their canonical spellings get their internal names and
// attributes. It returns the term for convenience.
func Shape(t types.Term) types.Term {
	f, ok := t.(*types.Functor)
	if !ok {
		return t
	}
	if s, ok := shapes[f.Signature()]; ok {
		f.Name = s.name
		f.Attrs |= s.attrs
	}
	for _, arg := range f.Args {
		Shape(arg)
	}
	return f
}
