// Package functions provides the registry of native builtin predicates.
//
// A native predicate is executed directly by the machine's bcall
// instruction instead of running compiled clauses. Users of goprolog can
// register their own through [goprolog.WithBuiltin].
//
// # Example
//
//	reg := functions.Default()
//	_ = reg.Register(functions.BuiltinDef{
//	    Name:  "even",
//	    Arity: 1,
//	    Fn: func(ctx functions.Context, args []types.Term) (bool, error) {
//	        n, ok := functions.NumberArg(args[0])
//	        return ok && int64(n)%2 == 0, nil
//	    },
//	})
package functions

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/jldupont/goprolog/pkg/types"
)

// Context is what a native predicate may use from the running machine.
type Context interface {
	// Unify unifies a and b, recording bindings so backtracking undoes them.
	Unify(a, b types.Term) bool
	// Output is the writer used by output predicates.
	Output() io.Writer
	// Logger returns the machine logger.
	Logger() *slog.Logger
}

// Handler is the signature of a native predicate. It reports success or
// failure; an error aborts the query.
type Handler func(ctx Context, args []types.Term) (bool, error)

// BuiltinDef describes one native predicate.
type BuiltinDef struct {
	// Name is the functor name as written in goals.
	Name string
	// Arity is the number of arguments.
	Arity int
	// Fn is the implementation.
	Fn Handler
}

// Signature returns the "name/arity" key of the predicate.
func (d BuiltinDef) Signature() string {
	return types.Signature(d.Name, d.Arity)
}

// Registry maps signatures to native predicates.
type Registry struct {
	defs map[string]BuiltinDef
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]BuiltinDef)}
}

// Default returns a registry holding the core native predicates.
func Default() *Registry {
	r := NewRegistry()
	for _, d := range Core() {
		r.defs[d.Signature()] = d
	}
	return r
}

// Register adds a native predicate. A signature can be registered once.
func (r *Registry) Register(def BuiltinDef) error {
	if def.Name == "" || def.Arity < 0 || def.Fn == nil {
		return types.Errorf(types.ErrInvalidInsert, "invalid builtin definition %q", def.Name)
	}
	key := def.Signature()
	if _, ok := r.defs[key]; ok {
		return types.Errorf(types.ErrAttemptToRedefineBuiltin, "builtin %s is already registered", key)
	}
	r.defs[key] = def
	return nil
}

// Lookup returns the predicate registered under name/arity.
func (r *Registry) Lookup(name string, arity int) (BuiltinDef, bool) {
	d, ok := r.defs[types.Signature(name, arity)]
	return d, ok
}

// IsBuiltin reports whether name/arity is a native predicate.
func (r *Registry) IsBuiltin(name string, arity int) bool {
	_, ok := r.Lookup(name, arity)
	return ok
}

// Defs returns every registered predicate ordered by signature.
func (r *Registry) Defs() []BuiltinDef {
	out := make([]BuiltinDef, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Signature() < out[j].Signature()
	})
	return out
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	c := NewRegistry()
	for k, d := range r.defs {
		c.defs[k] = d
	}
	return c
}

// NumberArg dereferences t and returns its numeric value.
func NumberArg(t types.Term) (float64, bool) {
	tok, ok := types.Deref(t).(*types.Token)
	if !ok {
		return 0, false
	}
	return tok.Number()
}

// Call runs the predicate against args, checking the arity first.
func (d BuiltinDef) Call(ctx Context, args []types.Term) (bool, error) {
	if len(args) != d.Arity {
		return false, types.Errorf(types.ErrInternal, "builtin %s called with %d arguments", d.Signature(), len(args))
	}
	ok, err := d.Fn(ctx, args)
	if err != nil {
		return false, fmt.Errorf("builtin %s: %w", d.Signature(), err)
	}
	return ok, nil
}
