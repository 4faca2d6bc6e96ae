package types

import (
	"fmt"
	"strings"
)

// anonymousPrefix cannot be produced by the reader, so synthesized names
// never collide with source variables.
const anonymousPrefix = "_#"

// Var is a mutable binding cell.
//
// A Var is either bound or unbound; the bound value is never nil.
// Within a binding epoch a Var is bound at most once; backtracking
// unbinds it through the trail.
type Var struct {
	Name  string
	ID    int
	value Term
	bound bool
}

func (*Var) isTerm() {}

// IsBound reports whether the variable currently holds a value.
func (v *Var) IsBound() bool {
	return v.bound
}

// Value returns the bound value, or nil while unbound.
func (v *Var) Value() Term {
	return v.value
}

// Bind binds the variable to t.
func (v *Var) Bind(t Term) error {
	if v.bound {
		return Errorf(ErrAlreadyBound, "variable %s is already bound to %s", v.Name, Format(v.value))
	}
	if t == nil {
		return Errorf(ErrInternal, "variable %s: binding to an absent value", v.Name)
	}
	if other, ok := t.(*Var); ok && other == v {
		return Errorf(ErrInternal, "variable %s: binding to itself", v.Name)
	}
	v.set(t)
	return nil
}

// Unbind resets the variable to the unbound state.
func (v *Var) Unbind() error {
	if !v.bound {
		return Errorf(ErrNotBound, "variable %s is not bound", v.Name)
	}
	v.reset()
	return nil
}

func (v *Var) set(t Term) {
	v.value = t
	v.bound = true
}

func (v *Var) reset() {
	v.value = nil
	v.bound = false
}

// String returns the variable name.
func (v *Var) String() string {
	return v.Name
}

// IsAnonymous reports whether name was synthesized for an anonymous variable.
func IsAnonymous(name string) bool {
	return strings.HasPrefix(name, anonymousPrefix)
}

// VarGen hands out variable ids and anonymous-variable names.
// One generator is threaded through a parser and a machine so that
// numbering is deterministic per session.
type VarGen struct {
	next int
}

// NewVarGen creates a generator starting at 1.
func NewVarGen() *VarGen {
	return &VarGen{}
}

// Fresh creates an unbound variable with a new id.
func (g *VarGen) Fresh(name string) *Var {
	g.next++
	return &Var{Name: name, ID: g.next}
}

// Anonymous returns a new name for an anonymous "_" variable.
func (g *VarGen) Anonymous() string {
	g.next++
	return fmt.Sprintf("%s%d", anonymousPrefix, g.next)
}

// Deref follows variable bindings until it reaches an unbound variable or a
// non-variable term. A chain leading back to its origin stops at the origin.
func Deref(t Term) Term {
	origin, ok := t.(*Var)
	if !ok {
		return t
	}
	cur := origin
	for cur.bound {
		next, ok := cur.value.(*Var)
		if !ok {
			return cur.value
		}
		if next == origin {
			return origin
		}
		cur = next
	}
	return cur
}
