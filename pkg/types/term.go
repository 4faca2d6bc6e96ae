// Package types defines the core data model shared by every goprolog stage.
//
// This package contains type definitions for:
//   - Term: the tagged union handed from the parser to the compiler (Token, Var, Functor)
//   - Instruction: one abstract-machine instruction with its context record
//   - Clause: compiled code keyed by label
//   - Error types: Structured errors with codes
//
// It also hosts the unifier, which operates on Terms only.
package types

import (
	"strconv"
)

// Term is a Prolog term. The concrete types are *Token, *Var and *Functor.
type Term interface {
	String() string
	isTerm()
}

// TokenKind tags the constant held by a Token.
type TokenKind uint8

const (
	// TokenAtom is a symbolic constant ("term" in compiled code).
	TokenAtom TokenKind = iota
	// TokenNumber is a numeric constant.
	TokenNumber
	// TokenNil is the empty list.
	TokenNil
)

// String returns the tag name used in instruction mnemonics.
func (k TokenKind) String() string {
	switch k {
	case TokenAtom:
		return "term"
	case TokenNumber:
		return "number"
	case TokenNil:
		return "nil"
	default:
		return "(unknown)"
	}
}

// Token is a leaf constant: an atom, a number or nil.
type Token struct {
	Kind  TokenKind
	Value interface{} // string for atoms and nil, float64 for numbers
	// Position is the byte offset of the token in the source, -1 when synthesized.
	Position int
}

func (*Token) isTerm() {}

// NewAtom creates an atom token.
func NewAtom(name string) *Token {
	return &Token{Kind: TokenAtom, Value: name, Position: -1}
}

// NewNumber creates a number token.
func NewNumber(n float64) *Token {
	return &Token{Kind: TokenNumber, Value: n, Position: -1}
}

// NewNil creates the empty list token.
func NewNil() *Token {
	return &Token{Kind: TokenNil, Value: "[]", Position: -1}
}

// Name returns the textual value of the token.
func (t *Token) Name() string {
	switch v := t.Value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// Number returns the numeric value of a number token.
func (t *Token) Number() (float64, bool) {
	if t.Kind != TokenNumber {
		return 0, false
	}
	n, ok := t.Value.(float64)
	return n, ok
}

// numeric interprets the token as a number the way a loose comparison would:
// number tokens directly, atoms when their text parses as a number.
func (t *Token) numeric() (float64, bool) {
	switch v := t.Value.(type) {
	case float64:
		return v, true
	case string:
		if t.Kind != TokenAtom || v == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(v, 64)
		return n, err == nil
	}
	return 0, false
}

// Equal compares two constants with loose equality: 5 and '5' are equal.
func (t *Token) Equal(o *Token) bool {
	if t == o {
		return true
	}
	if t.Kind == TokenNil || o.Kind == TokenNil {
		return t.Kind == o.Kind
	}
	a, aok := t.numeric()
	b, bok := o.numeric()
	if aok && bok {
		return a == b
	}
	return t.Name() == o.Name()
}

// String returns the source form of the token.
func (t *Token) String() string {
	return Format(t)
}

// Attr flags carried by a Functor to steer code generation.
type Attr uint8

const (
	// AttrPrimitive marks operators evaluated in place by op_* instructions.
	AttrPrimitive Attr = 1 << iota
	// AttrBoolean marks primitives whose outcome is success or failure.
	AttrBoolean
	// AttrBuiltin marks goals dispatched to a native handler through bcall.
	AttrBuiltin
	// AttrToEvaluate marks arithmetic sub-expressions.
	AttrToEvaluate
)

// Functor is a compound term: a name and an ordered argument list.
type Functor struct {
	Name     string
	Args     []Term
	Attrs    Attr
	Position int
}

func (*Functor) isTerm() {}

// NewFunctor creates a compound term without attributes.
func NewFunctor(name string, args ...Term) *Functor {
	return &Functor{Name: name, Args: args, Position: -1}
}

// Arity returns the number of arguments.
func (f *Functor) Arity() int {
	return len(f.Args)
}

// Has reports whether all attribute flags in a are set.
func (f *Functor) Has(a Attr) bool {
	return f.Attrs&a == a
}

// Signature returns the "name/arity" key of the functor.
func (f *Functor) Signature() string {
	return Signature(f.Name, len(f.Args))
}

// String returns the canonical form of the term.
func (f *Functor) String() string {
	return Format(f)
}

// Signature builds the "name/arity" key used by the database.
func Signature(name string, arity int) string {
	return name + "/" + strconv.Itoa(arity)
}

// Cons builds a list cell.
func Cons(head, tail Term) *Functor {
	return NewFunctor("cons", head, tail)
}

// List builds a proper list from the given elements.
func List(elems ...Term) Term {
	var t Term = NewNil()
	for i := len(elems) - 1; i >= 0; i-- {
		t = Cons(elems[i], t)
	}
	return t
}
