// Package parser reads Prolog source text into terms.
//
// Reading happens in three stages:
//   - Lexer: turns the text into tokens
//   - Parser: resolves operator priorities and builds the term tree
//   - Shape: renames operators to the internal functor names (conj, disj,
//     rule, unif, ...) and sets the attributes the compiler dispatches on
//
// Lists are read as cons/2 chains ending in the nil token.
//
// # Example
//
//	clauses, err := parser.ParseProgram("p(1). p(2).")
//	if err != nil {
//	    log.Fatal(err)
//	}
package parser

import (
	"errors"

	"github.com/jldupont/goprolog/pkg/types"
)

// ParseProgram parses every clause of a program text.
func ParseProgram(src string, opts ...Option) ([]types.Term, error) {
	p := NewParser(src, opts...)
	var clauses []types.Term
	for !p.AtEOF() {
		t, err := p.Next()
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, t)
	}
	return clauses, nil
}

// ParseClause parses exactly one clause. Text after the terminating '.'
// is an error.
func ParseClause(src string, opts ...Option) (types.Term, error) {
	p := NewParser(src, opts...)
	if p.AtEOF() {
		return nil, types.NewError(types.ErrUnexpectedEnd, "Empty clause", 0)
	}
	t, err := p.Next()
	if err != nil {
		return nil, err
	}
	if !p.AtEOF() {
		return nil, p.error(types.ErrUnexpectedToken, "Unexpected text after clause end")
	}
	return t, nil
}

// IsIncomplete reports whether err was caused by the input ending in the
// middle of a clause, so that more text could complete it.
func IsIncomplete(err error) bool {
	var e *types.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Code {
	case types.ErrUnexpectedEnd, types.ErrQuotedNotClosed, types.ErrCommentNotClosed:
		return true
	}
	return false
}

// Option configures parsing behavior.
type Option func(*Options)

// Options holds parser configuration.
type Options struct {
	// VarGen names anonymous variables. A shared generator keeps names
	// unique across clauses.
	VarGen *types.VarGen
	// MaxDepth limits term nesting to prevent stack overflow.
	MaxDepth int
	// Ops is the operator table.
	Ops *OpTable
}

// WithVarGen sets the generator used to name anonymous variables.
func WithVarGen(g *types.VarGen) Option {
	return func(opts *Options) {
		opts.VarGen = g
	}
}

// WithMaxDepth sets the maximum nesting depth.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

// WithOps replaces the operator table.
func WithOps(ops *OpTable) Option {
	return func(opts *Options) {
		opts.Ops = ops
	}
}
