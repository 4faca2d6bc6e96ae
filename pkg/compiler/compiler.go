// Package compiler translates parsed clauses into labeled instruction lists.
//
// A clause compiles to a "head" label that decodes the goal structure held
// in register $x0, and body labels g0, g1, ... with one label per leaf
// goal before linking. Conjunctions concatenate labels (with a maybe_fail
// boundary after non-primitive goals), disjunctions prepend try_else to
// their left branch. Labels merged by a conjunction are recorded so later
// links find the surviving block.
//
// # Example
//
//	term, _ := parser.ParseClause("q(X) :- p(X), !.")
//	clause, err := compiler.New().CompileClause(term)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(clause)
package compiler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jldupont/goprolog/pkg/types"
)

// BuiltinSet reports which goals are native predicates dispatched by bcall.
type BuiltinSet interface {
	IsBuiltin(name string, arity int) bool
}

// Option configures a Compiler.
type Option func(*Options)

// Options holds compiler configuration.
type Options struct {
	// Logger receives compile traces when Debug is set.
	Logger *slog.Logger
	// Debug logs every compiled clause.
	Debug bool
	// Builtins decides between bcall and call for plain goals. Goals
	// carrying the builtin attribute always use bcall.
	Builtins BuiltinSet
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithDebug enables compile tracing.
func WithDebug(enable bool) Option {
	return func(opts *Options) {
		opts.Debug = enable
	}
}

// WithBuiltins sets the set of native predicates.
func WithBuiltins(b BuiltinSet) Option {
	return func(opts *Options) {
		opts.Builtins = b
	}
}

// Compiler compiles clauses and queries. It holds no per-clause state and
// can be shared.
type Compiler struct {
	opts Options

	// aux numbers synthesized clauses so their names never repeat.
	aux atomic.Int64
}

// New creates a compiler.
func New(opts ...Option) *Compiler {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return &Compiler{opts: options}
}

// CompileClause compiles a fact or a rule.
func (c *Compiler) CompileClause(t types.Term) (*types.Clause, error) {
	u := c.newUnit(false)
	clause, err := u.processRuleOrFact(t)
	if err != nil {
		return nil, err
	}
	c.trace(clause)
	return clause, nil
}

// CompileQuery compiles a question, given with or without the ?- prefix.
// The result is stored under the reserved .q./0 signature.
func (c *Compiler) CompileQuery(t types.Term) (*types.Clause, error) {
	if f, ok := t.(*types.Functor); ok && f.Name == "query" && len(f.Args) == 1 {
		t = f.Args[0]
	}
	if f, ok := t.(*types.Functor); ok && f.Name == "rule" && len(f.Args) == 2 {
		return nil, types.NewError(types.ErrRuleInQuestion, "a question cannot contain a rule", f.Position)
	}

	u := c.newUnit(true)
	if err := u.processBody(t); err != nil {
		return nil, err
	}
	clause := &types.Clause{F: types.QueryFunctor, A: 0, Code: u.blocks, Aux: u.aux}
	c.trace(clause)
	return clause, nil
}

func (c *Compiler) trace(clause *types.Clause) {
	if c.opts.Debug {
		c.opts.Logger.Debug("compiled", "signature", clause.Signature(), "labels", len(clause.Code))
	}
}

func (c *Compiler) isBuiltin(f *types.Functor) bool {
	if f.Has(types.AttrBuiltin) {
		return true
	}
	return c.opts.Builtins != nil && c.opts.Builtins.IsBuiltin(f.Name, len(f.Args))
}

// unit is the state of one clause compilation.
type unit struct {
	c       *Compiler
	isQuery bool
	seen    map[string]bool
	blocks  map[string][]types.Instruction
	merged  map[string]string
	leaves  int
	yregs   int
	aux     []*types.Clause
}

func (c *Compiler) newUnit(isQuery bool) *unit {
	return &unit{
		c:       c,
		isQuery: isQuery,
		seen:    make(map[string]bool),
		blocks:  make(map[string][]types.Instruction),
		merged:  make(map[string]string),
	}
}

// processRuleOrFact dispatches on the clause shape.
func (u *unit) processRuleOrFact(t types.Term) (*types.Clause, error) {
	head, body := t, types.Term(nil)
	if f, ok := t.(*types.Functor); ok {
		switch {
		case f.Name == "rule" && len(f.Args) == 2:
			head, body = f.Args[0], f.Args[1]
		case f.Name == "query" && len(f.Args) == 1:
			return nil, types.NewError(types.ErrInvalidHead, "a question is not a clause", f.Position)
		}
	}

	hf, err := asHead(head)
	if err != nil {
		return nil, err
	}

	u.blocks[types.LabelHead] = u.processHead(hf, body != nil)
	if body != nil {
		if err := u.processBody(body); err != nil {
			return nil, err
		}
	}
	return &types.Clause{F: hf.Name, A: len(hf.Args), Code: u.blocks, Aux: u.aux}, nil
}

// asHead checks the head shape; an atom head becomes a 0-arity functor.
func asHead(t types.Term) (*types.Functor, error) {
	switch h := t.(type) {
	case *types.Functor:
		if (h.Name == "conj" || h.Name == "disj") && len(h.Args) == 2 {
			return nil, types.NewError(types.ErrInvalidHead, fmt.Sprintf("invalid clause head %s", h.Name), h.Position)
		}
		return h, nil
	case *types.Token:
		if h.Kind == types.TokenAtom {
			return &types.Functor{Name: h.Name(), Position: h.Position}, nil
		}
		return nil, types.NewError(types.ErrExpectingFunctor, "clause head must be a functor", h.Position).WithToken(h.Name())
	case *types.Var:
		return nil, types.Errorf(types.ErrExpectingFunctor, "clause head must be a functor, got variable %s", h.Name)
	}
	return nil, types.Errorf(types.ErrExpectingFunctor, "clause head must be a functor")
}

func (u *unit) tail() types.Instruction {
	if u.isQuery {
		return types.Instruction{Op: types.OpEnd}
	}
	return types.Instruction{Op: types.OpProceed}
}

func (u *unit) nextY() string {
	u.yregs++
	return fmt.Sprintf("$y%d", u.yregs)
}

func reg(n int) string {
	return fmt.Sprintf("$x%d", n)
}
