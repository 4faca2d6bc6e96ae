// Package goprolog is a small Prolog system: a reader, a compiler to a
// WAM-like instruction set, and an abstract machine with unification,
// backtracking and cut.
//
// # Quick Start
//
//	s, err := goprolog.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	_ = s.Consult(`
//	    parent(tom, bob).
//	    parent(bob, ann).
//	    grandparent(X, Z) :- parent(X, Y), parent(Y, Z).
//	`)
//
//	sols, _ := s.Query("grandparent(tom, W).")
//	all, _ := sols.All(ctx)
//	fmt.Println(all) // [W = ann]
//
// # Libraries and builtins
//
// Predicates written in Prolog can be loaded with WithLibrary (see the
// pkg/ext packages), native Go predicates with WithBuiltin. Both live in
// the builtin database, which user programs cannot redefine.
//
// # More Information
//
//   - Reader: github.com/jldupont/goprolog/pkg/parser
//   - Compiler: github.com/jldupont/goprolog/pkg/compiler
//   - Machine: github.com/jldupont/goprolog/pkg/machine
//   - Types: github.com/jldupont/goprolog/pkg/types
package goprolog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jldupont/goprolog/pkg/cache"
	"github.com/jldupont/goprolog/pkg/compiler"
	"github.com/jldupont/goprolog/pkg/database"
	"github.com/jldupont/goprolog/pkg/functions"
	"github.com/jldupont/goprolog/pkg/machine"
	"github.com/jldupont/goprolog/pkg/parser"
	"github.com/jldupont/goprolog/pkg/types"
)

// Version returns the current version of goprolog.
func Version() string {
	return "v0.1.0-dev"
}

// Options configures a Session.
type Options struct {
	Logger       *slog.Logger
	Debug        bool
	Caching      bool
	CacheSize    int
	Cache        *cache.Cache
	Timeout      time.Duration
	MaxSteps     int
	UnknownFails bool
	Output       io.Writer
	Libraries    []functions.Library
	Builtins     []functions.BuiltinDef
}

// Option configures a Session.
type Option func(*Options)

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithDebug enables debug tracing of compilation, inserts and steps.
func WithDebug(enable bool) Option {
	return func(opts *Options) {
		opts.Debug = enable
	}
}

// WithCaching caches compiled queries by source text.
func WithCaching(enable bool) Option {
	return func(opts *Options) {
		opts.Caching = enable
	}
}

// WithCacheSize sets the capacity of the query cache and enables caching.
func WithCacheSize(size int) Option {
	return func(opts *Options) {
		opts.CacheSize = size
		opts.Caching = true
	}
}

// WithCache uses c as the query cache, so that sessions can share one.
func WithCache(c *cache.Cache) Option {
	return func(opts *Options) {
		opts.Cache = c
		opts.Caching = true
	}
}

// WithTimeout bounds every Solutions.Next call.
func WithTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.Timeout = d
	}
}

// WithMaxSteps bounds the steps spent looking for one solution.
func WithMaxSteps(n int) Option {
	return func(opts *Options) {
		opts.MaxSteps = n
	}
}

// WithUnknownFails makes calls to undefined predicates fail instead of
// returning an error.
func WithUnknownFails(enable bool) Option {
	return func(opts *Options) {
		opts.UnknownFails = enable
	}
}

// WithOutput sets the writer of write/1 and nl/0.
func WithOutput(w io.Writer) Option {
	return func(opts *Options) {
		opts.Output = w
	}
}

// WithLibrary loads predicates written in Prolog into the builtin database.
func WithLibrary(libs ...functions.Library) Option {
	return func(opts *Options) {
		opts.Libraries = append(opts.Libraries, libs...)
	}
}

// WithBuiltin registers native predicates.
func WithBuiltin(defs ...functions.BuiltinDef) Option {
	return func(opts *Options) {
		opts.Builtins = append(opts.Builtins, defs...)
	}
}

// Session holds a program and answers queries against it.
//
// Consult and Query are safe for concurrent use; each Solutions value
// belongs to a single goroutine.
type Session struct {
	opts     Options
	db       *database.Manager
	comp     *compiler.Compiler
	registry *functions.Registry
	cache    *cache.Cache
}

// New creates a session with the core builtins and the requested
// libraries installed.
func New(opts ...Option) (*Session, error) {
	options := Options{
		Output: io.Discard,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	registry := functions.Default()
	for _, def := range options.Builtins {
		if err := registry.Register(def); err != nil {
			return nil, err
		}
	}

	s := &Session{
		opts:     options,
		registry: registry,
		db: database.NewManager(
			database.WithLogger(options.Logger),
			database.WithDebug(options.Debug),
		),
		comp: compiler.New(
			compiler.WithLogger(options.Logger),
			compiler.WithDebug(options.Debug),
			compiler.WithBuiltins(registry),
		),
	}
	if options.Caching {
		s.cache = options.Cache
		if s.cache == nil {
			s.cache = cache.New(options.CacheSize)
		}
	}

	if err := machine.InstallBuiltins(s.db, registry); err != nil {
		return nil, err
	}
	for _, lib := range options.Libraries {
		if err := s.load(lib.Source, s.db.BuiltinInsertCode); err != nil {
			return nil, fmt.Errorf("library %s: %w", lib.Name, err)
		}
	}
	return s, nil
}

// Consult adds the clauses of a program to the user database. Directives
// (":- Goal.") run once, at the point where they appear.
func (s *Session) Consult(src string) error {
	return s.load(src, s.db.UserInsertCode)
}

func (s *Session) load(src string, insert func(string, int, *types.Clause) error) error {
	terms, err := parser.ParseProgram(src)
	if err != nil {
		return err
	}
	for _, term := range terms {
		if goal, ok := directive(term); ok {
			if err := s.runDirective(goal); err != nil {
				return err
			}
			continue
		}
		clause, err := s.comp.CompileClause(term)
		if err != nil {
			return err
		}
		if err := insert(clause.F, clause.A, clause); err != nil {
			return err
		}
	}
	return nil
}

func directive(t types.Term) (types.Term, bool) {
	if f, ok := t.(*types.Functor); ok && f.Name == "query" && len(f.Args) == 1 {
		return f.Args[0], true
	}
	return nil, false
}

func (s *Session) runDirective(goal types.Term) error {
	q, err := s.comp.CompileQuery(goal)
	if err != nil {
		return err
	}
	sols, err := s.solutions(q)
	if err != nil {
		return err
	}
	_, ok, err := sols.Next(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		s.opts.Logger.Warn("directive failed", "goal", types.Format(goal))
	}
	return nil
}

// Query compiles a question and returns an iterator over its solutions.
// The trailing "." may be omitted.
func (s *Session) Query(src string) (*Solutions, error) {
	src = strings.TrimSpace(src)
	if !strings.HasSuffix(src, ".") {
		src += "."
	}

	compile := func() (*types.Clause, error) {
		term, err := parser.ParseClause(src)
		if err != nil {
			return nil, err
		}
		return s.comp.CompileQuery(term)
	}

	var q *types.Clause
	var err error
	if s.cache != nil {
		q, err = s.cache.GetOrCompile(src, compile)
	} else {
		q, err = compile()
	}
	if err != nil {
		return nil, err
	}
	return s.solutions(q)
}

func (s *Session) solutions(q *types.Clause) (*Solutions, error) {
	m := machine.New(s.db,
		machine.WithLogger(s.opts.Logger),
		machine.WithDebug(s.opts.Debug),
		machine.WithMaxSteps(s.opts.MaxSteps),
		machine.WithUnknownFails(s.opts.UnknownFails),
		machine.WithOutput(s.opts.Output),
		machine.WithBuiltins(s.registry),
	)
	if err := m.SetQuestion(q); err != nil {
		return nil, err
	}
	return &Solutions{m: m, timeout: s.opts.Timeout}, nil
}

// Listing disassembles the clauses of a predicate given as "name/arity".
func (s *Session) Listing(signature string) (string, error) {
	i := strings.LastIndex(signature, "/")
	if i <= 0 {
		return "", types.Errorf(types.ErrFunctorNotFound, "invalid predicate indicator %q", signature)
	}
	arity, err := strconv.Atoi(signature[i+1:])
	if err != nil {
		return "", types.Errorf(types.ErrFunctorNotFound, "invalid predicate indicator %q", signature).WithCause(err)
	}

	clauses, err := s.db.GetCode(signature[:i], arity)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, c := range clauses {
		b.WriteString(c.String())
	}
	return b.String(), nil
}

// Predicates lists the signatures defined by consulted programs.
func (s *Session) Predicates() []string {
	return s.db.Signatures()
}

// Solution maps each named query variable to its value.
type Solution map[string]string

// String renders the bindings as "X = 1, Y = a", or "true" when the query
// has no named variable.
func (s Solution) String() string {
	if len(s) == 0 {
		return "true"
	}
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " = " + s[name]
	}
	return strings.Join(parts, ", ")
}

// Solutions iterates over the answers of one query.
type Solutions struct {
	m        *machine.Machine
	timeout  time.Duration
	answered bool
	done     bool
	err      error
}

// Next searches for the next solution. It returns false once the search is
// exhausted. A context error leaves the search where it stopped, so Next
// may be called again.
func (q *Solutions) Next(ctx context.Context) (Solution, bool, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	snap, err := q.Run(ctx, 0)
	if err != nil || snap.Status != machine.StatusAnswer {
		return nil, false, err
	}
	return snap.Solution, true, nil
}

// Snapshot is the outcome of a bounded run.
type Snapshot struct {
	// Status is StatusAnswer when Solution holds bindings, StatusPaused when
	// the step budget ran out first, StatusExhausted at the end of the search.
	Status machine.Status
	// Steps is the number of instructions executed by this run.
	Steps int
	// Solution is set at an answer.
	Solution Solution
}

// Run executes at most n instructions of the search (all of them when
// n <= 0). A paused search resumes with the next Run; after an answer the
// next Run looks for the following solution.
func (q *Solutions) Run(ctx context.Context, n int) (Snapshot, error) {
	if q.done {
		return Snapshot{Status: machine.StatusExhausted}, q.err
	}
	if q.answered {
		q.answered = false
		if !q.m.Redo() {
			_, _, err := q.finish(q.m.Err())
			return Snapshot{Status: machine.StatusExhausted}, err
		}
	}

	status, steps, err := q.m.Run(ctx, n)
	if err != nil {
		if ctx.Err() != nil && q.m.Err() == nil {
			return Snapshot{Status: machine.StatusPaused, Steps: steps}, err
		}
		_, _, err = q.finish(err)
		return Snapshot{Status: machine.StatusExhausted, Steps: steps}, err
	}

	switch status {
	case machine.StatusAnswer:
		q.answered = true
		return Snapshot{Status: status, Steps: steps, Solution: q.solution()}, nil
	case machine.StatusExhausted:
		q.finish(nil)
	}
	return Snapshot{Status: status, Steps: steps}, nil
}

func (q *Solutions) solution() Solution {
	vars := q.m.QueryVars()
	sol := make(Solution, len(vars))
	for name, v := range vars {
		sol[name] = types.Format(v)
	}
	return sol
}

func (q *Solutions) finish(err error) (Solution, bool, error) {
	q.done = true
	q.err = err
	return nil, false, err
}

// All collects the remaining solutions.
func (q *Solutions) All(ctx context.Context) ([]Solution, error) {
	var out []Solution
	for {
		sol, ok, err := q.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, sol)
	}
}

// Solve consults program in a fresh session and returns every solution of
// query.
func Solve(ctx context.Context, program, query string, opts ...Option) ([]Solution, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Consult(program); err != nil {
		return nil, err
	}
	sols, err := s.Query(query)
	if err != nil {
		return nil, err
	}
	return sols.All(ctx)
}
