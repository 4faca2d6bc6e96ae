// Package machine implements the abstract machine that runs compiled
// clauses.
//
// The machine executes one instruction per Step against a stack of
// environments. The bottom environment belongs to the query; every call
// pushes one more, which stays on the stack as a choice point while it has
// untried clauses. Bindings are recorded on the trail of the top
// environment so that backtracking into it undoes them.
//
// # Example
//
//	m := machine.New(db)
//	if err := m.SetQuestion(query); err != nil {
//	    return err
//	}
//	for {
//	    status, _, err := m.Run(ctx, 0)
//	    if err != nil || status != machine.StatusAnswer {
//	        break
//	    }
//	    fmt.Println(m.QueryVars())
//	    if !m.Redo() {
//	        break
//	    }
//	}
package machine

import (
	"context"
	"io"
	"log/slog"

	"github.com/jldupont/goprolog/pkg/database"
	"github.com/jldupont/goprolog/pkg/functions"
	"github.com/jldupont/goprolog/pkg/types"
)

// Status is the outcome of a Run.
type Status uint8

const (
	// StatusPaused means the step budget ran out before an answer.
	StatusPaused Status = iota
	// StatusAnswer means the query variables hold a solution.
	StatusAnswer
	// StatusExhausted means there are no more solutions.
	StatusExhausted
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusAnswer:
		return "answer"
	case StatusExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// mode is the head-decoding mode of the current structure.
type mode uint8

const (
	modeRead mode = iota
	modeWrite
)

// ctxCheckInterval is how many steps Run executes between context checks.
const ctxCheckInterval = 256

// Options holds machine configuration.
type Options struct {
	// Logger receives step traces when Debug is set.
	Logger *slog.Logger
	// Debug logs every executed instruction.
	Debug bool
	// MaxSteps bounds the steps spent searching for one solution; 0 means
	// unlimited.
	MaxSteps int
	// UnknownFails makes a call to an undefined predicate fail instead of
	// returning a FunctorNotFound error.
	UnknownFails bool
	// Output is where write/1 and nl/0 print.
	Output io.Writer
	// Builtins holds the native predicates.
	Builtins *functions.Registry
	// VarGen numbers the variables created at run time.
	VarGen *types.VarGen
}

// Option configures a Machine.
type Option func(*Options)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

// WithDebug enables step tracing.
func WithDebug(enable bool) Option {
	return func(opts *Options) {
		opts.Debug = enable
	}
}

// WithMaxSteps bounds the steps per solution.
func WithMaxSteps(n int) Option {
	return func(opts *Options) {
		opts.MaxSteps = n
	}
}

// WithUnknownFails makes undefined predicates fail.
func WithUnknownFails(enable bool) Option {
	return func(opts *Options) {
		opts.UnknownFails = enable
	}
}

// WithOutput sets the writer of output predicates.
func WithOutput(w io.Writer) Option {
	return func(opts *Options) {
		opts.Output = w
	}
}

// WithBuiltins sets the native predicate registry.
func WithBuiltins(r *functions.Registry) Option {
	return func(opts *Options) {
		opts.Builtins = r
	}
}

// WithVarGen sets the variable generator.
func WithVarGen(g *types.VarGen) Option {
	return func(opts *Options) {
		opts.VarGen = g
	}
}

// Machine is the interpreter context. It is not safe for concurrent use.
type Machine struct {
	opts Options
	db   *database.Manager

	question *types.Clause

	p  Pointer       // instruction pointer
	cc *types.Clause // current code
	cu bool          // unification flag: true while succeeding

	// head decoding
	csm mode
	cs  *types.Functor
	csi int
	csx string

	build *types.Functor // structure under construction by put_*

	stack []*Env
	qenv  *Env
	tse   *Env // target environment of the call being set up
	cse   *Env // current environment

	end       bool
	exhausted bool
	steps     int
	err       error
}

// New creates a machine over the given databases.
func New(db *database.Manager, opts ...Option) *Machine {
	options := Options{
		Output: io.Discard,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	if options.Builtins == nil {
		options.Builtins = functions.Default()
	}
	if options.VarGen == nil {
		options.VarGen = types.NewVarGen()
	}

	return &Machine{
		opts: options,
		db:   db,
	}
}

// SetQuestion installs a compiled query and resets the machine state.
func (m *Machine) SetQuestion(q *types.Clause) error {
	if err := m.db.SetQuery(q); err != nil {
		return err
	}

	m.question = q
	m.qenv = newEnv(0)
	m.stack = []*Env{m.qenv}
	m.tse, m.cse = m.qenv, m.qenv
	m.p = Pointer{F: types.QueryFunctor, A: 0, CI: 0, L: types.LabelBody, I: 0}
	m.cc = q
	m.cu = true
	m.csm, m.cs, m.csi, m.csx = modeRead, nil, 0, ""
	m.build = nil
	m.end, m.exhausted = false, false
	m.steps = 0
	m.err = nil
	return nil
}

// Step executes one instruction and reports whether the machine ended:
// either an answer is ready or the search is exhausted.
func (m *Machine) Step() (bool, error) {
	if m.err != nil {
		return true, m.err
	}
	if m.question == nil {
		return true, types.Errorf(types.ErrNoQuestion, "no question set")
	}
	if m.end {
		return true, nil
	}

	code, ok := m.cc.Code[m.p.L]
	if !ok {
		return true, m.fault(types.Errorf(types.ErrFunctorCodeNotFound, "%s has no label %s", m.cc.Signature(), m.p.L))
	}
	if m.p.I >= len(code) {
		return true, m.fault(types.Errorf(types.ErrNoMoreInstruction, "%s: ran off label %s", m.cc.Signature(), m.p.L))
	}
	inst := code[m.p.I]
	m.p.I++

	m.steps++
	if m.opts.MaxSteps > 0 && m.steps > m.opts.MaxSteps {
		return true, m.fault(types.Errorf(types.ErrStepLimit, "step limit of %d exceeded", m.opts.MaxSteps))
	}
	if m.opts.Debug {
		m.opts.Logger.Debug("step", "inst", inst.String(), "clause", m.cc.Signature(), "label", m.p.L, "depth", len(m.stack))
	}

	if err := m.execute(inst); err != nil {
		return true, m.fault(err)
	}
	return m.end, nil
}

func (m *Machine) fault(err error) error {
	if m.err == nil {
		m.err = err
		m.end = true
	}
	return m.err
}

// Run executes at most n steps (all of them when n <= 0), stopping early at
// an answer or at exhaustion. It returns the status and the steps taken.
// The context is checked between slices of steps.
func (m *Machine) Run(ctx context.Context, n int) (Status, int, error) {
	if m.question == nil {
		return StatusExhausted, 0, types.Errorf(types.ErrNoQuestion, "no question set")
	}
	if m.end {
		return m.status(), 0, m.err
	}

	for i := 0; n <= 0 || i < n; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return StatusPaused, i, err
			}
		}
		done, err := m.Step()
		if err != nil {
			return StatusPaused, i, err
		}
		if done {
			return m.status(), i + 1, nil
		}
	}
	return StatusPaused, n, nil
}

func (m *Machine) status() Status {
	switch {
	case !m.end:
		return StatusPaused
	case m.exhausted:
		return StatusExhausted
	default:
		return StatusAnswer
	}
}

// Status reports the machine state after the last step.
func (m *Machine) Status() Status {
	return m.status()
}

// Redo asks for the next solution after an answer. It reports false when
// the search is already exhausted; otherwise Run continues the search.
func (m *Machine) Redo() bool {
	if m.question == nil || m.err != nil || m.exhausted {
		return false
	}
	m.end = false
	m.cu = false
	m.steps = 0
	if err := m.failure(); err != nil {
		m.fault(err)
		return false
	}
	return !m.exhausted
}

// Backtrack resumes at the most recent choice point. It returns false when
// only the query environment is left; calling it again keeps returning
// false.
func (m *Machine) Backtrack() bool {
	ok, err := m.backtrack()
	if err != nil {
		m.fault(err)
		return false
	}
	return ok
}

// QueryVars returns the variables of the query by name. Bindings are only
// meaningful after an answer.
func (m *Machine) QueryVars() map[string]*types.Var {
	out := make(map[string]*types.Var)
	if m.qenv == nil {
		return out
	}
	for name, t := range m.qenv.Vars {
		if isRegister(name) || types.IsAnonymous(name) {
			continue
		}
		if v, ok := t.(*types.Var); ok {
			out[name] = v
		}
	}
	return out
}

// Depth returns the number of environments on the stack.
func (m *Machine) Depth() int {
	return len(m.stack)
}

// Steps returns the steps spent on the current solution search.
func (m *Machine) Steps() int {
	return m.steps
}

// Succeeded reports the unification flag.
func (m *Machine) Succeeded() bool {
	return m.cu
}

// Err returns the error that stopped the machine, if any.
func (m *Machine) Err() error {
	return m.err
}

// Unify unifies a and b on behalf of a native predicate, trailing bindings.
func (m *Machine) Unify(a, b types.Term) bool {
	return types.Unify(a, b, m.trail)
}

// Output returns the writer of output predicates.
func (m *Machine) Output() io.Writer {
	return m.opts.Output
}

// Logger returns the machine logger.
func (m *Machine) Logger() *slog.Logger {
	return m.opts.Logger
}

func (m *Machine) top() *Env {
	return m.stack[len(m.stack)-1]
}

func (m *Machine) fresh(name string) *types.Var {
	return m.opts.VarGen.Fresh(name)
}

// execute dispatches one instruction.
func (m *Machine) execute(inst types.Instruction) error {
	switch inst.Op {
	// head decoding
	case types.OpGetStruct:
		return m.getStruct(inst)
	case types.OpGetVar, types.OpUnifVar:
		return m.getVar(inst)
	case types.OpGetValue, types.OpUnifValue:
		return m.getValue(inst)
	case types.OpUnifVoid:
		return m.unifVoid()
	case types.OpGetTerm, types.OpGetNumber, types.OpGetNil,
		types.OpUnifyTerm, types.OpUnifyNumber, types.OpUnifyNil:
		return m.getConst(inst)

	// goal construction
	case types.OpPutStruct:
		return m.putStruct(inst)
	case types.OpPutVar:
		return m.putVar(inst)
	case types.OpPutVoid:
		return m.putVoid()
	case types.OpPutValue:
		return m.putValue(inst)
	case types.OpPutTerm, types.OpPutNumber, types.OpPutNil:
		return m.putConst(inst)

	// control
	case types.OpAllocate:
		return m.allocate()
	case types.OpSetup:
		return m.setup()
	case types.OpCall, types.OpBCall:
		return m.call()
	case types.OpMaybeRetry:
		return m.maybeRetry()
	case types.OpMaybeRetryN:
		return m.maybeRetryN()
	case types.OpDeallocate:
		return m.deallocate()
	case types.OpMaybeFail:
		return m.maybeFail()
	case types.OpTryElse:
		return m.tryElse(inst)
	case types.OpTryFinally:
		return m.tryFinally()
	case types.OpJump:
		return m.jump(inst.L)
	case types.OpProceed:
		return m.proceed()
	case types.OpCut:
		return m.cut()
	case types.OpFail:
		m.cu = false
		return m.failure()
	case types.OpEnd:
		return m.endQuery()

	// primitives
	case types.OpPrepare:
		return m.prepare()
	case types.OpPushVar:
		return m.pushVar(inst)
	case types.OpPushValue:
		return m.pushValue(inst)
	case types.OpPushTerm, types.OpPushNumber:
		return m.push(inst.V)
	case types.OpIs:
		return m.opIs()
	case types.OpPlus, types.OpMinus, types.OpMult, types.OpDiv, types.OpIntDiv, types.OpMod:
		return m.opArith(inst)
	case types.OpLt, types.OpGt, types.OpLe, types.OpGe, types.OpEq, types.OpNe:
		return m.opCompare(inst)
	}

	return types.Errorf(types.ErrInvalidInstruction, "invalid instruction %s", inst.Op)
}
