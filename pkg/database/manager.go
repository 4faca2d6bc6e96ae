package database

import (
	"log/slog"

	"github.com/jldupont/goprolog/pkg/types"
)

// Manager owns the user and builtin databases.
type Manager struct {
	user    *Database
	builtin *Database
	logger  *slog.Logger
	debug   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for insert tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDebug logs every insert at debug level.
func WithDebug(enable bool) Option {
	return func(m *Manager) {
		m.debug = enable
	}
}

// NewManager returns a manager over two empty databases.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		user:    New(),
		builtin: New(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// User returns the user database.
func (m *Manager) User() *Database {
	return m.user
}

// Builtin returns the builtin database.
func (m *Manager) Builtin() *Database {
	return m.builtin
}

// UserInsertCode adds a user clause. A signature already defined as a
// builtin is rejected and neither database changes.
func (m *Manager) UserInsertCode(functor string, arity int, code *types.Clause) error {
	if m.builtin.Exists(functor, arity) {
		return types.Errorf(types.ErrAttemptToRedefineBuiltin, "attempt to redefine builtin %s", types.Signature(functor, arity))
	}
	if err := m.user.InsertCode(functor, arity, code); err != nil {
		return err
	}
	if m.debug {
		m.logger.Debug("insert", "db", "user", "signature", types.Signature(functor, arity))
	}
	return m.insertAux(m.user, code)
}

// BuiltinInsertCode adds a builtin clause.
func (m *Manager) BuiltinInsertCode(functor string, arity int, code *types.Clause) error {
	if err := m.builtin.InsertCode(functor, arity, code); err != nil {
		return err
	}
	if m.debug {
		m.logger.Debug("insert", "db", "builtin", "signature", types.Signature(functor, arity))
	}
	return m.insertAux(m.builtin, code)
}

// insertAux stores the clauses synthesized with code in the same database.
// Each one is the only clause of its signature, so storing it again after
// a cached query is reused changes nothing.
func (m *Manager) insertAux(db *Database, code *types.Clause) error {
	for _, aux := range code.Aux {
		if err := db.Replace(aux.F, aux.A, aux); err != nil {
			return err
		}
		if err := m.insertAux(db, aux); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether either database defines functor/arity.
func (m *Manager) Exists(functor string, arity int) bool {
	return m.user.Exists(functor, arity) || m.builtin.Exists(functor, arity)
}

// GetCode resolves functor/arity in the user database first, then the
// builtin one. A user clause can therefore shadow a builtin installed
// after it.
func (m *Manager) GetCode(functor string, arity int) ([]*types.Clause, error) {
	if code, err := m.user.GetCode(functor, arity); err == nil {
		return code, nil
	}
	return m.builtin.GetCode(functor, arity)
}

// SetQuery installs q as the single clause of the reserved query signature.
func (m *Manager) SetQuery(q *types.Clause) error {
	if q == nil || !q.IsQuery() {
		return types.Errorf(types.ErrInvalidInsert, "not a compiled query")
	}
	if err := m.user.Replace(types.QueryFunctor, 0, q); err != nil {
		return err
	}
	return m.insertAux(m.user, q)
}

// Signatures lists the user signatures, without the query slot and the
// synthesized clauses.
func (m *Manager) Signatures() []string {
	all := m.user.Signatures()
	out := all[:0]
	for _, s := range all {
		if s != types.Signature(types.QueryFunctor, 0) && !types.IsAuxiliary(s) {
			out = append(out, s)
		}
	}
	return out
}
