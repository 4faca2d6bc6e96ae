// Package database stores compiled clauses by signature.
//
// A Database is a multi-map from "name/arity" to the ordered list of
// clauses defining that predicate; the order is the order in which
// alternatives are tried. A Manager pairs a user database with a builtin
// database and enforces that user code cannot redefine a builtin.
package database

import (
	"sort"
	"sync"

	"github.com/jldupont/goprolog/pkg/types"
)

// Database is a signature to clause-list multi-map.
// It is safe for concurrent use.
type Database struct {
	mu      sync.RWMutex
	clauses map[string][]*types.Clause
}

// New returns an empty database.
func New() *Database {
	return &Database{clauses: make(map[string][]*types.Clause)}
}

// InsertCode appends a compiled clause to the list for functor/arity.
func (db *Database) InsertCode(functor string, arity int, code *types.Clause) error {
	if functor == "" || arity < 0 || code == nil {
		return types.Errorf(types.ErrInvalidInsert, "insert requires functor, arity and code (got %q/%d)", functor, arity)
	}
	if !code.Native && len(code.Code) == 0 {
		return types.Errorf(types.ErrInvalidInsert, "clause %s has no code", types.Signature(functor, arity))
	}

	key := types.Signature(functor, arity)
	db.mu.Lock()
	db.clauses[key] = append(db.clauses[key], code)
	db.mu.Unlock()
	return nil
}

// Replace sets the clause list of functor/arity to the single given clause.
func (db *Database) Replace(functor string, arity int, code *types.Clause) error {
	if functor == "" || arity < 0 || code == nil {
		return types.Errorf(types.ErrInvalidInsert, "insert requires functor, arity and code (got %q/%d)", functor, arity)
	}
	db.mu.Lock()
	db.clauses[types.Signature(functor, arity)] = []*types.Clause{code}
	db.mu.Unlock()
	return nil
}

// Exists reports whether functor/arity has at least one clause.
func (db *Database) Exists(functor string, arity int) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.clauses[types.Signature(functor, arity)]) > 0
}

// GetCode returns the clauses of functor/arity in insertion order.
func (db *Database) GetCode(functor string, arity int) ([]*types.Clause, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	list, ok := db.clauses[types.Signature(functor, arity)]
	if !ok || len(list) == 0 {
		return nil, types.Errorf(types.ErrFunctorNotFound, "unknown predicate %s", types.Signature(functor, arity))
	}
	return list, nil
}

// GetClause returns the clause at index ci of functor/arity.
func (db *Database) GetClause(functor string, arity, ci int) (*types.Clause, error) {
	list, err := db.GetCode(functor, arity)
	if err != nil {
		return nil, err
	}
	if ci < 0 || ci >= len(list) {
		return nil, types.Errorf(types.ErrFunctorClauseNotFound, "predicate %s has no clause %d", types.Signature(functor, arity), ci)
	}
	return list[ci], nil
}

// Remove deletes every clause of functor/arity.
func (db *Database) Remove(functor string, arity int) {
	db.mu.Lock()
	delete(db.clauses, types.Signature(functor, arity))
	db.mu.Unlock()
}

// Signatures returns the stored signatures in sorted order.
func (db *Database) Signatures() []string {
	db.mu.RLock()
	out := make([]string, 0, len(db.clauses))
	for k, list := range db.clauses {
		if len(list) > 0 {
			out = append(out, k)
		}
	}
	db.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Len returns the number of stored signatures.
func (db *Database) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.clauses)
}
