package machine

import (
	"github.com/jldupont/goprolog/pkg/database"
	"github.com/jldupont/goprolog/pkg/functions"
	"github.com/jldupont/goprolog/pkg/types"
)

// InstallBuiltins stores a native clause in the builtin database for every
// predicate of r that is not there yet.
func InstallBuiltins(db *database.Manager, r *functions.Registry) error {
	for _, def := range r.Defs() {
		if db.Builtin().Exists(def.Name, def.Arity) {
			continue
		}
		clause := &types.Clause{F: def.Name, A: def.Arity, Native: true}
		if err := db.BuiltinInsertCode(def.Name, def.Arity, clause); err != nil {
			return err
		}
	}
	return nil
}
