// Package ext provides optional predicate libraries written in Prolog.
//
// The libraries live in sub-packages grouped by category:
//   - extlists – append/3, member/2, reverse/2, length/2, last/2
//   - extarith – between/3, succ_or_zero/1, max/3, min/3
//
// They are compiled into the builtin database of a session, so a program
// that defines one of them again gets an AttemptToRedefineBuiltin error.
//
// # Integration – all libraries at once
//
//	s, err := goprolog.New(ext.WithAll())
//
// # Integration – by category
//
//	s, err := goprolog.New(ext.WithLists())
//
// # Integration – a single predicate
//
//	s, err := goprolog.New(goprolog.WithLibrary(extlists.Member()))
package ext

import (
	"github.com/jldupont/goprolog"
	"github.com/jldupont/goprolog/pkg/ext/extarith"
	"github.com/jldupont/goprolog/pkg/ext/extlists"
	"github.com/jldupont/goprolog/pkg/functions"
)

// All returns every library.
func All() []functions.Library {
	var all []functions.Library
	all = append(all, extlists.All()...)
	all = append(all, extarith.All()...)
	return all
}

// WithAll returns a session option loading every library.
func WithAll() goprolog.Option {
	return goprolog.WithLibrary(All()...)
}

// WithLists returns a session option loading the list predicates.
func WithLists() goprolog.Option {
	return goprolog.WithLibrary(extlists.All()...)
}

// WithArith returns a session option loading the arithmetic predicates.
func WithArith() goprolog.Option {
	return goprolog.WithLibrary(extarith.All()...)
}
