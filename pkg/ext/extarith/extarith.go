// Package extarith provides arithmetic predicates written in Prolog.
package extarith

import (
	"github.com/jldupont/goprolog/pkg/functions"
)

// All returns every arithmetic library.
func All() []functions.Library {
	return []functions.Library{
		Between(),
		SuccOrZero(),
		Max(),
		Min(),
	}
}

// Between returns between/3, enumerating Low..High when X is unbound.
func Between() functions.Library {
	return functions.Library{
		Name: "between/3",
		Source: `
between(L, H, L) :- L =< H.
between(L, H, X) :- L < H, L1 is L + 1, between(L1, H, X).
`,
	}
}

// SuccOrZero returns succ_or_zero/1, true for zero and positive numbers.
func SuccOrZero() functions.Library {
	return functions.Library{
		Name: "succ_or_zero/1",
		Source: `
succ_or_zero(0).
succ_or_zero(N) :- N > 0.
`,
	}
}

// Max returns max/3.
func Max() functions.Library {
	return functions.Library{
		Name: "max/3",
		Source: `
max(X, Y, X) :- X >= Y, !.
max(_, Y, Y).
`,
	}
}

// Min returns min/3.
func Min() functions.Library {
	return functions.Library{
		Name: "min/3",
		Source: `
min(X, Y, X) :- X =< Y, !.
min(_, Y, Y).
`,
	}
}
