// Package extlists provides list predicates written in Prolog.
package extlists

import (
	"github.com/jldupont/goprolog/pkg/functions"
)

// All returns every list library.
func All() []functions.Library {
	return []functions.Library{
		Append(),
		Member(),
		Reverse(),
		Length(),
		Last(),
	}
}

// Append returns append/3: append(Front, Back, List).
func Append() functions.Library {
	return functions.Library{
		Name: "append/3",
		Source: `
append([], L, L).
append([H|T], L, [H|R]) :- append(T, L, R).
`,
	}
}

// Member returns member/2, enumerating the elements of a list in order.
func Member() functions.Library {
	return functions.Library{
		Name: "member/2",
		Source: `
member(X, [X|_]).
member(X, [_|T]) :- member(X, T).
`,
	}
}

// Reverse returns reverse/2 and its accumulator helper reverse_acc/3.
func Reverse() functions.Library {
	return functions.Library{
		Name: "reverse/2",
		Source: `
reverse(L, R) :- reverse_acc(L, [], R).
reverse_acc([], A, A).
reverse_acc([H|T], A, R) :- reverse_acc(T, [H|A], R).
`,
	}
}

// Length returns length/2. The list must be proper.
func Length() functions.Library {
	return functions.Library{
		Name: "length/2",
		Source: `
length([], 0).
length([_|T], N) :- length(T, M), N is M + 1.
`,
	}
}

// Last returns last/2.
func Last() functions.Library {
	return functions.Library{
		Name: "last/2",
		Source: `
last([X], X).
last([_|T], X) :- last(T, X).
`,
	}
}
