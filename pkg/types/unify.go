package types

// cycleDepth is the nesting depth past which unification and comparison
// start remembering the structure pairs they have entered. Terms are
// rational trees: a pair met again while it is still being compared is
// taken as equal, which ends the walk over a cyclic term.
const cycleDepth = 64

type structPair struct {
	a, b *Functor
}

// pairSet records structure pairs once a walk gets deep enough to possibly
// be going round a cycle.
type pairSet struct {
	seen map[structPair]struct{}
}

// enter reports whether the pair was already entered at depth or below.
func (s *pairSet) enter(depth int, a, b *Functor) bool {
	if depth < cycleDepth {
		return false
	}
	if s.seen == nil {
		s.seen = make(map[structPair]struct{})
	}
	k := structPair{a, b}
	if _, ok := s.seen[k]; ok {
		return true
	}
	s.seen[k] = struct{}{}
	return false
}

// Unify structurally unifies t1 and t2.
//
// Every binding made is reported to onBind (which may be nil) so that the
// caller can record it on a trail. Bindings made before a mismatch is found
// are not rolled back here; undoing them is the trail's job.
//
// There is no occurs check: X = f(X) succeeds and builds a cyclic term,
// which Unify, Identical and Format all handle.
func Unify(t1, t2 Term, onBind func(*Var)) bool {
	u := unifier{onBind: onBind}
	return u.unify(t1, t2, 0)
}

type unifier struct {
	onBind func(*Var)
	pairs  pairSet
}

func (u *unifier) unify(t1, t2 Term, depth int) bool {
	if t1 == t2 {
		return true
	}

	a, b := Deref(t1), Deref(t2)
	if a == b {
		// cycle averted, both sides reach the same cell
		return true
	}

	if va, ok := a.(*Var); ok {
		return bindVar(va, b, u.onBind)
	}
	if vb, ok := b.(*Var); ok {
		return bindVar(vb, a, u.onBind)
	}

	switch x := a.(type) {
	case *Functor:
		switch y := b.(type) {
		case *Functor:
			if x.Name != y.Name || len(x.Args) != len(y.Args) {
				return false
			}
			if u.pairs.enter(depth, x, y) {
				return true
			}
			for i := range x.Args {
				if !u.unify(x.Args[i], y.Args[i], depth+1) {
					return false
				}
			}
			return true
		case *Token:
			return len(x.Args) == 0 && y.Kind == TokenAtom && y.Name() == x.Name
		}
	case *Token:
		switch y := b.(type) {
		case *Token:
			return x.Equal(y)
		case *Functor:
			return len(y.Args) == 0 && x.Kind == TokenAtom && x.Name() == y.Name
		}
	}
	return false
}

func bindVar(v *Var, t Term, onBind func(*Var)) bool {
	if v.bound {
		// only reachable through a cyclic chain that Deref stopped on
		return true
	}
	v.set(t)
	if onBind != nil {
		onBind(v)
	}
	return true
}

// Unifiable reports whether t1 and t2 unify without committing any binding.
func Unifiable(t1, t2 Term) bool {
	var bound []*Var
	ok := Unify(t1, t2, func(v *Var) {
		bound = append(bound, v)
	})
	for i := len(bound) - 1; i >= 0; i-- {
		bound[i].reset()
	}
	return ok
}

// Identical reports whether t1 and t2 are the same term without binding
// anything: unbound variables are identical only to themselves.
func Identical(t1, t2 Term) bool {
	var pairs pairSet
	return identical(t1, t2, 0, &pairs)
}

func identical(t1, t2 Term, depth int, pairs *pairSet) bool {
	a, b := Deref(t1), Deref(t2)
	if a == b {
		return true
	}
	switch x := a.(type) {
	case *Token:
		y, ok := b.(*Token)
		return ok && x.Equal(y)
	case *Functor:
		y, ok := b.(*Functor)
		if !ok || x.Name != y.Name || len(x.Args) != len(y.Args) {
			return false
		}
		if pairs.enter(depth, x, y) {
			return true
		}
		for i := range x.Args {
			if !identical(x.Args[i], y.Args[i], depth+1, pairs) {
				return false
			}
		}
		return true
	}
	return false
}
