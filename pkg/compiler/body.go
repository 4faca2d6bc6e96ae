package compiler

import (
	"github.com/jldupont/goprolog/pkg/types"
)

// exit is a block through which control leaves a fragment.
type exit struct {
	label string
	// primitive exits end in code that handles its own failure, so no
	// maybe_fail is needed after them.
	primitive bool
}

// fragment is the compiled form of a body subtree.
type fragment struct {
	entry  string
	blocks []string
	exits  []exit
}

// processBody compiles a body into u.blocks. The body entry is always g0
// because leaves are numbered left to right.
func (u *unit) processBody(t types.Term) error {
	_, err := u.walk(t, true)
	return err
}

func (u *unit) walk(t types.Term, outermost bool) (fragment, error) {
	if f, ok := t.(*types.Functor); ok && len(f.Args) == 2 {
		switch f.Name {
		case "conj":
			left, err := u.walk(f.Args[0], outermost)
			if err != nil {
				return fragment{}, err
			}
			right, err := u.walk(f.Args[1], outermost)
			if err != nil {
				return fragment{}, err
			}
			return u.conjLink(left, right), nil
		case "disj":
			left, err := u.walk(f.Args[0], false)
			if err != nil {
				return fragment{}, err
			}
			right, err := u.walk(f.Args[1], false)
			if err != nil {
				return fragment{}, err
			}
			return u.disjLink(left, right, outermost), nil
		}
	}
	return u.leaf(t)
}

// deref follows the merge table to the block that now holds a label's code.
func (u *unit) deref(label string) string {
	for {
		next, ok := u.merged[label]
		if !ok {
			return label
		}
		label = next
	}
}

// conjLink runs right after every exit of left. A single-block right side
// following a single exit is inlined; otherwise each exit jumps to it.
func (u *unit) conjLink(left, right fragment) fragment {
	inline := len(left.exits) == 1 && len(right.blocks) == 1

	for _, e := range left.exits {
		label := u.deref(e.label)
		code := stripTail(u.blocks[label])
		if !e.primitive {
			code = append(code, types.Instruction{Op: types.OpMaybeFail})
		}

		if inline {
			rlabel := u.deref(right.entry)
			u.blocks[label] = append(code, u.blocks[rlabel]...)
			delete(u.blocks, rlabel)
			u.merged[rlabel] = label
			return fragment{
				entry:  left.entry,
				blocks: left.blocks,
				exits:  []exit{{label: label, primitive: right.exits[0].primitive}},
			}
		}

		u.blocks[label] = append(code, types.Instruction{Op: types.OpJump, L: right.entry})
	}

	return fragment{
		entry:  left.entry,
		blocks: append(append([]string{}, left.blocks...), right.blocks...),
		exits:  right.exits,
	}
}

// disjLink makes right the alternative of left. The outermost disjunction
// also marks its right branch with try_finally.
func (u *unit) disjLink(left, right fragment, outermost bool) fragment {
	entry := u.deref(left.entry)
	u.blocks[entry] = prepend(types.Instruction{Op: types.OpTryElse, L: u.deref(right.entry)}, u.blocks[entry])
	if outermost {
		rentry := u.deref(right.entry)
		u.blocks[rentry] = prepend(types.Instruction{Op: types.OpTryFinally}, u.blocks[rentry])
	}

	return fragment{
		entry:  left.entry,
		blocks: append(append([]string{}, left.blocks...), right.blocks...),
		exits:  append(append([]exit{}, left.exits...), right.exits...),
	}
}

// stripTail copies code without its trailing proceed or end.
func stripTail(code []types.Instruction) []types.Instruction {
	n := len(code)
	if n > 0 && (code[n-1].Op == types.OpProceed || code[n-1].Op == types.OpEnd) {
		n--
	}
	out := make([]types.Instruction, n, n+8)
	copy(out, code)
	return out
}

func prepend(inst types.Instruction, code []types.Instruction) []types.Instruction {
	out := make([]types.Instruction, 0, len(code)+1)
	out = append(out, inst)
	return append(out, code...)
}
