package types

import (
	"sort"
	"strconv"
	"strings"
)

const (
	// LabelHead is the label of the head-decoding code of a clause.
	LabelHead = "head"
	// LabelBody is the entry label of a clause or query body.
	LabelBody = "g0"
	// QueryFunctor is the reserved functor under which the current query is stored.
	QueryFunctor = ".q."
	// AuxiliaryPrefix starts the names of clauses synthesized by the
	// compiler for negated goals. No unquoted atom can start with it.
	AuxiliaryPrefix = "$not"
)

// Clause is a compiled clause: instruction lists keyed by label.
//
// A fact only has the "head" label. A query has only body labels and is
// stored under the reserved signature .q./0. Native builtins carry no code
// at all and are executed by their registered handler.
//
// Aux holds the clauses synthesized while compiling this one, such as
// the body of a negated conjunction. They are stored along with it.
type Clause struct {
	F      string
	A      int
	Code   map[string][]Instruction
	Native bool
	Aux    []*Clause
}

// IsAuxiliary reports whether signature names a synthesized clause.
func IsAuxiliary(signature string) bool {
	return strings.HasPrefix(signature, AuxiliaryPrefix)
}

// Signature returns the "name/arity" key of the clause.
func (c *Clause) Signature() string {
	return Signature(c.F, c.A)
}

// IsFact reports whether the clause has a head and no body.
func (c *Clause) IsFact() bool {
	_, head := c.Code[LabelHead]
	return head && len(c.Code) == 1
}

// IsQuery reports whether the clause is a compiled question.
func (c *Clause) IsQuery() bool {
	_, head := c.Code[LabelHead]
	return !head && c.F == QueryFunctor
}

// Labels returns the labels in execution-listing order: head first, then
// body labels by number.
func (c *Clause) Labels() []string {
	labels := make([]string, 0, len(c.Code))
	for l := range c.Code {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool {
		return labelRank(labels[i]) < labelRank(labels[j])
	})
	return labels
}

func labelRank(l string) int {
	if l == LabelHead {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimPrefix(l, "g"))
	if err != nil {
		return 1 << 30
	}
	return n
}

// String disassembles the clause.
func (c *Clause) String() string {
	var b strings.Builder
	b.WriteString(c.Signature())
	if c.Native {
		b.WriteString(" (native)\n")
		return b.String()
	}
	b.WriteByte('\n')
	for _, l := range c.Labels() {
		b.WriteString(l)
		b.WriteString(":\n")
		for _, inst := range c.Code[l] {
			b.WriteString("\t")
			b.WriteString(inst.String())
			b.WriteByte('\n')
		}
	}
	for _, aux := range c.Aux {
		b.WriteString(aux.String())
	}
	return b.String()
}
