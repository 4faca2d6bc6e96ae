package types

import (
	"strconv"
	"strings"
	"unicode"
)

// cycleMark stands for a structure printed again inside itself.
const cycleMark = "..."

// Format renders a term in canonical form after dereferencing bindings.
// Lists built from cons/2 cells are printed with bracket notation and
// unbound runtime variables as _G<id>. A cyclic term is cut off with "..."
// where a structure would repeat inside itself.
func Format(t Term) string {
	w := termWriter{open: make(map[*Functor]struct{})}
	w.term(t)
	return w.b.String()
}

type termWriter struct {
	b strings.Builder
	// open holds the structures being written, outermost first.
	open map[*Functor]struct{}
}

func (w *termWriter) enter(f *Functor) bool {
	if _, ok := w.open[f]; ok {
		return false
	}
	w.open[f] = struct{}{}
	return true
}

func (w *termWriter) term(t Term) {
	b := &w.b
	switch x := Deref(t).(type) {
	case nil:
		b.WriteString("<nil>")
	case *Var:
		writeVar(b, x)
	case *Token:
		writeToken(b, x)
	case *Functor:
		if !w.enter(x) {
			b.WriteString(cycleMark)
			return
		}
		if x.Name == "cons" && len(x.Args) == 2 {
			w.list(x)
			return
		}
		defer delete(w.open, x)
		writeAtom(b, x.Name)
		if len(x.Args) == 0 {
			return
		}
		b.WriteByte('(')
		for i, arg := range x.Args {
			if i > 0 {
				b.WriteByte(',')
			}
			w.term(arg)
		}
		b.WriteByte(')')
	}
}

func writeVar(b *strings.Builder, v *Var) {
	switch {
	case v.ID > 0:
		b.WriteString("_G")
		b.WriteString(strconv.Itoa(v.ID))
	case IsAnonymous(v.Name):
		b.WriteByte('_')
	default:
		b.WriteString(v.Name)
	}
}

// list writes a cons chain whose first cell is already entered.
func (w *termWriter) list(cell *Functor) {
	b := &w.b
	cells := []*Functor{cell}
	defer func() {
		for _, c := range cells {
			delete(w.open, c)
		}
	}()

	b.WriteByte('[')
	w.term(cell.Args[0])
	tail := Deref(cell.Args[1])
	for {
		next, ok := tail.(*Functor)
		if !ok || next.Name != "cons" || len(next.Args) != 2 {
			break
		}
		if !w.enter(next) {
			b.WriteString("|" + cycleMark + "]")
			return
		}
		cells = append(cells, next)
		b.WriteByte(',')
		w.term(next.Args[0])
		tail = Deref(next.Args[1])
	}
	if tok, ok := tail.(*Token); !ok || tok.Kind != TokenNil {
		b.WriteByte('|')
		w.term(tail)
	}
	b.WriteByte(']')
}

func writeToken(b *strings.Builder, t *Token) {
	switch t.Kind {
	case TokenNil:
		b.WriteString("[]")
	case TokenNumber:
		b.WriteString(t.Name())
	default:
		writeAtom(b, t.Name())
	}
}

// writeAtom writes an atom, quoting it when it could not be read back bare.
func writeAtom(b *strings.Builder, name string) {
	if atomNeedsQuotes(name) {
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(name, "'", "\\'"))
		b.WriteByte('\'')
		return
	}
	b.WriteString(name)
}

const symbolChars = `+-*/\^<>=~:.?@#&$`

func atomNeedsQuotes(name string) bool {
	if name == "" {
		return true
	}
	switch name {
	case "[]", "!", ";", ",", "{}", "|":
		return name == "," || name == "|"
	}
	first := []rune(name)[0]
	if unicode.IsLower(first) {
		for _, r := range name {
			if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_') {
				return true
			}
		}
		return false
	}
	for _, r := range name {
		if !strings.ContainsRune(symbolChars, r) {
			return true
		}
	}
	return false
}
