package parser

// OpType is the associativity class of an operator.
type OpType uint8

const (
	XFX OpType = iota // non-associative infix
	XFY               // right-associative infix
	YFX               // left-associative infix
	FY                // prefix, operand may have the same priority
	FX                // prefix, operand must bind tighter
)

// OpDef describes one operator.
type OpDef struct {
	Symbol   string
	Priority int
	Type     OpType
}

// IsPrefix reports whether the operator is written before its operand.
func (d OpDef) IsPrefix() bool {
	return d.Type == FY || d.Type == FX
}

// argPriorities returns the maximum priorities allowed for the left and
// right operands. Prefix operators only use the right one.
func (d OpDef) argPriorities() (left, right int) {
	switch d.Type {
	case XFX:
		return d.Priority - 1, d.Priority - 1
	case XFY:
		return d.Priority - 1, d.Priority
	case YFX:
		return d.Priority, d.Priority - 1
	case FY:
		return 0, d.Priority
	default:
		return 0, d.Priority - 1
	}
}

// OpTable holds the operators known to a parser, indexed by symbol.
type OpTable struct {
	infix  map[string]OpDef
	prefix map[string]OpDef
}

// NewOpTable returns an empty operator table.
func NewOpTable() *OpTable {
	return &OpTable{
		infix:  make(map[string]OpDef),
		prefix: make(map[string]OpDef),
	}
}

// DefaultOps returns the standard operator table.
func DefaultOps() *OpTable {
	t := NewOpTable()
	for _, d := range defaultOps {
		t.Add(d)
	}
	return t
}

var defaultOps = []OpDef{
	{":-", 1200, XFX},
	{"?-", 1200, FX},
	{":-", 1200, FX},
	{";", 1100, XFY},
	{",", 1000, XFY},
	{"\\+", 900, FY},
	{"=", 700, XFX},
	{"\\=", 700, XFX},
	{"==", 700, XFX},
	{"\\==", 700, XFX},
	{"is", 700, XFX},
	{"<", 700, XFX},
	{">", 700, XFX},
	{"=<", 700, XFX},
	{">=", 700, XFX},
	{"=:=", 700, XFX},
	{"=\\=", 700, XFX},
	{"+", 500, YFX},
	{"-", 500, YFX},
	{"*", 400, YFX},
	{"/", 400, YFX},
	{"//", 400, YFX},
	{"mod", 400, YFX},
	{"-", 200, FY},
}

// Add registers an operator, replacing any definition of the same
// symbol and position class.
func (t *OpTable) Add(d OpDef) {
	if d.IsPrefix() {
		t.prefix[d.Symbol] = d
		return
	}
	t.infix[d.Symbol] = d
}

// Infix returns the infix definition of symbol.
func (t *OpTable) Infix(symbol string) (OpDef, bool) {
	d, ok := t.infix[symbol]
	return d, ok
}

// Prefix returns the prefix definition of symbol.
func (t *OpTable) Prefix(symbol string) (OpDef, bool) {
	d, ok := t.prefix[symbol]
	return d, ok
}
