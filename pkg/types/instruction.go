package types

import (
	"fmt"
	"strings"
)

// Opcode identifies an abstract-machine instruction.
type Opcode uint8

// The closed instruction vocabulary.
const (
	OpInvalid Opcode = iota

	// Head decoding
	OpGetStruct
	OpGetVar
	OpGetValue
	OpGetTerm
	OpGetNumber
	OpGetNil
	OpUnifVar
	OpUnifValue
	OpUnifVoid
	OpUnifyTerm
	OpUnifyNumber
	OpUnifyNil

	// Goal construction
	OpPutStruct
	OpPutVar
	OpPutVoid
	OpPutValue
	OpPutTerm
	OpPutNumber
	OpPutNil

	// Execution control
	OpAllocate
	OpSetup
	OpCall
	OpBCall
	OpMaybeRetry
	OpMaybeRetryN
	OpDeallocate
	OpMaybeFail
	OpTryElse
	OpTryFinally
	OpJump
	OpProceed
	OpCut
	OpFail
	OpEnd

	// Primitive evaluation
	OpPrepare
	OpPushVar
	OpPushValue
	OpPushTerm
	OpPushNumber
	OpIs
	OpPlus
	OpMinus
	OpMult
	OpDiv
	OpIntDiv
	OpMod
	OpLt
	OpGt
	OpLe
	OpGe
	OpEq
	OpNe

	opcodeCount
)

var opcodeNames = [...]string{
	OpInvalid:     "invalid",
	OpGetStruct:   "get_struct",
	OpGetVar:      "get_var",
	OpGetValue:    "get_value",
	OpGetTerm:     "get_term",
	OpGetNumber:   "get_number",
	OpGetNil:      "get_nil",
	OpUnifVar:     "unif_var",
	OpUnifValue:   "unif_value",
	OpUnifVoid:    "unif_void",
	OpUnifyTerm:   "unify_term",
	OpUnifyNumber: "unify_number",
	OpUnifyNil:    "unify_nil",
	OpPutStruct:   "put_struct",
	OpPutVar:      "put_var",
	OpPutVoid:     "put_void",
	OpPutValue:    "put_value",
	OpPutTerm:     "put_term",
	OpPutNumber:   "put_number",
	OpPutNil:      "put_nil",
	OpAllocate:    "allocate",
	OpSetup:       "setup",
	OpCall:        "call",
	OpBCall:       "bcall",
	OpMaybeRetry:  "maybe_retry",
	OpMaybeRetryN: "maybe_retryn",
	OpDeallocate:  "deallocate",
	OpMaybeFail:   "maybe_fail",
	OpTryElse:     "try_else",
	OpTryFinally:  "try_finally",
	OpJump:        "jump",
	OpProceed:     "proceed",
	OpCut:         "cut",
	OpFail:        "fail",
	OpEnd:         "end",
	OpPrepare:     "prepare",
	OpPushVar:     "push_var",
	OpPushValue:   "push_value",
	OpPushTerm:    "push_term",
	OpPushNumber:  "push_number",
	OpIs:          "op_is",
	OpPlus:        "op_plus",
	OpMinus:       "op_minus",
	OpMult:        "op_mult",
	OpDiv:         "op_div",
	OpIntDiv:      "op_intdiv",
	OpMod:         "op_mod",
	OpLt:          "op_lt",
	OpGt:          "op_gt",
	OpLe:          "op_le",
	OpGe:          "op_ge",
	OpEq:          "op_eq",
	OpNe:          "op_ne",
}

// String returns the instruction mnemonic.
func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("opcode(%d)", uint8(op))
}

// Valid reports whether op belongs to the instruction vocabulary.
func (op Opcode) Valid() bool {
	return op > OpInvalid && op < opcodeCount
}

// LookupOpcode returns the opcode for a mnemonic.
func LookupOpcode(name string) (Opcode, bool) {
	for op := OpGetStruct; op < opcodeCount; op++ {
		if opcodeNames[op] == name {
			return op, true
		}
	}
	return OpInvalid, false
}

// Instruction is one immutable abstract-machine instruction.
// Only the context fields relevant to the opcode are set.
type Instruction struct {
	Op Opcode
	F  string // functor name
	A  int    // arity
	X  string // register, e.g. "$x0"
	P  string // variable name parameter
	V  *Token // constant parameter
	Y  string // output register, e.g. "$y1"
	L  string // label
}

// String returns the instruction in assembly form.
func (i Instruction) String() string {
	var b strings.Builder
	b.WriteString(i.Op.String())
	switch i.Op {
	case OpGetStruct, OpPutStruct:
		fmt.Fprintf(&b, " %s/%d %s", i.F, i.A, i.X)
	case OpTryElse, OpJump:
		b.WriteString(" " + i.L)
	default:
		if i.P != "" {
			b.WriteString(" " + i.P)
		}
		if i.X != "" {
			b.WriteString(" " + i.X)
		}
		if i.V != nil {
			b.WriteString(" " + Format(i.V))
		}
		if i.Y != "" {
			b.WriteString(" " + i.Y)
		}
	}
	return b.String()
}
