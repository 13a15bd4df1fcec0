package asm

// isa.go mirrors the instruction byte layout of internal/engine's opcode
// table, independently of that package's unexported opcode constants, so
// the assembler keeps its own instruction table rather than importing
// engine internals.

const (
	opEND       = 0
	opSETA8     = 1
	opSETA16    = 2
	opSETA24    = 3
	opSETTV     = 4
	opSETLEN    = 5
	opSETCMPMSK = 6
	opSETTIM    = 7
	opREAD      = 8
	opWRITE     = 9
	opWaitBase  = 10 // opWaitBase..opWaitBase+5: WAIT_WHILE_{NEQ,EQ,LT,GT,LTE,GTE}
)

// waitMnemonics is waitwhile.<name>'s suffix, indexed by opcode-opWaitBase.
var waitMnemonics = [6]string{"neq", "eq", "lt", "gt", "lte", "gte"}

// abortComparators maps an ABORT mnemonic's comparator suffix to the 3-bit
// comparator field value, which is the engine.Comparator value directly
// (EQ=0, NEQ=1, LT=2, NLT=3, GT=4, NGT=5).
var abortComparators = map[string]byte{
	"eq":  0,
	"neq": 1,
	"lt":  2,
	"nlt": 3,
	"gt":  4,
	"ngt": 5,
}

var abortComparatorNames = [6]string{"eq", "neq", "lt", "nlt", "gt", "ngt"}
