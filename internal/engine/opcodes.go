package engine

// opcodes.go is the instruction set: the canonical 16-opcode, 4-channel,
// channel-based ISA, plus the ABORT extension carried in the instruction
// byte's reserved bits.
//
// Instruction byte layout: [rr cc oooo]
//
//	rr    bits 7-6: 00 selects the table below, 01 selects ABORT.
//	cc    bits 5-4: channel (0-3).
//	oooo  bits 3-0: opcode (0-15).

type opcode uint8

const (
	opEND       opcode = 0
	opSETA8     opcode = 1
	opSETA16    opcode = 2
	opSETA24    opcode = 3
	opSETTV     opcode = 4
	opSETLEN    opcode = 5
	opSETCMPMSK opcode = 6
	opSETTIM    opcode = 7
	opREAD      opcode = 8
	opWRITE     opcode = 9

	// opWAITBase is the first WAIT_WHILE_* opcode; opcodes opWAITBase..
	// opWAITBase+5 map to the six comparators via waitComparators below.
	opWAITBase opcode = 10
)

// waitComparators maps opcodes 10-15 (WAIT_WHILE_NEQ, _EQ, _LT, _GT, _LTE,
// _GTE, in that order) to the comparator each polls with.
var waitComparators = [6]Comparator{
	CmpNEQ, // 10 WAIT_WHILE_NEQ
	CmpEQ,  // 11 WAIT_WHILE_EQ
	CmpLT,  // 12 WAIT_WHILE_LT
	CmpGT,  // 13 WAIT_WHILE_GT
	CmpNGT, // 14 WAIT_WHILE_LTE
	CmpNLT, // 15 WAIT_WHILE_GTE
}

// instruction decodes a raw instruction byte into its fields.
type instruction struct {
	valid bool
	abort bool
	chn   Channel
	op    opcode // meaningful only when !abort

	// ABORT-extension fields, meaningful only when abort is true.
	cmp    Comparator
	unless bool
}

func decodeInstruction(b byte) instruction {
	rr := b >> 6
	cc := (b >> 4) & 0x3
	lo := b & 0x0f

	switch rr {
	case 0b00:
		return instruction{valid: true, chn: Channel(cc), op: opcode(lo)}
	case 0b01:
		return instruction{
			valid:  true,
			abort:  true,
			chn:    Channel(cc),
			cmp:    Comparator(lo >> 1),
			unless: lo&0x1 != 0,
		}
	default:
		return instruction{valid: false}
	}
}
