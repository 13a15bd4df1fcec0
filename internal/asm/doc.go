// Package asm is a small assembler and disassembler for IOVM procedures.
//
// Source is line oriented: one instruction per line, a mnemonic followed
// by comma-separated operands, ';' starts a line comment. There are no
// labels and no directives -- the ISA has nothing to branch to, so there
// is nothing for a symbol table to resolve.
//
//	seta24 c0, $00f50010
//	settv  c0, $00
//	setlen c0, $0002
//	read   c0
//	end
//
// Channel operands are written c0..c3. Immediates are hex-prefixed with
// '$' or plain decimal. WRITE takes its payload as trailing byte operands:
//
//	write c1, $de, $ad, $be, $ef
package asm
