package asm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Assemble reads line-oriented IOVM assembly from src and returns the
// encoded procedure bytes. It stops at the first syntax error.
func Assemble(src io.Reader) ([]byte, error) {
	var proc []byte

	scanner := bufio.NewScanner(src)

	for lineNo := 1; scanner.Scan(); lineNo++ {
		raw := scanner.Text()

		mnemonic, operands, blank := parseLine(raw)
		if blank {
			continue
		}

		if mnemonic == "" {
			return proc, &SyntaxError{Line: lineNo, Text: raw, Err: errBadOperand}
		}

		encoded, err := encodeInstruction(mnemonic, operands)
		if err != nil {
			return proc, &SyntaxError{Line: lineNo, Text: raw, Err: err}
		}

		proc = append(proc, encoded...)
	}

	if err := scanner.Err(); err != nil {
		return proc, err
	}

	return proc, nil
}

// encodeInstruction builds the bytes for one source line's instruction,
// including any inline payload (WRITE).
func encodeInstruction(mnemonic string, operands []string) ([]byte, error) {
	switch {
	case mnemonic == "end":
		return []byte{opEND}, nil

	case mnemonic == "seta8":
		return encodeSetAddr(operands, opSETA8, 1)
	case mnemonic == "seta16":
		return encodeSetAddr(operands, opSETA16, 2)
	case mnemonic == "seta24":
		return encodeSetAddr(operands, opSETA24, 3)

	case mnemonic == "settv":
		return encodeChanImm(operands, opSETTV, 1)
	case mnemonic == "setlen":
		return encodeChanImm(operands, opSETLEN, 2)
	case mnemonic == "settim":
		return encodeChanImm(operands, opSETTIM, 4)

	case mnemonic == "setcmpmsk":
		return encodeSetCmpMsk(operands)

	case mnemonic == "read":
		return encodeChanOnly(operands, opREAD)

	case mnemonic == "write":
		return encodeWrite(operands)

	case strings.HasPrefix(mnemonic, "waitwhile."):
		return encodeWait(mnemonic, operands)

	case strings.HasPrefix(mnemonic, "abortif."):
		return encodeAbort(mnemonic, operands, false)
	case strings.HasPrefix(mnemonic, "abortunless."):
		return encodeAbort(mnemonic, operands, true)

	default:
		return nil, fmt.Errorf("%w: %q", errUnknownMnemonic, mnemonic)
	}
}

func requireOperands(operands []string, n int) error {
	if len(operands) < n {
		return fmt.Errorf("%w: want %d operands, got %d", errBadOperand, n, len(operands))
	}

	return nil
}

func encodeSetAddr(operands []string, op byte, width int) ([]byte, error) {
	if err := requireOperands(operands, 2); err != nil {
		return nil, err
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	v, err := parseImmediate(operands[1], width*8)
	if err != nil {
		return nil, err
	}

	buf := []byte{instrByte(0, c, op)}

	return putLE(buf, v, width), nil
}

func encodeChanImm(operands []string, op byte, width int) ([]byte, error) {
	return encodeSetAddr(operands, op, width)
}

func encodeSetCmpMsk(operands []string) ([]byte, error) {
	if err := requireOperands(operands, 3); err != nil {
		return nil, err
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	cmp, err := parseImmediate(operands[1], 8)
	if err != nil {
		return nil, err
	}

	mask, err := parseImmediate(operands[2], 8)
	if err != nil {
		return nil, err
	}

	return []byte{instrByte(0, c, opSETCMPMSK), byte(cmp), byte(mask)}, nil
}

func encodeChanOnly(operands []string, op byte) ([]byte, error) {
	if err := requireOperands(operands, 1); err != nil {
		return nil, err
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	return []byte{instrByte(0, c, op)}, nil
}

func encodeWrite(operands []string) ([]byte, error) {
	if err := requireOperands(operands, 1); err != nil {
		return nil, err
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	buf := []byte{instrByte(0, c, opWRITE)}

	for _, raw := range operands[1:] {
		v, err := parseImmediate(raw, 8)
		if err != nil {
			return nil, err
		}

		buf = append(buf, byte(v))
	}

	return buf, nil
}

func encodeWait(mnemonic string, operands []string) ([]byte, error) {
	if err := requireOperands(operands, 1); err != nil {
		return nil, err
	}

	suffix := strings.TrimPrefix(mnemonic, "waitwhile.")

	var op byte = 0xff

	for i, name := range waitMnemonics {
		if name == suffix {
			op = opWaitBase + byte(i)
			break
		}
	}

	if op == 0xff {
		return nil, fmt.Errorf("%w: %q", errUnknownMnemonic, mnemonic)
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	return []byte{instrByte(0, c, op)}, nil
}

func encodeAbort(mnemonic string, operands []string, unless bool) ([]byte, error) {
	if err := requireOperands(operands, 1); err != nil {
		return nil, err
	}

	prefix := "abortif."
	if unless {
		prefix = "abortunless."
	}

	suffix := strings.TrimPrefix(mnemonic, prefix)

	cmp, ok := abortComparators[suffix]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownMnemonic, mnemonic)
	}

	c, err := parseChannel(operands[0])
	if err != nil {
		return nil, err
	}

	sense := byte(0)
	if unless {
		sense = 1
	}

	lo := (cmp << 1) | sense

	return []byte{(1 << 6) | (c << 4) | lo}, nil
}

// instrByte packs the [rr cc oooo] instruction byte.
func instrByte(rr, c, op byte) byte {
	return (rr << 6) | (c << 4) | op
}

// Disassemble renders procedure bytes back to mnemonic source, one
// instruction per line, for debugging. It is best-effort: encountering an
// opcode it cannot decode stops rendering and returns what it has so far
// along with the error.
func Disassemble(proc []byte) (string, error) {
	var out strings.Builder

	// lengths tracks each channel's last-configured SETLEN value, so a
	// WRITE can be rendered with its full payload: the instruction stream
	// itself carries no explicit length for WRITE's trailing bytes, the
	// engine reads it from the channel's register file at run time.
	var lengths [4]uint32

	off := 0

	for off < len(proc) {
		b := proc[off]
		off++

		rr := b >> 6
		c := (b >> 4) & 0x3
		lo := b & 0x0f

		if rr == 1 {
			cmp := lo >> 1
			sense := lo & 0x1

			if int(cmp) >= len(abortComparatorNames) {
				return out.String(), fmt.Errorf("disasm: offset %d: bad abort comparator %d", off-1, cmp)
			}

			mnemonic := "abortif"
			if sense == 1 {
				mnemonic = "abortunless"
			}

			fmt.Fprintf(&out, "%s.%s c%d\n", mnemonic, abortComparatorNames[cmp], c)

			continue
		}

		if rr != 0 {
			return out.String(), fmt.Errorf("disasm: offset %d: reserved instruction bits %#02x", off-1, b)
		}

		n, consumed, err := disassembleOne(proc[off:], c, lo, &lengths)
		if err != nil {
			return out.String(), fmt.Errorf("disasm: offset %d: %w", off-1, err)
		}

		out.WriteString(n)
		off += consumed
	}

	return out.String(), nil
}

func disassembleOne(rest []byte, c, op byte, lengths *[4]uint32) (line string, consumed int, err error) {
	switch op {
	case opEND:
		return "end\n", 0, nil
	case opSETA8:
		return setAddrLine("seta8", rest, c, 1)
	case opSETA16:
		return setAddrLine("seta16", rest, c, 2)
	case opSETA24:
		return setAddrLine("seta24", rest, c, 3)
	case opSETTV:
		return setAddrLine("settv", rest, c, 1)
	case opSETLEN:
		line, consumed, err = setAddrLine("setlen", rest, c, 2)
		if err == nil {
			var v uint64
			for i := 0; i < 2; i++ {
				v |= uint64(rest[i]) << (8 * i)
			}
			if v == 0 {
				v = 65536
			}
			lengths[c] = uint32(v)
		}

		return line, consumed, err
	case opSETTIM:
		return setAddrLine("settim", rest, c, 4)
	case opSETCMPMSK:
		if len(rest) < 2 {
			return "", 0, errors.New("truncated SETCMPMSK operand")
		}

		return fmt.Sprintf("setcmpmsk c%d, $%02x, $%02x\n", c, rest[0], rest[1]), 2, nil
	case opREAD:
		return fmt.Sprintf("read c%d\n", c), 0, nil
	case opWRITE:
		n := int(lengths[c])
		if len(rest) < n {
			return "", 0, errors.New("truncated WRITE payload")
		}

		var b strings.Builder
		fmt.Fprintf(&b, "write c%d", c)

		for _, v := range rest[:n] {
			fmt.Fprintf(&b, ", $%02x", v)
		}

		b.WriteByte('\n')

		return b.String(), n, nil
	default:
		if op >= opWaitBase && int(op-opWaitBase) < len(waitMnemonics) {
			return fmt.Sprintf("waitwhile.%s c%d\n", waitMnemonics[op-opWaitBase], c), 0, nil
		}

		return "", 0, fmt.Errorf("%w: opcode %d", errUnknownMnemonic, op)
	}
}

func setAddrLine(mnemonic string, rest []byte, c byte, width int) (string, int, error) {
	if len(rest) < width {
		return "", 0, fmt.Errorf("truncated %s operand", strings.ToUpper(mnemonic))
	}

	var v uint64
	for i := 0; i < width; i++ {
		v |= uint64(rest[i]) << (8 * i)
	}

	return fmt.Sprintf("%s c%d, $%s\n", mnemonic, c, hexPad(v, width)), width, nil
}

func hexPad(v uint64, width int) string {
	s := strconv.FormatUint(v, 16)
	for len(s) < width*2 {
		s = "0" + s
	}

	return s
}
