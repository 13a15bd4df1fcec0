package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"iovm/internal/asm"
	"iovm/internal/cli"
	"iovm/internal/encoding"
	"iovm/internal/log"
)

// Disassembler is the command that renders an encoded procedure back to
// mnemonic source.
//
//	iovm disasm [-hex] file.iovm
func Disassembler() cli.Command {
	return &disassembler{}
}

type disassembler struct {
	hexIn bool
}

func (disassembler) Description() string {
	return "disassemble a procedure into mnemonic source"
}

func (disassembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `disasm [-hex] file.iovm

Disassemble an encoded procedure, printing mnemonic source to stdout.`)

	return err
}

func (d *disassembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("disasm", flag.ExitOnError)
	fs.BoolVar(&d.hexIn, "hex", false, "input is hex-text encoded, not raw bytes")

	return fs
}

func (d *disassembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("disasm: want exactly one procedure file")
		return 1
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		logger.Error("disasm: read failed", "err", err)
		return 1
	}

	proc := raw

	if d.hexIn {
		hx := encoding.HexEncoding{}
		if err := hx.UnmarshalText(raw); err != nil {
			logger.Error("disasm: hex decode failed", "err", err)
			return 1
		}

		proc = hx.Procedure()
	}

	out, err := asm.Disassemble(proc)
	if err != nil {
		logger.Error("disasm: disassemble failed", "err", err)
		return 1
	}

	fmt.Fprint(stdout, out)

	return 0
}
