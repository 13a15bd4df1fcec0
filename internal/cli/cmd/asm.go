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

// Assembler is the command that translates mnemonic IOVM source into the
// byte-encoded procedure format.
//
//	iovm asm [-hex] [-o file] file.iovm
func Assembler() cli.Command {
	return &assembler{output: "a.iovm"}
}

type assembler struct {
	debug  bool
	hexOut bool
	output string
}

func (assembler) Description() string {
	return "assemble source into a procedure"
}

func (assembler) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `asm [-hex] [-o file] file.iovm

Assemble mnemonic source into an encoded procedure.`)

	return err
}

func (a *assembler) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("asm", flag.ExitOnError)
	fs.BoolVar(&a.debug, "debug", false, "enable debug logging")
	fs.BoolVar(&a.hexOut, "hex", false, "write hex-text encoding instead of raw bytes")
	fs.StringVar(&a.output, "o", a.output, "output `filename`")

	return fs
}

func (a *assembler) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if a.debug {
		log.LogLevel.Set(log.Debug)
	}

	if len(args) != 1 {
		logger.Error("asm: want exactly one source file")
		return 1
	}

	src, err := os.Open(args[0])
	if err != nil {
		logger.Error("asm: open failed", "err", err)
		return 1
	}
	defer src.Close()

	proc, err := asm.Assemble(src)
	if err != nil {
		logger.Error("asm: assemble failed", "err", err)
		return 1
	}

	out, err := os.Create(a.output)
	if err != nil {
		logger.Error("asm: create failed", "out", a.output, "err", err)
		return 1
	}
	defer out.Close()

	if a.hexOut {
		text, err := encoding.NewHexEncoding(proc).MarshalText()
		if err != nil {
			logger.Error("asm: hex encode failed", "err", err)
			return 1
		}

		if _, err := out.Write(text); err != nil {
			logger.Error("asm: write failed", "err", err)
			return 1
		}
	} else if _, err := out.Write(proc); err != nil {
		logger.Error("asm: write failed", "err", err)
		return 1
	}

	logger.Debug("asm: wrote procedure", "out", a.output, "bytes", len(proc))

	return 0
}
