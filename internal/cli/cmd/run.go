package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"iovm/internal/cli"
	"iovm/internal/encoding"
	"iovm/internal/engine"
	"iovm/internal/host"
	"iovm/internal/log"
)

// defaultChipSize is the size, in bytes, of each zero-filled reference chip
// (RAM and ROM alike) that newReferenceBus wires up for "run" and "watch".
const defaultChipSize = 1 << 16

// Runner is the command that loads a procedure and runs it to completion
// against the reference host.
//
//	iovm run [-hex] [-timeout 10s] file.iovm
func Runner() cli.Command {
	return &runner{timeout: 10 * time.Second}
}

type runner struct {
	logLevel slog.Level
	hexIn    bool
	timeout  time.Duration
}

func (runner) Description() string {
	return "run a procedure"
}

func (runner) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `run [-hex] [-timeout dur] file.iovm

Runs a procedure against the reference host's memory chips.`)

	return err
}

func (r *runner) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	fs.Func("loglevel", "set log `level`", func(s string) error {
		return r.logLevel.UnmarshalText([]byte(s))
	})
	fs.BoolVar(&r.hexIn, "hex", false, "input is hex-text encoded, not raw bytes")
	fs.DurationVar(&r.timeout, "timeout", r.timeout, "maximum run `duration`")

	return fs
}

func (r *runner) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	log.LogLevel.Set(r.logLevel)

	if len(args) != 1 {
		logger.Error("run: want exactly one procedure file")
		return 1
	}

	proc, err := loadProcedure(args[0], r.hexIn)
	if err != nil {
		logger.Error("run: load failed", "err", err)
		return 1
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	bus := newReferenceBus()
	sink := &runSink{out: stdout, log: logger}
	h := host.NewHost(bus, sink)

	vm := engine.New(h, engine.WithLogger(logger))

	if err := vm.Load(proc); err != nil {
		logger.Error("run: load failed", "err", err)
		return 1
	}

	for {
		select {
		case <-ctx.Done():
			logger.Error("run: timed out")
			return 2
		default:
		}

		if err := vm.Exec(); err != nil {
			logger.Error("run: procedure error", "err", err)
			return 1
		}

		switch vm.GetState() {
		case engine.Ended:
			fmt.Fprintln(stdout, "END")
			return 0
		case engine.Errored:
			logger.Error("run: procedure error", "err", vm.Err())
			return 1
		}
	}
}

// loadProcedure reads a procedure file, decoding it from hex-text first if
// hexIn is set.
func loadProcedure(fn string, hexIn bool) ([]byte, error) {
	raw, err := os.ReadFile(fn)
	if err != nil {
		return nil, err
	}

	if !hexIn {
		return raw, nil
	}

	hx := encoding.HexEncoding{}
	if err := hx.UnmarshalText(raw); err != nil {
		return nil, err
	}

	return hx.Procedure(), nil
}

// newReferenceBus wires every named memory target to a plain RAM chip, so
// any procedure has something real to run against.
func newReferenceBus() *host.Bus {
	bus := host.NewBus()

	for _, t := range []engine.Target{
		host.WorkRAM, host.VideoRAM, host.PaletteRAM, host.OAM,
		host.AudioRAM, host.DedicatedRAM, host.SRAM,
	} {
		bus.Map(t, host.NewRAM(defaultChipSize))
	}

	bus.Map(host.CartROM, host.NewROM(make([]byte, defaultChipSize)))

	return bus
}

// runSink reports completed reads and run termination to the command's
// output stream.
type runSink struct {
	out io.Writer
	log *log.Logger
}

func (s *runSink) RunEnded(vm *engine.VM) {
	if err := vm.Err(); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug("run ended with error", "err", err)
	}
}

func (s *runSink) ReadCompleted(vm *engine.VM, target engine.Target, addr uint32, data []byte) {
	fmt.Fprintf(s.out, "READ target=%d addr=%#06x: % x\n", target, addr, data)
}
