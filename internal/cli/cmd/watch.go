package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"iovm/internal/cli"
	"iovm/internal/engine"
	"iovm/internal/host"
	"iovm/internal/log"
	"iovm/internal/tty"
)

// Watcher is the interactive monitor: it loads a procedure and steps the
// engine one Exec call per keystroke, printing state after each step.
// Press 'q' to quit, any other key to step.
//
//	iovm watch [-hex] file.iovm
func Watcher() cli.Command {
	return &watcher{}
}

type watcher struct {
	hexIn bool
}

func (watcher) Description() string {
	return "step a procedure one Exec call per keystroke"
}

func (watcher) Usage(out io.Writer) error {
	_, err := fmt.Fprintln(out, `watch [-hex] file.iovm

Load a procedure and single-step it interactively. Press any key to
step, 'q' to quit.`)

	return err
}

func (w *watcher) FlagSet() *cli.FlagSet {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	fs.BoolVar(&w.hexIn, "hex", false, "input is hex-text encoded, not raw bytes")

	return fs
}

func (w *watcher) Run(ctx context.Context, args []string, stdout io.Writer, logger *log.Logger) int {
	if len(args) != 1 {
		logger.Error("watch: want exactly one procedure file")
		return 1
	}

	proc, err := loadProcedure(args[0], w.hexIn)
	if err != nil {
		logger.Error("watch: load failed", "err", err)
		return 1
	}

	console, err := tty.NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, tty.ErrNoTTY) {
		logger.Error("watch: stdin is not a terminal")
		return 1
	} else if err != nil {
		logger.Error("watch: console failed", "err", err)
		return 1
	}

	ctx, stop := console.Run(ctx)
	defer stop()

	out := console.Writer()

	bus := newReferenceBus()
	sink := &watchSink{out: out, log: logger}
	h := host.NewHost(bus, sink)

	vm := engine.New(h, engine.WithLogger(logger))

	if err := vm.Load(proc); err != nil {
		logger.Error("watch: load failed", "err", err)
		return 1
	}

	fmt.Fprintf(out, "loaded %d bytes; press any key to step, 'q' to quit\r\n", len(proc))

	for {
		select {
		case <-ctx.Done():
			return 0
		case key := <-console.Keys():
			if key == 'q' {
				return 0
			}

			err := vm.Exec()

			fmt.Fprintf(out, "state=%-13s", vm.GetState())

			if err != nil {
				fmt.Fprintf(out, " err=%s\r\n", err)
			} else {
				fmt.Fprint(out, "\r\n")
			}

			if vm.GetState() == engine.Ended || vm.GetState() == engine.Errored {
				return 0
			}
		}
	}
}

// watchSink renders completed reads and run termination to the console.
type watchSink struct {
	out io.Writer
	log *log.Logger
}

func (s *watchSink) RunEnded(vm *engine.VM) {
	if err := vm.Err(); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Debug("watch: ended with error", "err", err)
	}
}

func (s *watchSink) ReadCompleted(vm *engine.VM, target engine.Target, addr uint32, data []byte) {
	fmt.Fprintf(s.out, "READ target=%d addr=%#06x: % x\r\n", target, addr, data)
}
