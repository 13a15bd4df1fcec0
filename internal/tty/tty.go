// Package tty provides raw-mode terminal I/O for the interactive monitor.
package tty

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Console is a raw-mode serial console, used by the watch monitor to read
// single keystrokes without waiting for a newline and to write formatted
// output back to the same terminal.
//
// Console itself knows nothing about the engine; cmd/watch wires its key
// stream to (*engine.VM).Exec calls and renders state to its Writer.
type Console struct {
	in    *os.File
	out   *term.Terminal
	fd    int
	state *term.State

	keyCh chan uint8
}

// ErrNoTTY is returned if standard input is not a terminal. In this case,
// asynchronous I/O is not supported by the console.
var ErrNoTTY error = errors.New("console: not a TTY")

// NewConsole creates a Console using the provided streams. If the input
// stream is not a terminal, ErrNoTTY is returned. Callers are responsible
// for calling [Console.Restore] to return the terminal to its initial
// state.
func NewConsole(sin, sout, serr *os.File) (*Console, error) {
	fd := int(sin.Fd())

	if !term.IsTerminal(fd) {
		return nil, ErrNoTTY
	}

	saved, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoTTY, err)
	}

	cons := Console{
		fd:    fd,
		in:    sin,
		out:   term.NewTerminal(sin, ""),
		state: saved,
		keyCh: make(chan uint8, 1),
	}

	if err := cons.setTerminalParams(1, 0); err != nil {
		return nil, err
	}

	return &cons, nil
}

// Run starts the background terminal reader and returns a context that is
// cancelled (with cause) if reading from the terminal ever fails, plus a
// cancel func that stops the reader and restores the terminal.
func (c *Console) Run(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cause := context.WithCancelCause(parent)

	go c.readTerminal(ctx, cause)

	return ctx, func() {
		cause(nil)
		c.Restore()
	}
}

// Keys returns the channel keystrokes are delivered on.
func (c Console) Keys() <-chan uint8 {
	return c.keyCh
}

// Press injects a key press into the input stream, for tests.
func (c Console) Press(key byte) {
	c.keyCh <- key
}

// Writer returns an io.Writer that writes to the terminal.
func (c Console) Writer() io.Writer {
	return c.out
}

// Restore returns the terminal to its initial state and cancels in-progress
// reads.
func (c *Console) Restore() {
	_ = os.Stdin.SetReadDeadline(time.Now())
	_ = term.Restore(c.fd, c.state)
}

func (c *Console) setTerminalParams(vmin, vtime byte) error {
	_ = syscall.SetNonblock(c.fd, true)

	termIO, err := unix.IoctlGetTermios(c.fd, getTermiosIoctl)
	if err != nil {
		return err
	}

	termIO.Cc[unix.VMIN] = vmin
	termIO.Cc[unix.VTIME] = vtime

	if err := unix.IoctlSetTermios(c.fd, setTermiosIoctl, termIO); err != nil {
		return err
	}

	_ = os.Stdin.SetReadDeadline(time.Time{})

	return nil
}

// readTerminal reads bytes from the terminal and writes them to the key
// channel until the context is cancelled. If reading from the terminal
// fails, the cancel is called.
func (c Console) readTerminal(ctx context.Context, cancel context.CancelCauseFunc) {
	buf := bufio.NewReader(c.in)

	// Make terminal input block on reads.
	_ = syscall.SetNonblock(c.fd, false)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		b, err := buf.ReadByte()
		if err != nil {
			cancel(err)
			return
		}

		select {
		case <-ctx.Done():
			return
		case c.keyCh <- b:
		}
	}
}
