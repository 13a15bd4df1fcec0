// Package tty_test tries to test ttys.
//
// The test is skipped when stdin is not a terminal (ErrNoTTY). Notably,
// this includes when run with "go test" because it redirects tests'
// standard input/output streams. You can test it by building a test binary
// and running it directly:
//
//	$ go test -c && ./tty.test
package tty_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"iovm/internal/tty"
)

const timeout = 100 * time.Millisecond

func TestConsoleKeys(tt *testing.T) {
	console, err := tty.NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, tty.ErrNoTTY) {
		tt.Skipf("error: %s", err)
	} else if err != nil {
		tt.Fatalf("new console: %s", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ctx, stop := console.Run(ctx)
	defer stop()

	go console.Press('!')

	select {
	case key := <-console.Keys():
		if key != '!' {
			tt.Errorf("want '!', got %q", key)
		}
	case <-ctx.Done():
		tt.Errorf("cause: %s", context.Cause(ctx))
	}
}
