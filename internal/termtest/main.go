// Termtest is a testing tool for Unix terminal I/O. Lacking simple PTY support, running this tool
// manually is easier than writing automated tests.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"iovm/internal/log"
	"iovm/internal/tty"
)

var logger = log.DefaultLogger()

func main() {
	ctx := context.Background()

	console, err := tty.NewConsole(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx, cancel := console.Run(ctx)
	defer cancel()

	timeout := time.After(5 * time.Second)

	logger.Info("Polling keyboard. Type keys.")
	fmt.Fprintln(console.Writer(), "Type keys; 5 second timeout.")

	for {
		select {
		case key := <-console.Keys():
			fmt.Fprintf(console.Writer(), "key: %#02x\r\n", key)
		case <-timeout:
			return
		case <-ctx.Done():
			if err := context.Cause(ctx); err != nil {
				logger.Error(err.Error())
			} else {
				logger.Info("Done")
			}

			return
		}
	}
}
