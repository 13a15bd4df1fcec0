// Command iovm assembles, disassembles, and runs procedures for the
// memory-access bytecode interpreter.
package main

import (
	"context"
	"os"

	"iovm/internal/cli"
	"iovm/internal/cli/cmd"
)

var commands = []cli.Command{
	cmd.Runner(),
	cmd.Assembler(),
	cmd.Disassembler(),
	cmd.Watcher(),
}

// Entry point.
func main() {
	result :=
		cli.New(context.Background()).
			WithLogger(os.Stderr).
			WithCommands(commands).
			WithHelp(cmd.Help(commands)).
			Execute(os.Args[1:])

	os.Exit(result)
}
