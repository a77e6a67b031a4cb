// Command siphon compiles filter expressions into parameterized SQL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/siphon/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		// Commands report their own errors; only cobra's flag and argument
		// errors reach here unprinted.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err == nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
	}
	os.Exit(cli.GetExitCode(err))
}
