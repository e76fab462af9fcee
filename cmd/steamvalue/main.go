// Command steamvalue ranks installed Steam games by disk space per hour played.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/steamvalue/internal/cli"
	"github.com/rshade/steamvalue/pkg/version"
)

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	return root.Execute()
}

// extractExitCode maps a run error to the process exit code. ExitError
// carries its own code; any other error is a generic failure.
func extractExitCode(err error) int {
	if err == nil {
		return cli.ExitOK
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return cli.ExitFailure
}

func main() {
	err := run()
	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// ExitErrors were already reported by the command.
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(extractExitCode(err))
}
