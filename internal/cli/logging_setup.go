package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/steamvalue/internal/logging"
)

// setupLogging builds the run's logger at the requested verbosity and stores
// it in the command context. Logs go to the command's stderr.
func setupLogging(cmd *cobra.Command, verbosity logging.Verbosity, ver string) {
	root := logging.New(logging.Config{
		Verbosity: verbosity,
		Out:       cmd.ErrOrStderr(),
		RunID:     logging.NewRunID(),
	})
	logger := logging.ComponentLogger(root, "cli")

	ctx := root.WithContext(cmd.Context())
	cmd.SetContext(ctx)

	logger.Debug().
		Str("command", cmd.Name()).
		Str("version", ver).
		Str("verbosity", verbosity.String()).
		Msg("command started")
}
