package cli

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/rshade/steamvalue/internal/config"
	"github.com/rshade/steamvalue/internal/engine"
	"github.com/rshade/steamvalue/internal/logging"
	"github.com/rshade/steamvalue/internal/report"
	"github.com/rshade/steamvalue/internal/steam"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitNoGames = 3
)

// ExitError carries the process exit code for a failed run. The message has
// already been shown to the user when an ExitError is returned.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// usageError prints the error and the full help text to stderr.
func usageError(cmd *cobra.Command, err error) error {
	cmd.PrintErrf("Error: %v\n\n", err)
	if long := strings.TrimRightFunc(cmd.Long, unicode.IsSpace); long != "" {
		cmd.PrintErrln(long)
		cmd.PrintErrln()
	}
	cmd.PrintErr(cmd.UsageString())
	return &ExitError{Code: ExitUsage, Err: err}
}

// reportFailure logs a failed run at error level with a hint, and returns the
// matching ExitError.
func reportFailure(cmd *cobra.Command, err error) error {
	log := logging.FromContext(cmd.Context())
	code := exitCodeFor(err)

	log.Error().Err(err).Msg(failureMessage(err))
	if hint := failureHint(err); hint != "" {
		log.Error().Msgf("%s Use -h (%s -h) for help.", hint, cmd.CommandPath())
	}

	return &ExitError{Code: code, Err: err}
}

func exitCodeFor(err error) int {
	if errors.Is(err, report.ErrNoGames) {
		return ExitNoGames
	}
	return ExitFailure
}

func failureMessage(err error) string {
	var remote *steam.RemoteError
	switch {
	case errors.Is(err, report.ErrNoGames):
		return "no installed games were found"
	case errors.Is(err, engine.ErrNoPlaytimes):
		return "couldn't find any games because the Steam API returned no data"
	case errors.As(err, &remote):
		return "the Steam Web API request failed"
	case errors.Is(err, config.ErrConfigMissing), errors.Is(err, config.ErrUserIDMissing):
		return "configuration is incomplete"
	default:
		return "run failed"
	}
}

func failureHint(err error) string {
	switch {
	case errors.Is(err, report.ErrNoGames):
		return "Check your api_key, steam_id and steam_libraries.json files."
	case errors.Is(err, engine.ErrNoPlaytimes):
		return "Check your api_key and steam_id files."
	case errors.Is(err, config.ErrConfigMissing), errors.Is(err, config.ErrUserIDMissing):
		return "Check the files in the config directory."
	default:
		return ""
	}
}
