// Package cli implements the steamvalue command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rshade/steamvalue/internal/config"
	"github.com/rshade/steamvalue/internal/engine"
	"github.com/rshade/steamvalue/internal/logging"
)

// Flags holds the parsed command line options.
type Flags struct {
	Verbosity logging.Verbosity
	UserID    string
	Libraries []string
	NoCache   bool
}

// flagSpec declares one option. Every option has a fixed arity decided by its
// pflag type, so parsing never depends on the handler's signature.
type flagSpec struct {
	long  string
	short string
	usage string
	bind  func(fs *pflag.FlagSet, f *Flags, s flagSpec)
}

func flagTable() []flagSpec {
	return []flagSpec{
		{
			long:  "verbosity",
			short: "v",
			usage: "log `level`: critical (0) errors only, info_quiet (1) important messages, " +
				"info (2, default) relevant information, debug (3) everything",
			bind: func(fs *pflag.FlagSet, f *Flags, s flagSpec) {
				fs.VarP(&f.Verbosity, s.long, s.short, s.usage)
			},
		},
		{
			long:  "user-id",
			short: "u",
			usage: "Steam user `id`; a steam_id file in the config directory sets the default",
			bind: func(fs *pflag.FlagSet, f *Flags, s flagSpec) {
				fs.StringVarP(&f.UserID, s.long, s.short, "", s.usage)
			},
		},
		{
			long:  "steam-library-path",
			short: "p",
			usage: "add a Steam library `dir` (its steamapps folder), repeatable; " +
				"paths in config/steam_libraries.json are loaded automatically",
			bind: func(fs *pflag.FlagSet, f *Flags, s flagSpec) {
				fs.StringArrayVarP(&f.Libraries, s.long, s.short, nil, s.usage)
			},
		},
		{
			long:  "no-cache",
			short: "n",
			usage: "delete all caches before processing; use if results look wrong",
			bind: func(fs *pflag.FlagSet, f *Flags, s flagSpec) {
				fs.BoolVarP(&f.NoCache, s.long, s.short, false, s.usage)
			},
		},
	}
}

// NewRootCmd creates the steamvalue command reading os.Args and the process environment.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithArgs(ver, os.Args, os.LookupEnv)
}

// NewRootCmdWithArgs creates the root command with explicit args (including
// the program name) and env lookup for testability.
func NewRootCmdWithArgs(
	ver string,
	args []string,
	lookupEnv func(string) (string, bool),
) *cobra.Command {
	flags := Flags{Verbosity: logging.DefaultVerbosity}

	cmd := &cobra.Command{
		Use:   "steamvalue",
		Short: "Rank installed Steam games by disk space per hour played",
		Long: `steamvalue divides the on-disk size of every installed, played Steam game
by its playtime and reports the GB per hour of each, the weighted average, and
the best and worst value games.

Configuration lives next to the executable (or in $` + config.EnvHome + `):
  config/api_key              Steam Web API key (required)
  config/steam_id             default Steam user id
  config/steam_libraries.json JSON array of steamapps directories
  config/settings.yaml        optional settings`,
		Version:       ver,
		Example:       rootCmdExample,
		Args:          noPositionalArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(cmd, flags.Verbosity, ver)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValue(cmd, flags, lookupEnv)
		},
	}

	fs := cmd.Flags()
	for _, s := range flagTable() {
		s.bind(fs, &flags, s)
	}

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(c, err)
	})

	var rest []string
	if len(args) > 1 {
		rest = args[1:]
	}
	cmd.SetArgs(NormalizeArgs(fs, rest))

	return cmd
}

const rootCmdExample = `  # Rank the games of the configured user
  steamvalue

  # Rank another user's games with an extra library on a second drive
  steamvalue -u 76561197960287930 -p /mnt/games/SteamLibrary/steamapps

  # Start from empty caches with debug output
  steamvalue --no-cache -v debug`

// runValue performs one engine run and maps failures to exit codes.
func runValue(cmd *cobra.Command, flags Flags, lookupEnv func(string) (string, bool)) error {
	ctx := cmd.Context()
	log := logging.FromContext(ctx)

	paths, err := config.ResolvePaths(lookupEnv)
	if err != nil {
		return reportFailure(cmd, err)
	}

	out := cmd.OutOrStdout()
	eng := engine.New(paths, out,
		engine.WithLookupEnv(lookupEnv),
		engine.WithStyledOutput(isWriterTerminal(out)),
	)

	result, err := eng.Run(ctx, engine.Request{
		UserID:    flags.UserID,
		Libraries: flags.Libraries,
		NoCache:   flags.NoCache,
	})
	if err != nil {
		return reportFailure(cmd, err)
	}

	log.Debug().
		Str("results", result.ResultsPath).
		Int("games", result.Report.Len()).
		Int("ignored", result.Ignored).
		Msg("command finished")
	return nil
}

// noPositionalArgs rejects positional arguments as a usage error.
func noPositionalArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageError(cmd, fmt.Errorf("unexpected argument %q", args[0]))
	}
	return nil
}

// isWriterTerminal reports whether w is an interactive terminal.
func isWriterTerminal(w io.Writer) bool {
	return logging.IsTerminal(w)
}
