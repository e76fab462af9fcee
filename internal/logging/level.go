package logging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Verbosity is the user-facing log level selected with -v/--verbosity.
// Higher values print more.
type Verbosity int

const (
	// VerbosityCritical prints errors only.
	VerbosityCritical Verbosity = iota
	// VerbosityInfoQuiet adds warnings and other important messages.
	VerbosityInfoQuiet
	// VerbosityInfo adds progress information. This is the default.
	VerbosityInfo
	// VerbosityDebug prints everything.
	VerbosityDebug
)

// DefaultVerbosity is used when no -v flag is given.
const DefaultVerbosity = VerbosityInfo

//nolint:gochecknoglobals // Lookup table, never mutated
var verbosityNames = [...]string{
	VerbosityCritical:  "critical",
	VerbosityInfoQuiet: "info_quiet",
	VerbosityInfo:      "info",
	VerbosityDebug:     "debug",
}

// ErrInvalidVerbosity is returned by ParseVerbosity for unknown levels.
var ErrInvalidVerbosity = fmt.Errorf("verbosity must be 0-3 or one of %s", strings.Join(verbosityNames[:], ", "))

// ParseVerbosity accepts either the numeric form ("0".."3") or the level name
// (case-insensitive).
func ParseVerbosity(s string) (Verbosity, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < int(VerbosityCritical) || n > int(VerbosityDebug) {
			return DefaultVerbosity, fmt.Errorf("%w: got %d", ErrInvalidVerbosity, n)
		}
		return Verbosity(n), nil
	}

	for i, name := range verbosityNames {
		if strings.EqualFold(s, name) {
			return Verbosity(i), nil
		}
	}

	return DefaultVerbosity, fmt.Errorf("%w: got %q", ErrInvalidVerbosity, s)
}

// String returns the level name.
func (v Verbosity) String() string {
	if v < VerbosityCritical || v > VerbosityDebug {
		return "verbosity(" + strconv.Itoa(int(v)) + ")"
	}
	return verbosityNames[v]
}

// ZerologLevel maps the verbosity to the minimum zerolog level that is printed.
func (v Verbosity) ZerologLevel() zerolog.Level {
	switch v {
	case VerbosityCritical:
		return zerolog.ErrorLevel
	case VerbosityInfoQuiet:
		return zerolog.WarnLevel
	case VerbosityDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// Set implements pflag.Value.
func (v *Verbosity) Set(s string) error {
	parsed, err := ParseVerbosity(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Type implements pflag.Value.
func (v *Verbosity) Type() string {
	return "level"
}
