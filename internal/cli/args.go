package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// argAliases maps spellings that pflag cannot parse to their canonical flag.
//
//nolint:gochecknoglobals // Read-only lookup table.
var argAliases = map[string]string{
	"?":  "--help",
	"-?": "--help",
}

// NormalizeArgs rewrites aliases in args to canonical flags. Values of flags
// that take an argument are never rewritten, and everything after "--" is
// left untouched.
func NormalizeArgs(fs *pflag.FlagSet, args []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}

		if canonical, ok := argAliases[arg]; ok {
			out = append(out, canonical)
			continue
		}

		out = append(out, arg)
		if takesSeparateValue(fs, arg) && i+1 < len(args) {
			i++
			out = append(out, args[i])
		}
	}

	return out
}

// takesSeparateValue reports whether arg is a flag whose value is the next argument.
func takesSeparateValue(fs *pflag.FlagSet, arg string) bool {
	var flag *pflag.Flag
	switch {
	case strings.HasPrefix(arg, "--"):
		name := strings.TrimPrefix(arg, "--")
		if strings.Contains(name, "=") {
			return false
		}
		flag = fs.Lookup(name)
	case strings.HasPrefix(arg, "-") && len(arg) == 2:
		flag = fs.ShorthandLookup(arg[1:])
	default:
		return false
	}
	return flag != nil && flag.NoOptDefVal == ""
}
