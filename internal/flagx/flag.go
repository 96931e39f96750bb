// Package flagx helps several independent flag sets share os.Args: each
// loader picks out only the flags it owns and ignores the rest.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// FilterArgs returns the subset of args that belongs to one of the allowed
// flags, together with their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -d postgres://...
//  2. Flag and value joined with '=':        -d=postgres://...
//
// Parameters:
//
//	args:         the command-line arguments (usually os.Args[1:])
//	allowedFlags: dashed flag names to keep (e.g. []string{"-a", "-d"})
//
// Returns:
//
//	A non-nil slice with the allowed flags in their original order. A value
//	given as a separate argument is kept only when it does not start with a
//	dash, so "-d -a :3000" keeps "-d" without a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	// Set of allowed names for constant-time lookup.
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// "-flag=value": keep the whole argument when the name is allowed.
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		// "-flag value": the value, if any, is the next argument.
		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++ // value consumed
		}
	}

	return filtered
}

// StringFlag extracts a single string flag from args without disturbing any
// other flag set.
//
// Parameters:
//
//	args:  the command-line arguments (usually os.Args[1:])
//	names: the undashed names the flag is known under (e.g. "u", "user")
//
// Returns:
//
//	The value of the last occurrence of any of names, or "" when the flag is
//	absent. Parse errors are swallowed: the flag then reads as absent.
func StringFlag(args []string, names ...string) string {
	dashed := make([]string, 0, len(names))
	for _, n := range names {
		dashed = append(dashed, "-"+n)
	}

	// All names share one destination, so the last one parsed wins.
	var value string
	fs := flag.NewFlagSet("flagx", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, dashed))

	return value
}

// JSONConfigFile returns the path of the JSON configuration file given with
// -c or -config.
//
// Only these flags are looked at, so the application can parse its own flags
// separately. If neither is present, an empty string is returned.
func JSONConfigFile() string {
	return StringFlag(os.Args[1:], "c", "config")
}

// EnvFile returns the path given with -env-file, or "" when it is absent.
// The server then falls back to a .env file in the working directory.
func EnvFile() string {
	return StringFlag(os.Args[1:], "env-file")
}
