// Package flagx helps several loaders share os.Args without tripping over
// each other's flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the flags named in allowed (and their values).
//
// Both "-c conf.json" and "-c=conf.json" forms are recognised. A value is
// consumed only when the next argument does not itself look like a flag.
// The result is never nil.
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		known[name] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFile returns the JSON config path given with -c or -config, or "".
func ConfigFile(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}
