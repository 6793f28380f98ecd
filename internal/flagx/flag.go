// Package flagx contains helpers for parsing a subset of the command line
// before the full flag set is defined, so the config file flag can be read
// first and the remaining flags layered on top of its contents.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only the allowed flags (and their values) from args,
// preserving order. Both the "-f value" and "--flag=value" forms are
// recognized. A dash-prefixed token following an allowed flag is treated as
// the next flag, not as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, name := range allowedFlags {
		allowed[name] = struct{}{}
	}

	kept := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				kept = append(kept, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			kept = append(kept, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				kept = append(kept, args[i+1])
				i++
			}
		}
	}

	return kept
}

// JsonConfigFlags extracts the config file path given via -c or -config,
// ignoring every other argument so packages defining their own flags are
// unaffected. Returns "" when neither flag is present.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}
