// Package flagx lets several loaders share os.Args without tripping over
// each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// Spec names the flags a loader owns. Valued flags consume the next
// argument when it is not itself a flag; switches never do.
type Spec struct {
	Valued   []string
	Switches []string
}

// Filter keeps only the arguments described by spec, in their original
// order. Both "-f value" and "-f=value" forms are recognised.
func Filter(args []string, spec Spec) []string {
	valued := toSet(spec.Valued)
	switches := toSet(spec.Switches)

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := valued[name]; ok {
				filtered = append(filtered, arg)
			} else if _, ok := switches[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := switches[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := valued[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

// ConfigPath returns the JSON config path given with -c or -config,
// or "" when neither is present. Parse errors are ignored.
func ConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	fs.SetOutput(discard{})
	_ = fs.Parse(Filter(args, Spec{Valued: []string{"-c", "-config", "--config"}}))

	return path
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
