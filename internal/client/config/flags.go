package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/studywithme/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the REST API
//	-t int      request timeout in seconds
//	-r float    outbound requests per second
//	-n          allow desktop notifications
//	-l string   log level
//
// Only these flags are taken from os.Args (see flagx.Filter), so -c/-config
// and anything else on the command line is left alone.
func parseFlags(cfg *Config) {
	args := flagx.Filter(os.Args[1:], flagx.Spec{
		Valued:   []string{"-a", "-t", "-r", "-l"},
		Switches: []string{"-n"},
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the REST API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.Float64Var(&cfg.RateLimit, "r", cfg.RateLimit, "outbound requests per second")
	fs.BoolVar(&cfg.NotificationsGranted, "n", cfg.NotificationsGranted, "allow desktop notifications")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
