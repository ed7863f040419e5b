package config

import (
	"flag"
	"os"
	"time"

	"github.com/mnbf9rca/family-medical-app-sub001/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the credential-exchange server (default from Config)
//	-i int      HTTP timeout in seconds (default from Config)
//	-d string   local vault database path (default from Config)
//	-uitest     enable the automated-UI-testing bypass
//	-demo       run against the isolated demo namespace
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d", "-uitest", "-demo"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the credential server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local vault database path")
	httpTimeout := fs.Int("i", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")
	fs.BoolVar(&cfg.TestingMode, "uitest", cfg.TestingMode, "enable automated-UI-testing bypass")
	fs.BoolVar(&cfg.DemoMode, "demo", cfg.DemoMode, "run in the demo namespace")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.HTTPTimeout = time.Duration(*httpTimeout) * time.Second
}
