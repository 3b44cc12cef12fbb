package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/flagx"
)

// parseFlags only sees -a, -d, -e and -i; everything else is filtered out
// with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-e", "-i"})

	fs := flag.NewFlagSet("client", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the API server")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "local database path")
	fs.StringVar(&cfg.ExportDir, "e", cfg.ExportDir, "export directory")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
		}
	})
	return nil
}
