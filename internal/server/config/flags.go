package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/flagx"
)

// parseFlags populates selected Config fields from short command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":4000")
//	-d string   PostgreSQL DSN
//	-s string   session signing secret
//	-t int      session lifetime, hours (0 disables the expiry check)
//	-o int      one-time code lifetime, minutes
//	-l string   log level
//	-m string   mail mode (dryrun, smtp, ses, postmark)
//	-r string   Redis URL for rate limiting
//
// Args are filtered with flagx.FilterArgs first so that -c/-config and
// unknown flags never reach the flag set.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-d", "-s", "-t", "-o", "-l", "-m", "-r"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Hours()), "session lifetime (in hours)")
	otpTTL := fs.Int("o", int(config.OtpTTL.Minutes()), "one-time code lifetime (in minutes)")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.MailMode, "m", config.MailMode, "mail mode")
	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	// Only touch durations that were given explicitly so sub-hour values
	// from other sources survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.SessionTTL = time.Duration(*sessionTTL) * time.Hour
		case "o":
			config.OtpTTL = time.Duration(*otpTTL) * time.Minute
		}
	})

	return nil
}
