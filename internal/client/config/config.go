package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the console client.
type Config struct {
	ServerURL           string
	DatabaseDSN         string
	ExportDir           string
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with local development defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://localhost:4000"
	c.DatabaseDSN = "silentvoice.db"
	c.ExportDir = "exports"
	c.OnlineCheckInterval = 3 * time.Second
}

// Load applies defaults, then the JSON file named in args, then the flags.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}
