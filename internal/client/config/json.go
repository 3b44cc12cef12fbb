package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/silentvoice/internal/flagx"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// JsonConfig is a DTO used only for JSON unmarshalling. Absent keys keep
// the value already in Config.
type JsonConfig struct {
	ServerURL           *string         `json:"server_url"`
	DatabaseDSN         *string         `json:"database_dsn"`
	ExportDir           *string         `json:"export_dir"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
}

func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if c.ServerURL != nil {
		config.ServerURL = *c.ServerURL
	}
	if c.DatabaseDSN != nil {
		config.DatabaseDSN = *c.DatabaseDSN
	}
	if c.ExportDir != nil {
		config.ExportDir = *c.ExportDir
	}
	if c.OnlineCheckInterval != nil {
		config.OnlineCheckInterval = c.OnlineCheckInterval.Duration
	}
	return nil
}
