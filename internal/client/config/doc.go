// Package config loads runtime configuration for the Silent Voice console.
//
// Sources, later wins:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Short command-line flags.
//
// Supported flags
//
//	-a string   base URL of the Silent Voice API
//	-d string   path of the local SQLite database
//	-e string   directory for exported bundles and CSV files
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Intervals use timex.Duration, so they may be strings like "3s" or integer
// nanoseconds:
//
//	{
//	  "server_url": "http://localhost:4000",
//	  "database_dsn": "silentvoice.db",
//	  "export_dir": "exports",
//	  "online_check_interval": "3s"
//	}
package config
