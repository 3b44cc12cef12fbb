// Package cli provides the interactive Silent Voice console.
//
// The console keeps every case in a local SQLite store and works offline.
// A background watcher pings the API and flips the prompt between online
// and offline; sync, login and attachments need the server, everything else
// runs locally.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
