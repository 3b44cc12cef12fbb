package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/client/client"
	"github.com/dmitrijs2005/silentvoice/internal/client/config"
	"github.com/dmitrijs2005/silentvoice/internal/client/services"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
)

type Mode string

const (
	ModeOffline  Mode = "offline"
	ModeOnline   Mode = "online"
	ModeDisabled Mode = "disabled"
)

const pingTimeout = 3 * time.Second

type App struct {
	config  *config.Config
	db      *sql.DB
	logger  logging.Logger
	auth    *services.AuthService
	records *services.RecordsService
	bundle  *services.BundleService
	syncer  *services.SyncService
	reader  *bufio.Reader
	out     io.Writer

	mu    sync.RWMutex
	mode  Mode
	email string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr, "warn")

	db, err := client.InitDatabase(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	api, err := client.NewHTTPClient(c.ServerURL, nil)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:  c,
		db:      db,
		logger:  logger,
		auth:    services.NewAuthService(db, api, logger),
		records: services.NewRecordsService(db),
		bundle:  services.NewBundleService(db, c.ExportDir),
		syncer:  services.NewSyncService(db, api, logger),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		mode:    ModeDisabled,
	}, nil
}

func (a *App) Mode() Mode {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.printf("Switched to %s mode\n", mode)
	}
}

func (a *App) setEmail(email string) {
	a.mu.Lock()
	a.email = email
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.email != ""
}

func (a *App) getStatus() string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := ""
	if a.email != "" {
		s = a.email + " "
	}
	s += string(a.mode)
	return fmt.Sprintf("(%s)", s)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// Run restores a saved session, starts the connectivity watcher and serves
// the REPL until the user quits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	email, err := a.auth.Restore(ctx)
	if err != nil {
		a.logger.Warn(ctx, "session not restored", "error", err)
	}
	a.setEmail(email)
	a.checkOnline(ctx)

	a.printf("Silent Voice console (type 'help' for commands)\n")

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error(context.Background(), "error closing database", "error", err)
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := a.auth.Ping(ctx); err != nil {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher pings the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
