// Package server wires the Silent Voice API: configuration, database,
// notification channels, services and the HTTP server, with graceful
// shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/auth"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/dmitrijs2005/silentvoice/internal/server/httpapi"
	"github.com/dmitrijs2005/silentvoice/internal/server/notify"
	"github.com/dmitrijs2005/silentvoice/internal/server/ratelimit"
	"github.com/dmitrijs2005/silentvoice/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/silentvoice/internal/server/services"
	"github.com/redis/go-redis/v9"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *redis.Client
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	app := &App{config: c, logger: logger}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	tenant, err := rm.Tenants(db).Ensure(ctx, c.TenantCode, c.TenantName)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("tenant init error: %w", err)
	}
	logger.Info(ctx, "Tenant ready", "code", tenant.Code, "id", tenant.ID)

	mailer, err := notify.NewMailer(ctx, c, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("mailer init error: %w", err)
	}
	notifier := notify.NewNotifier(mailer, c.NotifyMailTo, logger)

	alerter, err := notify.NewAlerter(ctx, c, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("alerter init error: %w", err)
	}

	limiters, err := app.initLimiters(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	signer, err := auth.NewSessionSigner(auth.SessionConfig{
		Secret:          c.SessionSecret,
		PreviousSecrets: c.SessionPreviousSecrets,
		TTL:             c.SessionTTL,
	}, nil)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("session signer init error: %w", err)
	}
	if c.SessionSecret == "" {
		logger.Warn(ctx, "SESSION_SECRET is not set, using a random secret for this process")
	}

	receipts, err := auth.NewReceiptIssuer(c.ReceiptSecret, c.ReceiptTTL, nil)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("receipt issuer init error: %w", err)
	}

	audit := services.NewAuditService(db, rm, logger)

	api := &httpapi.API{
		Auth:    services.NewAuthService(db, rm, signer, notifier, audit, limiters, c, logger),
		Reports: services.NewReportService(db, rm, c.ReportKey, receipts, notifier, audit, logger),
		Audit:   audit,
		Files:   services.NewFileService(db, rm, c, audit, logger),
		Drafts:  services.NewDraftService(c.OpenAIAPIKey, c.OpenAIModel, audit, logger),
		Billing: services.NewBillingService(db, rm, audit, logger),
		System:  services.NewSystemService(db, c),
		Alerter: alerter,
		Logger:  logger,
		Options: httpapi.Options{
			TenantID:     tenant.ID,
			WebOrigins:   c.WebOrigins,
			SecureCookie: c.IsProduction(),
			CookieMaxAge: c.SessionTTL,
		},
	}

	app.server = httpapi.NewHTTPServer(c.EndpointAddr, api.Routes(), c.ShutdownTimeout, logger)
	return app, nil
}

// initLimiters connects to Redis when configured. Without it OTP calls are
// not rate limited.
func (app *App) initLimiters(ctx context.Context) (services.AuthLimiters, error) {
	c := app.config
	if c.RedisURL == "" {
		app.logger.Warn(ctx, "REDIS_URL is not set, OTP rate limiting disabled")
		return services.AuthLimiters{Send: ratelimit.Noop{}, Verify: ratelimit.Noop{}}, nil
	}

	client, err := ratelimit.Connect(ctx, c.RedisURL)
	if err != nil {
		return services.AuthLimiters{}, fmt.Errorf("redis init error: %w", err)
	}
	app.redis = client

	return services.AuthLimiters{
		Send:   ratelimit.NewRedisLimiter(client, "rl:otp:send", c.OtpSendLimit, c.RateWindow),
		Verify: ratelimit.NewRedisLimiter(client, "rl:otp:verify", c.OtpVerifyLimit, c.RateWindow),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until a termination signal arrives or the server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()
	defer app.Close()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(cancelFunc)

	start := time.Now()
	err := app.server.Run(ctx)
	app.logger.Info(ctx, "App stopped", "uptime", time.Since(start).Round(time.Second))
	return err
}

func (app *App) Close() {
	if app.redis != nil {
		_ = app.redis.Close()
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}
