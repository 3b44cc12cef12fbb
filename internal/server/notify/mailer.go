// Package notify delivers outgoing mail (login codes, new report notices)
// and publishes operational alerts.
package notify

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/awsx"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
)

const defaultFrom = "no-reply@silentvoice.local"

type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer sends a single plain-text message.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// NewMailer selects the transport for cfg.MailMode. Modes whose settings are
// incomplete fall back to the dry-run mailer with a warning, so a half
// configured deployment still starts.
func NewMailer(ctx context.Context, cfg *config.Config, logger logging.Logger) (Mailer, error) {
	logger = logger.With("module", "mailer")
	from := cfg.MailFrom
	if from == "" {
		from = defaultFrom
	}

	switch strings.ToLower(cfg.MailMode) {
	case "smtp":
		if cfg.SMTPHost == "" {
			logger.Warn(ctx, "SMTP host missing, falling back to dry-run mail")
			break
		}
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, from), nil

	case "ses":
		if cfg.SESRegion == "" || cfg.MailFrom == "" {
			logger.Warn(ctx, "SES region or sender missing, falling back to dry-run mail")
			break
		}
		awsCfg, err := awsx.Load(ctx, awsx.Options{Region: cfg.SESRegion, AccessKey: cfg.S3AccessKey, SecretKey: cfg.S3SecretKey})
		if err != nil {
			return nil, err
		}
		return NewSESMailer(newSESClient(awsCfg), from), nil

	case "postmark":
		if cfg.PostmarkServerToken == "" || cfg.PostmarkAccountToken == "" {
			logger.Warn(ctx, "Postmark tokens missing, falling back to dry-run mail")
			break
		}
		return NewPostmarkMailer(newPostmarkClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken), from), nil
	}

	return NewDryRunMailer(logger), nil
}

// DryRunMailer only logs what would have been sent.
type DryRunMailer struct {
	logger logging.Logger
}

func NewDryRunMailer(logger logging.Logger) *DryRunMailer {
	return &DryRunMailer{logger: logger}
}

func (d *DryRunMailer) Send(ctx context.Context, m Message) error {
	d.logger.Info(ctx, "dry-run mail", "to", m.To, "subject", m.Subject, "text", m.Text)
	return nil
}
