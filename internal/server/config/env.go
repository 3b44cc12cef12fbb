package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvConfig mirrors the deployment environment variables. Pointer and slice
// fields stay nil when the variable is unset so that only present variables
// override earlier sources.
type EnvConfig struct {
	Address     *string  `env:"ADDRESS"`
	Port        *string  `env:"PORT"`
	DatabaseURL *string  `env:"DATABASE_URL"`
	NodeEnv     *string  `env:"NODE_ENV"`
	AppEnv      *string  `env:"APP_ENV"`
	LogLevel    *string  `env:"LOG_LEVEL"`
	WebOrigins  []string `env:"WEB_ORIGIN" envSeparator:","`

	TenantCode *string `env:"TENANT_CODE"`
	TenantName *string `env:"TENANT_NAME"`

	SessionSecret          *string        `env:"SESSION_SECRET"`
	SessionPreviousSecrets []string       `env:"SESSION_PREVIOUS_SECRETS" envSeparator:","`
	SessionTTL             *time.Duration `env:"SESSION_TTL"`
	OtpTTL                 *time.Duration `env:"OTP_TTL"`
	MaxOtpAttempts         *int           `env:"OTP_MAX_ATTEMPTS"`

	ReportKey     *string        `env:"REPORT_KEY"`
	ReceiptSecret *string        `env:"RECEIPT_SECRET"`
	ReceiptTTL    *time.Duration `env:"RECEIPT_TTL"`

	MailMode             *string `env:"OTP_MAIL_MODE"`
	MailFrom             *string `env:"NOTIFY_MAIL_FROM"`
	NotifyMailTo         *string `env:"NOTIFY_MAIL_TO"`
	SMTPHost             *string `env:"SMTP_HOST"`
	SMTPPort             *int    `env:"SMTP_PORT"`
	SMTPUser             *string `env:"SMTP_USER"`
	SMTPPass             *string `env:"SMTP_PASS"`
	SESRegion            *string `env:"SES_REGION"`
	PostmarkServerToken  *string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken *string `env:"POSTMARK_ACCOUNT_TOKEN"`

	S3Bucket          *string `env:"S3_BUCKET"`
	AWSRegion         *string `env:"AWS_REGION"`
	AWSAccessKeyID    *string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretKey      *string `env:"AWS_SECRET_ACCESS_KEY"`
	S3BaseEndpoint    *string `env:"S3_BASE_ENDPOINT"`
	PresignExpiresIn  *int    `env:"PRESIGN_EXPIRES_IN"`
	UploadPresignBase *string `env:"UPLOAD_PRESIGN_BASE"`
	StorageBaseURL    *string `env:"STORAGE_BASE_URL"`

	EnableSNSAlerts *bool   `env:"ENABLE_SNS_ALERTS"`
	SNSTopicARN     *string `env:"SNS_TOPIC_ARN"`

	RedisURL *string `env:"REDIS_URL"`

	OpenAIAPIKey *string `env:"OPENAI_API_KEY"`
	OpenAIModel  *string `env:"OPENAI_MODEL"`
}

var dotenvOnce sync.Once

// parseEnv loads .env once per process (a missing file is fine) and
// overlays the parsed variables onto config.
func parseEnv(config *Config) error {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	var e EnvConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	e.apply(config)
	return nil
}

func (e *EnvConfig) apply(config *Config) {
	if e.Port != nil && *e.Port != "" {
		config.EndpointAddr = ":" + *e.Port
	}
	setString(&config.EndpointAddr, e.Address)
	setString(&config.DatabaseDSN, e.DatabaseURL)
	setString(&config.Environment, e.NodeEnv)
	setString(&config.Environment, e.AppEnv)
	setString(&config.LogLevel, e.LogLevel)
	if len(e.WebOrigins) > 0 {
		config.WebOrigins = e.WebOrigins
	}

	setString(&config.TenantCode, e.TenantCode)
	setString(&config.TenantName, e.TenantName)

	setString(&config.SessionSecret, e.SessionSecret)
	if len(e.SessionPreviousSecrets) > 0 {
		config.SessionPreviousSecrets = e.SessionPreviousSecrets
	}
	setEnvDuration(&config.SessionTTL, e.SessionTTL)
	setEnvDuration(&config.OtpTTL, e.OtpTTL)
	setInt(&config.MaxOtpAttempts, e.MaxOtpAttempts)

	setString(&config.ReportKey, e.ReportKey)
	setString(&config.ReceiptSecret, e.ReceiptSecret)
	setEnvDuration(&config.ReceiptTTL, e.ReceiptTTL)

	setString(&config.MailMode, e.MailMode)
	setString(&config.MailFrom, e.MailFrom)
	setString(&config.NotifyMailTo, e.NotifyMailTo)
	setString(&config.SMTPHost, e.SMTPHost)
	setInt(&config.SMTPPort, e.SMTPPort)
	setString(&config.SMTPUser, e.SMTPUser)
	setString(&config.SMTPPass, e.SMTPPass)
	setString(&config.SESRegion, e.SESRegion)
	setString(&config.PostmarkServerToken, e.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, e.PostmarkAccountToken)

	// AWS_REGION serves S3 and SNS alike.
	setString(&config.S3Bucket, e.S3Bucket)
	setString(&config.S3Region, e.AWSRegion)
	setString(&config.SNSRegion, e.AWSRegion)
	setString(&config.S3AccessKey, e.AWSAccessKeyID)
	setString(&config.S3SecretKey, e.AWSSecretKey)
	setString(&config.S3BaseEndpoint, e.S3BaseEndpoint)
	if e.PresignExpiresIn != nil && *e.PresignExpiresIn > 0 {
		config.PresignExpires = time.Duration(*e.PresignExpiresIn) * time.Second
	}
	setString(&config.UploadPresignBase, e.UploadPresignBase)
	setString(&config.StorageBaseURL, e.StorageBaseURL)

	if e.EnableSNSAlerts != nil {
		config.EnableSNSAlerts = *e.EnableSNSAlerts
	}
	setString(&config.SNSTopicARN, e.SNSTopicARN)

	setString(&config.RedisURL, e.RedisURL)

	setString(&config.OpenAIAPIKey, e.OpenAIAPIKey)
	setString(&config.OpenAIModel, e.OpenAIModel)
}

func setEnvDuration(dst *time.Duration, v *time.Duration) {
	if v != nil {
		*dst = *v
	}
}
