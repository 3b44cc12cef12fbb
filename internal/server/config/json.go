package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/flagx"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

// JsonConfig is the file form of Config. Durations accept "10m" style strings
// or integer nanoseconds. Absent keys keep the value already in Config.
type JsonConfig struct {
	EndpointAddr    *string         `json:"endpoint_addr"`
	DatabaseDSN     *string         `json:"database_dsn"`
	Environment     *string         `json:"environment"`
	LogLevel        *string         `json:"log_level"`
	WebOrigins      []string        `json:"web_origins"`
	ShutdownTimeout *timex.Duration `json:"shutdown_timeout"`

	TenantCode *string `json:"tenant_code"`
	TenantName *string `json:"tenant_name"`

	SessionSecret          *string         `json:"session_secret"`
	SessionPreviousSecrets []string        `json:"session_previous_secrets"`
	SessionTTL             *timex.Duration `json:"session_ttl"`
	OtpTTL                 *timex.Duration `json:"otp_ttl"`
	MaxOtpAttempts         *int            `json:"max_otp_attempts"`

	ReportKey     *string         `json:"report_key"`
	ReceiptSecret *string         `json:"receipt_secret"`
	ReceiptTTL    *timex.Duration `json:"receipt_ttl"`

	MailMode             *string `json:"mail_mode"`
	MailFrom             *string `json:"mail_from"`
	NotifyMailTo         *string `json:"notify_mail_to"`
	SMTPHost             *string `json:"smtp_host"`
	SMTPPort             *int    `json:"smtp_port"`
	SMTPUser             *string `json:"smtp_user"`
	SMTPPass             *string `json:"smtp_pass"`
	SESRegion            *string `json:"ses_region"`
	PostmarkServerToken  *string `json:"postmark_server_token"`
	PostmarkAccountToken *string `json:"postmark_account_token"`

	S3Bucket          *string         `json:"s3_bucket"`
	S3Region          *string         `json:"s3_region"`
	S3AccessKey       *string         `json:"s3_access_key"`
	S3SecretKey       *string         `json:"s3_secret_key"`
	S3BaseEndpoint    *string         `json:"s3_base_endpoint"`
	PresignExpires    *timex.Duration `json:"presign_expires"`
	UploadPresignBase *string         `json:"upload_presign_base"`
	StorageBaseURL    *string         `json:"storage_base_url"`

	EnableSNSAlerts *bool   `json:"enable_sns_alerts"`
	SNSTopicARN     *string `json:"sns_topic_arn"`
	SNSRegion       *string `json:"sns_region"`

	RedisURL       *string         `json:"redis_url"`
	OtpSendLimit   *int            `json:"otp_send_limit"`
	OtpVerifyLimit *int            `json:"otp_verify_limit"`
	RateWindow     *timex.Duration `json:"rate_window"`

	OpenAIAPIKey *string `json:"openai_api_key"`
	OpenAIModel  *string `json:"openai_model"`
}

// parseJson overlays the JSON file named by -c/-config onto config.
// No flag means nothing to load.
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

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.EndpointAddr, c.EndpointAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.Environment, c.Environment)
	setString(&config.LogLevel, c.LogLevel)
	if c.WebOrigins != nil {
		config.WebOrigins = c.WebOrigins
	}
	setDuration(&config.ShutdownTimeout, c.ShutdownTimeout)

	setString(&config.TenantCode, c.TenantCode)
	setString(&config.TenantName, c.TenantName)

	setString(&config.SessionSecret, c.SessionSecret)
	if c.SessionPreviousSecrets != nil {
		config.SessionPreviousSecrets = c.SessionPreviousSecrets
	}
	setDuration(&config.SessionTTL, c.SessionTTL)
	setDuration(&config.OtpTTL, c.OtpTTL)
	setInt(&config.MaxOtpAttempts, c.MaxOtpAttempts)

	setString(&config.ReportKey, c.ReportKey)
	setString(&config.ReceiptSecret, c.ReceiptSecret)
	setDuration(&config.ReceiptTTL, c.ReceiptTTL)

	setString(&config.MailMode, c.MailMode)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.NotifyMailTo, c.NotifyMailTo)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPass, c.SMTPPass)
	setString(&config.SESRegion, c.SESRegion)
	setString(&config.PostmarkServerToken, c.PostmarkServerToken)
	setString(&config.PostmarkAccountToken, c.PostmarkAccountToken)

	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setDuration(&config.PresignExpires, c.PresignExpires)
	setString(&config.UploadPresignBase, c.UploadPresignBase)
	setString(&config.StorageBaseURL, c.StorageBaseURL)

	if c.EnableSNSAlerts != nil {
		config.EnableSNSAlerts = *c.EnableSNSAlerts
	}
	setString(&config.SNSTopicARN, c.SNSTopicARN)
	setString(&config.SNSRegion, c.SNSRegion)

	setString(&config.RedisURL, c.RedisURL)
	setInt(&config.OtpSendLimit, c.OtpSendLimit)
	setInt(&config.OtpVerifyLimit, c.OtpVerifyLimit)
	setDuration(&config.RateWindow, c.RateWindow)

	setString(&config.OpenAIAPIKey, c.OpenAIAPIKey)
	setString(&config.OpenAIModel, c.OpenAIModel)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
