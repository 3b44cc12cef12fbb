package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/awsx"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
)

const (
	maxAlertSubject = 99
	maxAlertMessage = 1900
)

// Alerter publishes operational alerts. Publishing never fails the caller.
type Alerter interface {
	Publish(ctx context.Context, subject, message string)
}

type snsAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

var newSNSClient = func(cfg aws.Config) snsAPI {
	return sns.NewFromConfig(cfg)
}

// NewAlerter returns an SNS alerter when alerts are enabled and a topic and
// region are configured, and a logging no-op otherwise.
func NewAlerter(ctx context.Context, cfg *config.Config, logger logging.Logger) (Alerter, error) {
	logger = logger.With("module", "alerter")
	if !cfg.EnableSNSAlerts || cfg.SNSTopicARN == "" || cfg.SNSRegion == "" {
		return &NoopAlerter{logger: logger}, nil
	}

	awsCfg, err := awsx.Load(ctx, awsx.Options{Region: cfg.SNSRegion, AccessKey: cfg.S3AccessKey, SecretKey: cfg.S3SecretKey})
	if err != nil {
		return nil, err
	}
	return NewSNSAlerter(newSNSClient(awsCfg), cfg.SNSTopicARN, logger), nil
}

type SNSAlerter struct {
	client   snsAPI
	topicARN string
	logger   logging.Logger
}

func NewSNSAlerter(client snsAPI, topicARN string, logger logging.Logger) *SNSAlerter {
	return &SNSAlerter{client: client, topicARN: topicARN, logger: logger}
}

func (a *SNSAlerter) Publish(ctx context.Context, subject, message string) {
	_, err := a.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(a.topicARN),
		Subject:  aws.String(truncate(subject, maxAlertSubject)),
		Message:  aws.String(truncate(message, maxAlertMessage)),
	})
	if err != nil {
		a.logger.Warn(ctx, "SNS publish failed", "error", err, "code", awsx.ErrorCode(err))
	}
}

type NoopAlerter struct {
	logger logging.Logger
}

func (n *NoopAlerter) Publish(ctx context.Context, subject, _ string) {
	n.logger.Debug(ctx, "SNS skipped", "subject", subject)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
