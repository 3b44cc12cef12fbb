package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
)

const unsetValue = "(未設定)"

type pinger interface {
	PingContext(ctx context.Context) error
}

type Health struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

type EnvEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type SystemInfo struct {
	Health Health     `json:"health"`
	Env    []EnvEntry `json:"env"`
}

// SystemService reports liveness and a masked view of the effective
// configuration.
type SystemService struct {
	db     pinger
	config *config.Config
	clock  timex.Clock
}

func NewSystemService(db pinger, cfg *config.Config) *SystemService {
	return &SystemService{db: db, config: cfg}
}

func (s *SystemService) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return Health{OK: s.db.PingContext(ctx) == nil, Timestamp: s.clock.Now().UTC()}
}

func (s *SystemService) Info(ctx context.Context) SystemInfo {
	c := s.config
	return SystemInfo{
		Health: s.Health(ctx),
		Env: []EnvEntry{
			{Key: "DATABASE_URL", Value: maskValue(c.DatabaseDSN)},
			{Key: "OPENAI_API_KEY", Value: maskValue(c.OpenAIAPIKey)},
			{Key: "OTP_MAIL_MODE", Value: maskValue(c.MailMode)},
			{Key: "S3_BUCKET", Value: maskValue(c.S3Bucket)},
			{Key: "AWS_REGION", Value: maskValue(c.S3Region)},
			{Key: "SNS_TOPIC_ARN", Value: maskValue(c.SNSTopicARN)},
		},
	}
}

func maskValue(v string) string {
	r := []rune(v)
	switch {
	case len(r) == 0:
		return unsetValue
	case len(r) <= 4:
		return "****"
	default:
		return string(r[:2]) + "***" + string(r[len(r)-2:])
	}
}
