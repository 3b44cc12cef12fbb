package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/dmitrijs2005/silentvoice/internal/timex"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestSystemService_Health(t *testing.T) {
	at := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	s := NewSystemService(fakePinger{}, &config.Config{})
	s.clock = timex.Fixed(at)
	assert.Equal(t, Health{OK: true, Timestamp: at}, s.Health(context.Background()))

	s.db = fakePinger{err: errors.New("down")}
	assert.False(t, s.Health(context.Background()).OK)
}

func TestSystemService_Info(t *testing.T) {
	s := NewSystemService(fakePinger{}, &config.Config{
		DatabaseDSN: "postgres://u:p@db/sv",
		MailMode:    "ses",
		S3Region:    "ap-northeast-1",
	})

	info := s.Info(context.Background())
	got := map[string]string{}
	for _, e := range info.Env {
		got[e.Key] = e.Value
	}

	assert.Equal(t, map[string]string{
		"DATABASE_URL":   "po***sv",
		"OPENAI_API_KEY": "(未設定)",
		"OTP_MAIL_MODE":  "****",
		"S3_BUCKET":      "(未設定)",
		"AWS_REGION":     "ap***-1",
		"SNS_TOPIC_ARN":  "(未設定)",
	}, got)
	assert.True(t, info.Health.OK)
}
