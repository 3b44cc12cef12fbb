package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSNS struct {
	calls []*sns.PublishInput
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.calls = append(f.calls, in)
	return &sns.PublishOutput{}, f.err
}

func TestNewAlerter_DisabledIsNoop(t *testing.T) {
	for _, cfg := range []config.Config{
		{},
		{EnableSNSAlerts: true},
		{EnableSNSAlerts: false, SNSTopicARN: "arn:aws:sns:ap-northeast-1:1:t", SNSRegion: "ap-northeast-1"},
	} {
		a, err := NewAlerter(context.Background(), &cfg, logging.Discard())
		require.NoError(t, err)
		assert.IsType(t, &NoopAlerter{}, a)
		a.Publish(context.Background(), "s", "m")
	}
}

func TestNewAlerter_Enabled(t *testing.T) {
	orig := newSNSClient
	t.Cleanup(func() { newSNSClient = orig })

	f := &fakeSNS{}
	newSNSClient = func(aws.Config) snsAPI { return f }

	cfg := &config.Config{EnableSNSAlerts: true, SNSTopicARN: "arn:aws:sns:ap-northeast-1:1:t", SNSRegion: "ap-northeast-1"}
	a, err := NewAlerter(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)

	a.Publish(context.Background(), "subject", "message")
	require.Len(t, f.calls, 1)
	assert.Equal(t, cfg.SNSTopicARN, aws.ToString(f.calls[0].TopicArn))
}

func TestSNSAlerter_TruncatesAndSwallowsErrors(t *testing.T) {
	f := &fakeSNS{err: errors.New("throttled")}
	a := NewSNSAlerter(f, "arn", logging.Discard())

	a.Publish(context.Background(), strings.Repeat("件", 150), strings.Repeat("x", 5000))

	require.Len(t, f.calls, 1)
	assert.Equal(t, maxAlertSubject, utf8.RuneCountInString(aws.ToString(f.calls[0].Subject)))
	assert.Len(t, aws.ToString(f.calls[0].Message), maxAlertMessage)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, "日本", truncate("日本語", 2))
}
