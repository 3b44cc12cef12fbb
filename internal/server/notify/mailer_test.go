package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/config"
	"github.com/mrz1836/postmark"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestNewMailer_ModeSelection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  config.Config
		want any
	}{
		{"dryrun default", config.Config{MailMode: "dryrun"}, &DryRunMailer{}},
		{"unknown mode", config.Config{MailMode: "carrier-pigeon"}, &DryRunMailer{}},
		{"smtp without host", config.Config{MailMode: "smtp"}, &DryRunMailer{}},
		{"smtp", config.Config{MailMode: "smtp", SMTPHost: "mail.local", SMTPPort: 587}, &SMTPMailer{}},
		{"ses without sender", config.Config{MailMode: "ses", SESRegion: "ap-northeast-1"}, &DryRunMailer{}},
		{"postmark without tokens", config.Config{MailMode: "postmark"}, &DryRunMailer{}},
		{"postmark", config.Config{MailMode: "POSTMARK", PostmarkServerToken: "s", PostmarkAccountToken: "a"}, &PostmarkMailer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMailer(ctx, &tt.cfg, logging.Discard())
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
		})
	}
}

func TestNewMailer_SES(t *testing.T) {
	orig := newSESClient
	t.Cleanup(func() { newSESClient = orig })

	var built bool
	newSESClient = func(cfg aws.Config) sesAPI {
		built = true
		assert.Equal(t, "ap-northeast-1", cfg.Region)
		return &fakeSES{}
	}

	cfg := &config.Config{MailMode: "ses", SESRegion: "ap-northeast-1", MailFrom: "ops@example.com",
		S3AccessKey: "ak", S3SecretKey: "sk"}
	m, err := NewMailer(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, &SESMailer{}, m)
	assert.True(t, built)
}

func TestSMTPMailer_Send(t *testing.T) {
	orig := dialAndSend
	t.Cleanup(func() { dialAndSend = orig })

	var gotDialer *gomail.Dialer
	var gotMsgs []*gomail.Message
	dialAndSend = func(d *gomail.Dialer, m ...*gomail.Message) error {
		gotDialer = d
		gotMsgs = m
		return nil
	}

	s := NewSMTPMailer("smtp.local", 465, "u", "p", "from@example.com")
	err := s.Send(context.Background(), Message{To: "to@example.com", Subject: "hi", Text: "body"})
	require.NoError(t, err)

	require.Len(t, gotMsgs, 1)
	assert.True(t, gotDialer.SSL)
	assert.Equal(t, []string{"from@example.com"}, gotMsgs[0].GetHeader("From"))
	assert.Equal(t, []string{"to@example.com"}, gotMsgs[0].GetHeader("To"))
	assert.Equal(t, []string{"hi"}, gotMsgs[0].GetHeader("Subject"))

	dialAndSend = func(*gomail.Dialer, ...*gomail.Message) error { return errors.New("conn refused") }
	err = NewSMTPMailer("smtp.local", 587, "", "", "f").Send(context.Background(), Message{To: "x"})
	assert.EqualError(t, err, "conn refused")
}

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	return &ses.SendEmailOutput{}, f.err
}

func TestSESMailer_Send(t *testing.T) {
	f := &fakeSES{}
	m := NewSESMailer(f, "ops@example.com")

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "件名", Text: "本文"}))
	assert.Equal(t, "ops@example.com", aws.ToString(f.in.Source))
	assert.Equal(t, []string{"a@example.com"}, f.in.Destination.ToAddresses)
	assert.Equal(t, "件名", aws.ToString(f.in.Message.Subject.Data))
	assert.Equal(t, "本文", aws.ToString(f.in.Message.Body.Text.Data))
}

type fakePostmark struct {
	email postmark.Email
	resp  postmark.EmailResponse
	err   error
}

func (f *fakePostmark) SendEmail(_ context.Context, e postmark.Email) (postmark.EmailResponse, error) {
	f.email = e
	return f.resp, f.err
}

func TestPostmarkMailer_Send(t *testing.T) {
	f := &fakePostmark{}
	m := NewPostmarkMailer(f, "no-reply@silentvoice.local")

	require.NoError(t, m.Send(context.Background(), Message{To: "a@example.com", Subject: "s", Text: "t"}))
	assert.Equal(t, "t", f.email.TextBody)
	assert.Equal(t, "no-reply@silentvoice.local", f.email.From)

	f.resp = postmark.EmailResponse{ErrorCode: 406, Message: "inactive recipient"}
	err := m.Send(context.Background(), Message{To: "a@example.com"})
	assert.EqualError(t, err, "postmark error: 406 - inactive recipient")
}
