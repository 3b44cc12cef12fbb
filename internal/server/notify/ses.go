package notify

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

var newSESClient = func(cfg aws.Config) sesAPI {
	return ses.NewFromConfig(cfg)
}

type SESMailer struct {
	client sesAPI
	from   string
}

func NewSESMailer(client sesAPI, from string) *SESMailer {
	return &SESMailer{client: client, from: from}
}

func (s *SESMailer) Send(ctx context.Context, m Message) error {
	_, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{m.To}},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(m.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(m.Text), Charset: aws.String("UTF-8")},
			},
		},
	})
	return err
}
