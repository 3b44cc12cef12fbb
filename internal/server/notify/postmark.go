package notify

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

var newPostmarkClient = func(serverToken, accountToken string) postmarkAPI {
	return postmark.NewClient(serverToken, accountToken)
}

type PostmarkMailer struct {
	client postmarkAPI
	from   string
}

func NewPostmarkMailer(client postmarkAPI, from string) *PostmarkMailer {
	return &PostmarkMailer{client: client, from: from}
}

func (p *PostmarkMailer) Send(ctx context.Context, m Message) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:     p.from,
		To:       m.To,
		Subject:  m.Subject,
		TextBody: m.Text,
	})
	if err != nil {
		return err
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}
