package notify

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/silentvoice/internal/common"
	"github.com/dmitrijs2005/silentvoice/internal/logging"
	"github.com/dmitrijs2005/silentvoice/internal/server/awsx"
)

const (
	otpSubject = "サイレントボイス ワンタイムパスコード"
	otpText    = "ログインコード: %s\n10分以内に入力してください。"
)

// Notifier composes the application mails on top of a Mailer. Failures are
// returned wrapped in common.ErrDelivery; callers treat them as non-fatal.
type Notifier struct {
	mailer   Mailer
	notifyTo string
	logger   logging.Logger
}

func NewNotifier(mailer Mailer, notifyTo string, logger logging.Logger) *Notifier {
	return &Notifier{mailer: mailer, notifyTo: notifyTo, logger: logger.With("module", "notifier")}
}

func (n *Notifier) SendOtp(ctx context.Context, email, code string) error {
	return n.send(ctx, Message{To: email, Subject: otpSubject, Text: fmt.Sprintf(otpText, code)})
}

// NotifyReport mails the staff inbox. Without a configured inbox it is a no-op.
func (n *Notifier) NotifyReport(ctx context.Context, subject, body string) error {
	if n.notifyTo == "" {
		n.logger.Debug(ctx, "notify address not set, skipping report mail", "subject", subject)
		return nil
	}
	return n.send(ctx, Message{To: n.notifyTo, Subject: subject, Text: body})
}

func (n *Notifier) send(ctx context.Context, m Message) error {
	if err := n.mailer.Send(ctx, m); err != nil {
		if code := awsx.ErrorCode(err); code != "" {
			return fmt.Errorf("%w: aws %s: %v", common.ErrDelivery, code, err)
		}
		return fmt.Errorf("%w: %v", common.ErrDelivery, err)
	}
	return nil
}
