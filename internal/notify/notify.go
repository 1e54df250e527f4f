package notify

import "context"

// SmsSender — внешний SMS-канал доставки OTP.
type SmsSender interface {
	Send(ctx context.Context, to, body string) error
}

// MailSender — внешний email-канал доставки OTP.
type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}
