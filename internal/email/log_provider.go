package email

import (
	"context"

	"tourbook_backend/internal/logger"
)

// LogProvider пишет в лог только адресата и тему вместо отправки.
// Тело не логируется: в нем ссылка сброса пароля с токеном.
type LogProvider struct{}

func NewLogProvider() *LogProvider {
	return &LogProvider{}
}

func (p *LogProvider) Send(ctx context.Context, msg *Message) error {
	logger.CtxInfo(ctx, "Email delivery skipped (no SMTP configured)",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

func (p *LogProvider) Validate() error { return nil }
