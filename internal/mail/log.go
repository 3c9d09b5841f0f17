package mail

import (
	"context"

	"vetclinic/internal/logging"
)

// LogMailer writes the would-be mail to the log instead of sending it. Used
// when no SMTP host is configured (local development).
type LogMailer struct {
	baseURL string
	log     logging.Logger
}

func NewLogMailer(baseURL string, log logging.Logger) *LogMailer {
	return &LogMailer{baseURL: baseURL, log: log}
}

func (m *LogMailer) SendConfirmation(ctx context.Context, to, token string) error {
	m.log.Info(ctx, "confirmation mail (not sent, no SMTP host)",
		"to", to, "link", joinURL(m.baseURL, "/confirmar/", token))
	return nil
}

func (m *LogMailer) SendRecovery(ctx context.Context, to, token string) error {
	m.log.Info(ctx, "recovery mail (not sent, no SMTP host)",
		"to", to, "link", joinURL(m.baseURL, "/recuperar-password/", token))
	return nil
}
