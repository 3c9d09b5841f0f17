package mail

import (
	"context"

	gomail "github.com/wneessen/go-mail"

	"vetclinic/internal/config"
)

// SMTPMailer delivers mail over SMTP. It holds no connection between sends;
// each send dials, delivers and closes.
type SMTPMailer struct {
	client  *gomail.Client
	from    string
	baseURL string
}

func NewSMTPMailer(cfg config.Config) (*SMTPMailer, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUsername),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, err
	}
	return &SMTPMailer{
		client:  client,
		from:    cfg.MailFrom,
		baseURL: cfg.PublicBaseURL,
	}, nil
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, to, token string) error {
	subject, body := confirmationBody(m.baseURL, token)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) SendRecovery(ctx context.Context, to, token string) error {
	subject, body := recoveryBody(m.baseURL, token)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, body)
	return m.client.DialAndSendWithContext(ctx, msg)
}
