// Package mail sends the account-lifecycle emails. The core only depends on
// the Mailer success/failure signal; a send failure is fatal for the request
// that triggered it.
package mail

import (
	"context"
	"fmt"
	"strings"
)

type Mailer interface {
	// SendConfirmation mails the registration confirmation link.
	SendConfirmation(ctx context.Context, to, token string) error
	// SendRecovery mails the password recovery link.
	SendRecovery(ctx context.Context, to, token string) error
}

func confirmationBody(baseURL, token string) (subject, body string) {
	link := joinURL(baseURL, "/confirmar/", token)
	subject = "VET-CLINIC - Verifica tu cuenta"
	body = fmt.Sprintf(`<p>Hola, haz clic <a href=%q>aquí</a> para confirmar tu cuenta.</p>`, link)
	return subject, body
}

func recoveryBody(baseURL, token string) (subject, body string) {
	link := joinURL(baseURL, "/recuperar-password/", token)
	subject = "VET-CLINIC - Reestablece tu password"
	body = fmt.Sprintf(`<p>Hola, haz clic <a href=%q>aquí</a> para reestablecer tu password.</p>`, link)
	return subject, body
}

func joinURL(baseURL, path, token string) string {
	return strings.TrimRight(baseURL, "/") + path + token
}
