// Package notify queues transactional emails on RabbitMQ and delivers them
// through Mailgun from the mailer worker.
package notify

import (
	"bytes"
	htmltpl "html/template"
	"net/url"
	texttpl "text/template"
)

// Template names carried on the queue.
const (
	TemplateWelcome       = "welcome"
	TemplateResetPassword = "reset_password"
)

// EmailJob is the JSON payload put on the email queue. Subject, Text and
// HTML are rendered by the producer so the worker only delivers.
type EmailJob struct {
	Template string `json:"template"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Text     string `json:"text"`
	HTML     string `json:"html,omitempty"`
}

type emailData struct {
	Name string
	Link string
}

var (
	welcomeText = texttpl.Must(texttpl.New("welcome").Parse(
		"Hola {{.Name}},\n\nTu cuenta en Finanzas está lista. Ya puedes registrar tus ingresos, gastos y ahorros.\n"))
	welcomeHTML = htmltpl.Must(htmltpl.New("welcome").Parse(
		"<p>Hola {{.Name}},</p><p>Tu cuenta en Finanzas está lista. Ya puedes registrar tus ingresos, gastos y ahorros.</p>"))

	resetText = texttpl.Must(texttpl.New("reset").Parse(
		"Hola {{.Name}},\n\nRecibimos una solicitud para restablecer tu contraseña. Usa este enlace durante la próxima hora:\n\n{{.Link}}\n\nSi no fuiste tú, ignora este correo.\n"))
	resetHTML = htmltpl.Must(htmltpl.New("reset").Parse(
		`<p>Hola {{.Name}},</p><p>Recibimos una solicitud para restablecer tu contraseña. Usa este enlace durante la próxima hora:</p><p><a href="{{.Link}}">Restablecer contraseña</a></p><p>Si no fuiste tú, ignora este correo.</p>`))
)

// WelcomeEmail builds the job sent after registration.
func WelcomeEmail(to, name string) (EmailJob, error) {
	return render(TemplateWelcome, to, "Bienvenido a Finanzas", emailData{Name: name}, welcomeText, welcomeHTML)
}

// ResetPasswordEmail builds the job carrying a password reset link. The
// token is appended to baseURL as the "token" query parameter.
func ResetPasswordEmail(to, name, baseURL, token string) (EmailJob, error) {
	link, err := ResetLink(baseURL, token)
	if err != nil {
		return EmailJob{}, err
	}
	return render(TemplateResetPassword, to, "Restablece tu contraseña", emailData{Name: name, Link: link}, resetText, resetHTML)
}

// ResetLink appends token to baseURL, keeping any existing query.
func ResetLink(baseURL, token string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func render(name, to, subject string, data emailData, text *texttpl.Template, html *htmltpl.Template) (EmailJob, error) {
	var tb, hb bytes.Buffer
	if err := text.Execute(&tb, data); err != nil {
		return EmailJob{}, err
	}
	if err := html.Execute(&hb, data); err != nil {
		return EmailJob{}, err
	}
	return EmailJob{Template: name, To: to, Subject: subject, Text: tb.String(), HTML: hb.String()}, nil
}
