package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const (
	KindPasswordReset = "password_reset"
	KindWelcome       = "welcome"
	KindContact       = "contact"

	WelcomeSubject = "Welcome to SpecFlow Insights"
	ResetSubject   = "Reset your SpecFlow password"
)

var (
	resetTemplate = template.Must(template.New("reset").Parse(
		`<h2>Password reset</h2>` +
			`<p>We received a request to reset your SpecFlow password. The link below is valid for {{.Minutes}} minutes.</p>` +
			`<p><a href="{{.Link}}">Reset password</a></p>` +
			`<p>If you did not request this, you can ignore this email.</p>`))

	welcomeTemplate = template.Must(template.New("welcome").Parse(
		`<h2>Welcome to SpecFlow Insights</h2>` +
			`<p>Thanks for subscribing. You'll receive product updates and tips on writing better specs.</p>`))

	contactTemplate = template.Must(template.New("contact").Parse(
		`<h3>New contact form submission</h3>` +
			`<p><strong>Name:</strong> {{.Name}}</p>` +
			`<p><strong>Email:</strong> {{.Email}}</p>` +
			`<p><strong>Subject:</strong> {{.Subject}}</p>` +
			`<p><strong>Message:</strong></p><p>{{.Message}}</p>`))

	strictPolicy = bluemonday.StrictPolicy()
)

// PasswordReset construye el correo con el enlace de restablecimiento.
func PasswordReset(to, link string, minutes int) (Message, error) {
	html, err := render(resetTemplate, struct {
		Link    string
		Minutes int
	}{Link: link, Minutes: minutes})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: ResetSubject, HTML: html}, nil
}

// Welcome construye el correo de bienvenida al newsletter.
func Welcome(to string) (Message, error) {
	html, err := render(welcomeTemplate, nil)
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: WelcomeSubject, HTML: html}, nil
}

// ContactForm son los campos enviados desde el formulario de contacto.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// ContactRelay construye el correo hacia el buzon del operador con Reply-To al remitente.
func ContactRelay(inbox string, form ContactForm) (Message, error) {
	if err := checkAddress("Reply-To", form.Email); err != nil {
		return Message{}, err
	}
	subject := strings.Join(strings.Fields(form.Subject), " ")
	if subject == "" {
		subject = "No Subject"
	}
	message := strings.ReplaceAll(sanitize(form.Message), "\n", "<br>")
	html, err := render(contactTemplate, struct {
		Name    template.HTML
		Email   template.HTML
		Subject template.HTML
		Message template.HTML
	}{
		Name:    template.HTML(sanitize(form.Name)),
		Email:   template.HTML(sanitize(form.Email)),
		Subject: template.HTML(sanitize(subject)),
		Message: template.HTML(message),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      inbox,
		ReplyTo: form.Email,
		Subject: "New Contact Msg: " + subject,
		HTML:    html,
	}, nil
}

func sanitize(s string) string {
	return strictPolicy.Sanitize(strings.TrimSpace(s))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}
