package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
)

// Templates are keyed the way the client application requests them.
const (
	TemplateRegister      = "register"
	TemplateResetPassword = "reset_password"
	TemplateDeleteAccount = "delete_account"
	TemplateNewDevice     = "new_device"
)

var templates = map[string]*template.Template{
	TemplateRegister: template.Must(template.New(TemplateRegister).Parse(
		`<p>Hi,</p><p>Confirm your email to finish creating your account:</p>` +
			`<p><a href="{{.Link}}">Complete registration</a></p>` +
			`<p>The link expires in 24 hours.</p>`)),
	TemplateResetPassword: template.Must(template.New(TemplateResetPassword).Parse(
		`<p>Hi {{.Name}},</p><p>Reset your password here:</p>` +
			`<p><a href="{{.Link}}">Reset password</a></p>` +
			`<p>If you did not request this, you can ignore this email.</p>`)),
	TemplateDeleteAccount: template.Must(template.New(TemplateDeleteAccount).Parse(
		`<p>Hi {{.Name}},</p><p>Confirm the deletion of your account:</p>` +
			`<p><a href="{{.Link}}">Delete account</a></p>`)),
	TemplateNewDevice: template.Must(template.New(TemplateNewDevice).Parse(
		`<p>Hi {{.Name}},</p><p>A new device just signed in to your account:</p>` +
			`<p>{{.DeviceName}} ({{.IPAddress}})</p>` +
			`<p>If this wasn't you, revoke the session and change your password.</p>`)),
}

var subjects = map[string]string{
	TemplateRegister:      "Confirm your email",
	TemplateResetPassword: "Reset your password",
	TemplateDeleteAccount: "Confirm account deletion",
	TemplateNewDevice:     "New device sign-in",
}

// EmailSender delivers templated mail over implicit-TLS SMTP.
type EmailSender struct {
	smtpHost string
	smtpPort string
	username string
	password string
	from     string
}

func NewEmailSender(host, port, user, pass, from string) *EmailSender {
	return &EmailSender{
		smtpHost: host,
		smtpPort: port,
		username: user,
		password: pass,
		from:     from,
	}
}

// Send renders the named template and ships it. Callers decide whether a
// failure aborts their own flow.
func (e *EmailSender) Send(to, templateID string, data map[string]string) error {
	tpl, ok := templates[templateID]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateID)
	}

	var body bytes.Buffer
	if err := tpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render template %q: %w", templateID, err)
	}

	return e.deliver(to, subjects[templateID], body.String())
}

func (e *EmailSender) deliver(to, subject, body string) error {
	msg := []byte(
		fmt.Sprintf("From: %s\r\n", e.from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)

	serverAddr := e.smtpHost + ":" + e.smtpPort

	// Implicit TLS for port 465
	tlsConfig := &tls.Config{
		ServerName: e.smtpHost,
	}

	conn, err := tls.Dial("tcp", serverAddr, tlsConfig)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(e.from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
