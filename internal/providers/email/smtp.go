package email

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/smtp"
)

//go:embed templates/invite_member.html
var inviteMemberHTML string

var inviteMemberTmpl = template.Must(template.New("invite_member").Parse(inviteMemberHTML))

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

type SMTPProvider struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTPProvider {
	return &SMTPProvider{cfg: cfg}
}

func (p *SMTPProvider) SendInvitation(ctx context.Context, invite Invitation) error {
	var body bytes.Buffer
	if err := inviteMemberTmpl.Execute(&body, invite); err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}

	subject := fmt.Sprintf("You're invited to join %s", invite.VerseName)
	return p.send(ctx, invite.ToEmail, subject, body.String())
}

func (p *SMTPProvider) send(_ context.Context, to, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)
	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)

	from := p.cfg.From
	if p.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", p.cfg.FromName, p.cfg.From)
	}

	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n%s\r\n%s", from, to, subject, mime, htmlBody))

	return smtp.SendMail(addr, auth, p.cfg.From, []string{to}, msg)
}
