package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/smtp"
	"strings"
	"time"

	"customermind/pkg/config"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/mrz1836/postmark"
	"github.com/resend/resend-go/v2"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type EmailMessage struct {
	To        string
	ToName    string
	Subject   string
	HTML      string
	Text      string
	FromEmail string
	FromName  string
}

// EmailProvider delivers one message and returns the vendor message id.
type EmailProvider interface {
	Name() string
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

const (
	ProviderSendGrid = "sendgrid"
	ProviderMailgun  = "mailgun"
	ProviderResend   = "resend"
	ProviderPostmark = "postmark"
	ProviderSMTP     = "smtp"
)

// NewEmailProviders builds the configured providers in cfg.Providers order,
// skipping any without credentials.
func NewEmailProviders(cfg config.EmailConfig, log *zap.Logger) []EmailProvider {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	var out []EmailProvider
	for _, name := range cfg.Providers {
		var p EmailProvider
		switch name {
		case ProviderSendGrid:
			if cfg.SendGridAPIKey != "" {
				p = &sendGridProvider{client: sendgrid.NewSendClient(cfg.SendGridAPIKey)}
			}
		case ProviderMailgun:
			if cfg.MailgunDomain != "" && cfg.MailgunAPIKey != "" {
				p = &mailgunProvider{mg: mailgun.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey)}
			}
		case ProviderResend:
			if cfg.ResendAPIKey != "" {
				p = &resendProvider{client: resend.NewCustomClient(httpClient, cfg.ResendAPIKey)}
			}
		case ProviderPostmark:
			if cfg.PostmarkToken != "" {
				pm := postmark.NewClient(cfg.PostmarkToken, "")
				pm.HTTPClient = httpClient
				p = &postmarkProvider{client: pm}
			}
		case ProviderSMTP:
			if cfg.SMTPHost != "" {
				p = &smtpProvider{cfg: SMTPConfig{
					Host:     cfg.SMTPHost,
					Port:     cfg.SMTPPort,
					Username: cfg.SMTPUsername,
					Password: cfg.SMTPPassword,
					UseSSL:   cfg.SMTPUseSSL,
				}}
			}
		default:
			log.Warn("unknown email provider in chain", zap.String("provider", name))
			continue
		}
		if p == nil {
			log.Info("email provider not configured", zap.String("provider", name))
			continue
		}
		out = append(out, p)
	}
	return out
}

// ------------------- SendGrid -------------------

type sendGridProvider struct {
	client *sendgrid.Client
}

func (p *sendGridProvider) Name() string { return ProviderSendGrid }

func (p *sendGridProvider) Send(ctx context.Context, msg EmailMessage) (string, error) {
	from := mail.NewEmail(msg.FromName, msg.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := p.client.SendWithContext(ctx, message)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sendgrid: status %d: %s", resp.StatusCode, resp.Body)
	}
	if ids := resp.Headers["X-Message-Id"]; len(ids) > 0 {
		return ids[0], nil
	}
	return "", nil
}

// ------------------- Mailgun -------------------

type mailgunProvider struct {
	mg mailgun.Mailgun
}

func (p *mailgunProvider) Name() string { return ProviderMailgun }

func (p *mailgunProvider) Send(ctx context.Context, msg EmailMessage) (string, error) {
	m := p.mg.NewMessage(formatAddress(msg.FromName, msg.FromEmail), msg.Subject, msg.Text, msg.To)
	if msg.HTML != "" {
		m.SetHtml(msg.HTML)
	}
	_, id, err := p.mg.Send(ctx, m)
	return id, err
}

// ------------------- Resend -------------------

type resendProvider struct {
	client *resend.Client
}

func (p *resendProvider) Name() string { return ProviderResend }

func (p *resendProvider) Send(ctx context.Context, msg EmailMessage) (string, error) {
	resp, err := p.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    formatAddress(msg.FromName, msg.FromEmail),
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}
	return resp.Id, nil
}

// ------------------- Postmark -------------------

type postmarkProvider struct {
	client *postmark.Client
}

func (p *postmarkProvider) Name() string { return ProviderPostmark }

func (p *postmarkProvider) Send(ctx context.Context, msg EmailMessage) (string, error) {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:          formatAddress(msg.FromName, msg.FromEmail),
		To:            msg.To,
		Subject:       msg.Subject,
		HTMLBody:      msg.HTML,
		TextBody:      msg.Text,
		MessageStream: "outbound",
	})
	if err != nil {
		return "", err
	}
	if resp.ErrorCode != 0 {
		return "", fmt.Errorf("postmark: %d %s", resp.ErrorCode, resp.Message)
	}
	return resp.MessageID, nil
}

// ------------------- SMTP -------------------

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host       string // e.g. "smtp.gmail.com"
	Port       int    // e.g. 587 (STARTTLS) or 465 (SMTPS)
	Username   string
	Password   string
	UseSSL     bool // true for SMTPS 465, false for STARTTLS 587
	RequireTLS bool // if true, fail if STARTTLS not available
}

type smtpProvider struct {
	cfg SMTPConfig
}

func (p *smtpProvider) Name() string { return ProviderSMTP }

func (p *smtpProvider) Send(ctx context.Context, msg EmailMessage) (string, error) {
	messageID := fmt.Sprintf("<%d.%s>", time.Now().UnixNano(), msg.FromEmail)
	raw := buildMIMEMessage(msg, messageID)

	addr := fmt.Sprintf("%s:%d", p.cfg.Host, p.cfg.Port)
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	tlsCfg := &tls.Config{ServerName: p.cfg.Host, MinVersion: tls.VersionTLS12}

	var conn net.Conn
	var err error
	if p.cfg.UseSSL {
		// SMTPS (implicit TLS, usually port 465)
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: tlsCfg}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return "", err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, p.cfg.Host)
	if err != nil {
		return "", err
	}
	defer c.Quit()

	if !p.cfg.UseSSL {
		// Upgrade to TLS if supported
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err = c.StartTLS(tlsCfg); err != nil {
				return "", err
			}
		} else if p.cfg.RequireTLS {
			return "", errors.New("server does not support STARTTLS and RequireTLS=true")
		}
	}

	if p.cfg.Username != "" {
		if err = c.Auth(smtp.PlainAuth("", p.cfg.Username, p.cfg.Password, p.cfg.Host)); err != nil {
			return "", err
		}
	}
	if err = c.Mail(msg.FromEmail); err != nil {
		return "", err
	}
	if err = c.Rcpt(msg.To); err != nil {
		return "", err
	}
	w, err := c.Data()
	if err != nil {
		return "", err
	}
	if _, err = w.Write(raw); err != nil {
		return "", err
	}
	if err = w.Close(); err != nil {
		return "", err
	}
	return messageID, nil
}

func buildMIMEMessage(msg EmailMessage, messageID string) []byte {
	boundary := fmt.Sprintf("alt_%d", time.Now().UnixNano())

	var b bytes.Buffer
	write := func(format string, a ...any) { _, _ = fmt.Fprintf(&b, format, a...) }

	// Headers
	write("From: %s\r\n", formatAddress(msg.FromName, msg.FromEmail))
	write("To: %s\r\n", formatAddress(msg.ToName, msg.To))
	write("Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", msg.Subject))
	write("Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	write("Message-ID: %s\r\n", messageID)
	write("MIME-Version: 1.0\r\n")
	write("Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)

	write("--%s\r\n", boundary)
	write("Content-Type: text/plain; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 8bit\r\n\r\n")
	write("%s\r\n\r\n", msg.Text)

	write("--%s\r\n", boundary)
	write("Content-Type: text/html; charset=UTF-8\r\n")
	write("Content-Transfer-Encoding: 8bit\r\n\r\n")
	write("%s\r\n\r\n", msg.HTML)

	write("--%s--\r\n", boundary)
	return b.Bytes()
}

// formatAddress renders `Name <addr>`, B-encoding non-ASCII display names.
func formatAddress(name, addr string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return addr
	}
	return fmt.Sprintf("%s <%s>", mime.BEncoding.Encode("UTF-8", name), addr)
}
