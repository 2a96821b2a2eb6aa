// services/mail_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	textTemplate "text/template"
	"time"

	"customermind/internal/models/doc_models"
	"customermind/internal/repositories"

	"go.uber.org/zap"
)

type IMailService interface {
	SendMailToNotifyUser(ctx context.Context, to, subject, body, ctaText, ctaURL string) error
	SendMailToResetPassword(ctx context.Context, email, token string) error
	SendHealthAlertDigest(ctx context.Context, to string, alerts []doc_models.HealthAlert) error
}

type MailBranding struct {
	AppName    string
	AppBaseURL string // e.g. "https://app.customermind.ai"
}

type mailService struct {
	dispatcher EmailDispatcherInterface
	logs       repositories.CampaignStore
	brand      MailBranding
	htmlTpl    *template.Template
	textTpl    *textTemplate.Template
	log        *zap.Logger
}

func NewMailService(dispatcher EmailDispatcherInterface, logs repositories.CampaignStore, brand MailBranding, log *zap.Logger) IMailService {
	return &mailService{
		dispatcher: dispatcher,
		logs:       logs,
		brand:      brand,
		htmlTpl:    template.Must(template.New("notifyHTML").Parse(baseHTMLTemplate)),
		textTpl:    textTemplate.Must(textTemplate.New("plainText").Parse(plainTextTemplate)),
		log:        log,
	}
}

// ------------------- Public API -------------------

func (s *mailService) SendMailToNotifyUser(ctx context.Context, to, subject, body, ctaText, ctaURL string) error {
	return s.deliver(ctx, "notification", to, EmailData{
		Title:     subject,
		Intro:     body,
		ButtonURL: ctaURL,
		ButtonTxt: ctaText,
	})
}

func (s *mailService) SendMailToResetPassword(ctx context.Context, to, token string) error {
	link := fmt.Sprintf("%s/reset-password?token=%s&email=%s",
		strings.TrimRight(s.brand.AppBaseURL, "/"), url.QueryEscape(token), url.QueryEscape(to))

	return s.deliver(ctx, "password_reset", to, EmailData{
		Title:     "Reset your password",
		Intro:     "We received a request to reset your password. The link below is valid for a short time. If you didn't request this, you can ignore this email.",
		ButtonURL: link,
		ButtonTxt: "Reset Password",
	})
}

func (s *mailService) SendHealthAlertDigest(ctx context.Context, to string, alerts []doc_models.HealthAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	lines := make([]string, 0, len(alerts))
	for _, a := range alerts {
		lines = append(lines, fmt.Sprintf("%s: %s (score %d)", strings.ToUpper(string(a.Severity)), a.CustomerName, a.Score))
	}
	return s.deliver(ctx, "health_alert", to, EmailData{
		Title:     fmt.Sprintf("%d customers need attention", len(alerts)),
		Intro:     "Latest customer health alerts:",
		Lines:     lines,
		ButtonURL: strings.TrimRight(s.brand.AppBaseURL, "/") + "/customer-health",
		ButtonTxt: "Open Customer Health",
	})
}

func (s *mailService) deliver(ctx context.Context, kind, to string, data EmailData) error {
	data.AppName = s.brand.AppName
	data.Year = time.Now().Year()

	html, text, err := s.renderEmail(data)
	if err != nil {
		return err
	}

	res, sendErr := s.dispatcher.Send(ctx, EmailMessage{
		To:      to,
		Subject: data.Title,
		HTML:    html,
		Text:    text,
	})

	entry := &doc_models.EmailLog{
		Recipient:          to,
		Subject:            data.Title,
		Kind:               kind,
		Provider:           res.Provider,
		AttemptedProviders: res.Attempted,
		ProviderMessageID:  res.MessageID,
		Status:             doc_models.EmailLogSent,
		SentAt:             time.Now().UTC(),
	}
	if sendErr != nil {
		entry.Status = doc_models.EmailLogFailed
		entry.Error = sendErr.Error()
	}
	if err := s.logs.InsertLog(ctx, entry); err != nil {
		s.log.Warn("email log not stored", zap.String("kind", kind), zap.Error(err))
	}
	return sendErr
}

// ------------------- Rendering -------------------

type EmailData struct {
	Title     string
	Intro     string
	Lines     []string
	ButtonURL string
	ButtonTxt string
	AppName   string
	Year      int
}

const baseHTMLTemplate = `<!doctype html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width,initial-scale=1">
  <title>{{.Title}}</title>
  <style>
    body { margin: 0; padding: 0; background: #f1f5f9; color: #0f172a; font-family: -apple-system, "Segoe UI", Roboto, Helvetica, Arial, sans-serif; }
    .wrapper { width: 100%; padding: 40px 16px; box-sizing: border-box; }
    .container { max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 12px; overflow: hidden; }
    .header { padding: 24px 32px; border-bottom: 1px solid #e2e8f0; font-weight: 700; color: #4f46e5; }
    .hero { padding: 32px; }
    h1 { margin: 0 0 16px; font-size: 24px; }
    p, li { line-height: 1.6; color: #475569; font-size: 15px; }
    .btn { display: inline-block; margin: 24px 0 8px; padding: 14px 28px; background: #4f46e5; color: #ffffff !important; text-decoration: none; border-radius: 8px; font-weight: 600; }
    .muted { color: #94a3b8; font-size: 13px; word-break: break-all; }
    .footer { padding: 20px 32px; color: #94a3b8; font-size: 12px; text-align: center; border-top: 1px solid #e2e8f0; }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="container">
      <div class="header">{{.AppName}}</div>
      <div class="hero">
        <h1>{{.Title}}</h1>
        <p>{{.Intro}}</p>
        {{if .Lines}}<ul>{{range .Lines}}<li>{{.}}</li>{{end}}</ul>{{end}}
        {{if .ButtonURL}}
          <a class="btn" href="{{.ButtonURL}}">{{.ButtonTxt}}</a>
          <p class="muted">If the button doesn't work, open this link: {{.ButtonURL}}</p>
        {{end}}
      </div>
      <div class="footer">&copy; {{.Year}} {{.AppName}}</div>
    </div>
  </div>
</body>
</html>`

const plainTextTemplate = `{{.Title}}

{{.Intro}}
{{range .Lines}}
- {{.}}{{end}}
{{if .ButtonURL}}
Open this link:
{{.ButtonURL}}
{{end}}
{{.AppName}} (c) {{.Year}}
`

func (s *mailService) renderEmail(data EmailData) (html string, text string, err error) {
	var hb, tb bytes.Buffer

	if err = s.htmlTpl.Execute(&hb, data); err != nil {
		return "", "", err
	}
	if err = s.textTpl.Execute(&tb, data); err != nil {
		return "", "", err
	}
	return hb.String(), tb.String(), nil
}
