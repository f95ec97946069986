package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/nlct/pass-auth/internal/domain/interfaces"
	"github.com/nlct/pass-auth/internal/domain/models"
	"github.com/nlct/pass-auth/internal/utils/device"
	"github.com/nlct/pass-auth/internal/utils/metrics"
)

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
}

// smtpNotifier implements interfaces.Notifier over SMTP with implicit TLS.
// Each send opens its own connection; the portal's mail volume does not
// justify pooling.
type smtpNotifier struct {
	cfg    SMTPConfig
	logger *zap.Logger
}

// NewSMTPNotifier creates a new smtpNotifier.
func NewSMTPNotifier(cfg SMTPConfig, logger *zap.Logger) interfaces.Notifier {
	return &smtpNotifier{
		cfg:    cfg,
		logger: logger.Named("smtp_notifier"),
	}
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "second_factor_failed"}}
<p>Dear {{.Username}},</p>
<p>Someone entered your password correctly on {{.SiteName}} but failed the
second verification step. The attempt came from {{.Device}}.</p>
<p>If this was not you, your password may be known to someone else.
Please reset it as soon as possible.</p>
{{end}}

{{define "verification_link"}}
<p>Dear {{.Username}},</p>
<p>Welcome to {{.SiteName}}. Please confirm your email address by following
the link below within {{.ValidFor}}:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not create this account you can ignore this message.</p>
{{end}}

{{define "password_reset_link"}}
<p>Dear {{.Username}},</p>
<p>A password reset was requested for your {{.SiteName}} account. Follow the
link below within {{.ValidFor}} to choose a new password:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not request a reset you can ignore this message.</p>
{{end}}

{{define "password_changed"}}
<p>Dear {{.Username}},</p>
<p>The password for your {{.SiteName}} account has just been changed.</p>
<p>If this was not you, please contact support immediately.</p>
{{end}}

{{define "mfa_state_changed"}}
<p>Dear {{.Username}},</p>
{{if .Enabled}}
<p>Two-factor authentication has been switched on for your {{.SiteName}}
account.</p>
{{else}}
<p>Two-factor authentication has been switched off for your {{.SiteName}}
account. Your recovery codes and remembered devices have been discarded.</p>
{{end}}
<p>If you did not make this change, please contact support immediately.</p>
{{end}}
`))

func (n *smtpNotifier) render(name string, data any) (string, error) {
	var body bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("failed to render mail template %q: %w", name, err)
	}
	return body.String(), nil
}

func (n *smtpNotifier) send(ctx context.Context, kind, to, subject, body string) error {
	if err := n.deliver(ctx, to, subject, body); err != nil {
		metrics.EmailsSentTotal.WithLabelValues(kind, "failure").Inc()
		return err
	}
	metrics.EmailsSentTotal.WithLabelValues(kind, "success").Inc()
	n.logger.Info("email sent", zap.String("kind", kind), zap.String("subject", subject))
	return nil
}

func (n *smtpNotifier) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", n.cfg.From)
	fmt.Fprintf(&message, "To: %s\r\n", to)
	fmt.Fprintf(&message, "Subject: %s\r\n", subject)
	fmt.Fprintf(&message, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: n.cfg.Host})
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}
	if _, err := w.Write(message.Bytes()); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to quit SMTP session: %w", err)
	}
	return nil
}

func (n *smtpNotifier) SendSecondFactorFailedAlert(ctx context.Context, email, username string, fp models.DeviceFingerprint) error {
	body, err := n.render("second_factor_failed", struct {
		Username, SiteName, Device string
	}{username, n.cfg.SiteName, device.Describe(fp)})
	if err != nil {
		return err
	}
	return n.send(ctx, "second_factor_failed", email,
		"Security alert: failed verification attempt", body)
}

func (n *smtpNotifier) SendVerificationLink(ctx context.Context, email, username, link string, validFor time.Duration) error {
	body, err := n.render("verification_link", struct {
		Username, SiteName, Link, ValidFor string
	}{username, n.cfg.SiteName, link, formatDuration(validFor)})
	if err != nil {
		return err
	}
	return n.send(ctx, "verification_link", email, "Confirm your email address", body)
}

func (n *smtpNotifier) SendPasswordResetLink(ctx context.Context, email, username, link string, validFor time.Duration) error {
	body, err := n.render("password_reset_link", struct {
		Username, SiteName, Link, ValidFor string
	}{username, n.cfg.SiteName, link, formatDuration(validFor)})
	if err != nil {
		return err
	}
	return n.send(ctx, "password_reset_link", email, "Password reset request", body)
}

func (n *smtpNotifier) SendPasswordChanged(ctx context.Context, email, username string) error {
	body, err := n.render("password_changed", struct {
		Username, SiteName string
	}{username, n.cfg.SiteName})
	if err != nil {
		return err
	}
	return n.send(ctx, "password_changed", email, "Your password was changed", body)
}

func (n *smtpNotifier) SendMFAStateChanged(ctx context.Context, email, username string, enabled, keyVerified bool) error {
	body, err := n.render("mfa_state_changed", struct {
		Username, SiteName string
		Enabled            bool
	}{username, n.cfg.SiteName, enabled})
	if err != nil {
		return err
	}
	subject := "Two-factor authentication enabled"
	if !enabled {
		subject = "Two-factor authentication disabled"
	}
	return n.send(ctx, "mfa_state_changed", email, subject, body)
}

func formatDuration(d time.Duration) string {
	if d >= time.Hour {
		hours := int(d.Hours())
		if hours == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", hours)
	}
	minutes := int(d.Minutes())
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}

var _ interfaces.Notifier = (*smtpNotifier)(nil)
