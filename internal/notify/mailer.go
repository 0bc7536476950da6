package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// MailerConfig はSMTP送信の設定。
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// SendRate は1秒あたりの最大送信数。0以下の場合は制限しない。
	SendRate float64
}

// sender はgomail.Dialerの送信部分。テストで差し替える。
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer はgomailでSMTP経由の通知を送信する。
// 送信はSendRateで平準化され、SMTPサーバーへの集中を避ける。
type Mailer struct {
	sender  sender
	from    string
	limiter *rate.Limiter
}

// NewMailer はMailerを生成する。
func NewMailer(cfg MailerConfig) *Mailer {
	return newMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, cfg.SendRate)
}

func newMailer(s sender, from string, sendRate float64) *Mailer {
	limit := rate.Inf
	if sendRate > 0 {
		limit = rate.Limit(sendRate)
	}
	return &Mailer{
		sender:  s,
		from:    from,
		limiter: rate.NewLimiter(limit, 1),
	}
}

const verificationSubject = "Verify your email address"

var verificationHTML = template.Must(template.New("verification").Parse(
	`<p>Hello {{.Username}},</p>
<p>Please confirm your email address by clicking the link below.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>This link expires at {{.Expires}}.</p>`))

// renderVerification はテキスト本文とHTML本文を生成する。
func renderVerification(msg VerificationMessage) (string, string, error) {
	expires := msg.ExpiresAt.UTC().Format(time.RFC1123)

	text := fmt.Sprintf("Hello %s,\n\nPlease confirm your email address by opening the link below.\n\n%s\n\nThis link expires at %s.\n",
		msg.Username, msg.Link, expires)

	var buf bytes.Buffer
	err := verificationHTML.Execute(&buf, map[string]string{
		"Username": msg.Username,
		"Link":     msg.Link,
		"Expires":  expires,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to render verification mail: %w", err)
	}
	return text, buf.String(), nil
}

// SendVerification は検証リンクを含むメールを送信する。
func (m *Mailer) SendVerification(ctx context.Context, msg VerificationMessage) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail send rate wait: %w", err)
	}

	text, html, err := renderVerification(msg)
	if err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", verificationSubject)
	gm.SetBody("text/plain", text)
	gm.AddAlternative("text/html", html)

	if err := m.sender.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send verification mail: %w", err)
	}

	slog.InfoContext(ctx, "verification mail sent", slog.String("to", msg.To))
	return nil
}

var _ Notifier = (*Mailer)(nil)
