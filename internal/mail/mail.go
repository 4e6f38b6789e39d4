// Package mail sends transactional email for booking events.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"equiprent/internal/config"

	"github.com/mailersend/mailersend-go"
	"github.com/rs/zerolog"
)

// Message is a plain-text email.
type Message struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Dispatcher delivers a message through some transport.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// NewDispatcher builds the dispatcher selected by MAIL_DRIVER.
func NewDispatcher(cfg *config.Config, logger zerolog.Logger) (Dispatcher, error) {
	switch cfg.MailDriver {
	case config.MailDriverSMTP:
		return NewSMTPDispatcher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom, cfg.MailFromName), nil
	case config.MailDriverMailerSend:
		return NewMailerSendDispatcher(cfg.MailerSendAPIKey, cfg.MailFrom, cfg.MailFromName), nil
	case config.MailDriverLog, "":
		return NewLogDispatcher(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
	}
}

// LogDispatcher writes messages to the log instead of sending them.
type LogDispatcher struct {
	logger zerolog.Logger
}

func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With().Str("component", "mail").Logger()}
}

func (d *LogDispatcher) Send(_ context.Context, msg Message) error {
	d.logger.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.Body).
		Msg("email (log driver)")
	return nil
}

type SMTPDispatcher struct {
	addr     string
	auth     smtp.Auth
	from     string
	fromName string
}

func NewSMTPDispatcher(host string, port int, username, password, from, fromName string) *SMTPDispatcher {
	d := &SMTPDispatcher{
		addr:     host + ":" + strconv.Itoa(port),
		from:     from,
		fromName: fromName,
	}
	if username != "" {
		d.auth = smtp.PlainAuth("", username, password, host)
	}
	return d
}

func (d *SMTPDispatcher) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(d.addr, d.auth, d.from, []string{msg.To}, buildMIME(d.from, d.fromName, msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMIME(from, fromName string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", fromName, from)
	if msg.ToName != "" {
		fmt.Fprintf(&b, "To: %s <%s>\r\n", msg.ToName, msg.To)
	} else {
		fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

type MailerSendDispatcher struct {
	client   *mailersend.Mailersend
	from     string
	fromName string
}

func NewMailerSendDispatcher(apiKey, from, fromName string) *MailerSendDispatcher {
	return &MailerSendDispatcher{
		client:   mailersend.NewMailersend(apiKey),
		from:     from,
		fromName: fromName,
	}
}

func (d *MailerSendDispatcher) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	message := d.client.Email.NewMessage()
	message.SetFrom(mailersend.From{Name: d.fromName, Email: d.from})
	message.SetRecipients([]mailersend.Recipient{{Name: msg.ToName, Email: msg.To}})
	message.SetSubject(msg.Subject)
	message.SetText(msg.Body)

	if _, err := d.client.Email.Send(ctx, message); err != nil {
		return fmt.Errorf("mailersend send: %w", err)
	}
	return nil
}
