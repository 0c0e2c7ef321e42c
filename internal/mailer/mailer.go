// Package mailer delivers transactional email through SendGrid, or to the
// log in development.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	"healthcare-portal-server/internal/config"
	"healthcare-portal-server/internal/logger"
)

// Mailer sends a single HTML email.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// New picks the transport named in cfg.
func New(cfg config.MailerConfig, appName string, log *logger.Logger) (Mailer, error) {
	switch cfg.Transport {
	case "sendgrid":
		if cfg.SendGridAPIKey == "" {
			return nil, errors.New("SENDGRID_API_KEY is required for the sendgrid transport")
		}
		return NewSendGridMailer(cfg.SendGridAPIKey, appName, cfg.DefaultFrom), nil
	case "log", "":
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.Transport)
	}
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	client   sendClient
	fromName string
	fromAddr string
}

// NewSendGridMailer creates a new SendGridMailer.
func NewSendGridMailer(apiKey, fromName, fromAddr string) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
	}
}

func (m *SendGridMailer) SendEmail(ctx context.Context, to, subject, htmlBody string) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	msg := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), "", htmlBody)

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer creates a new LogMailer.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

// SendEmail logs the recipient and subject. The body carries one-time codes
// and is only logged at debug level.
func (m *LogMailer) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	entry := m.log.WithComponent("mailer").WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	})
	entry.Info("Email not sent (log transport)")
	entry.WithField("body", htmlBody).Debug("Email body")
	return nil
}

// SentEmail records a single call to Recorder.SendEmail.
type SentEmail struct {
	To      string
	Subject string
	Body    string
}

// Recorder is an in-memory Mailer for tests.
type Recorder struct {
	mu     sync.Mutex
	sent   []SentEmail
	Err    error
	notify chan struct{}
}

// NewRecorder creates a Recorder. When Err is set SendEmail records the
// call and then fails with it.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 64)}
}

func (r *Recorder) SendEmail(_ context.Context, to, subject, htmlBody string) error {
	r.mu.Lock()
	r.sent = append(r.sent, SentEmail{To: to, Subject: subject, Body: htmlBody})
	err := r.Err
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return err
}

// Sent returns a copy of the recorded emails.
func (r *Recorder) Sent() []SentEmail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentEmail, len(r.sent))
	copy(out, r.sent)
	return out
}

// Notify receives one value per SendEmail call.
func (r *Recorder) Notify() <-chan struct{} {
	return r.notify
}
