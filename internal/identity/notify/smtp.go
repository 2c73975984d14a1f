package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/identity/pkg/retry"
)

type SMTPConfig struct {
	Host     string        `env:"HOST"`
	Port     int           `env:"PORT" envDefault:"587"`
	Username string        `env:"USERNAME"`
	Password string        `env:"PASSWORD"`
	From     string        `env:"FROM"`
	FromName string        `env:"FROM_NAME" envDefault:"Identity"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"15s"`
	// InsecureSkipTLS disables STARTTLS, for local mail catchers only.
	InsecureSkipTLS bool `env:"INSECURE_SKIP_TLS"`
}

// SMTPMailer delivers mail over SMTP with STARTTLS when offered.
type SMTPMailer struct {
	sender
	cfg SMTPConfig
}

func NewSMTPMailer(cfg SMTPConfig, subjects Subjects) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	m := &SMTPMailer{cfg: cfg}
	m.sender = sender{subjects: subjects, send: m.send}
	return m
}

func (m *SMTPMailer) send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("notify: smtp dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return classifySMTP(fmt.Errorf("notify: smtp handshake: %w", err))
	}
	defer func() { _ = c.Close() }()

	if !m.cfg.InsecureSkipTLS {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
				return classifySMTP(fmt.Errorf("notify: starttls: %w", err))
			}
		}
	}
	if m.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)); err != nil {
			return classifySMTP(fmt.Errorf("notify: smtp auth: %w", err))
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return classifySMTP(fmt.Errorf("notify: smtp mail from: %w", err))
	}
	if err := c.Rcpt(msg.To); err != nil {
		return classifySMTP(fmt.Errorf("notify: smtp rcpt: %w", err))
	}

	w, err := c.Data()
	if err != nil {
		return classifySMTP(fmt.Errorf("notify: smtp data: %w", err))
	}
	if _, err := w.Write(m.compose(msg)); err != nil {
		_ = w.Close()
		return classifySMTP(fmt.Errorf("notify: smtp write: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifySMTP(fmt.Errorf("notify: smtp data close: %w", err))
	}
	return c.Quit()
}

func (m *SMTPMailer) compose(msg Message) []byte {
	return []byte(strings.Join([]string{
		fmt.Sprintf("From: %s <%s>", m.cfg.FromName, m.cfg.From),
		"To: " + msg.To,
		"Subject: " + msg.Subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		msg.Body,
	}, "\r\n"))
}

// classifySMTP marks 4xx replies and connection failures as transient. 5xx
// replies are permanent.
func classifySMTP(err error) error {
	var te *textproto.Error
	if errors.As(err, &te) {
		if te.Code >= 400 && te.Code < 500 {
			return retry.Transient(err)
		}
		return err
	}
	if retry.IsTransient(err) {
		return err
	}
	return retry.Transient(err)
}
