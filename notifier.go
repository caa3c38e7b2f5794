package signup

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig holds the mail transport credentials. Loaded once at process
// start and never echoed into request or response payloads.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPNotifier delivers verification codes over plain SMTP with AUTH.
type SMTPNotifier struct {
	cfg    SMTPConfig
	logger Logger
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		cfg:    cfg,
		logger: defLogger{},
	}
}

func (n *SMTPNotifier) WithLogger(logger Logger) *SMTPNotifier {
	if logger != nil {
		n.logger = logger
	}
	return n
}

// Deliver sends a human-readable message containing the code and its
// validity window. Best effort: callers treat a failure as a warning.
func (n *SMTPNotifier) Deliver(ctx context.Context, address, code string, ttl time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	from := n.cfg.From
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.cfg.FromName, n.cfg.From)
	}

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + address + "\r\n")
	msg.WriteString("Subject: Verify your account\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	fmt.Fprintf(&msg, "<h3>Your OTP is: %s</h3><p>Valid for %d minutes</p>\r\n", code, int(ttl.Minutes()))

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)

	if err := smtp.SendMail(addr, auth, n.cfg.From, []string{address}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", address, err)
	}

	n.logger.Debug("verification code delivered", "to", address)
	return nil
}

var _ Notifier = (*SMTPNotifier)(nil)

type noopNotifier struct{}

func (noopNotifier) Deliver(ctx context.Context, address, code string, ttl time.Duration) error {
	return nil
}
