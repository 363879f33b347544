package automation

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"path/filepath"
	"strings"

	"go-dashboard/internal/config"
	"go-dashboard/internal/models"

	"go.uber.org/zap"
)

// Export is one rendered scheduled export ready to be sent.
type Export struct {
	Automation models.Automation
	Dashboard  string
	FileName   string
	Content    []byte
}

type Delivery interface {
	Deliver(ctx context.Context, export Export) error
}

// NewDelivery mails exports when SMTP is configured and only logs them otherwise.
func NewDelivery(cfg *config.Config, logger *zap.Logger) Delivery {
	if cfg.SMTPHost == "" {
		return &LogDelivery{logger: logger}
	}
	return &MailDelivery{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
		logger:   logger,
		send:     smtp.SendMail,
	}
}

type LogDelivery struct {
	logger *zap.Logger
}

func (d *LogDelivery) Deliver(ctx context.Context, export Export) error {
	d.logger.Info("Scheduled export ready",
		zap.String("automation", export.Automation.Identity.Ref().String()),
		zap.Strings("recipients", export.Automation.Recipients),
		zap.String("file", export.FileName),
		zap.Int("size", len(export.Content)),
	)
	return nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailDelivery struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	logger *zap.Logger
	send   sendFunc
}

func (d *MailDelivery) Deliver(ctx context.Context, export Export) error {
	to := export.Automation.Recipients
	if len(to) == 0 {
		return errors.New("scheduled export has no recipients")
	}
	if d.Host == "" || d.Port == 0 {
		return errors.New("invalid mail configuration: missing host or port")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := d.From
	if from == "" {
		from = d.User
	}
	var auth smtp.Auth
	if d.User != "" {
		auth = smtp.PlainAuth("", d.User, d.Password, d.Host)
	}

	subject := export.Automation.Title
	if subject == "" {
		subject = export.Dashboard
	}
	body := fmt.Sprintf("Scheduled export of dashboard %q is attached.", export.Dashboard)
	msg := buildMessage(from, to, subject, body, export.FileName, export.Content)

	addr := fmt.Sprintf("%s:%d", d.Host, d.Port)
	d.logger.Debug("Sending scheduled export", zap.Strings("to", to), zap.String("addr", addr))
	if err := d.send(addr, auth, from, to, msg); err != nil {
		return fmt.Errorf("failed to send scheduled export: %w", err)
	}
	return nil
}

const boundary = "GoDashboardExport"

func buildMessage(from string, to []string, subject, body, attachmentName string, attachment []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	if len(attachment) > 0 {
		contentType := mime.TypeByExtension(filepath.Ext(attachmentName))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s\r\n", contentType)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=\"%s\"\r\n", attachmentName)
		buf.WriteString("\r\n")

		encoded := base64.StdEncoding.EncodeToString(attachment)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes()
}
