package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/tartampluch/friendly-reminder/internal/config"
)

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier e-mails the digest as a multipart/alternative message.
type SMTPNotifier struct {
	Addr string
	Auth smtp.Auth
	From string
	To   []string

	// Send defaults to smtp.SendMail.
	Send SendMailFunc
}

// NewSMTPNotifier validates the settings and prepares PLAIN auth when a
// username is configured.
func NewSMTPNotifier(s config.SMTPSettings) (*SMTPNotifier, error) {
	if s.Host == "" || s.To == "" {
		return nil, errors.New(config.ErrSMTPConfig)
	}
	from := s.From
	if from == "" {
		from = config.DefaultFallbackEmail
	}

	n := &SMTPNotifier{
		Addr: net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		From: from,
		Send: smtp.SendMail,
	}
	for _, rcpt := range strings.Split(s.To, ",") {
		if rcpt = strings.TrimSpace(rcpt); rcpt != "" {
			n.To = append(n.To, rcpt)
		}
	}
	if s.Username != "" {
		n.Auth = smtp.PlainAuth("", s.Username, s.Password, s.Host)
	}
	return n, nil
}

// Notify implements Notifier.
func (n *SMTPNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIME(n.From, n.To, msg)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrNotifySend, err)
	}
	send := n.Send
	if send == nil {
		send = smtp.SendMail
	}
	if err := send(n.Addr, n.Auth, n.From, n.To, body); err != nil {
		return fmt.Errorf("%s: %w", config.ErrNotifySend, err)
	}
	return nil
}

func buildMIME(from string, to []string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=UTF-8", msg.Text},
		{config.MimeHTML, msg.HTML},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.contentType},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
