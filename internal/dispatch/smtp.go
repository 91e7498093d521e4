package dispatch

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"io"

	mail "github.com/go-mail/mail"

	"github.com/dropDatabas3/certhub/internal/observability/logger"
)

// SMTPSender implementa Sender usando SMTP.
type SMTPSender struct {
	Host               string
	Port               int
	From               string
	User               string
	Pass               string
	TLSMode            string // "auto" | "starttls" | "ssl" | "none"
	InsecureSkipVerify bool
}

// NewSMTPSender crea un nuevo SMTPSender con los parámetros dados.
func NewSMTPSender(host string, port int, from, user, pass string) *SMTPSender {
	return &SMTPSender{
		Host:    host,
		Port:    port,
		From:    from,
		User:    user,
		Pass:    pass,
		TLSMode: "auto",
	}
}

// Send envía un mensaje, con adjunto e imagen inline opcionales.
func (s *SMTPSender) Send(m *Mail) error {
	log := logger.L().With(
		logger.String("component", "SMTPSender"),
		logger.String("host", s.Host),
		logger.Int("port", s.Port),
		logger.Email(m.To),
	)

	log.Debug("sending email",
		logger.String("from", s.From),
		logger.String("subject", m.Subject),
		logger.String("tls_mode", s.TLSMode),
	)

	msg := mail.NewMessage()
	msg.SetHeader("From", s.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)

	// Preferimos multipart/alternative (txt + html)
	if m.Text != "" {
		msg.SetBody("text/plain", m.Text)
	}
	if m.HTML != "" {
		if m.Text == "" {
			msg.SetBody("text/html", m.HTML)
		} else {
			msg.AddAlternative("text/html", m.HTML)
		}
	}

	if m.EmbedPath != "" {
		msg.Embed(m.EmbedPath)
	}
	if m.Attachment != nil {
		att := m.Attachment
		msg.Attach(att.Name, mail.SetCopyFunc(func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(att.Data))
			return err
		}))
	}

	d := mail.NewDialer(s.Host, s.Port, s.User, s.Pass)
	d.TLSConfig = &tls.Config{
		ServerName:         s.Host,
		InsecureSkipVerify: s.InsecureSkipVerify, // solo dev
	}

	switch s.TLSMode {
	case "ssl":
		d.SSL = true
	case "none":
		d.TLSConfig = &tls.Config{InsecureSkipVerify: s.InsecureSkipVerify}
	default:
		// "auto"/"starttls": go-mail negocia STARTTLS si corresponde
	}

	if err := d.DialAndSend(msg); err != nil {
		log.Error("smtp send failed", logger.Err(err))
		return fmt.Errorf("smtp send: %w", err)
	}

	log.Info("email sent successfully")
	return nil
}
