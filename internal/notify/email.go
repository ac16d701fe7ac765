package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"kirana-oms/internal/apperr"
	"kirana-oms/internal/logger"

	"go.uber.org/zap"
)

type smtpEmailSender struct {
	host string
	port string
	user string
	pass string
	from string
}

func NewSMTPEmailSender(host, port, user, pass, from string) EmailSender {
	return &smtpEmailSender{host: host, port: port, user: user, pass: pass, from: from}
}

func (s *smtpEmailSender) Send(ctx context.Context, to, subject, html string) error {
	log := logger.FromCtx(ctx).With(zap.String("to", to), zap.String("subject", subject))

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, html,
	)

	auth := smtp.PlainAuth("", s.user, s.pass, s.host)
	if err := smtp.SendMail(s.host+":"+s.port, auth, s.from, []string{to}, []byte(msg)); err != nil {
		log.Warn("email send failed", zap.Error(err))
		return apperr.Wrap(apperr.KindExternal, "smtp send failed", err)
	}

	return nil
}
