package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogMailer пишет письма в лог вместо отправки. Используется, когда адрес релея не задан.
type LogMailer struct {
	l *logrus.Entry
}

func NewLogMailer(l *logrus.Logger) LogMailer {
	return LogMailer{l: l.WithFields(logrus.Fields{
		"component": "mailer",
		"module":    "log",
	})}
}

func (m LogMailer) Send(_ context.Context, to, subject, text string) error {
	m.l.WithFields(logrus.Fields{"to": to, "subject": subject}).Info(text)
	return nil
}

func (m LogMailer) SendHTML(_ context.Context, to, subject, html string) error {
	m.l.WithFields(logrus.Fields{"to": to, "subject": subject, "bytes": len(html)}).Info("html message")
	return nil
}
