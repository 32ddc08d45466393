package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// LogMailer 未配置 SMTP 时的兜底：只写日志
type LogMailer struct {
	Log *zap.Logger
}

func (l *LogMailer) Send(_ context.Context, m Message) error {
	l.Log.Info("outbound mail (log only)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body),
	)
	return nil
}

// ---------- 域事件邮件模板 ----------

func Welcome(username string) (subject, body string) {
	return "Welcome!",
		fmt.Sprintf("Hello, %s!\nYour account has been created successfully.", username)
}

func PetCreated(username, petName string) (subject, body string) {
	return "New pet added!",
		fmt.Sprintf("Hello, %s! Your pet %q has been added successfully.", username, petName)
}

func ViewMilestone(petName string, views int64) (subject, body string) {
	return fmt.Sprintf("%d views reached!", views),
		fmt.Sprintf("Your pet %s has reached %d views.", petName, views)
}

func NewPassword(username, password string) (subject, body string) {
	return "Your new password",
		fmt.Sprintf("Hello, %s!\nYour new password: %s", username, password)
}
