package email

import (
	"context"
	"time"

	"crm-support/internal/config"

	"go.uber.org/zap"
)

// Mailer is the notification sender contract used by the ticket engine.
// Implementations must not be relied on for correctness of a state
// transition; callers dispatch and move on.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error

	// Dispatch sends in the background. Failures are logged, never returned,
	// so a slow or broken mail provider cannot fail a committed transition.
	Dispatch(to, subject, body string)
}

type EmailServiceImpl struct {
	Config *config.Config
	Repo   *EmailRepository
	Logger *zap.Logger
}

func NewEmailService(cfg *config.Config, repo *EmailRepository, logger *zap.Logger) Mailer {
	return &EmailServiceImpl{
		Config: cfg,
		Repo:   repo,
		Logger: logger,
	}
}

func (s *EmailServiceImpl) Send(ctx context.Context, to, subject, body string) error {
	record := &Email{
		From:    s.Config.FromEmail,
		To:      []string{to},
		Subject: subject,
		Body:    body,
		Status:  EmailQueued,
	}

	if s.Repo != nil {
		_ = s.Repo.Create(ctx, record)
	}

	err := SendSMTP(SMTPConfig{
		Host:     s.Config.SMTPHost,
		Port:     s.Config.SMTPPort,
		Username: s.Config.SMTPUser,
		Password: s.Config.SMTPPassword,
		From:     s.Config.FromEmail,
	}, []string{to}, subject, body)

	status := EmailSent
	errMsg := ""
	if err != nil {
		status = EmailFailed
		errMsg = err.Error()
	}

	if s.Repo != nil {
		_ = s.Repo.UpdateStatus(ctx, record.ID, status, errMsg)
	}

	return err
}

func (s *EmailServiceImpl) Dispatch(to, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.Send(ctx, to, subject, body); err != nil {
			s.Logger.Warn("email delivery failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.Error(err),
			)
		}
	}()
}
