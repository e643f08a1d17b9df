package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/atrium-crm/atrium/internal/mailer"
)

// SendEmailJob delivers queued emails through the mailer.
type SendEmailJob struct {
	Mailer *mailer.Service
	Logger *slog.Logger
}

// NewSendEmailJob initialises the email delivery handler.
func NewSendEmailJob(svc *mailer.Service, logger *slog.Logger) *SendEmailJob {
	return &SendEmailJob{Mailer: svc, Logger: logger}
}

// Handle processes TaskTypeSendEmail tasks.
func (j *SendEmailJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Mailer == nil {
		return errors.New("send email: handler not configured")
	}
	var payload SendEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.To == "" {
		return asynq.SkipRetry
	}

	logger := j.logger()
	if _, err := j.Mailer.Send(ctx, payload.SenderID, mailer.Message{
		To:      payload.To,
		Subject: payload.Subject,
		Body:    payload.Body,
	}); err != nil {
		logger.Error("delivery failed", slog.String("to", payload.To), slog.Any("error", err))
		return err
	}
	logger.Info("email delivered", slog.String("to", payload.To), slog.String("subject", payload.Subject))
	return nil
}

func (j *SendEmailJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSendEmail))
	}
	return slog.Default().With(slog.String("job", TaskTypeSendEmail))
}
