package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Dialer delivers a composed message through an SMTP server.
type Dialer interface {
	Send(cfg SMTPConfig, msg Message) error
}

// SMTPDialer talks to a real SMTP server.
type SMTPDialer struct{}

// Send delivers the message with net/smtp.
func (SMTPDialer) Send(cfg SMTPConfig, msg Message) error {
	var auth smtp.Auth
	if cfg.Username != "" {
		host := cfg.Host
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, host)
	}
	payload := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n",
		cfg.FromEmail, msg.To, msg.Subject, msg.Body))
	return smtp.SendMail(cfg.Addr(), auth, cfg.FromEmail, []string{msg.To}, payload)
}

// Service sends notification emails and records every attempt.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	dialer   Dialer
	fallback SMTPConfig
	printer  *message.Printer
}

// NewService constructs the service. The fallback config is used when the
// sender has no active SMTP configuration of their own.
func NewService(logger *slog.Logger, repo RepositoryPort, dialer Dialer, fallback SMTPConfig) *Service {
	if dialer == nil {
		dialer = SMTPDialer{}
	}
	return &Service{
		logger:   logger,
		repo:     repo,
		dialer:   dialer,
		fallback: fallback,
		printer:  message.NewPrinter(language.English),
	}
}

// Send delivers one message and writes an EmailLog row for the attempt.
// A delivery failure is recorded and returned, never panicking upstream
// writes.
func (s *Service) Send(ctx context.Context, senderID int64, msg Message) (*EmailLog, error) {
	cfg := s.fallback
	var configID *int64
	if senderID != 0 {
		if own, err := s.repo.ActiveConfig(ctx, senderID); err == nil {
			cfg = *own
			configID = &own.ID
		} else if !errors.Is(err, ErrConfigNotFound) {
			return nil, err
		}
	}

	entry, err := s.repo.CreateLog(ctx, EmailLog{
		Recipient:    msg.To,
		Subject:      msg.Subject,
		Body:         msg.Body,
		Status:       StatusPending,
		SMTPConfigID: configID,
		SentBy:       senderID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.dialer.Send(cfg, msg); err != nil {
		s.logger.Error("email delivery failed", "recipient", msg.To, "error", err)
		entry.Status = StatusFailed
		entry.ErrorMessage = err.Error()
		if logErr := s.repo.UpdateLogStatus(ctx, entry.ID, StatusFailed, err.Error()); logErr != nil {
			s.logger.Error("update email log failed", "error", logErr)
		}
		return entry, err
	}

	entry.Status = StatusSent
	if err := s.repo.UpdateLogStatus(ctx, entry.ID, StatusSent, ""); err != nil {
		s.logger.Error("update email log failed", "error", err)
	}
	return entry, nil
}

// ReminderMessage composes a payment reminder for an upcoming due date.
func (s *Service) ReminderMessage(to, projectTitle, installmentTitle string, amount float64, dueDate time.Time) Message {
	subject := fmt.Sprintf("Payment reminder: %s", installmentTitle)
	body := s.printer.Sprintf(
		"Hello,\n\nThis is a reminder that the payment %q for project %q (%.2f) is due on %s.\n\nBest regards,\nAtrium",
		installmentTitle, projectTitle, amount, dueDate.Format("2 January 2006"))
	return Message{To: to, Subject: subject, Body: body}
}

// OverdueMessage composes an overdue notice after the nightly sweep.
func (s *Service) OverdueMessage(to, projectTitle, installmentTitle string, amount float64, dueDate time.Time) Message {
	subject := fmt.Sprintf("Payment overdue: %s", installmentTitle)
	body := s.printer.Sprintf(
		"Hello,\n\nThe payment %q for project %q (%.2f) was due on %s and is now overdue.\n\nBest regards,\nAtrium",
		installmentTitle, projectTitle, amount, dueDate.Format("2 January 2006"))
	return Message{To: to, Subject: subject, Body: body}
}

// Logs returns a page of email logs.
func (s *Service) Logs(ctx context.Context, page, perPage int) ([]EmailLog, int, error) {
	return s.repo.ListLogs(ctx, page, perPage)
}
