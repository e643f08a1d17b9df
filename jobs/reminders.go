package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/mailer"
	"github.com/atrium-crm/atrium/internal/shared"
)

// RemindersJob scans for installments due soon and queues reminder emails
// to the owning client.
type RemindersJob struct {
	Pool   *pgxpool.Pool
	Client *Client
	Mailer *mailer.Service
	Logger *slog.Logger
	Clock  shared.Clock
}

// NewRemindersJob initialises the reminder scan handler.
func NewRemindersJob(pool *pgxpool.Pool, client *Client, svc *mailer.Service, logger *slog.Logger, clock shared.Clock) *RemindersJob {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &RemindersJob{Pool: pool, Client: client, Mailer: svc, Logger: logger, Clock: clock}
}

type upcomingInstallment struct {
	Title        string
	Amount       float64
	DueDate      time.Time
	ProjectTitle string
	ClientEmail  string
}

// Handle executes the reminder scan.
func (j *RemindersJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil || j.Client == nil || j.Mailer == nil {
		return errors.New("reminders: handler not configured")
	}
	var payload RemindersPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	if payload.WindowDays <= 0 {
		payload.WindowDays = 3
	}

	logger := j.logger().With(slog.Int("window_days", payload.WindowDays))
	start := time.Now()
	today := shared.Today(j.Clock)
	until := today.AddDate(0, 0, payload.WindowDays)

	upcoming, err := j.scan(ctx, today, until)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	queued := 0
	for _, row := range upcoming {
		msg := j.Mailer.ReminderMessage(row.ClientEmail, row.ProjectTitle, row.Title, row.Amount, row.DueDate)
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      msg.To,
			Subject: msg.Subject,
			Body:    msg.Body,
		}); err != nil {
			logger.Error("enqueue reminder failed", slog.String("to", row.ClientEmail), slog.Any("error", err))
			continue
		}
		queued++
	}

	logger.Info("completed reminder scan",
		slog.Int("upcoming", len(upcoming)),
		slog.Int("queued", queued),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *RemindersJob) scan(ctx context.Context, from, until time.Time) ([]upcomingInstallment, error) {
	rows, err := j.Pool.Query(ctx, `SELECT i.title, i.amount, i.due_date, p.title, c.email
FROM payment_installments i
JOIN projects p ON p.id = i.project_id
JOIN clients c ON c.id = p.client_id
WHERE i.status = 'pending' AND i.due_date >= $1 AND i.due_date <= $2 AND c.email <> ''
ORDER BY i.due_date`, from, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []upcomingInstallment
	for rows.Next() {
		var row upcomingInstallment
		if err := rows.Scan(&row.Title, &row.Amount, &row.DueDate, &row.ProjectTitle, &row.ClientEmail); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (j *RemindersJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeReminders))
	}
	return slog.Default().With(slog.String("job", TaskTypeReminders))
}
