package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-crm/atrium/internal/installments"
	"github.com/atrium-crm/atrium/internal/mailer"
	"github.com/atrium-crm/atrium/internal/shared"
)

// SweepOverdueJob flips pending installments past their due date to overdue
// and queues an overdue notice for each freshly flipped installment.
type SweepOverdueJob struct {
	Service *installments.Service
	Pool    *pgxpool.Pool
	Client  *Client
	Mailer  *mailer.Service
	Logger  *slog.Logger
	Clock   shared.Clock
}

// NewSweepOverdueJob initialises the overdue sweep handler.
func NewSweepOverdueJob(service *installments.Service, pool *pgxpool.Pool, client *Client, svc *mailer.Service, logger *slog.Logger, clock shared.Clock) *SweepOverdueJob {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &SweepOverdueJob{Service: service, Pool: pool, Client: client, Mailer: svc, Logger: logger, Clock: clock}
}

type overdueInstallment struct {
	Title        string
	Amount       float64
	DueDate      time.Time
	ProjectTitle string
	ClientEmail  string
}

// Handle executes the sweep. Safe to run redundantly.
func (j *SweepOverdueJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("sweep overdue: handler not configured")
	}
	logger := j.logger()
	start := time.Now()

	count, err := j.Service.SweepOverdue(ctx)
	if err != nil {
		logger.Error("sweep failed", slog.Any("error", err))
		return err
	}

	queued := 0
	if count > 0 && j.Pool != nil && j.Client != nil && j.Mailer != nil {
		queued, err = j.notify(ctx, logger)
		if err != nil {
			logger.Error("overdue notice scan failed", slog.Any("error", err))
		}
	}

	logger.Info("completed overdue sweep",
		slog.Int64("marked", count),
		slog.Int("notices_queued", queued),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// notify queues overdue notices for installments that became overdue since
// the previous daily run.
func (j *SweepOverdueJob) notify(ctx context.Context, logger *slog.Logger) (int, error) {
	today := shared.Today(j.Clock)
	since := today.AddDate(0, 0, -1)

	rows, err := j.Pool.Query(ctx, `SELECT i.title, i.amount, i.due_date, p.title, c.email
FROM payment_installments i
JOIN projects p ON p.id = i.project_id
JOIN clients c ON c.id = p.client_id
WHERE i.status = 'overdue' AND i.due_date >= $1 AND i.due_date < $2 AND c.email <> ''
ORDER BY i.due_date`, since, today)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var flipped []overdueInstallment
	for rows.Next() {
		var row overdueInstallment
		if err := rows.Scan(&row.Title, &row.Amount, &row.DueDate, &row.ProjectTitle, &row.ClientEmail); err != nil {
			return 0, err
		}
		flipped = append(flipped, row)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	queued := 0
	for _, row := range flipped {
		msg := j.Mailer.OverdueMessage(row.ClientEmail, row.ProjectTitle, row.Title, row.Amount, row.DueDate)
		if _, err := j.Client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      msg.To,
			Subject: msg.Subject,
			Body:    msg.Body,
		}); err != nil {
			logger.Error("enqueue overdue notice failed", slog.String("to", row.ClientEmail), slog.Any("error", err))
			continue
		}
		queued++
	}
	return queued, nil
}

func (j *SweepOverdueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskTypeSweepOverdue))
	}
	return slog.Default().With(slog.String("job", TaskTypeSweepOverdue))
}
