package mailer

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

type memoryMailRepo struct {
	configs   map[int64]*SMTPConfig
	logs      map[int64]*EmailLog
	nextID    int64
	nextLogID int64
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newMemoryMailRepo() *memoryMailRepo {
	return &memoryMailRepo{
		configs: make(map[int64]*SMTPConfig),
		logs:    make(map[int64]*EmailLog),
	}
}

func (r *memoryMailRepo) CreateConfig(_ context.Context, c SMTPConfig) (*SMTPConfig, error) {
	r.nextID++
	c.ID = r.nextID
	r.configs[c.ID] = &c
	copied := c
	return &copied, nil
}

func (r *memoryMailRepo) GetConfig(_ context.Context, id int64) (*SMTPConfig, error) {
	c, ok := r.configs[id]
	if !ok {
		return nil, ErrConfigNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *memoryMailRepo) ActiveConfig(_ context.Context, ownerID int64) (*SMTPConfig, error) {
	for _, c := range r.configs {
		if c.CreatedBy == ownerID && c.IsActive {
			copied := *c
			return &copied, nil
		}
	}
	return nil, ErrConfigNotFound
}

func (r *memoryMailRepo) UpdateConfig(_ context.Context, c SMTPConfig) error {
	if _, ok := r.configs[c.ID]; !ok {
		return ErrConfigNotFound
	}
	r.configs[c.ID] = &c
	return nil
}

func (r *memoryMailRepo) DeleteConfig(_ context.Context, id int64) error {
	if _, ok := r.configs[id]; !ok {
		return ErrConfigNotFound
	}
	delete(r.configs, id)
	return nil
}

func (r *memoryMailRepo) ListConfigs(_ context.Context, ownerID int64) ([]SMTPConfig, error) {
	var out []SMTPConfig
	for _, c := range r.configs {
		if c.CreatedBy == ownerID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memoryMailRepo) CreateLog(_ context.Context, l EmailLog) (*EmailLog, error) {
	r.nextLogID++
	l.ID = r.nextLogID
	r.logs[l.ID] = &l
	copied := l
	return &copied, nil
}

func (r *memoryMailRepo) UpdateLogStatus(_ context.Context, id int64, status SendStatus, errMsg string) error {
	l, ok := r.logs[id]
	if !ok {
		return errors.New("log not found")
	}
	l.Status = status
	l.ErrorMessage = errMsg
	return nil
}

func (r *memoryMailRepo) ListLogs(_ context.Context, _, _ int) ([]EmailLog, int, error) {
	var out []EmailLog
	for _, l := range r.logs {
		out = append(out, *l)
	}
	return out, len(out), nil
}

type stubDialer struct {
	err      error
	lastCfg  SMTPConfig
	lastMsg  Message
	attempts int
}

func (d *stubDialer) Send(cfg SMTPConfig, msg Message) error {
	d.attempts++
	d.lastCfg = cfg
	d.lastMsg = msg
	return d.err
}

func newTestMailer(repo *memoryMailRepo, dialer *stubDialer) *Service {
	fallback := SMTPConfig{Host: "smtp.fallback.test", Port: 25, FromEmail: "noreply@atrium.test"}
	return NewService(slog.Default(), repo, dialer, fallback)
}

func TestSendRecordsSuccess(t *testing.T) {
	repo := newMemoryMailRepo()
	dialer := &stubDialer{}
	svc := newTestMailer(repo, dialer)

	entry, err := svc.Send(context.Background(), 0, Message{To: "a@b.test", Subject: "hi", Body: "hello"})
	require.NoError(t, err)
	require.Equal(t, StatusSent, entry.Status)
	require.Equal(t, "smtp.fallback.test", dialer.lastCfg.Host)
	require.Equal(t, StatusSent, repo.logs[entry.ID].Status)
}

func TestSendRecordsFailure(t *testing.T) {
	repo := newMemoryMailRepo()
	dialer := &stubDialer{err: errors.New("connection refused")}
	svc := newTestMailer(repo, dialer)

	entry, err := svc.Send(context.Background(), 0, Message{To: "a@b.test", Subject: "hi", Body: "hello"})
	require.Error(t, err)
	require.Equal(t, StatusFailed, entry.Status)
	require.Equal(t, "connection refused", entry.ErrorMessage)
	require.Equal(t, StatusFailed, repo.logs[entry.ID].Status)
}

func TestSendPrefersSenderConfig(t *testing.T) {
	repo := newMemoryMailRepo()
	dialer := &stubDialer{}
	svc := newTestMailer(repo, dialer)

	cfg, err := svc.CreateConfig(context.Background(), 7, ConfigInput{
		Host: "smtp.own.test", FromEmail: "me@own.test", IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, 587, cfg.Port)

	entry, err := svc.Send(context.Background(), 7, Message{To: "a@b.test", Subject: "hi", Body: "hello"})
	require.NoError(t, err)
	require.Equal(t, "smtp.own.test", dialer.lastCfg.Host)
	require.NotNil(t, entry.SMTPConfigID)
	require.Equal(t, cfg.ID, *entry.SMTPConfigID)
}

func TestConfigOwnership(t *testing.T) {
	repo := newMemoryMailRepo()
	svc := newTestMailer(repo, &stubDialer{})

	cfg, err := svc.CreateConfig(context.Background(), 7, ConfigInput{
		Host: "smtp.own.test", FromEmail: "me@own.test", Password: "secret",
	})
	require.NoError(t, err)

	_, err = svc.UpdateConfig(context.Background(), 8, cfg.ID, ConfigInput{
		Host: "smtp.own.test", FromEmail: "me@own.test",
	})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	require.ErrorIs(t, svc.DeleteConfig(context.Background(), 8, cfg.ID), httpx.ErrForbidden)

	// An empty password on update keeps the stored one.
	updated, err := svc.UpdateConfig(context.Background(), 7, cfg.ID, ConfigInput{
		Host: "smtp.other.test", FromEmail: "me@own.test",
	})
	require.NoError(t, err)
	require.Equal(t, "secret", updated.Password)
	require.Equal(t, "smtp.other.test", updated.Host)
}

func TestReminderMessageFormatsAmount(t *testing.T) {
	svc := newTestMailer(newMemoryMailRepo(), &stubDialer{})

	msg := svc.ReminderMessage("a@b.test", "Webshop", "Final payment", 12500, date(2024, 4, 1))
	require.Equal(t, "Payment reminder: Final payment", msg.Subject)
	require.Contains(t, msg.Body, "12,500.00")
	require.Contains(t, msg.Body, "1 April 2024")
}
