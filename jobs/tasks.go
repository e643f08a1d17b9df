package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending notification emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeSweepOverdue marks pending installments past due as overdue.
	TaskTypeSweepOverdue = "installments:sweep_overdue"
	// TaskTypeReminders enqueues reminder emails for upcoming due dates.
	TaskTypeReminders = "installments:reminders"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	SenderID int64  `json:"sender_id,omitempty"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewSweepOverdueTask constructs the nightly sweep task.
func NewSweepOverdueTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSweepOverdue, nil)
}

// RemindersPayload controls how far ahead reminders look.
type RemindersPayload struct {
	WindowDays int `json:"window_days"`
}

// NewRemindersTask constructs the reminder scan task.
func NewRemindersTask(payload RemindersPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeReminders, data), nil
}
