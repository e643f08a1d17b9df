package mailer

import (
	"fmt"
	"time"
)

// SendStatus records the outcome of a delivery attempt.
type SendStatus string

const (
	StatusPending SendStatus = "pending"
	StatusSent    SendStatus = "sent"
	StatusFailed  SendStatus = "failed"
)

// SMTPConfig is a user-owned SMTP server configuration.
type SMTPConfig struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Host      string    `json:"host"`
	Port      int       `json:"port"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	UseTLS    bool      `json:"use_tls"`
	UseSSL    bool      `json:"use_ssl"`
	FromEmail string    `json:"from_email"`
	IsActive  bool      `json:"is_active"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Addr returns the host:port dial address.
func (c SMTPConfig) Addr() string {
	host := c.Host
	if host == "" {
		host = "localhost"
	}
	port := c.Port
	if port == 0 {
		port = 587
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// EmailLog records a single send attempt.
type EmailLog struct {
	ID           int64      `json:"id"`
	Recipient    string     `json:"recipient"`
	Subject      string     `json:"subject"`
	Body         string     `json:"body,omitempty"`
	Status       SendStatus `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SMTPConfigID *int64     `json:"smtp_config_id,omitempty"`
	SentBy       int64      `json:"sent_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}
