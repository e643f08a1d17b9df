package mailer

import (
	"context"
	"fmt"

	"github.com/atrium-crm/atrium/internal/platform/httpx"
)

// ConfigInput captures the fields accepted for an SMTP configuration.
type ConfigInput struct {
	Name      string
	Host      string
	Port      int
	Username  string
	Password  string
	UseTLS    bool
	UseSSL    bool
	FromEmail string
	IsActive  bool
}

// CreateConfig stores a new SMTP configuration owned by the caller.
func (s *Service) CreateConfig(ctx context.Context, ownerID int64, in ConfigInput) (*SMTPConfig, error) {
	if in.Host == "" || in.FromEmail == "" {
		return nil, fmt.Errorf("%w: host and from_email are required", httpx.ErrValidation)
	}
	if in.Port == 0 {
		in.Port = 587
	}
	return s.repo.CreateConfig(ctx, SMTPConfig{
		Name:      in.Name,
		Host:      in.Host,
		Port:      in.Port,
		Username:  in.Username,
		Password:  in.Password,
		UseTLS:    in.UseTLS,
		UseSSL:    in.UseSSL,
		FromEmail: in.FromEmail,
		IsActive:  in.IsActive,
		CreatedBy: ownerID,
	})
}

// Configs lists the caller's SMTP configurations.
func (s *Service) Configs(ctx context.Context, ownerID int64) ([]SMTPConfig, error) {
	return s.repo.ListConfigs(ctx, ownerID)
}

// UpdateConfig overwrites a configuration the caller owns.
func (s *Service) UpdateConfig(ctx context.Context, ownerID, id int64, in ConfigInput) (*SMTPConfig, error) {
	current, err := s.ownedConfig(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Host == "" || in.FromEmail == "" {
		return nil, fmt.Errorf("%w: host and from_email are required", httpx.ErrValidation)
	}
	if in.Port == 0 {
		in.Port = 587
	}

	current.Name = in.Name
	current.Host = in.Host
	current.Port = in.Port
	current.Username = in.Username
	if in.Password != "" {
		current.Password = in.Password
	}
	current.UseTLS = in.UseTLS
	current.UseSSL = in.UseSSL
	current.FromEmail = in.FromEmail
	current.IsActive = in.IsActive

	if err := s.repo.UpdateConfig(ctx, *current); err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteConfig removes a configuration the caller owns.
func (s *Service) DeleteConfig(ctx context.Context, ownerID, id int64) error {
	if _, err := s.ownedConfig(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteConfig(ctx, id)
}

func (s *Service) ownedConfig(ctx context.Context, ownerID, id int64) (*SMTPConfig, error) {
	cfg, err := s.repo.GetConfig(ctx, id)
	if err != nil {
		return nil, err
	}
	if cfg.CreatedBy != ownerID {
		return nil, fmt.Errorf("%w: not the owner of this configuration", httpx.ErrForbidden)
	}
	return cfg, nil
}
