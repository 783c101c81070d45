// Package public serves the unauthenticated surface of a church site:
// display info, upcoming events and how to donate. A tenant must still be
// resolved; there is no cross-church view.
package public

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JuanEstebanAstaiza/ekklesia-admin/modules/events"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/logger"
	"github.com/JuanEstebanAstaiza/ekklesia-admin/pkg/tenantdb"
)

var (
	ErrNotConfigured = errors.New("public: church is not configured yet")

	// ErrContentNotFound covers both a missing page and a draft requested
	// through the public surface.
	ErrContentNotFound     = errors.New("public: content not found")
	ErrContentSlugTaken    = errors.New("public: a page with this slug already exists")
	ErrInvalidContentSlug  = errors.New("public: content slug must contain only lowercase letters, digits and hyphens")
	ErrInvalidContentType  = errors.New("public: unknown content type")
	ErrMissingContentTitle = errors.New("public: content title is required")
	ErrNoContentChanges    = errors.New("public: no fields to update")
)

// Config is the single church_config row. At most one exists per tenant.
type Config struct {
	Name              string `json:"name"`
	Address           string `json:"address,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Email             string `json:"email,omitempty"`
	LogoURL           string `json:"logo_url,omitempty"`
	BankName          string `json:"bank_name,omitempty"`
	BankAccount       string `json:"bank_account,omitempty"`
	BankAccountHolder string `json:"bank_account_holder,omitempty"`
}

// DonationInfo is the subset of the config a donor needs.
type DonationInfo struct {
	ChurchName        string `json:"church_name"`
	BankName          string `json:"bank_name,omitempty"`
	BankAccount       string `json:"bank_account,omitempty"`
	BankAccountHolder string `json:"bank_account_holder,omitempty"`
}

type Service struct {
	sessions *tenantdb.Sessions
	events   *events.Service
	log      *slog.Logger
}

func NewService(sessions *tenantdb.Sessions, events *events.Service, log *slog.Logger) *Service {
	return &Service{
		sessions: sessions,
		events:   events,
		log:      log.With(logger.Component("public")),
	}
}

func (s *Service) GetConfig(ctx context.Context) (*Config, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	var c Config
	err = db.QueryRow(ctx, `
		SELECT name, COALESCE(address, ''), COALESCE(phone, ''), COALESCE(email, ''),
			COALESCE(logo_url, ''), COALESCE(bank_name, ''), COALESCE(bank_account, ''),
			COALESCE(bank_account_holder, '')
		FROM church_config WHERE id = 1`).Scan(
		&c.Name, &c.Address, &c.Phone, &c.Email,
		&c.LogoURL, &c.BankName, &c.BankAccount, &c.BankAccountHolder)
	if tenantdb.IsNotFound(err) {
		return nil, ErrNotConfigured
	}
	if err != nil {
		return nil, fmt.Errorf("public: get config: %w", err)
	}
	return &c, nil
}

// UpdateConfig upserts the singleton row. Admin only; routed separately
// from the public reads.
func (s *Service) UpdateConfig(ctx context.Context, c Config) (*Config, error) {
	db, err := s.sessions.Pool(ctx)
	if err != nil {
		return nil, err
	}
	_, err = db.Exec(ctx, `
		INSERT INTO church_config (id, name, address, phone, email, logo_url,
			bank_name, bank_account, bank_account_holder)
		VALUES (1, $1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''),
			NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''))
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			address = EXCLUDED.address,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			logo_url = EXCLUDED.logo_url,
			bank_name = EXCLUDED.bank_name,
			bank_account = EXCLUDED.bank_account,
			bank_account_holder = EXCLUDED.bank_account_holder`,
		c.Name, c.Address, c.Phone, c.Email, c.LogoURL,
		c.BankName, c.BankAccount, c.BankAccountHolder)
	if err != nil {
		return nil, fmt.Errorf("public: update config: %w", err)
	}
	return s.GetConfig(ctx)
}

func (s *Service) DonationInfo(ctx context.Context) (*DonationInfo, error) {
	c, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return &DonationInfo{
		ChurchName:        c.Name,
		BankName:          c.BankName,
		BankAccount:       c.BankAccount,
		BankAccountHolder: c.BankAccountHolder,
	}, nil
}

func (s *Service) UpcomingEvents(ctx context.Context) ([]*events.Event, error) {
	return s.events.ListUpcoming(ctx)
}
