package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/solutions-liquify/tms/internal/masterdata/employees"
	mdshared "github.com/solutions-liquify/tms/internal/masterdata/shared"
	"github.com/solutions-liquify/tms/internal/shared"
)

// EmployeeStore is the employee lookup auth depends on.
type EmployeeStore interface {
	Credentials(ctx context.Context, email string) (*employees.Credentials, error)
	Get(ctx context.Context, id string) (*employees.Employee, error)
}

// Service wraps authentication business rules.
type Service struct {
	employees EmployeeStore
	tokens    *Tokens
	refresh   *RefreshStore
	logger    *slog.Logger
}

// NewService constructs a new Service.
func NewService(store EmployeeStore, tokens *Tokens, refresh *RefreshStore, logger *slog.Logger) *Service {
	return &Service{employees: store, tokens: tokens, refresh: refresh, logger: logger}
}

// Tokens exposes the access token verifier for the bearer middleware.
func (s *Service) Tokens() *Tokens { return s.tokens }

// Login validates email/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	creds, err := s.employees.Credentials(ctx, email)
	if errors.Is(err, mdshared.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if creds.Status != mdshared.StatusActive {
		return nil, ErrInvalidCredentials
	}
	if err := employees.VerifyPassword(creds, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	s.logger.Info("employee logged in", slog.String("employee_id", creds.EmployeeID))
	return s.issue(ctx, shared.Principal{EmployeeID: creds.EmployeeID, Role: creds.Role})
}

// Refresh rotates the refresh token. The old token is consumed even when the
// employee turns out to be inactive.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	employeeID, err := s.refresh.Consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	emp, err := s.employees.Get(ctx, employeeID)
	if errors.Is(err, mdshared.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if emp.Status != mdshared.StatusActive {
		return nil, ErrInactiveEmployee
	}
	return s.issue(ctx, shared.Principal{EmployeeID: emp.ID, Role: emp.Role})
}

// Logout revokes the refresh token. Access tokens expire on their own.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.refresh.Revoke(ctx, refreshToken)
}

func (s *Service) issue(ctx context.Context, p shared.Principal) (*TokenPair, error) {
	access, exp, err := s.tokens.Issue(p)
	if err != nil {
		return nil, err
	}
	refresh, err := s.refresh.Issue(ctx, p.EmployeeID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: exp.Unix()}, nil
}
