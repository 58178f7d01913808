package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// Service provides employee business logic.
type Service struct {
	repo     Repository
	logger   *slog.Logger
	hashCost int
	now      func() time.Time
}

// NewService creates an employee service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, hashCost: bcrypt.DefaultCost, now: time.Now}
}

// SetHashCost overrides the bcrypt cost.
func (s *Service) SetHashCost(cost int) { s.hashCost = cost }

// Create stores a new active employee. Without a password the employee
// cannot log in until one is set through Update.
func (s *Service) Create(ctx context.Context, e Employee) (*Employee, error) {
	hash, err := s.hash(e.Password)
	if err != nil {
		return nil, err
	}
	normalize(&e)
	now := s.now().Unix()
	e.ID = uuid.NewString()
	e.Status = shared.StatusActive
	e.CreatedAt = now
	e.UpdatedAt = now
	if err := s.repo.Insert(ctx, &e, hash); err != nil {
		return nil, err
	}
	s.logger.Info("employee created", slog.String("employee_id", e.ID), slog.String("role", e.Role))
	return s.repo.Get(ctx, e.ID)
}

// Update changes profile fields and role. A non-empty password replaces the
// stored hash.
func (s *Service) Update(ctx context.Context, e Employee) (*Employee, error) {
	if strings.TrimSpace(e.ID) == "" {
		return nil, shared.ErrMissingID
	}
	existing, err := s.repo.Get(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	hash, err := s.hash(e.Password)
	if err != nil {
		return nil, err
	}
	normalize(&e)
	e.Status = existing.Status
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = s.now().Unix()
	if err := s.repo.Update(ctx, &e, hash); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, e.ID)
}

// Get returns one employee.
func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of employees.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Employee, platformshared.Pagination, error) {
	page, size := platformshared.NormalizePage(req.Page, req.Size)
	items, total, err := s.repo.List(ctx, req, size, platformshared.Offset(page, size))
	if err != nil {
		return nil, platformshared.Pagination{}, err
	}
	return items, platformshared.NewPagination(page, size, total), nil
}

// Activate restores login access.
func (s *Service) Activate(ctx context.Context, id string) (*Employee, error) {
	return s.setStatus(ctx, id, shared.StatusActive)
}

// Deactivate blocks login. Callers cannot deactivate their own account.
func (s *Service) Deactivate(ctx context.Context, id string) (*Employee, error) {
	if id != "" && id == platformshared.ActorID(ctx) {
		return nil, ErrSelfDeactivation
	}
	return s.setStatus(ctx, id, shared.StatusInactive)
}

// Credentials looks up login data by email. Unknown emails return
// shared.ErrNotFound.
func (s *Service) Credentials(ctx context.Context, email string) (*Credentials, error) {
	return s.repo.FindCredentials(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// VerifyPassword checks a plain password against the stored hash.
func VerifyPassword(c *Credentials, password string) error {
	if c == nil || c.PasswordHash == "" {
		return ErrNoPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
}

// Bootstrap creates the first administrator. It is a no-op returning nil
// when an active administrator already exists.
func (s *Service) Bootstrap(ctx context.Context, e Employee) (*Employee, error) {
	if e.Password == "" {
		return nil, ErrPasswordRequired
	}
	n, err := s.repo.CountByRole(ctx, platformshared.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	e.Role = platformshared.RoleAdmin
	return s.Create(ctx, e)
}

func (s *Service) setStatus(ctx context.Context, id string, status shared.Status) (*Employee, error) {
	if err := s.repo.SetStatus(ctx, id, status, s.now().Unix()); err != nil {
		return nil, err
	}
	s.logger.Info("employee status changed", slog.String("employee_id", id), slog.String("status", string(status)))
	return s.repo.Get(ctx, id)
}

func (s *Service) hash(password string) (string, error) {
	if password == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", ErrPasswordTooLong
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalize(e *Employee) {
	e.Name = strings.Join(strings.Fields(e.Name), " ")
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.ContactNumber = strings.TrimSpace(e.ContactNumber)
	e.Role = strings.ToUpper(strings.TrimSpace(e.Role))
	e.Password = ""
}
