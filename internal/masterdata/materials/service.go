package materials

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// Service provides material business logic.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	invalidate *shared.Invalidator
	now        func() time.Time
}

// NewService creates a material service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetInvalidator registers the cache invalidation run after renames.
func (s *Service) SetInvalidator(i *shared.Invalidator) { s.invalidate = i }

// Create stores a new active material.
func (s *Service) Create(ctx context.Context, m Material) (*Material, error) {
	normalize(&m)
	now := s.now().Unix()
	m.ID = uuid.NewString()
	m.Status = shared.StatusActive
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := s.repo.Insert(ctx, &m); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, m.ID)
}

// Update renames a material or changes its unit.
func (s *Service) Update(ctx context.Context, m Material) (*Material, error) {
	if strings.TrimSpace(m.ID) == "" {
		return nil, shared.ErrMissingID
	}
	existing, err := s.repo.Get(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	normalize(&m)
	m.Status = existing.Status
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.now().Unix()
	if err := s.repo.Update(ctx, &m); err != nil {
		return nil, err
	}
	if m.Name != existing.Name {
		s.invalidate.Fire(ctx)
	}
	return s.repo.Get(ctx, m.ID)
}

// Get returns one material.
func (s *Service) Get(ctx context.Context, id string) (*Material, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of materials. getAll returns every match.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Material, platformshared.Pagination, error) {
	page, size := platformshared.NormalizePage(req.Page, req.Size)
	if req.GetAll {
		items, total, err := s.repo.List(ctx, req, 0, 0)
		if err != nil {
			return nil, platformshared.Pagination{}, err
		}
		return items, shared.AllOnOnePage(total), nil
	}
	items, total, err := s.repo.List(ctx, req, size, platformshared.Offset(page, size))
	if err != nil {
		return nil, platformshared.Pagination{}, err
	}
	return items, platformshared.NewPagination(page, size, total), nil
}

// Activate marks a material selectable again.
func (s *Service) Activate(ctx context.Context, id string) (*Material, error) {
	return s.setStatus(ctx, id, shared.StatusActive)
}

// Deactivate hides a material from pickers.
func (s *Service) Deactivate(ctx context.Context, id string) (*Material, error) {
	return s.setStatus(ctx, id, shared.StatusInactive)
}

func (s *Service) setStatus(ctx context.Context, id string, status shared.Status) (*Material, error) {
	if err := s.repo.SetStatus(ctx, id, status, s.now().Unix()); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, id)
}

func normalize(m *Material) {
	m.Name = strings.Join(strings.Fields(m.Name), " ")
	m.Unit = strings.TrimSpace(m.Unit)
}
