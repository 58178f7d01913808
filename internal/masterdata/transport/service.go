package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// Service provides transportation company business logic.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	invalidate *shared.Invalidator
	now        func() time.Time
}

// NewService creates a transportation company service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// SetInvalidator registers the cache invalidation run after renames.
func (s *Service) SetInvalidator(i *shared.Invalidator) { s.invalidate = i }

// Create stores a new active company with its fleet. Client supplied fleet
// ids are ignored.
func (s *Service) Create(ctx context.Context, c Company) (*Company, error) {
	normalize(&c)
	for i := range c.Vehicles {
		c.Vehicles[i].ID = ""
	}
	for i := range c.Drivers {
		c.Drivers[i].ID = ""
	}
	if err := assignFleetIDs(&c, nil); err != nil {
		return nil, err
	}
	now := s.now().Unix()
	c.ID = uuid.NewString()
	c.Status = shared.StatusActive
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Insert(ctx, &c); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, c.ID)
}

// Update replaces the company and its fleet. Vehicles and drivers without an
// id are new; ids must belong to this company.
func (s *Service) Update(ctx context.Context, c Company) (*Company, error) {
	if strings.TrimSpace(c.ID) == "" {
		return nil, shared.ErrMissingID
	}
	existing, err := s.repo.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	normalize(&c)
	if err := assignFleetIDs(&c, existing); err != nil {
		return nil, err
	}
	c.Status = existing.Status
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().Unix()
	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, err
	}
	if c.CompanyName != existing.CompanyName {
		s.invalidate.Fire(ctx)
	}
	return s.repo.Get(ctx, c.ID)
}

// Get returns one company with its fleet.
func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of companies. getAll returns every match.
func (s *Service) List(ctx context.Context, req ListRequest) ([]Company, platformshared.Pagination, error) {
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

// Activate makes the company selectable on challans again.
func (s *Service) Activate(ctx context.Context, id string) (*Company, error) {
	return s.setStatus(ctx, id, shared.StatusActive)
}

// Deactivate hides the company from pickers.
func (s *Service) Deactivate(ctx context.Context, id string) (*Company, error) {
	return s.setStatus(ctx, id, shared.StatusInactive)
}

func (s *Service) setStatus(ctx context.Context, id string, status shared.Status) (*Company, error) {
	if err := s.repo.SetStatus(ctx, id, status, s.now().Unix()); err != nil {
		return nil, err
	}
	s.invalidate.Fire(ctx)
	return s.repo.Get(ctx, id)
}

// assignFleetIDs gives new rows an id and checks kept ids against the
// existing fleet. existing is nil on create.
func assignFleetIDs(c *Company, existing *Company) error {
	owned := map[string]bool{}
	if existing != nil {
		for _, v := range existing.Vehicles {
			owned["v:"+v.ID] = true
		}
		for _, d := range existing.Drivers {
			owned["d:"+d.ID] = true
		}
	}
	seen := map[string]bool{}
	numbers := map[string]bool{}
	for i := range c.Vehicles {
		v := &c.Vehicles[i]
		key := strings.ToUpper(strings.ReplaceAll(v.VehicleNumber, " ", ""))
		if numbers[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.VehicleNumber)
		}
		numbers[key] = true
		if v.ID == "" {
			v.ID = uuid.NewString()
			continue
		}
		if !owned["v:"+v.ID] {
			return fmt.Errorf("%w: %s", ErrForeignVehicle, v.ID)
		}
		if seen["v:"+v.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID)
		}
		seen["v:"+v.ID] = true
	}
	for i := range c.Drivers {
		d := &c.Drivers[i]
		if d.ID == "" {
			d.ID = uuid.NewString()
			continue
		}
		if !owned["d:"+d.ID] {
			return fmt.Errorf("%w: %s", ErrForeignDriver, d.ID)
		}
		if seen["d:"+d.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateDriver, d.ID)
		}
		seen["d:"+d.ID] = true
	}
	return nil
}

func normalize(c *Company) {
	c.CompanyName = strings.Join(strings.Fields(c.CompanyName), " ")
	c.PointOfContact = strings.TrimSpace(c.PointOfContact)
	c.ContactNumber = strings.TrimSpace(c.ContactNumber)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.PinCode = strings.TrimSpace(c.PinCode)
	if c.Vehicles == nil {
		c.Vehicles = []Vehicle{}
	}
	if c.Drivers == nil {
		c.Drivers = []Driver{}
	}
	for i := range c.Vehicles {
		c.Vehicles[i].VehicleNumber = strings.ToUpper(strings.TrimSpace(c.Vehicles[i].VehicleNumber))
		c.Vehicles[i].ID = strings.TrimSpace(c.Vehicles[i].ID)
	}
	for i := range c.Drivers {
		c.Drivers[i].Name = strings.Join(strings.Fields(c.Drivers[i].Name), " ")
		c.Drivers[i].ID = strings.TrimSpace(c.Drivers[i].ID)
	}
}
