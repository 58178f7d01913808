package shared

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// ContactService implements the lifecycle shared by parties and locations.
// check runs on every create and update after normalisation.
type ContactService struct {
	repo       ContactRepository
	logger     *slog.Logger
	invalidate *Invalidator
	entity     string
	check      func(*Contact) error
	now        func() time.Time
}

// NewContactService creates the service. entity names the record in errors.
func NewContactService(repo ContactRepository, logger *slog.Logger, entity string, check func(*Contact) error) *ContactService {
	return &ContactService{repo: repo, logger: logger, entity: entity, check: check, now: time.Now}
}

// SetInvalidator registers the cache invalidation run after renames and
// lifecycle changes.
func (s *ContactService) SetInvalidator(i *Invalidator) { s.invalidate = i }

// SetClock overrides the time source.
func (s *ContactService) SetClock(now func() time.Time) { s.now = now }

// Create stores a new active record.
func (s *ContactService) Create(ctx context.Context, c Contact) (*Contact, error) {
	NormalizeContact(&c)
	if s.check != nil {
		if err := s.check(&c); err != nil {
			return nil, err
		}
	}
	now := s.now().Unix()
	c.ID = uuid.NewString()
	c.Status = StatusActive
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.repo.Insert(ctx, &c); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.entity, err)
	}
	return s.Get(ctx, c.ID)
}

// Update replaces the editable fields. Status and creation time are kept.
func (s *ContactService) Update(ctx context.Context, c Contact) (*Contact, error) {
	if strings.TrimSpace(c.ID) == "" {
		return nil, ErrMissingID
	}
	existing, err := s.repo.Get(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	NormalizeContact(&c)
	if s.check != nil {
		if err := s.check(&c); err != nil {
			return nil, err
		}
	}
	c.Status = existing.Status
	c.CreatedAt = existing.CreatedAt
	c.UpdatedAt = s.now().Unix()
	if err := s.repo.Update(ctx, &c); err != nil {
		return nil, fmt.Errorf("update %s: %w", s.entity, err)
	}
	if c.Name != existing.Name {
		s.invalidate.Fire(ctx)
	}
	return s.Get(ctx, c.ID)
}

// Get returns one record.
func (s *ContactService) Get(ctx context.Context, id string) (*Contact, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of records. getAll returns every match on one page.
func (s *ContactService) List(ctx context.Context, req ContactListRequest) ([]Contact, platformshared.Pagination, error) {
	page, size := platformshared.NormalizePage(req.Page, req.Size)
	limit, offset := size, platformshared.Offset(page, size)
	if req.GetAll {
		limit, offset = 0, 0
	}
	items, total, err := s.repo.List(ctx, req, limit, offset)
	if err != nil {
		return nil, platformshared.Pagination{}, fmt.Errorf("list %s: %w", s.entity, err)
	}
	if req.GetAll {
		return items, AllOnOnePage(total), nil
	}
	return items, platformshared.NewPagination(page, size, total), nil
}

// Activate marks a record selectable again.
func (s *ContactService) Activate(ctx context.Context, id string) (*Contact, error) {
	return s.setStatus(ctx, id, StatusActive)
}

// Deactivate hides a record from pickers. Existing references stay valid.
func (s *ContactService) Deactivate(ctx context.Context, id string) (*Contact, error) {
	return s.setStatus(ctx, id, StatusInactive)
}

func (s *ContactService) setStatus(ctx context.Context, id string, status Status) (*Contact, error) {
	if err := s.repo.SetStatus(ctx, id, status, s.now().Unix()); err != nil {
		return nil, err
	}
	s.invalidate.Fire(ctx)
	return s.Get(ctx, id)
}

// NormalizeContact trims free text and lowercases the email.
func NormalizeContact(c *Contact) {
	c.Name = strings.TrimSpace(c.Name)
	c.PointOfContact = strings.TrimSpace(c.PointOfContact)
	c.ContactNumber = strings.TrimSpace(c.ContactNumber)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.AddressLine1 = strings.TrimSpace(c.AddressLine1)
	c.AddressLine2 = strings.TrimSpace(c.AddressLine2)
	c.State = strings.TrimSpace(c.State)
	c.District = strings.TrimSpace(c.District)
	c.Taluka = strings.TrimSpace(c.Taluka)
	c.City = strings.TrimSpace(c.City)
	c.Pincode = strings.TrimSpace(c.Pincode)
}

// AllOnOnePage describes an unpaged listing.
func AllOnOnePage(total int) platformshared.Pagination {
	return platformshared.Pagination{Page: 1, Size: total, Total: total, TotalPages: 1}
}
