package locations

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solutions-liquify/tms/internal/masterdata/shared"
)

type stubRepo struct {
	shared.ContactRepository
	inserted []Location
}

func (s *stubRepo) Insert(_ context.Context, l *Location) error {
	s.inserted = append(s.inserted, *l)
	return nil
}

func (s *stubRepo) Get(_ context.Context, id string) (*Location, error) {
	for _, l := range s.inserted {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, shared.ErrNotFound
}

func TestCreateRequiresDistrictAndTaluka(t *testing.T) {
	repo := &stubRepo{}
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := svc.Create(ctx, Location{Name: "Haveli Godown", Taluka: "Haveli"})
	assert.ErrorIs(t, err, ErrDistrictRequired)

	_, err = svc.Create(ctx, Location{Name: "Haveli Godown", District: "Pune", Taluka: "  "})
	assert.ErrorIs(t, err, ErrTalukaRequired)
	assert.Empty(t, repo.inserted)

	created, err := svc.Create(ctx, Location{Name: "Haveli Godown", District: " Pune", Taluka: "Haveli "})
	require.NoError(t, err)
	assert.Equal(t, "Pune", created.District)
	assert.Equal(t, "Haveli", created.Taluka)
	assert.Equal(t, shared.StatusActive, created.Status)
}
