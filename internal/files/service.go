package files

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	platformshared "github.com/solutions-liquify/tms/internal/shared"
)

// sniffBytes is how much of the upload is inspected for its content type.
const sniffBytes = 3072

// Service stores uploads and their metadata.
type Service struct {
	repo     Repository
	store    Store
	logger   *slog.Logger
	maxBytes int64
	now      func() time.Time
}

// NewService creates the service. maxBytes <= 0 disables the size limit.
func NewService(repo Repository, store Store, logger *slog.Logger, maxBytes int64) *Service {
	return &Service{repo: repo, store: store, logger: logger, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes returns the configured size limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload sniffs the content type, stores the bytes and records metadata.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (*File, error) {
	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if n == 0 {
		return nil, ErrEmpty
	}
	head = head[:n]
	detected := mimetype.Detect(head)

	id := uuid.NewString()
	body := io.MultiReader(bytes.NewReader(head), r)
	limited := newLimitReader(body, s.maxBytes)
	size, err := s.store.Save(ctx, id, limited)
	if errors.Is(err, ErrTooLarge) || limited.exceeded {
		_ = s.store.Delete(ctx, id)
		return nil, ErrTooLarge
	}
	if err != nil {
		return nil, err
	}

	f := &File{
		PublicID:    id,
		Filename:    cleanName(filename),
		Extension:   extension(filename, detected),
		ContentType: detected.String(),
		Size:        size,
		CreatedAt:   s.now().Unix(),
	}
	if actor := platformshared.ActorID(ctx); actor != "" {
		f.UploadedBy = &actor
	}
	if err := s.repo.Insert(ctx, f); err != nil {
		if delErr := s.store.Delete(ctx, id); delErr != nil {
			s.logger.Warn("remove orphaned upload failed", slog.String("public_id", id), slog.Any("error", delErr))
		}
		return nil, err
	}
	s.logger.Info("file uploaded", slog.String("public_id", id), slog.String("content_type", f.ContentType), slog.Int64("size", size))
	return f, nil
}

// Details returns the metadata of a file.
func (s *Service) Details(ctx context.Context, publicID string) (*File, error) {
	if _, err := uuid.Parse(publicID); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.Get(ctx, publicID)
}

// Open returns metadata and a reader over the bytes. The caller closes it.
func (s *Service) Open(ctx context.Context, publicID string) (*File, io.ReadCloser, error) {
	f, err := s.Details(ctx, publicID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, f.PublicID)
	if err != nil {
		return nil, nil, err
	}
	return f, rc, nil
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func extension(name string, detected *mimetype.MIME) string {
	if ext := strings.ToLower(filepath.Ext(cleanName(name))); ext != "" {
		return ext
	}
	return detected.Extension()
}

// limitReader fails once more than limit bytes are read. A limit of zero or
// less reads without bound.
type limitReader struct {
	r        io.Reader
	left     int64
	bounded  bool
	exceeded bool
}

func newLimitReader(r io.Reader, limit int64) *limitReader {
	return &limitReader{r: r, left: limit, bounded: limit > 0}
}

func (l *limitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if l.bounded {
		l.left -= int64(n)
		if l.left < 0 {
			l.exceeded = true
			return n, ErrTooLarge
		}
	}
	return n, err
}
