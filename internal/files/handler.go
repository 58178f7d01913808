package files

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/rbac"
	"github.com/solutions-liquify/tms/internal/shared"
)

// multipartOverhead allows for boundaries and part headers on top of the
// file size limit.
const multipartOverhead = 1 << 20

// Handler exposes upload and download endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler creates a new handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(shared.PermFilesUpload)).Post("/upload", h.upload)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermFilesView))
		r.Get("/download/{publicId}", h.download)
		r.Get("/uploadDetails/{publicId}", h.details)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if limit := h.service.MaxBytes(); limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "multipart/form-data body expected")
		return
	}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			h.fail(w, ErrMissingPart)
			return
		}
		if err != nil {
			h.fail(w, uploadError(err))
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		f, err := h.service.Upload(r.Context(), part.FileName(), part)
		_ = part.Close()
		if err != nil {
			h.fail(w, uploadError(err))
			return
		}
		httpx.JSON(w, http.StatusCreated, f)
		return
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "publicId")
	f, rc, err := h.service.Open(r.Context(), id)
	if err != nil {
		h.fail(w, err, "public_id", id)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(f.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stream file failed", slog.String("public_id", id), slog.Any("error", err))
	}
}

func (h *Handler) details(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "publicId")
	f, err := h.service.Details(r.Context(), id)
	if err != nil {
		h.fail(w, err, "public_id", id)
		return
	}
	httpx.JSON(w, http.StatusOK, f)
}

func (h *Handler) fail(w http.ResponseWriter, err error, args ...any) {
	if errors.Is(err, ErrTooLarge) {
		httpx.Problem(w, http.StatusRequestEntityTooLarge, "Payload Too Large", err.Error())
		return
	}
	if httpx.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.Error("file request failed", append([]any{slog.Any("error", err)}, args...)...)
	}
	httpx.RespondError(w, err)
}

// uploadError folds the request body limit into ErrTooLarge.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrTooLarge
	}
	return err
}
