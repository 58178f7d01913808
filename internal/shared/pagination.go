package shared

import "math"

const (
	// DefaultPageSize applies when a list request omits size.
	DefaultPageSize = 10
	// MaxPageSize caps a single list page.
	MaxPageSize = 100
)

// Pagination contains metadata for paginated listings. Pages are 1-based.
type Pagination struct {
	Page       int
	Size       int
	Total      int
	TotalPages int
	HasNext    bool
}

// NormalizePage clamps page and size to their allowed ranges. page*size
// always fits a Postgres integer OFFSET.
func NormalizePage(page, size int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	if maxPage := math.MaxInt32 / size; page > maxPage {
		page = maxPage
	}
	return page, size
}

// Offset returns the SQL OFFSET for a normalized page.
func Offset(page, size int) int {
	page, size = NormalizePage(page, size)
	return (page - 1) * size
}

// NewPagination computes pagination metadata.
func NewPagination(page, size, total int) Pagination {
	page, size = NormalizePage(page, size)
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{
		Page:       page,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page*size < total,
	}
}
