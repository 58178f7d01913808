// Package files stores uploaded documents such as RC books and driving
// licences and serves them back by public id.
package files

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/model"
)

// File is the metadata of one stored upload.
type File = model.File

var (
	ErrNotFound    = fmt.Errorf("%w: file", httpx.ErrNotFound)
	ErrEmpty       = fmt.Errorf("%w: file is empty", httpx.ErrValidation)
	ErrMissingPart = fmt.Errorf("%w: multipart field \"file\" is required", httpx.ErrValidation)
	// ErrTooLarge is answered with 413.
	ErrTooLarge = fmt.Errorf("%w: file exceeds the size limit", httpx.ErrValidation)
)
