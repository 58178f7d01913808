package shared

import (
	"fmt"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
)

var (
	ErrNotFound      = fmt.Errorf("%w: master data record", httpx.ErrNotFound)
	ErrDuplicate     = fmt.Errorf("%w: master data record", httpx.ErrDuplicate)
	ErrMissingID     = fmt.Errorf("%w: id is required", httpx.ErrValidation)
	ErrInvalidStatus = fmt.Errorf("%w: unknown status", httpx.ErrValidation)
)
