package draft

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownPath is returned for a field path the reducer does not handle.
	ErrUnknownPath = errors.New("draft: unknown field path")
	// ErrInvalidValue is returned when a value cannot be converted to the field type.
	ErrInvalidValue = errors.New("draft: invalid value")
	// ErrIndexOutOfRange is returned for a list index past the end.
	ErrIndexOutOfRange = errors.New("draft: index out of range")
)

type segment struct {
	name  string
	index int
}

// parsePath splits "a[1].b[2].c" into segments. index is -1 without brackets.
func parsePath(path string) ([]segment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnknownPath)
	}
	parts := strings.Split(path, ".")
	out := make([]segment, 0, len(parts))
	for _, p := range parts {
		seg := segment{name: p, index: -1}
		if open := strings.IndexByte(p, '['); open >= 0 {
			if !strings.HasSuffix(p, "]") || open == 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
			}
			n, err := strconv.Atoi(p[open+1 : len(p)-1])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
			}
			seg = segment{name: p[:open], index: n}
		}
		if seg.name == "" {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPath, path)
		}
		out = append(out, seg)
	}
	return out, nil
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case *string:
		if t == nil {
			return "", nil
		}
		return *t, nil
	case nil:
		return "", nil
	default:
		return "", fmt.Errorf("%w: want string, got %T", ErrInvalidValue, v)
	}
}

// toOptionalID maps "" and nil to a nil reference.
func toOptionalID(v any) (*string, error) {
	s, err := toString(v)
	if err != nil {
		return nil, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	return &s, nil
}

// toDecimal accepts the forms a form field or decoded JSON produces. An empty
// string is zero, matching a cleared numeric input.
func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case int:
		return decimal.NewFromInt(int64(t)), nil
	case int64:
		return decimal.NewFromInt(t), nil
	case float64:
		return decimal.NewFromFloat(t), nil
	case json.Number:
		return decimal.NewFromString(t.String())
	case string:
		if strings.TrimSpace(t) == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(t))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInvalidValue, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: want number, got %T", ErrInvalidValue, v)
	}
}

// toUnix converts a date value to optional Unix seconds.
func toUnix(v any) (*int64, error) {
	var sec int64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case *int64:
		if t == nil {
			return nil, nil
		}
		sec = *t
	case int64:
		sec = t
	case int:
		sec = int64(t)
	case float64:
		sec = int64(t)
	case time.Time:
		if t.IsZero() {
			return nil, nil
		}
		sec = t.Unix()
	default:
		return nil, fmt.Errorf("%w: want unix seconds, got %T", ErrInvalidValue, v)
	}
	return &sec, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, n)
	}
	return nil
}
