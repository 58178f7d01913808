// Package validation configures go-playground/validator for request DTOs.
package validation

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/solutions-liquify/tms/internal/platform/httpx"
	"github.com/solutions-liquify/tms/internal/shared"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// New returns a validator that reports json field names and knows the
// project specific tags:
//
//	phone10   ten digit contact number
//	role      ADMIN or STAFF
//	decgt0    decimal strictly greater than zero
//	decgte0   decimal greater than or equal to zero
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case shared.RoleAdmin, shared.RoleStaff:
			return true
		}
		return false
	})
	registerDecimalRules(v)
	return v
}

// Fields flattens validator errors into namespace → message pairs.
// Non-validator errors are reported under "general".
func Fields(err error) map[string]string {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"general": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[trimRoot(fe.Namespace())] = message(fe)
	}
	return out
}

func trimRoot(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone10":
		return "must be a 10 digit number"
	case "role":
		return "must be ADMIN or STAFF"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entries"
		}
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of " + fe.Param()
	case "decgt0":
		return "must be greater than zero"
	case "decgte0":
		return "must not be negative"
	case "uuid":
		return "must be a valid id"
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Bind decodes the JSON body into dst and validates it. On failure it writes
// the problem response and returns false.
func Bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := httpx.DecodeJSON(r, dst); err != nil {
		httpx.RespondError(w, err)
		return false
	}
	if err := v.Struct(dst); err != nil {
		httpx.ValidationProblem(w, Fields(err))
		return false
	}
	return true
}
