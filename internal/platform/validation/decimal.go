package validation

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var decimalType = reflect.TypeOf(decimal.Decimal{})

func registerDecimalRules(v *validator.Validate) {
	// Decimals reach the custom tags as their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("decgt0", func(fl validator.FieldLevel) bool {
		d, ok := asDecimal(fl)
		return ok && d.IsPositive()
	})
	_ = v.RegisterValidation("decgte0", func(fl validator.FieldLevel) bool {
		d, ok := asDecimal(fl)
		return ok && !d.IsNegative()
	})
}

func asDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	field := fl.Field()
	if field.Kind() == reflect.String {
		d, err := decimal.NewFromString(field.String())
		return d, err == nil
	}
	if field.Type() == decimalType {
		return field.Interface().(decimal.Decimal), true
	}
	return decimal.Decimal{}, false
}
