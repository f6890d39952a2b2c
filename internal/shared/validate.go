package shared

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// MinPhoneDigits is the shortest phone number accepted.
const MinPhoneDigits = 10

// Validator returns the process-wide validator with the custom rules registered.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidPhone(fl.Field().String())
		})
		v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{}, decimal.NullDecimal{})
		validate = v
	})
	return validate
}

// ValidPhone accepts empty input or a number with at least MinPhoneDigits digits.
func ValidPhone(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	digits := 0
	for _, r := range raw {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= MinPhoneDigits
}

// ValidateStruct runs tag validation and converts failures into a ValidationError.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fieldPath(fe), message(fe))
	}
	return verr
}

// ValidateVar checks a single value against tag, reporting failures under field.
func ValidateVar(field string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	return NewValidationError(field, message(fieldErrs[0]))
}

// fieldPath renders the json path of a failing field, skipping Go type
// segments such as the root struct and embedded inputs.
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	kept := parts[:0]
	for _, p := range parts {
		if p == "" || unicode.IsUpper([]rune(p)[0]) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return fe.Field()
	}
	return strings.Join(kept, ".")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte", "min":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	case "phone":
		return "must contain at least 10 digits"
	case "numeric":
		return "must contain digits only"
	case "len":
		return "must have length " + fe.Param()
	default:
		return "is invalid"
	}
}

// decimalValue exposes money fields to numeric tags such as gt=0.
func decimalValue(field reflect.Value) any {
	switch v := field.Interface().(type) {
	case decimal.Decimal:
		return v.InexactFloat64()
	case decimal.NullDecimal:
		if !v.Valid {
			return nil
		}
		return v.Decimal.InexactFloat64()
	}
	return nil
}
