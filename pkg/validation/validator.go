package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Limits applied to agent identifiers and display names
	MaxIDLength   = 256
	MaxNameLength = 512
)

// ErrNil is returned when a nil value is validated
var ErrNil = errors.New("value cannot be nil")

func init() {
	validate = validator.New()
}

// Struct validates any struct using its `validate` tags and returns the
// first failure in a readable form.
func Struct(v any) error {
	if v == nil {
		return ErrNil
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// StructAll validates a struct and returns every failing field.
func StructAll(v any) []error {
	if v == nil {
		return []error{ErrNil}
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []error{err}
	}
	out := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		out = append(out, describe(e))
	}
	return out
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		return describe(e)
	}

	return err
}

func describe(e validator.FieldError) error {
	field := e.Namespace()
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Errorf("%s: field is required", field)
	case "min", "gte":
		return fmt.Errorf("%s: must be at least %s", field, param)
	case "max", "lte":
		return fmt.Errorf("%s: must not exceed %s", field, param)
	case "gt":
		return fmt.Errorf("%s: must be greater than %s", field, param)
	case "lt":
		return fmt.Errorf("%s: must be less than %s", field, param)
	case "gtfield":
		return fmt.Errorf("%s: must be greater than %s", field, param)
	case "oneof":
		return fmt.Errorf("%s: must be one of [%s]", field, param)
	default:
		return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
	}
}
