package validation

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ConfigValidator provides a fluent interface for validating configuration values.
// It collects all validation errors rather than failing on the first one.
type ConfigValidator struct {
	errors []error
	name   string // config section name for error messages
}

// NewConfigValidator creates a new config validator with the given section name.
func NewConfigValidator(configName string) *ConfigValidator {
	return &ConfigValidator{
		name:   configName,
		errors: make([]error, 0),
	}
}

func (cv *ConfigValidator) add(field, format string, args ...any) *ConfigValidator {
	cv.errors = append(cv.errors, fmt.Errorf("%s.%s: "+format, append([]any{cv.name, field}, args...)...))
	return cv
}

// Finite validates that a float field is neither NaN nor infinite.
func (cv *ConfigValidator) Finite(field string, value float64) *ConfigValidator {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return cv.add(field, "value %v must be finite", value)
	}
	return cv
}

// PositiveFloat validates that a float field is positive (> 0).
func (cv *ConfigValidator) PositiveFloat(field string, value float64) *ConfigValidator {
	if !(value > 0) {
		return cv.add(field, "value %f must be positive", value)
	}
	return cv
}

// NonNegativeFloat validates that a float field is non-negative (>= 0).
func (cv *ConfigValidator) NonNegativeFloat(field string, value float64) *ConfigValidator {
	if !(value >= 0) {
		return cv.add(field, "value %f must be non-negative", value)
	}
	return cv
}

// RangeFloat validates that a float lies within [min, max].
func (cv *ConfigValidator) RangeFloat(field string, value, min, max float64) *ConfigValidator {
	if !(value >= min && value <= max) {
		return cv.add(field, "value %f must be between %f and %f", value, min, max)
	}
	return cv
}

// Less validates that value is strictly below bound, naming the other field.
func (cv *ConfigValidator) Less(field string, value float64, boundField string, bound float64) *ConfigValidator {
	if !(value < bound) {
		return cv.add(field, "value %f must be less than %s (%f)", value, boundField, bound)
	}
	return cv
}

// PositiveDuration validates that a duration field is > 0.
func (cv *ConfigValidator) PositiveDuration(field string, value time.Duration) *ConfigValidator {
	if value <= 0 {
		return cv.add(field, "duration %s must be positive", value)
	}
	return cv
}

// OneOf validates that a string field is one of the allowed values.
func (cv *ConfigValidator) OneOf(field, value string, allowed []string) *ConfigValidator {
	for _, a := range allowed {
		if value == a {
			return cv
		}
	}
	return cv.add(field, "value %q must be one of %v", value, allowed)
}

// Custom applies a custom validation function.
func (cv *ConfigValidator) Custom(field string, fn func() error) *ConfigValidator {
	if err := fn(); err != nil {
		cv.errors = append(cv.errors, fmt.Errorf("%s.%s: %w", cv.name, field, err))
	}
	return cv
}

// When conditionally applies validations if the condition is true.
func (cv *ConfigValidator) When(condition bool, validations func(*ConfigValidator)) *ConfigValidator {
	if condition {
		validations(cv)
	}
	return cv
}

// HasErrors returns true if any validation errors occurred.
func (cv *ConfigValidator) HasErrors() bool {
	return len(cv.errors) > 0
}

// Errors returns all validation errors.
func (cv *ConfigValidator) Errors() []error {
	return cv.errors
}

// Validate returns a combined error if any validations failed.
func (cv *ConfigValidator) Validate() error {
	switch len(cv.errors) {
	case 0:
		return nil
	case 1:
		return cv.errors[0]
	default:
		return fmt.Errorf("%s validation failed with %d errors: %w", cv.name, len(cv.errors), errors.Join(cv.errors...))
	}
}
