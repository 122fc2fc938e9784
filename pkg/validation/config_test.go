package validation

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Floats(t *testing.T) {
	tests := []struct {
		name    string
		run     func(cv *ConfigValidator)
		wantErr bool
	}{
		{"positive ok", func(cv *ConfigValidator) { cv.PositiveFloat("x", 1) }, false},
		{"positive zero", func(cv *ConfigValidator) { cv.PositiveFloat("x", 0) }, true},
		{"positive NaN", func(cv *ConfigValidator) { cv.PositiveFloat("x", math.NaN()) }, true},
		{"non-negative zero", func(cv *ConfigValidator) { cv.NonNegativeFloat("x", 0) }, false},
		{"non-negative below", func(cv *ConfigValidator) { cv.NonNegativeFloat("x", -0.1) }, true},
		{"range inside", func(cv *ConfigValidator) { cv.RangeFloat("x", 0.5, 0, 1) }, false},
		{"range outside", func(cv *ConfigValidator) { cv.RangeFloat("x", 1.5, 0, 1) }, true},
		{"finite inf", func(cv *ConfigValidator) { cv.Finite("x", math.Inf(1)) }, true},
		{"less ok", func(cv *ConfigValidator) { cv.Less("min", 1, "max", 2) }, false},
		{"less equal", func(cv *ConfigValidator) { cv.Less("min", 2, "max", 2) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("Physics")
			tt.run(cv)
			if cv.HasErrors() != tt.wantErr {
				t.Errorf("HasErrors() = %v, want %v (%v)", cv.HasErrors(), tt.wantErr, cv.Errors())
			}
		})
	}
}

func TestConfigValidator_PositiveDuration(t *testing.T) {
	cv := NewConfigValidator("Packets")
	cv.PositiveDuration("Lifetime", 0)
	if !cv.HasErrors() {
		t.Fatal("expected error for zero duration")
	}
	if !strings.Contains(cv.Validate().Error(), "Packets.Lifetime") {
		t.Errorf("error should name the field: %v", cv.Validate())
	}

	cv = NewConfigValidator("Packets")
	cv.PositiveDuration("Lifetime", 800*time.Millisecond)
	if cv.Validate() != nil {
		t.Errorf("unexpected error: %v", cv.Validate())
	}
}

func TestConfigValidator_OneOf(t *testing.T) {
	cv := NewConfigValidator("Logging")
	cv.OneOf("Level", "loud", []string{"debug", "info"})
	if !cv.HasErrors() {
		t.Error("expected OneOf error")
	}
}

func TestConfigValidator_CustomAndWhen(t *testing.T) {
	sentinel := errors.New("boom")
	cv := NewConfigValidator("Engine")
	cv.Custom("Seed", func() error { return sentinel })
	cv.When(false, func(cv *ConfigValidator) { cv.PositiveFloat("never", -1) })

	if len(cv.Errors()) != 1 {
		t.Fatalf("Errors() = %v, want 1 error", cv.Errors())
	}
	if !errors.Is(cv.Validate(), sentinel) {
		t.Errorf("Validate() should wrap the custom error")
	}
}

func TestConfigValidator_MultipleErrors(t *testing.T) {
	cv := NewConfigValidator("Viewport")
	cv.PositiveFloat("MinZoom", -1).PositiveFloat("MaxZoom", 0)

	err := cv.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "2 errors") {
		t.Errorf("Validate() = %v, want combined message", err)
	}
}
