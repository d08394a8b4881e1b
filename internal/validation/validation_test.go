package validation

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestRequireField(t *testing.T) {
	ve := &ValidationErrors{}
	RequireField(ve, "name", "   ")
	RequireField(ve, "sku", "SKU1")
	if len(ve.Errors) != 1 || ve.Errors[0].Field != "name" {
		t.Fatalf("expected one name error, got %+v", ve.Errors)
	}
	if ve.Error() != "name: is required" {
		t.Errorf("unexpected message %q", ve.Error())
	}
}

func TestValidateEnum(t *testing.T) {
	ve := &ValidationErrors{}
	ValidateEnum(ve, "role", "admin", ValidRoles)
	ValidateEnum(ve, "role", "", ValidRoles)
	if ve.HasErrors() {
		t.Fatalf("unexpected errors: %v", ve)
	}
	ValidateEnum(ve, "role", "superuser", ValidRoles)
	if !ve.HasErrors() {
		t.Fatal("expected error for unknown role")
	}
}

func TestNumericBounds(t *testing.T) {
	ve := &ValidationErrors{}
	ValidateNonNegativeFloat(ve, "price", -0.01)
	ValidateNonNegativeInt(ve, "quantity", -1)
	ValidateFinite(ve, "price", math.NaN())
	ValidateFinite(ve, "price", math.Inf(1))
	if len(ve.Errors) != 4 {
		t.Fatalf("expected 4 errors, got %d: %v", len(ve.Errors), ve)
	}

	ok := &ValidationErrors{}
	ValidateNonNegativeFloat(ok, "price", 2500000)
	ValidateFinite(ok, "price", 2500000)
	ValidateNonNegativeInt(ok, "quantity", 2000000)
	if ok.HasErrors() {
		t.Fatalf("large values should be accepted: %v", ok)
	}
}

func TestErrAndIsValidation(t *testing.T) {
	ve := &ValidationErrors{}
	if ve.Err() != nil {
		t.Fatal("empty ValidationErrors must produce a nil error")
	}
	err := fmt.Errorf("add product: %w", Field("name", "is required"))
	if !IsValidation(err) {
		t.Fatal("wrapped validation error not detected")
	}
	if IsValidation(errors.New("other")) {
		t.Fatal("plain error reported as validation")
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"backup_20250101_120000.db", false},
		{"", true},
		{"../database.db", true},
		{"dir/backup.db", true},
		{"bad\x00.db", true},
	}
	for _, tt := range tests {
		ve := &ValidationErrors{}
		ValidateFilename(ve, tt.name)
		if ve.HasErrors() != tt.wantErr {
			t.Errorf("ValidateFilename(%q) errors=%v, want error=%v", tt.name, ve.Errors, tt.wantErr)
		}
	}
}
