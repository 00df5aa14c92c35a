package inputval

import (
	"errors"
	"testing"

	"github.com/dalemusser/pathway/internal/domain/apperr"
)

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a.png", true},
		{"  http://localhost:8080  ", true},
		{"", false},
		{"ftp://example.com", false},
		{"example.com", false},
		{"javascript:alert(1)", false},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	type profileInput struct {
		FullName  string `json:"full_name" validate:"notblank,max=10"`
		AvatarURL string `json:"avatar_url" validate:"omitempty,httpurl"`
	}

	tests := []struct {
		name      string
		input     profileInput
		wantField string
	}{
		{"valid", profileInput{FullName: "Ruth", AvatarURL: "https://example.com/a.png"}, ""},
		{"no avatar", profileInput{FullName: "Ruth"}, ""},
		{"blank name", profileInput{FullName: "   "}, "full_name"},
		{"long name", profileInput{FullName: "far too long a name"}, "full_name"},
		{"bad avatar", profileInput{FullName: "Ruth", AvatarURL: "javascript:alert(1)"}, "avatar_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.input)
			if tt.wantField == "" {
				if res.HasErrors() {
					t.Errorf("unexpected errors: %s", res.All())
				}
				return
			}
			if !res.HasErrors() {
				t.Fatal("expected errors")
			}
			if res.Errors[0].Field != tt.wantField {
				t.Errorf("field: got %q, want %q", res.Errors[0].Field, tt.wantField)
			}
			if res.First() == "" {
				t.Error("expected a translated message")
			}
		})
	}
}

func TestCheck_ReturnsValidationError(t *testing.T) {
	type input struct {
		Status string `json:"status" validate:"oneof=in_progress completed"`
	}
	err := Check(input{Status: "done"})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("got %v, want validation error", err)
	}
	fields := apperr.FieldsOf(err)
	if len(fields) != 1 || fields[0].Field != "status" {
		t.Errorf("fields: got %+v", fields)
	}
	if Check(input{Status: "completed"}) != nil {
		t.Error("valid input should pass")
	}
}

func TestResult_All(t *testing.T) {
	r := &Result{Errors: []FieldError{{Message: "Error 1"}, {Message: "Error 2"}}}
	if got := r.All(); got != "Error 1; Error 2" {
		t.Errorf("All() = %q", got)
	}
	if (&Result{}).First() != "" {
		t.Error("First() on empty result should be empty")
	}
}
