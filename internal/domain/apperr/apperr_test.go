package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dalemusser/pathway/internal/domain/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"nil", nil, ""},
		{"plain", errors.New("boom"), ""},
		{"not found", apperr.NotFound("missing"), apperr.KindNotFound},
		{"self join", apperr.SelfJoin("own code"), apperr.KindSelfJoin},
		{"wrapped conflict", fmt.Errorf("join: %w", apperr.Conflict("lost race")), apperr.KindConflict},
		{"validation", apperr.Validation("bad"), apperr.KindValidation},
		{"persistence", apperr.Persistence("insert", errors.New("io")), apperr.KindPersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := apperr.KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIs_MatchesByKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperr.NotFound("invalid or already used code"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Error("expected errors.Is to match ErrNotFound")
	}
	if errors.Is(err, apperr.ErrConflict) {
		t.Error("did not expect errors.Is to match ErrConflict")
	}
}

func TestPersistence_KeepsCauseHidesIt(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Persistence("saving message", cause)

	if !errors.Is(err, cause) {
		t.Error("expected cause to be reachable via errors.Is")
	}
	if got := apperr.Message(err); got != "saving message" {
		t.Errorf("Message: got %q, want %q", got, "saving message")
	}
	if got := apperr.Message(errors.New("raw")); got != "internal error" {
		t.Errorf("Message for plain error: got %q", got)
	}
}

func TestFieldsOf(t *testing.T) {
	err := apperr.Validation("invalid input", apperr.FieldError{Field: "invite_code", Error: "must be 6 characters"})
	fields := apperr.FieldsOf(err)
	if len(fields) != 1 || fields[0].Field != "invite_code" {
		t.Errorf("FieldsOf: got %+v", fields)
	}
}
