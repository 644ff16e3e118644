package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("session not found")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "session not found" {
		t.Errorf("expected Message to be 'session not found', got '%s'", err.Message)
	}
	if err.Err != nil {
		t.Errorf("expected Err to be nil, got %v", err.Err)
	}
}

func TestNotFoundf(t *testing.T) {
	err := NotFoundf("session %s not found", "sess_123")

	if err.Kind != ErrNotFound {
		t.Errorf("expected Kind to be ErrNotFound (%d), got %d", ErrNotFound, err.Kind)
	}
	if err.Message != "session sess_123 not found" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestValidation(t *testing.T) {
	err := Validation("member name is required")

	if err.Kind != ErrValidation {
		t.Errorf("expected Kind to be ErrValidation (%d), got %d", ErrValidation, err.Kind)
	}
	if err.Message != "member name is required" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestValidationf(t *testing.T) {
	err := Validationf("turn seconds must be at least %d", 5)

	if err.Kind != ErrValidation {
		t.Errorf("expected Kind to be ErrValidation (%d), got %d", ErrValidation, err.Kind)
	}
	if err.Message != "turn seconds must be at least 5" {
		t.Errorf("unexpected message '%s'", err.Message)
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("a category with that name already exists")

	if err.Kind != ErrConflict {
		t.Errorf("expected Kind to be ErrConflict (%d), got %d", ErrConflict, err.Kind)
	}
}

func TestInternal(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal(cause)

	if err.Kind != ErrInternal {
		t.Errorf("expected Kind to be ErrInternal (%d), got %d", ErrInternal, err.Kind)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("constraint failed")
	err := Wrap(cause, ErrConflict, "could not save")

	if err.Kind != ErrConflict {
		t.Errorf("expected Kind to be ErrConflict (%d), got %d", ErrConflict, err.Kind)
	}
	if err.Error() != "could not save: constraint failed" {
		t.Errorf("unexpected Error() output '%s'", err.Error())
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("expected Unwrap to return the cause")
	}
}

func TestErrorsAs(t *testing.T) {
	var target *Error
	wrapped := fmt.Errorf("handler: %w", NotFound("gone"))

	if !errors.As(wrapped, &target) {
		t.Fatalf("expected errors.As to find *Error")
	}
	if target.Kind != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %d", target.Kind)
	}
}
