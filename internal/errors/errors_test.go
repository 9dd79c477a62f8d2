package errors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorToCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int32
	}{
		{"nil", nil, CodeUnknown},
		{"invalid document", NewInvalidDocument("html is required"), CodeInvalidDocument},
		{"invalid key inside invalid document", fmt.Errorf("%w: %w", ErrInvalidDocument, ErrInvalidKey), CodeInvalidDocument},
		{"invalid key", Wrapf(ErrInvalidKey, "key %q", ""), CodeInvalidRequest},
		{"invalid body", ErrInvalidBody, CodeInvalidRequest},
		{"not found", ErrNotFound, CodeNotFound},
		{"version not found", Wrapf(ErrVersionNotFound, "key %q", "k"), CodeNotFound},
		{"storage write", NewStorageWrite("submit", New("boom")), CodeStorageWrite},
		{"storage read", NewStorageRead("get_links", New("boom")), CodeStorageRead},
		{"schema", NewSchema("ensure schema", New("boom")), CodeSchema},
		{"unknown", New("something else"), CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorToCode(tt.err); got != tt.code {
				t.Errorf("ErrorToCode() = %s, want %s", CodeName(got), CodeName(tt.code))
			}
		})
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{NewInvalidDocument("empty"), http.StatusBadRequest},
		{ErrInvalidKey, http.StatusBadRequest},
		{ErrVersionNotFound, http.StatusNotFound},
		{NewStorageWrite("submit", context.DeadlineExceeded), http.StatusInternalServerError},
		{New("unexpected"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.status)
		}
	}
}

func TestStorageError_KeepsKindAndCause(t *testing.T) {
	err := NewStorageWrite("submit", context.DeadlineExceeded)

	if !Is(err, ErrStorageWrite) {
		t.Error("kind not reachable")
	}
	if !Is(err, context.DeadlineExceeded) {
		t.Error("cause not reachable")
	}
	if Is(err, ErrStorageRead) {
		t.Error("matched the wrong kind")
	}

	var se *StorageError
	if !As(Wrapf(err, "key %q", "k"), &se) || se.Op != "submit" {
		t.Errorf("As = %+v", se)
	}

	want := "submit: storage write failed: context deadline exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestStorageError_NilCause(t *testing.T) {
	err := &StorageError{Op: "ensure schema", Kind: ErrSchema}
	if err.Error() != "ensure schema: schema not confirmed" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !Is(err, ErrSchema) {
		t.Error("kind not reachable")
	}
}

func TestWrapf_Nil(t *testing.T) {
	if Wrapf(nil, "x %d", 1) != nil {
		t.Error("Wrapf(nil) != nil")
	}
}

func TestValidationErrors(t *testing.T) {
	v := NewValidationErrors()
	if v.Err() != nil {
		t.Fatal("empty collector returned an error")
	}

	v.Add(nil)
	if v.HasErrors() {
		t.Fatal("Add(nil) recorded an error")
	}

	v.AddField("listen", "must not be empty")
	v.AddMissing("storage.driver")

	err := v.Err()
	if err == nil {
		t.Fatal("Err() = nil")
	}
	if !Is(err, ErrInvalidConfig) || !Is(err, ErrMissingField) {
		t.Errorf("collected sentinels not reachable: %v", err)
	}
	if !strings.HasPrefix(err.Error(), "validation failed with 2 errors:") {
		t.Errorf("Error() = %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("IsValidation = false")
	}
}
