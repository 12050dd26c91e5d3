package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("printer-1")

	if got, want := err.Error(), "resource 'printer-1' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrResourceNotFound) {
		t.Error("errors.Is(err, ErrResourceNotFound) = false, want true")
	}
	if errors.Is(err, ErrPermissionDenied) {
		t.Error("errors.Is(err, ErrPermissionDenied) = true, want false")
	}

	wrapped := fmt.Errorf("unlock: %w", err)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound(wrapped) = false, want true")
	}
	var nf *NotFoundError
	if !As(wrapped, &nf) || nf.Resource != "printer-1" {
		t.Errorf("As(wrapped) resource = %v, want printer-1", nf)
	}
	if GetSeverity(wrapped) != SeverityWarning {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(wrapped), SeverityWarning)
	}
}

func TestPermissionError(t *testing.T) {
	tests := []struct {
		name string
		err  *PermissionError
		want string
	}{
		{
			name: "with owner",
			err:  NewPermissionError("mallory", "A", "alice"),
			want: "permission denied: mallory may not release 'A' reserved by alice",
		},
		{
			name: "anonymous caller",
			err:  NewPermissionError("", "A", ""),
			want: "permission denied: anonymous may not release 'A'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
			if !IsPermissionDenied(tt.err) {
				t.Error("IsPermissionDenied() = false, want true")
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	cause := errors.New("bad glob")
	err := NewValidationError("invalid label expression").
		WithField("label").
		WithValue("[").
		WithCause(cause)

	want := "validation error [field=label, value=[]: invalid label expression: bad glob"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidRequest) {
		t.Error("errors.Is(err, ErrInvalidRequest) = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestClaimError(t *testing.T) {
	err := NewClaimError("job-7", 3, 1)

	if !errors.Is(err, ErrQueued) {
		t.Error("errors.Is(err, ErrQueued) = false, want true")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable() = false, want true")
	}
	if IsRetryable(NewNotFoundError("x")) {
		t.Error("NotFoundError should not be retryable")
	}
	if GetSeverity(err) != SeverityInfo {
		t.Errorf("GetSeverity() = %v, want %v", GetSeverity(err), SeverityInfo)
	}
}

func TestClassification_Nil(t *testing.T) {
	if IsNotFound(nil) || IsPermissionDenied(nil) || IsRetryable(nil) {
		t.Error("classification helpers should return false for nil")
	}
	if GetSeverity(nil) != SeverityDebug {
		t.Errorf("GetSeverity(nil) = %v, want %v", GetSeverity(nil), SeverityDebug)
	}
	if GetSeverity(errors.New("plain")) != SeverityError {
		t.Error("plain errors should default to SeverityError")
	}
}
