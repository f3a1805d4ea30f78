package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   NotFound("Booking session"),
			expected: "NOT_FOUND: Booking session not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("internal error", errors.New("redis: connection refused")),
			expected: "INTERNAL_ERROR: internal error (caused by: redis: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	originalErr := errors.New("dial tcp: timeout")
	appErr := Upstream("Catalog", originalErr)

	if !errors.Is(appErr, originalErr) {
		t.Errorf("errors.Is should reach the wrapped error")
	}
	if appErr.StatusCode() != http.StatusBadGateway {
		t.Errorf("StatusCode() = %d, want %d", appErr.StatusCode(), http.StatusBadGateway)
	}
}

func TestAppError_StatusCodeDefault(t *testing.T) {
	err := &AppError{Code: CodeInternal}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want %d", err.StatusCode(), http.StatusInternalServerError)
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking session", "abc")

	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Details["id"] != "abc" {
		t.Errorf("expected id detail 'abc', got %v", err.Details["id"])
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"conflict", Conflict("taken"), CodeConflict, http.StatusConflict},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("Catalog"), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("status = %d, want %d", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("day not selectable")
	wrapped := fmt.Errorf("select period: %w", appErr)

	if !IsAppError(wrapped) {
		t.Fatalf("IsAppError should see through wrapping")
	}
	if got := AsAppError(wrapped); got != appErr {
		t.Errorf("AsAppError returned %v, want original", got)
	}

	plain := AsAppError(errors.New("boom"))
	if plain.Code != CodeInternal {
		t.Errorf("expected %s for plain error, got %s", CodeInternal, plain.Code)
	}
}
