package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrNotFound", ErrNotFound, "resource not found"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrRemoteCallFailed", ErrRemoteCallFailed, "remote call failed"},
		{"ErrServiceUnavailable", ErrServiceUnavailable, "service unavailable"},
		{"ErrUnknownAction", ErrUnknownAction, "unknown action"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("%s.Error() = %q, want %q", tt.name, tt.err.Error(), tt.expected)
			}
		})
	}
}

func TestWrapErrorf(t *testing.T) {
	t.Run("returns nil for nil error", func(t *testing.T) {
		if result := WrapErrorf(nil, "context %s", "value"); result != nil {
			t.Errorf("WrapErrorf(nil) = %v, want nil", result)
		}
	})

	t.Run("wraps error with context", func(t *testing.T) {
		original := errors.New("original error")
		wrapped := WrapErrorf(original, "context %s", "value")

		if !strings.Contains(wrapped.Error(), "context value") {
			t.Errorf("wrapped error should contain context: %v", wrapped)
		}
		if !errors.Is(wrapped, original) {
			t.Error("wrapped error should unwrap to original")
		}
	})
}

func TestRemoteCallFailedf(t *testing.T) {
	cause := errors.New("connection reset")
	err := RemoteCallFailedf(cause, "call %s", "GetPercentage")

	if !strings.Contains(err.Error(), "call GetPercentage") {
		t.Errorf("RemoteCallFailedf error message incorrect: %v", err)
	}
	if !IsRemoteCallFailed(err) {
		t.Error("RemoteCallFailedf should wrap ErrRemoteCallFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("RemoteCallFailedf should wrap the cause")
	}
	if IsServiceUnavailable(err) {
		t.Error("RemoteCallFailedf should not wrap ErrServiceUnavailable")
	}

	if !IsRemoteCallFailed(RemoteCallFailedf(nil, "no cause")) {
		t.Error("RemoteCallFailedf(nil) should still wrap ErrRemoteCallFailed")
	}
}

func TestServiceUnavailablef(t *testing.T) {
	cause := errors.New("name has no owner")
	err := ServiceUnavailablef(cause, "object %s", "/org/gnome/SettingsDaemon/Power")

	if !IsServiceUnavailable(err) {
		t.Error("ServiceUnavailablef should wrap ErrServiceUnavailable")
	}
	if !IsRemoteCallFailed(err) {
		t.Error("ServiceUnavailablef should also wrap ErrRemoteCallFailed")
	}
	if !errors.Is(err, cause) {
		t.Error("ServiceUnavailablef should wrap the cause")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFoundf("action %s", "x")) {
		t.Error("IsNotFound(wrapped) = false, want true")
	}
	if IsNotFound(ErrInvalidInput) {
		t.Error("IsNotFound(ErrInvalidInput) = true, want false")
	}
}

func TestInvalidInputf(t *testing.T) {
	err := InvalidInputf("level %d out of range", 101)

	if !strings.Contains(err.Error(), "level 101 out of range") {
		t.Errorf("InvalidInputf error message incorrect: %v", err)
	}
	if !IsInvalidInput(err) {
		t.Error("InvalidInputf should wrap ErrInvalidInput")
	}
}

func TestUnknownActionf(t *testing.T) {
	err := UnknownActionf("action %q", "dim")
	if !IsUnknownAction(err) {
		t.Error("UnknownActionf should wrap ErrUnknownAction")
	}
	if IsUnknownAction(ErrNotFound) {
		t.Error("IsUnknownAction(ErrNotFound) = true, want false")
	}
}
