package routes

import (
	"context"

	"github.com/jmylchreest/brightnessd/internal/http/handlers"
)

// StubHandlers returns a Handlers instance with stub implementations.
// All handlers return nil responses. They are only used for OpenAPI generation,
// where Huma extracts type information from function signatures.
func StubHandlers() *Handlers {
	return &Handlers{
		HealthCheck: func(_ context.Context, _ *handlers.HealthInput) (*handlers.HealthOutput, error) {
			return nil, nil
		},
		VersionCheck: func(_ context.Context, _ *handlers.VersionInput) (*handlers.VersionOutput, error) {
			return nil, nil
		},
		Indicator: &stubIndicatorHandlers{},
		Logging:   &stubLoggingHandlers{},
	}
}

// --- Indicator stubs ---

type stubIndicatorHandlers struct{}

func (s *stubIndicatorHandlers) GetStatus(_ context.Context, _ *handlers.GetStatusInput) (*handlers.GetStatusOutput, error) {
	return nil, nil
}

func (s *stubIndicatorHandlers) SetBrightness(_ context.Context, _ *handlers.SetBrightnessInput) (*handlers.SetBrightnessOutput, error) {
	return nil, nil
}

func (s *stubIndicatorHandlers) Refresh(_ context.Context, _ *handlers.RefreshInput) (*handlers.RefreshOutput, error) {
	return nil, nil
}

func (s *stubIndicatorHandlers) Scroll(_ context.Context, _ *handlers.ScrollInput) (*handlers.ScrollOutput, error) {
	return nil, nil
}

func (s *stubIndicatorHandlers) ListActions(_ context.Context, _ *handlers.ListActionsInput) (*handlers.ListActionsOutput, error) {
	return nil, nil
}

func (s *stubIndicatorHandlers) InvokeAction(_ context.Context, _ *handlers.InvokeActionInput) (*handlers.InvokeActionOutput, error) {
	return nil, nil
}

// --- Logging stubs ---

type stubLoggingHandlers struct{}

func (s *stubLoggingHandlers) GetLevel(_ context.Context, _ *handlers.GetLevelInput) (*handlers.GetLevelOutput, error) {
	return nil, nil
}

func (s *stubLoggingHandlers) SetLevel(_ context.Context, _ *handlers.SetLevelInput) (*handlers.SetLevelOutput, error) {
	return nil, nil
}
