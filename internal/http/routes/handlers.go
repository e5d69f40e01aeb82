package routes

import (
	"context"

	"github.com/jmylchreest/brightnessd/internal/http/handlers"
)

// Handlers aggregates all handler interfaces for route registration.
// For the daemon, pass real handler implementations.
// For OpenAPI generation, pass stub implementations.
type Handlers struct {
	HealthCheck  func(context.Context, *handlers.HealthInput) (*handlers.HealthOutput, error)
	VersionCheck func(context.Context, *handlers.VersionInput) (*handlers.VersionOutput, error)
	Indicator    handlers.IndicatorHandlers
	Logging      handlers.LoggingHandlers
}
