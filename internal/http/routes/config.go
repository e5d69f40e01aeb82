// Package routes provides shared route registration for the brightnessd HTTP API.
// Both the daemon and the OpenAPI generator use the same route definitions,
// so the generated document always matches what is served.
package routes

import (
	"github.com/danielgtaylor/huma/v2"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(version, baseURL string) huma.Config {
	cfg := huma.DefaultConfig("brightnessd API", version)
	cfg.Info.Description = "Local REST API for the brightnessd panel indicator: read the level, move the slider, and trigger the brightness key actions."

	// Disable $schema field in responses
	cfg.CreateHooks = nil

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Indicator", Description: "Brightness level and slider"},
		{Name: "Actions", Description: "Global key actions"},
		{Name: "Logging", Description: "Runtime log level"},
	}

	return cfg
}
