package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/brightnessd/internal/http/mw"
)

// Register registers all API routes with the given Huma API instance.
func Register(api huma.API, h *Handlers) {
	// --- Health ---
	mw.Get(api, "/api/v1/health", h.HealthCheck,
		mw.WithTags("Health"),
		mw.WithSummary("Health check"),
		mw.WithOperationID("healthCheck"))

	mw.HiddenGet(api, "/healthz", h.HealthCheck)

	// --- Version ---
	mw.Get(api, "/api/v1/version", h.VersionCheck,
		mw.WithTags("Version"),
		mw.WithSummary("Daemon version"),
		mw.WithDescription("Returns the running daemon's version, commit, and build date."),
		mw.WithOperationID("getVersion"))

	// --- Indicator ---
	mw.Get(api, "/api/v1/status", h.Indicator.GetStatus,
		mw.WithTags("Indicator"),
		mw.WithSummary("Indicator state"),
		mw.WithDescription("Returns the last level read from the brightness service and the slider state."),
		mw.WithOperationID("getStatus"))

	mw.Put(api, "/api/v1/level", h.Indicator.SetBrightness,
		mw.WithTags("Indicator"),
		mw.WithSummary("Set brightness"),
		mw.WithDescription("Moves the slider to the given percentage, as a click on the slider would."),
		mw.WithOperationID("setBrightness"),
		mw.WithDefaultStatus(202))

	mw.Post(api, "/api/v1/refresh", h.Indicator.Refresh,
		mw.WithTags("Indicator"),
		mw.WithSummary("Resync with the brightness service"),
		mw.WithOperationID("refresh"),
		mw.WithDefaultStatus(202))

	mw.Post(api, "/api/v1/scroll", h.Indicator.Scroll,
		mw.WithTags("Indicator"),
		mw.WithSummary("Scroll over the indicator"),
		mw.WithDescription("Up and right step the brightness up, down and left step it down, smooth is ignored."),
		mw.WithOperationID("scroll"),
		mw.WithDefaultStatus(202))

	// --- Actions ---
	mw.Get(api, "/api/v1/actions", h.Indicator.ListActions,
		mw.WithTags("Actions"),
		mw.WithSummary("List key actions"),
		mw.WithOperationID("listActions"))

	mw.Post(api, "/api/v1/actions/{name}", h.Indicator.InvokeAction,
		mw.WithTags("Actions"),
		mw.WithSummary("Invoke a key action"),
		mw.WithDescription("Runs a registered key action as if its key was pressed."),
		mw.WithOperationID("invokeAction"),
		mw.WithDefaultStatus(202))

	// --- Logging ---
	mw.Get(api, "/api/v1/logging/level", h.Logging.GetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Get global log level"),
		mw.WithOperationID("getLogLevel"))

	mw.Put(api, "/api/v1/logging/level", h.Logging.SetLevel,
		mw.WithTags("Logging"),
		mw.WithSummary("Set global log level"),
		mw.WithDescription("Changes the global log level at runtime. Valid values: debug, info, warn, error."),
		mw.WithOperationID("setLogLevel"))
}
