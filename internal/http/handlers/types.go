// Package handlers provides typed Huma request/response structs and handler
// implementations for the brightnessd HTTP API.
package handlers

import (
	"context"
	stderrors "errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/jmylchreest/brightnessd/internal/errors"
	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/internal/loop"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// Indicator is the part of the indicator the API drives.
type Indicator interface {
	Status(ctx context.Context) (indicator.State, error)
	Refresh(ctx context.Context) error
	Scroll(ctx context.Context, dir indicator.Direction) error
	SetLevel(ctx context.Context, level brightness.Level) error
}

// Actions runs registered key actions by name.
type Actions interface {
	Invoke(name string) error
	Actions() []string
}

// --- Indicator types ---

// StateResponse is the API representation of the indicator state.
type StateResponse struct {
	Level    int     `json:"level" doc:"Last brightness percentage read from the service (0-100)"`
	Known    bool    `json:"known" doc:"Whether a level has been read yet"`
	Slider   float64 `json:"slider" doc:"Slider position (0-1)"`
	Dragging bool    `json:"dragging" doc:"Whether the slider is being dragged"`
}

// StateFromIndicator converts an indicator.State to a StateResponse.
func StateFromIndicator(s indicator.State) StateResponse {
	return StateResponse{
		Level:    int(s.Level),
		Known:    s.Known,
		Slider:   s.Slider,
		Dragging: s.Dragging,
	}
}

// --- Common response types ---

// StatusResponse is a simple status response.
type StatusResponse struct {
	Status string `json:"status" doc:"Operation status"`
}

// toHumaError maps domain errors onto HTTP status codes. A disabled
// indicator or a stopped loop is reported as unavailable.
func toHumaError(err error, msg string) error {
	switch {
	case errors.IsUnknownAction(err):
		return huma.Error404NotFound(msg, err)
	case errors.IsInvalidInput(err):
		return huma.Error400BadRequest(msg, err)
	case errors.IsNotFound(err), errors.IsServiceUnavailable(err), stderrors.Is(err, loop.ErrStopped):
		return huma.Error503ServiceUnavailable(msg, err)
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
