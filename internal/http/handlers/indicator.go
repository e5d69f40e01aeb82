package handlers

import (
	"context"
	"fmt"

	"github.com/jmylchreest/brightnessd/internal/indicator"
	"github.com/jmylchreest/brightnessd/pkg/brightness"
)

// --- Get Status ---

// GetStatusInput is the input for reading the indicator state.
type GetStatusInput struct{}

// GetStatusOutput is the output for reading the indicator state.
type GetStatusOutput struct {
	Body StateResponse
}

// --- Set Level ---

// SetBrightnessInput is the input for moving the slider.
type SetBrightnessInput struct {
	Body struct {
		Level int `json:"level" minimum:"0" maximum:"100" doc:"Target brightness percentage (0-100)"`
	}
}

// SetBrightnessOutput is the output after moving the slider.
type SetBrightnessOutput struct {
	Body StatusResponse
}

// --- Refresh ---

// RefreshInput is the input for resyncing with the brightness service.
type RefreshInput struct{}

// RefreshOutput is the output after requesting a resync.
type RefreshOutput struct {
	Body StatusResponse
}

// --- Scroll ---

// ScrollInput is the input for delivering a scroll event.
type ScrollInput struct {
	Body struct {
		Direction string `json:"direction" enum:"up,down,left,right,smooth" doc:"Scroll direction"`
	}
}

// ScrollOutput is the output after delivering a scroll event.
type ScrollOutput struct {
	Body StatusResponse
}

// --- Actions ---

// ListActionsInput is the input for listing key actions.
type ListActionsInput struct{}

// ListActionsOutput is the output for listing key actions.
type ListActionsOutput struct {
	Body struct {
		Actions []string `json:"actions" doc:"Registered key action names"`
	}
}

// InvokeActionInput is the input for running a key action.
type InvokeActionInput struct {
	Name string `path:"name" doc:"Key action name, e.g. increase-brightness"`
}

// InvokeActionOutput is the output after running a key action.
type InvokeActionOutput struct {
	Body StatusResponse
}

// IndicatorHandler implements the indicator HTTP handlers.
type IndicatorHandler struct {
	Indicator Indicator
	Actions   Actions
}

// GetStatus returns the indicator state.
func (h *IndicatorHandler) GetStatus(ctx context.Context, _ *GetStatusInput) (*GetStatusOutput, error) {
	s, err := h.Indicator.Status(ctx)
	if err != nil {
		return nil, toHumaError(err, "Failed to read indicator state")
	}
	return &GetStatusOutput{Body: StateFromIndicator(s)}, nil
}

// SetBrightness moves the slider to the requested level. The request returns
// once the change is queued; read the status to see the result.
func (h *IndicatorHandler) SetBrightness(ctx context.Context, input *SetBrightnessInput) (*SetBrightnessOutput, error) {
	if err := h.Indicator.SetLevel(ctx, brightness.Level(input.Body.Level)); err != nil {
		return nil, toHumaError(err, fmt.Sprintf("Failed to set brightness to %d", input.Body.Level))
	}
	return &SetBrightnessOutput{Body: StatusResponse{Status: "ok"}}, nil
}

// Refresh resyncs the indicator with the brightness service.
func (h *IndicatorHandler) Refresh(ctx context.Context, _ *RefreshInput) (*RefreshOutput, error) {
	if err := h.Indicator.Refresh(ctx); err != nil {
		return nil, toHumaError(err, "Failed to refresh indicator")
	}
	return &RefreshOutput{Body: StatusResponse{Status: "ok"}}, nil
}

// Scroll delivers a scroll event to the indicator.
func (h *IndicatorHandler) Scroll(ctx context.Context, input *ScrollInput) (*ScrollOutput, error) {
	dir, err := indicator.ParseDirection(input.Body.Direction)
	if err != nil {
		return nil, toHumaError(err, "Invalid scroll direction")
	}
	if err := h.Indicator.Scroll(ctx, dir); err != nil {
		return nil, toHumaError(err, "Failed to scroll indicator")
	}
	return &ScrollOutput{Body: StatusResponse{Status: "ok"}}, nil
}

// ListActions returns the registered key actions.
func (h *IndicatorHandler) ListActions(_ context.Context, _ *ListActionsInput) (*ListActionsOutput, error) {
	out := &ListActionsOutput{}
	out.Body.Actions = h.Actions.Actions()
	if out.Body.Actions == nil {
		out.Body.Actions = []string{}
	}
	return out, nil
}

// InvokeAction runs a registered key action as if its key was pressed.
func (h *IndicatorHandler) InvokeAction(_ context.Context, input *InvokeActionInput) (*InvokeActionOutput, error) {
	if err := h.Actions.Invoke(input.Name); err != nil {
		return nil, toHumaError(err, fmt.Sprintf("Failed to invoke action %s", input.Name))
	}
	return &InvokeActionOutput{Body: StatusResponse{Status: "ok"}}, nil
}

// Ensure IndicatorHandler implements the interface at compile time.
var _ IndicatorHandlers = (*IndicatorHandler)(nil)

// IndicatorHandlers defines the interface for indicator operations.
type IndicatorHandlers interface {
	GetStatus(ctx context.Context, input *GetStatusInput) (*GetStatusOutput, error)
	SetBrightness(ctx context.Context, input *SetBrightnessInput) (*SetBrightnessOutput, error)
	Refresh(ctx context.Context, input *RefreshInput) (*RefreshOutput, error)
	Scroll(ctx context.Context, input *ScrollInput) (*ScrollOutput, error)
	ListActions(ctx context.Context, input *ListActionsInput) (*ListActionsOutput, error)
	InvokeAction(ctx context.Context, input *InvokeActionInput) (*InvokeActionOutput, error)
}
