// Package brightness is the typed client side of a display brightness
// service. Service is implemented over the GNOME settings daemon's D-Bus
// interface, over the kernel backlight class in sysfs, and in memory.
package brightness

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// Level is a brightness percentage in [MinLevel, MaxLevel].
type Level int

const (
	MinLevel Level = 0
	MaxLevel Level = 100
)

// Service is a remote brightness service. Implementations hold no cache:
// every call reaches the device. Failures wrap errors.ErrRemoteCallFailed.
type Service interface {
	// GetPercentage returns the current level. It fails with
	// errors.ErrServiceUnavailable when the service can't be reached.
	GetPercentage(ctx context.Context) (Level, error)
	// SetPercentage asks the service to apply v and returns the service's
	// reply. Range checking of v is the service's business.
	SetPercentage(ctx context.Context, v Level) (Level, error)
	// StepUp raises the level by the service's step; a no-op at MaxLevel.
	StepUp(ctx context.Context) (Level, error)
	// StepDown lowers the level by the service's step; a no-op at MinLevel.
	StepDown(ctx context.Context) (Level, error)
}

// Clamp limits l to [MinLevel, MaxLevel].
func (l Level) Clamp() Level {
	if l < MinLevel {
		return MinLevel
	}
	if l > MaxLevel {
		return MaxLevel
	}
	return l
}

// Fraction converts l to a slider position in [0,1].
func (l Level) Fraction() float64 {
	return float64(l) / float64(MaxLevel)
}

// String formats l the way it is persisted ("42").
func (l Level) String() string {
	return strconv.Itoa(int(l))
}

// FromFraction converts a slider position to the nearest level.
func FromFraction(f float64) Level {
	return Level(math.Round(f * float64(MaxLevel)))
}

// ParseLevel parses a persisted level. Values outside [0,100] are rejected.
func ParseLevel(s string) (Level, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.InvalidInputf("level %q is not a number", s)
	}
	l := Level(n)
	if l != l.Clamp() {
		return 0, errors.InvalidInputf("level %d outside [%d,%d]", n, MinLevel, MaxLevel)
	}
	return l, nil
}
