package brightness

import (
	"context"
	"sync"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// MemoryService is an in-process Service. It backs the daemon's demo
// backend and the tests of everything built on Service.
type MemoryService struct {
	mu    sync.Mutex
	level Level
	step  Level
	fail  error
	gate  chan struct{}
	calls []string
}

var _ Service = (*MemoryService)(nil)

// NewMemoryService starts at level and moves by step on StepUp/StepDown.
func NewMemoryService(level, step Level) *MemoryService {
	if step <= 0 {
		step = 1
	}
	return &MemoryService{level: level.Clamp(), step: step}
}

// SetFailing makes every call fail with err until called again with nil.
func (m *MemoryService) SetFailing(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Pause holds every call issued from now on until Resume.
func (m *MemoryService) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate == nil {
		m.gate = make(chan struct{})
	}
}

// Resume releases calls held by Pause.
func (m *MemoryService) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gate != nil {
		close(m.gate)
		m.gate = nil
	}
}

// Calls returns the operations served so far, e.g. "get", "set:30", "up".
func (m *MemoryService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Level returns the current level without recording a call.
func (m *MemoryService) Level() Level {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// GetPercentage implements Service.
func (m *MemoryService) GetPercentage(ctx context.Context) (Level, error) {
	return m.do(ctx, "get", func() Level { return m.level })
}

// SetPercentage implements Service and returns the previous level.
func (m *MemoryService) SetPercentage(ctx context.Context, v Level) (Level, error) {
	return m.do(ctx, "set:"+v.String(), func() Level {
		prev := m.level
		m.level = v.Clamp()
		return prev
	})
}

// StepUp implements Service.
func (m *MemoryService) StepUp(ctx context.Context) (Level, error) {
	return m.do(ctx, "up", func() Level {
		m.level = (m.level + m.step).Clamp()
		return m.level
	})
}

// StepDown implements Service.
func (m *MemoryService) StepDown(ctx context.Context) (Level, error) {
	return m.do(ctx, "down", func() Level {
		m.level = (m.level - m.step).Clamp()
		return m.level
	})
}

func (m *MemoryService) do(ctx context.Context, name string, op func() Level) (Level, error) {
	m.mu.Lock()
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, errors.RemoteCallFailedf(ctx.Err(), "%s", name)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, errors.ServiceUnavailablef(m.fail, "%s", name)
	}
	m.calls = append(m.calls, name)
	return op(), nil
}
