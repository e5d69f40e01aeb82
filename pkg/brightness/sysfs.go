package brightness

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/jmylchreest/brightnessd/internal/errors"
)

// DefaultBacklightRoot is where the kernel exposes backlight devices.
const DefaultBacklightRoot = "/sys/class/backlight"

// DefaultStep is the step used when none is configured.
const DefaultStep Level = 5

// SysfsService drives a kernel backlight device directly. Writing the
// brightness attribute usually needs a udev rule granting the user access.
type SysfsService struct {
	mu     sync.Mutex
	device string
	step   Level
}

var _ Service = (*SysfsService)(nil)

// NewSysfsService binds to device under root. An empty device picks the
// first device found, in name order.
func NewSysfsService(root, device string, step Level) (*SysfsService, error) {
	if root == "" {
		root = DefaultBacklightRoot
	}
	if step <= 0 {
		step = DefaultStep
	}

	if device == "" {
		paths, err := filepath.Glob(filepath.Join(root, "*"))
		if err != nil || len(paths) == 0 {
			return nil, errors.ServiceUnavailablef(err, "no backlight devices under %s", root)
		}
		sort.Strings(paths)
		return &SysfsService{device: paths[0], step: step}, nil
	}

	path := filepath.Join(root, device)
	if _, err := os.Stat(path); err != nil {
		return nil, errors.ServiceUnavailablef(err, "backlight device %s", device)
	}
	return &SysfsService{device: path, step: step}, nil
}

// Device returns the sysfs directory in use.
func (s *SysfsService) Device() string {
	return s.device
}

// GetPercentage implements Service.
func (s *SysfsService) GetPercentage(ctx context.Context) (Level, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.RemoteCallFailedf(err, "get brightness")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, maxVal, err := s.read()
	if err != nil {
		return 0, err
	}
	return toLevel(cur, maxVal), nil
}

// SetPercentage implements Service. The level is clamped, as the settings
// daemon does, and the previous level is returned.
func (s *SysfsService) SetPercentage(ctx context.Context, v Level) (Level, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.RemoteCallFailedf(err, "set brightness")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, maxVal, err := s.read()
	if err != nil {
		return 0, err
	}
	if err := s.write(v.Clamp(), maxVal); err != nil {
		return 0, err
	}
	return toLevel(cur, maxVal), nil
}

// StepUp implements Service.
func (s *SysfsService) StepUp(ctx context.Context) (Level, error) {
	return s.stepBy(ctx, s.step)
}

// StepDown implements Service.
func (s *SysfsService) StepDown(ctx context.Context) (Level, error) {
	return s.stepBy(ctx, -s.step)
}

func (s *SysfsService) stepBy(ctx context.Context, delta Level) (Level, error) {
	if err := ctx.Err(); err != nil {
		return 0, errors.RemoteCallFailedf(err, "step brightness")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, maxVal, err := s.read()
	if err != nil {
		return 0, err
	}
	// A raw unit can be wider than the step on coarse devices, so always
	// move at least one unit unless already at the boundary.
	raw := toRaw((toLevel(cur, maxVal) + delta).Clamp(), maxVal)
	if delta > 0 {
		raw = min(max(raw, cur+1), maxVal)
	} else {
		raw = max(min(raw, cur-1), 0)
	}
	if err := s.writeRaw(raw); err != nil {
		return 0, err
	}
	return toLevel(raw, maxVal), nil
}

func (s *SysfsService) read() (cur, maxVal int, err error) {
	cur, err = readInt(filepath.Join(s.device, "brightness"))
	if err != nil {
		return 0, 0, errors.ServiceUnavailablef(err, "read brightness")
	}
	maxVal, err = readInt(filepath.Join(s.device, "max_brightness"))
	if err != nil {
		return 0, 0, errors.ServiceUnavailablef(err, "read max_brightness")
	}
	if maxVal <= 0 {
		return 0, 0, errors.RemoteCallFailedf(nil, "invalid max_brightness %d", maxVal)
	}
	return cur, maxVal, nil
}

func (s *SysfsService) write(l Level, maxVal int) error {
	return s.writeRaw(toRaw(l, maxVal))
}

func (s *SysfsService) writeRaw(raw int) error {
	if err := os.WriteFile(filepath.Join(s.device, "brightness"), []byte(strconv.Itoa(raw)), 0o644); err != nil {
		return errors.RemoteCallFailedf(err, "write brightness")
	}
	return nil
}

func toRaw(l Level, maxVal int) int {
	return int(math.Round(float64(l) * float64(maxVal) / float64(MaxLevel)))
}

func toLevel(cur, maxVal int) Level {
	return Level(math.Round(float64(cur) * float64(MaxLevel) / float64(maxVal))).Clamp()
}

func readInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
