package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/brightnessd/internal/loop"
)

// SettingKey names an indicator setting.
type SettingKey string

const (
	// SettingLevel is the last known brightness percentage, stored as text
	SettingLevel SettingKey = "level"
	// SettingPersist re-applies SettingLevel on startup
	SettingPersist SettingKey = "persist"
	// SettingShowIcon controls whether the indicator is attached to the panel
	SettingShowIcon SettingKey = "showicon"
)

type settingsValues struct {
	Level    string `yaml:"level"`
	Persist  bool   `yaml:"persist"`
	ShowIcon bool   `yaml:"showicon"`
}

func defaultSettings() settingsValues {
	return settingsValues{Level: DefaultLevel, Persist: false, ShowIcon: true}
}

func (v settingsValues) diff(other settingsValues) []SettingKey {
	var changed []SettingKey
	if v.Level != other.Level {
		changed = append(changed, SettingLevel)
	}
	if v.Persist != other.Persist {
		changed = append(changed, SettingPersist)
	}
	if v.ShowIcon != other.ShowIcon {
		changed = append(changed, SettingShowIcon)
	}
	return changed
}

type settingsObserver struct {
	key SettingKey
	fn  func(SettingKey)
}

// Settings is the indicator's key-value store, kept in a yaml file. Every
// change, whether made through the setters or by editing the file while
// Watch runs, is announced to the observers connected to that key.
// Last writer wins.
type Settings struct {
	mu        sync.Mutex
	path      string
	values    settingsValues
	observers map[int]settingsObserver
	nextID    int
	poster    loop.Poster
	logger    *slog.Logger
}

// NewSettings creates a store backed by path. Observers run on poster; a nil
// poster runs them synchronously on the goroutine that saw the change.
func NewSettings(path string, poster loop.Poster, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{
		path:      path,
		values:    defaultSettings(),
		observers: make(map[int]settingsObserver),
		poster:    poster,
		logger:    logger,
	}
}

// Path returns the backing file.
func (s *Settings) Path() string {
	return s.path
}

// Load reads the backing file. A missing file keeps the defaults.
func (s *Settings) Load() error {
	return s.reload()
}

// GetString returns a setting formatted as text.
func (s *Settings) GetString(key SettingKey) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case SettingLevel:
		return s.values.Level
	case SettingPersist:
		return fmt.Sprint(s.values.Persist)
	case SettingShowIcon:
		return fmt.Sprint(s.values.ShowIcon)
	}
	return ""
}

// GetBool returns a boolean setting; false for non-boolean keys.
func (s *Settings) GetBool(key SettingKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch key {
	case SettingPersist:
		return s.values.Persist
	case SettingShowIcon:
		return s.values.ShowIcon
	}
	return false
}

// SetString stores a text setting and writes the file.
func (s *Settings) SetString(key SettingKey, value string) error {
	if key != SettingLevel {
		return fmt.Errorf("setting %q is not a string", key)
	}
	return s.update(func(v *settingsValues) { v.Level = value })
}

// SetBool stores a boolean setting and writes the file.
func (s *Settings) SetBool(key SettingKey, value bool) error {
	switch key {
	case SettingPersist:
		return s.update(func(v *settingsValues) { v.Persist = value })
	case SettingShowIcon:
		return s.update(func(v *settingsValues) { v.ShowIcon = value })
	}
	return fmt.Errorf("setting %q is not a boolean", key)
}

// Connect calls fn whenever key changes and returns an id for Disconnect.
func (s *Settings) Connect(key SettingKey, fn func(SettingKey)) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.observers[s.nextID] = settingsObserver{key: key, fn: fn}
	return s.nextID
}

// Disconnect removes an observer. Unknown ids are ignored. A notification
// already queued for a disconnected observer is dropped.
func (s *Settings) Disconnect(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, id)
}

// Watch reloads the file whenever it changes on disk until ctx is done.
func (s *Settings) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create settings watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	// The directory is watched because editors and our own writes replace
	// the file rather than modify it in place.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Base(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("Ignoring unreadable settings file", "path", s.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("Settings watcher error", "error", err)
		}
	}
}

// errEmptySettings marks a settings file with no content. Editors that save
// in place truncate before writing, so it is not treated as all defaults.
var errEmptySettings = errors.New("settings file is empty")

func (s *Settings) readFile() (settingsValues, error) {
	values := defaultSettings()
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return values, fmt.Errorf("read settings: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return values, errEmptySettings
	}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return values, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	return values, nil
}

// reload reads the file under the lock so it can't interleave with a write
// and resurrect an older value.
func (s *Settings) reload() error {
	s.mu.Lock()
	values, err := s.readFile()
	if errors.Is(err, errEmptySettings) {
		s.mu.Unlock()
		s.logger.Debug("Settings file is empty, keeping current values", "path", s.path)
		return nil
	}
	if err != nil {
		s.mu.Unlock()
		return err
	}
	changed := s.values.diff(values)
	s.values = values
	s.mu.Unlock()

	s.notify(changed)
	return nil
}

func (s *Settings) update(mutate func(*settingsValues)) error {
	s.mu.Lock()
	next := s.values
	mutate(&next)
	changed := s.values.diff(next)
	if len(changed) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.values = next
	err := s.writeLocked()
	s.mu.Unlock()

	s.notify(changed)
	return err
}

// writeLocked replaces the file atomically so the watcher never reads a
// partial write.
func (s *Settings) writeLocked() error {
	data, err := yaml.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

func (s *Settings) notify(changed []SettingKey) {
	for _, key := range changed {
		s.mu.Lock()
		ids := make([]int, 0, len(s.observers))
		for id, o := range s.observers {
			if o.key == key {
				ids = append(ids, id)
			}
		}
		s.mu.Unlock()

		s.logger.Debug("Setting changed", "key", key, "observers", len(ids))
		for _, id := range ids {
			s.deliver(id, key)
		}
	}
}

func (s *Settings) deliver(id int, key SettingKey) {
	run := func() {
		s.mu.Lock()
		o, ok := s.observers[id]
		s.mu.Unlock()
		if ok {
			o.fn(key)
		}
	}
	if s.poster == nil {
		run()
		return
	}
	s.poster.Post(run)
}
