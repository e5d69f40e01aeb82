// Package events provides a lightweight in-process event bus for broadcasting
// indicator state changes to subscribers such as the WebSocket stream.
package events

import (
	"encoding/json"
	"sync"
	"time"
)

// EventType identifies the kind of event.
type EventType string

const (
	// Brightness events
	LevelRefreshed EventType = "brightness.level_refreshed"

	// Indicator lifecycle events
	IndicatorEnabled  EventType = "indicator.enabled"
	IndicatorDisabled EventType = "indicator.disabled"

	// Input events
	ActionInvoked  EventType = "action.invoked"
	SettingChanged EventType = "setting.changed"
)

// LevelData is the payload of LevelRefreshed.
type LevelData struct {
	Level    int     `json:"level"`
	Slider   float64 `json:"slider"`
	Dragging bool    `json:"dragging"`
}

// IndicatorData is the payload of IndicatorEnabled and IndicatorDisabled.
type IndicatorData struct {
	Attached bool `json:"attached"`
}

// ActionData is the payload of ActionInvoked.
type ActionData struct {
	Name string `json:"name"`
}

// SettingData is the payload of SettingChanged. Value is the setting's
// stored text.
type SettingData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is a single event emitted by a producer.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent creates an Event, marshaling data to JSON.
// If marshaling fails the Data field is set to null.
func NewEvent(t EventType, data any) Event {
	raw, err := json.Marshal(data)
	if err != nil {
		raw = []byte("null")
	}
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      raw,
	}
}

// SubscriberFunc is a callback invoked for each event.
// Implementations must not block; slow subscribers should buffer internally.
type SubscriberFunc func(Event)

// Bus is a simple synchronous fan-out event bus.
// Publishing blocks until all subscribers have been called, so subscribers
// should be fast (e.g., write to a channel).
type Bus struct {
	mu          sync.RWMutex
	subscribers map[int]SubscriberFunc
	nextID      int
}

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[int]SubscriberFunc),
	}
}

// Subscribe registers a callback and returns an unsubscribe function.
func (b *Bus) Subscribe(fn SubscriberFunc) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subscribers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subscribers, id)
		b.mu.Unlock()
	}
}

// Emit publishes a new event of type t. A nil Bus discards it, so producers
// can hold an optional bus.
func (b *Bus) Emit(t EventType, data any) {
	if b == nil {
		return
	}
	b.Publish(NewEvent(t, data))
}

// Publish sends an event to all current subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	// Snapshot subscriber list under read lock so we don't hold it during callbacks.
	subs := make([]SubscriberFunc, 0, len(b.subscribers))
	for _, fn := range b.subscribers {
		subs = append(subs, fn)
	}
	b.mu.RUnlock()

	for _, fn := range subs {
		fn(e)
	}
}
