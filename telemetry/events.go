// Package telemetry provides performance tracking, dye statistics, windowed
// interaction counters, CSV run output and Prometheus metrics.
package telemetry

// EventType identifies interaction events recorded at tick boundaries.
type EventType uint8

const (
	EventSplat EventType = iota
	EventPointerSplat
	EventClear
	EventConfigUpdate
	EventResize
	EventCapture
)

var eventNames = [...]string{
	EventSplat:        "splat",
	EventPointerSplat: "pointer_splat",
	EventClear:        "clear",
	EventConfigUpdate: "config_update",
	EventResize:       "resize",
	EventCapture:      "capture",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// Event represents a single interaction event.
type Event struct {
	Type EventType
	Tick int32

	// Optional fields depending on event type
	Key   string // config key for EventConfigUpdate
	Count int    // impulses for EventSplat
}

// NewSplatEvent creates an event for a batch of n random splats.
func NewSplatEvent(tick int32, n int) Event {
	return Event{Type: EventSplat, Tick: tick, Count: n}
}

// NewPointerSplatEvent creates an event for one pointer impulse.
func NewPointerSplatEvent(tick int32) Event {
	return Event{Type: EventPointerSplat, Tick: tick, Count: 1}
}

// NewConfigEvent creates an event for a successful parameter update.
func NewConfigEvent(tick int32, key string) Event {
	return Event{Type: EventConfigUpdate, Tick: tick, Key: key}
}

// NewEvent creates an event carrying only its type and tick.
func NewEvent(t EventType, tick int32) Event {
	return Event{Type: t, Tick: tick}
}
