package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/veldtlabs/fsdrill/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventRunStarted   EventType = "run.started"   // A run handle was created and its tasks launched
	EventTaskStarted  EventType = "task.started"  // A task goroutine began executing
	EventTaskFinished EventType = "task.finished" // A task reached a terminal state (completed or failed)
	EventRunFinished  EventType = "run.finished"  // All tasks of a run reached a terminal state
	EventFSChanged    EventType = "fs.changed"    // A watched directory reported file changes
	EventLog          EventType = "log"           // Free-form log message
)

// LogLevel defines log severity levels
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// RunStartedEvent is published when a run has been created and seeded,
// just before its task goroutines launch.
type RunStartedEvent struct {
	BaseEvent
	RunID     string
	Dir       string
	TaskCount int
}

// TaskStartedEvent is published when a task transitions to running.
type TaskStartedEvent struct {
	BaseEvent
	RunID      string
	TaskID     int
	InputPath  string
	OutputPath string
}

// TaskFinishedEvent is published when a task reaches a terminal state.
// Failed is true when the task recorded an error; Error carries the
// message for display and is empty on success.
type TaskFinishedEvent struct {
	BaseEvent
	RunID      string
	TaskID     int
	OutputPath string
	Failed     bool
	Error      string
	Duration   time.Duration
}

// RunFinishedEvent is published once every task of a run is terminal.
type RunFinishedEvent struct {
	BaseEvent
	RunID     string
	Completed int
	Failed    int
	Duration  time.Duration
}

// FSChangedEvent reports batched file change notifications from a
// directory watcher.
type FSChangedEvent struct {
	BaseEvent
	Root  string
	Paths []string
}

// LogEvent represents log messages
type LogEvent struct {
	BaseEvent
	Level   LogLevel
	Message string
	RunID   string
	TaskID  int
	Error   error
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// Publish sends an event to all subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the event, and the dropped
// counter is incremented instead.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishLog is a convenience method for publishing log events
func (eb *EventBus) PublishLog(level LogLevel, message, runID string, taskID int, err error) {
	eb.Publish(&LogEvent{
		BaseEvent: BaseEvent{
			EventType: EventLog,
			Time:      time.Now(),
		},
		Level:   level,
		Message: message,
		RunID:   runID,
		TaskID:  taskID,
		Error:   err,
	})
}

// Unsubscribe removes a subscription channel from a specific event type
// This prevents memory leaks from abandoned subscriptions
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			// Remove channel by replacing with last element and truncating
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes a subscription channel from the all-events list
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// DroppedEventCount returns the total number of events dropped due to
// full subscriber buffers. Useful when tuning buffer sizes.
func (eb *EventBus) DroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
