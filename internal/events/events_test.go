package events

import (
	"testing"
	"time"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	// Subscribe to task lifecycle events
	ch := bus.Subscribe(EventTaskStarted)

	testEvent := &TaskStartedEvent{
		BaseEvent: BaseEvent{
			EventType: EventTaskStarted,
			Time:      time.Now(),
		},
		RunID:      "run-1",
		TaskID:     3,
		InputPath:  "thread_input_3.txt",
		OutputPath: "thread_output_3.txt",
	}

	bus.Publish(testEvent)

	// Receive the event
	select {
	case received := <-ch:
		started, ok := received.(*TaskStartedEvent)
		if !ok {
			t.Fatal("Expected TaskStartedEvent")
		}
		if started.RunID != "run-1" {
			t.Errorf("Expected run ID 'run-1', got '%s'", started.RunID)
		}
		if started.TaskID != 3 {
			t.Errorf("Expected task ID 3, got %d", started.TaskID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timeout waiting for event")
	}
}

func TestEventBus_MultipleSubscribers(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	// Create multiple subscribers
	ch1 := bus.Subscribe(EventLog)
	ch2 := bus.Subscribe(EventLog)

	testEvent := &LogEvent{
		BaseEvent: BaseEvent{
			EventType: EventLog,
			Time:      time.Now(),
		},
		Level:   InfoLevel,
		Message: "Test log",
		RunID:   "run-1",
	}

	bus.Publish(testEvent)

	// Both subscribers should receive it
	received1 := false
	received2 := false

	select {
	case <-ch1:
		received1 = true
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case <-ch2:
		received2 = true
	case <-time.After(100 * time.Millisecond):
	}

	if !received1 || !received2 {
		t.Error("Not all subscribers received the event")
	}
}

func TestEventBus_DifferentEventTypes(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	// Subscribe to different event types
	startedCh := bus.Subscribe(EventTaskStarted)
	logCh := bus.Subscribe(EventLog)

	bus.Publish(&TaskStartedEvent{
		BaseEvent: BaseEvent{EventType: EventTaskStarted, Time: time.Now()},
		RunID:     "run-1",
		TaskID:    1,
	})

	// Only the task-started subscriber should receive it
	select {
	case <-startedCh:
		// Expected
	case <-time.After(100 * time.Millisecond):
		t.Error("Task-started subscriber didn't receive event")
	}

	// Log subscriber should not receive it
	select {
	case <-logCh:
		t.Error("Log subscriber received wrong event type")
	case <-time.After(50 * time.Millisecond):
		// Expected - timeout means no event
	}
}

func TestEventBus_SubscribeAll(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	// Subscribe to all events
	allCh := bus.SubscribeAll()

	bus.Publish(&RunStartedEvent{
		BaseEvent: BaseEvent{EventType: EventRunStarted, Time: time.Now()},
		RunID:     "run-1",
		TaskCount: 4,
	})

	bus.Publish(&LogEvent{
		BaseEvent: BaseEvent{EventType: EventLog, Time: time.Now()},
	})

	// Should receive both
	count := 0
	for i := 0; i < 2; i++ {
		select {
		case <-allCh:
			count++
		case <-time.After(100 * time.Millisecond):
			break
		}
	}

	if count != 2 {
		t.Errorf("Expected to receive 2 events, got %d", count)
	}
}

func TestEventBus_NonBlocking(t *testing.T) {
	bus := NewEventBus(2) // Small buffer
	defer bus.Close()

	ch := bus.Subscribe(EventTaskFinished)

	// Fill the buffer
	for i := 0; i < 10; i++ {
		bus.Publish(&TaskFinishedEvent{
			BaseEvent: BaseEvent{EventType: EventTaskFinished, Time: time.Now()},
			RunID:     "run-1",
			TaskID:    i,
		})
	}

	// Should not block - excess events are dropped
	// Test passes if we get here without deadlock

	if bus.DroppedEventCount() == 0 {
		t.Error("Expected dropped events with a full buffer")
	}

	// Drain some events
	count := 0
	for {
		select {
		case <-ch:
			count++
		case <-time.After(10 * time.Millisecond):
			goto done
		}
	}
done:

	if count == 0 {
		t.Error("Should have received at least some events")
	}
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus(10)

	ch := bus.Subscribe(EventRunFinished)

	bus.Close()

	// Channel should be closed
	_, ok := <-ch
	if ok {
		t.Error("Channel should be closed after bus.Close()")
	}

	// Publishing after close should not panic
	bus.Publish(&RunFinishedEvent{
		BaseEvent: BaseEvent{EventType: EventRunFinished, Time: time.Now()},
	})
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	ch := bus.Subscribe(EventTaskFinished)
	bus.Unsubscribe(EventTaskFinished, ch)

	bus.Publish(&TaskFinishedEvent{
		BaseEvent: BaseEvent{EventType: EventTaskFinished, Time: time.Now()},
		RunID:     "run-1",
		TaskID:    1,
	})

	select {
	case <-ch:
		t.Error("Unsubscribed channel received an event")
	case <-time.After(50 * time.Millisecond):
		// Expected
	}
}

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
	}

	for _, tt := range tests {
		if got := tt.level.String(); got != tt.expected {
			t.Errorf("Level %d: expected %s, got %s", tt.level, tt.expected, got)
		}
	}
}

func TestPublishLog(t *testing.T) {
	bus := NewEventBus(10)
	defer bus.Close()

	logCh := bus.Subscribe(EventLog)

	bus.PublishLog(InfoLevel, "test message", "run-1", 2, nil)

	select {
	case event := <-logCh:
		log, ok := event.(*LogEvent)
		if !ok {
			t.Fatal("Expected LogEvent")
		}
		if log.Message != "test message" {
			t.Errorf("Expected 'test message', got '%s'", log.Message)
		}
		if log.TaskID != 2 {
			t.Errorf("Expected task ID 2, got %d", log.TaskID)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Timeout waiting for log event")
	}
}
