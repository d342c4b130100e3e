package assistant

import (
	"sync"
	"time"

	"github.com/ent0n29/nova/internal/intent"
)

type EventType string

const (
	EventWakeDetected     EventType = "wake_detected"
	EventUtterance        EventType = "utterance"
	EventIntentDispatched EventType = "intent_dispatched"
	EventReply            EventType = "reply"
	EventSessionSlept     EventType = "session_slept"
	EventTaskScheduled    EventType = "task_scheduled"
	EventTaskFired        EventType = "task_fired"
	EventTaskCancelled    EventType = "task_cancelled"
)

// Event is one observable assistant happening, streamed to debug clients.
type Event struct {
	Type   EventType     `json:"type"`
	Text   string        `json:"text,omitempty"`
	Intent intent.Intent `json:"intent,omitempty"`
	Slot   string        `json:"slot,omitempty"`
	TaskID string        `json:"task_id,omitempty"`
	Detail string        `json:"detail,omitempty"`
	At     time.Time     `json:"at"`
}

/// EventBus fans events out to subscribers. Sends never block: a slow
// subscriber drops events rather than stalling the session loop.
type EventBus struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	now    func() time.Time
}

func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[int]chan Event),
		now:  time.Now,
	}
}

func (b *EventBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
	}
}

func (b *EventBus) Publish(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if evt.At.IsZero() {
		evt.At = b.now().UTC()
	}
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
