package playback

import "sync"

// EventTime is the only message type carried on the bridge.
const EventTime = "time"

// Event is the playback sync wire format: {"type":"time","currentTime":…}.
// Events are ephemeral and idempotent per timestamp.
type Event struct {
	Type        string  `json:"type"`
	CurrentTime float64 `json:"currentTime"`
}

// TimeEvent builds a time event for the given position in seconds.
func TimeEvent(t float64) Event {
	return Event{Type: EventTime, CurrentTime: t}
}

// Bridge fans playback time out from the media player to every live transcript
// view in one session. One bridge per session — never process-wide — so
// concurrent sessions cannot cross-talk.
//
// Each subscriber gets a one-slot mailbox: Publish never blocks, delivery is
// in order per consumer, and a slow consumer sees the newest event rather
// than a backlog.
type Bridge struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	nextID uint64

	lastMu  sync.RWMutex
	last    Event
	hasLast bool
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{subs: make(map[uint64]chan Event)}
}

// Subscribe registers a consumer and returns its channel and a cancel
// function. Views torn down on asset replacement must cancel, or they keep
// holding ghost-player mailboxes (a leak, not a correctness hazard).
func (b *Bridge) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 1)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber. A full mailbox is drained
// of its stale event first, so consumers coalesce to the latest time.
func (b *Bridge) Publish(e Event) {
	b.lastMu.Lock()
	b.last = e
	b.hasLast = true
	b.lastMu.Unlock()

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- e:
			default:
			}
		}
	}
}

// Last returns the most recently published event, if any.
func (b *Bridge) Last() (Event, bool) {
	b.lastMu.RLock()
	defer b.lastMu.RUnlock()
	return b.last, b.hasLast
}

// SubscriberCount returns the number of live subscribers.
func (b *Bridge) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
