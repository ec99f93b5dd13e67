package notify

import (
	"sync"

	"cosmossdk.io/log"
	"github.com/google/uuid"

	"github.com/subhasisjena1643/tapnad/internal/race"
)

const subscriberBuffer = 64

// Notification is a committed race event as seen by the view layer.
type Notification struct {
	Height     int64             `json:"height"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// FromEvents stamps race events with the height of the block that committed them.
func FromEvents(height int64, events []race.Event) []Notification {
	out := make([]Notification, 0, len(events))
	for _, ev := range events {
		out = append(out, Notification{Height: height, Type: ev.Type, Attributes: ev.Attributes})
	}
	return out
}

// Broker is an in-process pub/sub for committed notifications.
type Broker struct {
	logger log.Logger

	mu   sync.RWMutex
	subs map[string]chan Notification
}

func NewBroker(logger log.Logger) *Broker {
	return &Broker{
		logger: logger.With("module", "notify"),
		subs:   make(map[string]chan Notification),
	}
}

// Subscribe registers a new subscriber and returns its id and channel.
func (b *Broker) Subscribe() (string, <-chan Notification) {
	id := uuid.NewString()
	ch := make(chan Notification, subscriberBuffer)
	b.mu.Lock()
	b.subs[id] = ch
	n := len(b.subs)
	b.mu.Unlock()
	b.logger.Debug("subscriber added", "id", id, "subscribers", n)
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	n := len(b.subs)
	b.mu.Unlock()
	if ok {
		b.logger.Debug("subscriber removed", "id", id, "subscribers", n)
	}
}

// Publish fans notifications out to every subscriber without blocking.
func (b *Broker) Publish(ns ...Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		dropped := 0
		for _, n := range ns {
			select {
			case ch <- n:
			default:
				// Drop if subscriber is slow.
				dropped++
			}
		}
		if dropped > 0 {
			b.logger.Warn("dropped notifications for slow subscriber", "id", id, "dropped", dropped, "batch", len(ns))
		}
	}
}

// Len returns the number of live subscribers.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
