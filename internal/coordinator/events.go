package coordinator

import (
	"time"

	"github.com/noline/locationd/internal/models"
)

// Event is published after every successful acquisition. Consumers subscribe
// explicitly instead of reacting to shared state changes.
type Event struct {
	Record     models.LocationRecord `json:"record"`
	OccurredAt time.Time             `json:"occurred_at"`
}

const subscriberBuffer = 8

// Subscribe registers a consumer of location-updated events. The returned
// channel is buffered; a consumer that falls behind misses events rather
// than stalling acquisition.
func (c *Coordinator) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)

	c.subMu.Lock()
	c.subs[ch] = struct{}{}
	c.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Coordinator) Unsubscribe(ch <-chan Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for sub := range c.subs {
		if sub == ch {
			delete(c.subs, sub)
			close(sub)
			return
		}
	}
}

func (c *Coordinator) publish(ev Event) {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	for sub := range c.subs {
		select {
		case sub <- ev:
		default:
			// Drop for slow consumers.
		}
	}
}
