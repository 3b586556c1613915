package engine

import (
	"go.sablewire.io/engine/pkg/models"
)

// Callback is invoked synchronously at publish time. Returning an
// error aborts the publication and surfaces to the publisher.
type Callback func(s *Session, ev models.Event) error

type eventBus struct {
	subs map[models.Event][]Callback
}

func newEventBus() *eventBus {
	return &eventBus{subs: make(map[models.Event][]Callback)}
}

func (b *eventBus) subscribe(ev models.Event, fn Callback) {
	b.subs[ev] = append(b.subs[ev], fn)
}

// publish invokes the subscribers registered for ev in subscription
// order, short-circuiting on the first error. The list is snapshotted
// up front: a subscriber added during publication first fires on the
// next publication. Re-entrant publishes from inside a callback are
// delivered synchronously before this one returns.
func (b *eventBus) publish(s *Session, ev models.Event) error {
	list := b.subs[ev]
	for _, fn := range list[:len(list):len(list)] {
		if err := fn(s, ev); err != nil {
			return err
		}
	}
	return nil
}
