package recalc

import "sync"

// Broadcaster fans one producer's values out to many subscribers. Each
// subscriber has its own buffered channel; a send to a subscriber that
// isn't keeping up is dropped rather than blocking the producer (§4.G:
// "single producer, many consumers, lossy if slow").
type Broadcaster[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[chan T]struct{})}
}

// Subscribe registers a new subscriber and returns its channel plus an
// unsubscribe function. Callers must call unsubscribe when done listening.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish sends v to every current subscriber, dropping it for any
// subscriber whose buffer is already full.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// StateBroadcaster is a last-value-wins Broadcaster[State]: a new
// subscriber immediately receives the most recently published value, and
// Publish overwrites a subscriber's pending value instead of just
// dropping the new one, so laggards always see the latest state rather
// than a stale queued one.
type StateBroadcaster struct {
	mu      sync.Mutex
	subs    map[chan State]struct{}
	current State
}

// NewStateBroadcaster creates a StateBroadcaster seeded with initial.
func NewStateBroadcaster(initial State) *StateBroadcaster {
	return &StateBroadcaster{subs: make(map[chan State]struct{}), current: initial}
}

// Subscribe registers a new subscriber, pre-loaded with the current state.
func (b *StateBroadcaster) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	b.mu.Lock()
	ch <- b.current
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}

// Publish records s as the current state and delivers it to every
// subscriber, replacing any value still sitting unread in their buffer.
func (b *StateBroadcaster) Publish(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = s
	for ch := range b.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// Current returns the most recently published state.
func (b *StateBroadcaster) Current() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
