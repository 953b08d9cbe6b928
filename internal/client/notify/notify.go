// Package notify holds the process-wide transient UI state: the loading
// flag plus one error slot and one message slot. Writes are last-write-wins;
// only one action is ever in flight, so concurrent failures overwrite rather
// than queue. The slots are cleared only by an explicit Dismiss.
package notify

import "sync"

// State is a snapshot of the notification channel.
type State struct {
	Loading bool
	Error   string // empty = none
	Message string // empty = none
}

// Bus is the narrow publish/subscribe surface components use instead of
// ambient globals. The zero value is not usable; call NewBus.
type Bus struct {
	mu    sync.Mutex
	state State
	subs  map[int]chan State
	next  int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan State)}
}

// State returns the current snapshot.
func (b *Bus) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetLoading toggles the in-flight indicator.
func (b *Bus) SetLoading(loading bool) {
	b.mu.Lock()
	b.state.Loading = loading
	b.publish()
	b.mu.Unlock()
}

// SetError overwrites the error slot.
func (b *Bus) SetError(msg string) {
	b.mu.Lock()
	b.state.Error = msg
	b.publish()
	b.mu.Unlock()
}

// SetMessage overwrites the message slot.
func (b *Bus) SetMessage(msg string) {
	b.mu.Lock()
	b.state.Message = msg
	b.publish()
	b.mu.Unlock()
}

// Dismiss clears both slots, the way closing the overlay dialogs does.
// The loading flag is owned by in-flight requests and is left alone.
func (b *Bus) Dismiss() {
	b.mu.Lock()
	b.state.Error = ""
	b.state.Message = ""
	b.publish()
	b.mu.Unlock()
}

// Subscribe registers an observer. The returned channel receives a snapshot
// after every change; a slow observer misses intermediate states rather than
// blocking writers. The cancel func must be called when done.
func (b *Bus) Subscribe() (<-chan State, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan State, 8)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if c, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(c)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// publish fans the current state out to subscribers. Callers hold b.mu.
func (b *Bus) publish() {
	for _, ch := range b.subs {
		select {
		case ch <- b.state:
		default:
		}
	}
}
