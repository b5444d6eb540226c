package session

import (
	"sort"
	"sync"
	"time"
)

type ChangeEvent string

const (
	SignedIn       ChangeEvent = "SIGNED_IN"
	SignedOut      ChangeEvent = "SIGNED_OUT"
	TokenRefreshed ChangeEvent = "TOKEN_REFRESHED"
	UserUpdated    ChangeEvent = "USER_UPDATED"
)

type AuthChange struct {
	Event   ChangeEvent
	Session Session
	Time    time.Time
}

type Listener func(change AuthChange)

// Broker fans auth changes out to subscribed listeners in subscription order.
type Broker struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners map[uint64]Listener
}

func NewBroker() *Broker {
	return &Broker{listeners: map[uint64]Listener{}}
}

// Subscribe registers l and returns a handle removing it; the handle may be called many times.
func (b *Broker) Subscribe(l Listener) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners[id] = l
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

func (b *Broker) Publish(change AuthChange) {
	if change.Time.IsZero() {
		change.Time = time.Now()
	}

	b.mu.RLock()
	ids := make([]uint64, 0, len(b.listeners))
	for id := range b.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, b.listeners[id])
	}
	b.mu.RUnlock()

	for _, l := range listeners {
		l(change)
	}
}

func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Close drops every listener.
func (b *Broker) Close() {
	b.mu.Lock()
	b.listeners = map[uint64]Listener{}
	b.mu.Unlock()
}
