// Package notification fans player events out to page-level subscribers.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/bassstation/internal/app/playback"
)

const (
	sendTimeout = 500 * time.Millisecond // Bounds a single subscriber delivery
	maxFailures = 3                      // Consecutive failed deliveries before a subscriber is dropped
)

// Notification is a sequenced player event.
type Notification struct {
	SequenceNo uint64
	Event      playback.Event
	SentAt     time.Time
}

// Subscriber receives notifications.
type Subscriber interface {
	Send(n Notification) error
}

// SubscriberFunc adapts a function to Subscriber.
type SubscriberFunc func(n Notification) error

// Send calls f(n).
func (f SubscriberFunc) Send(n Notification) error {
	return f(n)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id         string
	subscriber Subscriber
	failures   int // Consecutive failed deliveries, guarded by Manager.mu
}

// Manager manages subscriptions and broadcasting.
// It implements playback.Notifier.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
}

// NewManager creates a new notification manager.
func NewManager() *Manager {
	return &Manager{
		subscriptions: make(map[string]*subscription),
	}
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(s Subscriber) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:         id,
		subscriber: s,
	}
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
}

// Broadcast sends an event to all subscribers and waits until each has
// accepted it or timed out.
func (m *Manager) Broadcast(e playback.Event) {
	m.sequenceNoMu.Lock()
	m.sequenceNo++
	n := Notification{
		SequenceNo: m.sequenceNo,
		Event:      e,
		SentAt:     time.Now(),
	}
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	// Copy subscriptions to avoid holding lock during sends
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	failed := make([]bool, len(subs))
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, s *subscription) {
			defer wg.Done()
			failed[i] = !deliver(s, n)
		}(i, sub)
	}
	wg.Wait()

	m.recordResults(subs, failed)
}

// deliver sends n to one subscriber and reports whether it was accepted
// within sendTimeout.
func deliver(s *subscription, n Notification) bool {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.subscriber.Send(n)
	}()

	select {
	case err := <-done:
		if err != nil {
			zlog.Warn().Err(err).Msgf("notification: send failed: subscription=%s seq=%d", s.id, n.SequenceNo)
			return false
		}
		return true
	case <-ctx.Done():
		zlog.Warn().Msgf("notification: send timed out: subscription=%s seq=%d", s.id, n.SequenceNo)
		return false
	}
}

// recordResults updates failure counters and drops subscribers that have
// failed maxFailures times in a row.
func (m *Manager) recordResults(subs []*subscription, failed []bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range subs {
		if !failed[i] {
			sub.failures = 0
			continue
		}
		sub.failures++
		if sub.failures >= maxFailures {
			if _, ok := m.subscriptions[sub.id]; ok {
				delete(m.subscriptions, sub.id)
				zlog.Info().Msgf("notification: dropped subscription after %d failures: subscription=%s", sub.failures, sub.id)
			}
		}
	}
}

// SequenceNo returns the sequence number of the last broadcast.
func (m *Manager) SequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	return m.sequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}
