package realtime

import (
	"sync"

	"github.com/relocrm/leadstack/internal/logger"
	"github.com/relocrm/leadstack/internal/tracing"
)

const (
	TopicEmails        = "emails"
	TopicNotifications = "notifications"
	TopicAutoSync      = "autosync"
)

// Hub is an in-process topic fan-out. Each subscriber holds at most one
// pending payload; a newer payload replaces an undelivered one, so a slow
// subscriber never blocks publishers.
type Hub struct {
	log    logger.Logger
	mu     sync.RWMutex
	topics map[string]map[uint64]*Subscription
	nextID uint64
}

func NewHub(log logger.Logger) *Hub {
	return &Hub{
		log:    log,
		topics: make(map[string]map[uint64]*Subscription),
	}
}

// Subscription is returned by Subscribe. The owner must Close it.
type Subscription struct {
	id      uint64
	topic   string
	hub     *Hub
	pending chan any
	done    chan struct{}
	once    sync.Once
}

// Subscribe registers fn for payloads on topic. fn runs on a dedicated goroutine.
func (h *Hub) Subscribe(topic string, fn func(payload any)) *Subscription {
	h.mu.Lock()
	h.nextID++
	sub := &Subscription{
		id:      h.nextID,
		topic:   topic,
		hub:     h,
		pending: make(chan any, 1),
		done:    make(chan struct{}),
	}
	if h.topics[topic] == nil {
		h.topics[topic] = make(map[uint64]*Subscription)
	}
	h.topics[topic][sub.id] = sub
	h.mu.Unlock()

	go sub.deliver(fn)
	return sub
}

// Publish hands payload to every subscriber of topic without blocking.
func (h *Hub) Publish(topic string, payload any) {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.topics[topic]))
	for _, sub := range h.topics[topic] {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		sub.offer(payload)
	}
}

func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(h.topics, sub.topic)
		}
	}
}

func (s *Subscription) offer(payload any) {
	for {
		select {
		case <-s.done:
			return
		case s.pending <- payload:
			return
		default:
		}
		// drop the stale payload and retry
		select {
		case <-s.pending:
		default:
		}
	}
}

func (s *Subscription) deliver(fn func(payload any)) {
	for {
		select {
		case <-s.done:
			return
		case payload := <-s.pending:
			s.invoke(fn, payload)
		}
	}
}

func (s *Subscription) invoke(fn func(payload any), payload any) {
	defer tracing.RecoverAndLogToJaeger(s.hub.log)
	fn(payload)
}

// Done is closed once the subscription is closed.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close unregisters the subscription. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}
