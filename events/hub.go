package events

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/newrestaurant/utils"
)

// Event types
const (
	EventUserLoggedIn        = "user_logged_in"
	EventUserLoggedOut       = "user_logged_out"
	EventReservationCreated  = "reservation_created"
	EventReservationUpdated  = "reservation_updated"
	EventReservationDeleted  = "reservation_deleted"
	EventCartOrdered         = "cart_ordered"
	EventNotificationCreated = "notification_created"
	EventTableDeleted        = "table_deleted"
)

type Message struct {
	Event  string      `json:"event"`
	UserID uint        `json:"user_id,omitempty"`
	Data   interface{} `json:"data"`
	At     time.Time   `json:"at"`
}

type Handler func(Message)

type subscriber struct {
	handler Handler
	events  map[string]struct{} // kosong = semua event
}

// Hub fans messages out to in-process subscribers, synchronously and in
// subscription order.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uint64]subscriber
	order       []uint64
	nextID      uint64
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[uint64]subscriber)}
}

// Subscribe registers handler for the given events (all events when none given)
// and returns a function that removes it.
func (h *Hub) Subscribe(handler Handler, events ...string) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	sub := subscriber{handler: handler, events: make(map[string]struct{}, len(events))}
	for _, e := range events {
		sub.events[e] = struct{}{}
	}
	h.subscribers[id] = sub
	h.order = append(h.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subscribers, id)
	for i, v := range h.order {
		if v == id {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Publish delivers msg to matching subscribers. A panicking handler is logged
// and does not stop delivery to the others.
func (h *Hub) Publish(msg Message) {
	if msg.At.IsZero() {
		msg.At = time.Now().UTC()
	}

	h.mu.RLock()
	targets := make([]Handler, 0, len(h.order))
	for _, id := range h.order {
		sub := h.subscribers[id]
		if len(sub.events) > 0 {
			if _, ok := sub.events[msg.Event]; !ok {
				continue
			}
		}
		targets = append(targets, sub.handler)
	}
	h.mu.RUnlock()

	for _, handler := range targets {
		deliver(handler, msg)
	}
}

func deliver(handler Handler, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"event": msg.Event,
				"panic": r,
			}).Error("event handler panicked")
		}
	}()
	handler(msg)
}

// Emit publishes on h. A nil hub drops the message.
func Emit(h *Hub, event string, userID uint, data interface{}) {
	if h == nil {
		return
	}
	h.Publish(Message{Event: event, UserID: userID, Data: data})
}
