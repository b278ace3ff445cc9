package events

import (
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"tradepost/internal/models"

	"github.com/google/uuid"
)

const (
	EventBookingCreated       = "booking_created"
	EventBookingMessageSent   = "booking_message_sent"
	EventBookingStatusChanged = "booking_status_changed"
)

// AllEventTypes lists the booking events the service publishes.
var AllEventTypes = []string{EventBookingCreated, EventBookingMessageSent, EventBookingStatusChanged}

// BookingEventPayload describes the booking snapshot sent to event consumers.
type BookingEventPayload struct {
	BookingID    int64                `json:"booking_id"`
	EntityType   models.EntityType    `json:"entity_type"`
	EntityID     int64                `json:"entity_id,omitempty"`
	BuyerID      int64                `json:"buyer_id,omitempty"`
	SellerID     int64                `json:"seller_id,omitempty"`
	Status       models.BookingStatus `json:"status"`
	Action       string               `json:"action,omitempty"`
	Message      string               `json:"message,omitempty"`
	MessageCount int                  `json:"message_count"`
	ActorID      int64                `json:"actor_id,omitempty"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

// PayloadFor snapshots b.
func PayloadFor(b models.Booking, action string, actorID int64) BookingEventPayload {
	return BookingEventPayload{
		BookingID:    b.BookingID,
		EntityType:   b.EntityType,
		EntityID:     b.EntityID,
		BuyerID:      b.BuyerID,
		SellerID:     b.SellerID,
		Status:       b.Status,
		Action:       action,
		Message:      b.LastMessage,
		MessageCount: b.MessageCount,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
	}
}

// Key partitions events of one booking together. Booking ids are only
// unique per entity type.
func (p BookingEventPayload) Key() string {
	return string(p.EntityType) + ":" + strconv.FormatInt(p.BookingID, 10)
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Key       string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
}

// NewEventBus constructs an empty bus.
func NewEventBus() *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler)}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		_ = handler(event)
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}
	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
// Payloads that know their partition key set Event.Key.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	event := Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}
	if keyed, ok := payload.(interface{ Key() string }); ok {
		event.Key = keyed.Key()
	}
	return event, nil
}
