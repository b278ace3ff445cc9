package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Booking is the canonical, entity-agnostic negotiation thread.
// Every instance is produced by normalizing a server response.
type Booking struct {
	BookingID  int64         `json:"bookingId"`
	RequestID  int64         `json:"requestId"`
	EntityID   int64         `json:"entityId"`
	EntityType EntityType    `json:"entityType"`
	BuyerID    int64         `json:"buyerId"`
	SellerID   int64         `json:"sellerId"`
	BuyerName  string        `json:"buyerName"`
	SellerName string        `json:"sellerName"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"createdAt"`
	UpdatedAt  *time.Time    `json:"updatedAt"`

	Conversation []BookingMessage `json:"conversation"`

	MessageCount    int        `json:"messageCount"`
	LastMessage     string     `json:"lastMessage,omitempty"`
	LastMessageTime *time.Time `json:"lastMessageTime,omitempty"`

	EntityData json.RawMessage `json:"entityData,omitempty"`
}

// Matches reports whether id identifies this booking under either id field.
func (b Booking) Matches(id int64) bool {
	return b.BookingID == id || b.RequestID == id
}

// BookingMessage is one entry of a booking conversation.
type BookingMessage struct {
	SenderID   int64      `json:"senderId"`
	SenderType SenderType `json:"senderType"`
	Message    string     `json:"message"`
	Timestamp  time.Time  `json:"timestamp"`
	SenderName string     `json:"senderName"`
}

// CreateBookingRequest opens a new thread on a listing.
type CreateBookingRequest struct {
	EntityID    int64
	EntityType  EntityType
	BuyerUserID int64
	Message     string
	// BookingDate is YYYY-MM-DD; only the laptop backend uses it.
	BookingDate string
}

// SendMessageRequest appends a message to an existing thread.
type SendMessageRequest struct {
	BookingID    int64
	SenderUserID int64
	Message      string
}

// ParseTimestamp accepts the time formats seen across the booking backends.
// Unparseable input yields the zero time.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err == nil {
		return t
	}
	t, err = time.ParseInLocation(localDateTimeLayout, raw, time.Local)
	if err == nil {
		return t
	}
	t, err = time.ParseInLocation(DateLayout, raw, time.Local)
	if err == nil {
		return t
	}
	return time.Time{}
}
