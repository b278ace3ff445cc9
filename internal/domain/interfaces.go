package domain

import (
	"context"

	"tradepost/internal/booking"
	"tradepost/internal/models"
	"tradepost/internal/status"
)

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	AdapterFor(t models.EntityType) (booking.Adapter, error)
	Thread(ctx context.Context, t models.EntityType, bookingID, contextID int64, role status.Role) (status.View, error)
}
