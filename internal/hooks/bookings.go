package hooks

import (
	"context"

	"tradepost/internal/booking"
	"tradepost/internal/models"
)

const (
	errFetchBookings       = "Failed to fetch bookings"
	errFetchEntityBookings = "Failed to fetch entity bookings"
	errFetchBooking        = "Failed to fetch booking details"
	errCreateBooking       = "Failed to create booking"
	errSendMessage         = "Failed to send message"
)

func hasID(d Deps) bool { return d.ID > 0 }

// NewBuyerBookings lists the bookings of buyer Deps.ID.
func NewBuyerBookings(source AdapterSource) *Query[[]models.Booking] {
	return newQuery[[]models.Booking](source, errFetchBookings, hasID,
		func(ctx context.Context, a booking.Adapter, d Deps) ([]models.Booking, error) {
			return a.GetBuyerBookings(ctx, d.ID)
		})
}

// NewEntityBookings lists the bookings on listing Deps.ID.
func NewEntityBookings(source AdapterSource) *Query[[]models.Booking] {
	return newQuery[[]models.Booking](source, errFetchEntityBookings, hasID,
		func(ctx context.Context, a booking.Adapter, d Deps) ([]models.Booking, error) {
			return a.GetEntityBookings(ctx, d.ID)
		})
}

// NewBookingDetail loads booking Deps.ID, browsing from Deps.ContextID.
func NewBookingDetail(source AdapterSource) *Query[models.Booking] {
	return newQuery[models.Booking](source, errFetchBooking,
		func(d Deps) bool { return d.ID > 0 && d.ContextID > 0 },
		func(ctx context.Context, a booking.Adapter, d Deps) (models.Booking, error) {
			return a.GetBookingByID(ctx, d.ID, d.ContextID)
		})
}

// NewCreateBooking opens bookings on entity type t.
func NewCreateBooking(source AdapterSource, t models.EntityType) *Mutation[models.CreateBookingRequest, models.Booking] {
	return &Mutation[models.CreateBookingRequest, models.Booking]{
		source:      source,
		entity:      t,
		fallbackErr: errCreateBooking,
		call: func(ctx context.Context, a booking.Adapter, req models.CreateBookingRequest) (models.Booking, error) {
			if req.EntityType == "" {
				req.EntityType = t
			}
			return a.CreateBooking(ctx, req)
		},
	}
}

// NewSendMessage appends messages to bookings of entity type t.
func NewSendMessage(source AdapterSource, t models.EntityType) *Mutation[models.SendMessageRequest, models.Booking] {
	return &Mutation[models.SendMessageRequest, models.Booking]{
		source:      source,
		entity:      t,
		fallbackErr: errSendMessage,
		call: func(ctx context.Context, a booking.Adapter, req models.SendMessageRequest) (models.Booking, error) {
			return a.SendMessage(ctx, req)
		},
	}
}
