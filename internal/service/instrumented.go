package service

import (
	"context"

	"tradepost/internal/booking"
	"tradepost/internal/events"
	"tradepost/internal/metrics"
	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
)

// instrumentedAdapter counts and logs every call and turns successful
// mutations into events.
type instrumentedAdapter struct {
	inner booking.Adapter
	svc   *BookingService
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, booking.ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, booking.ErrMalformedResponse):
		return metrics.OutcomeMalformed
	case errors.Is(err, booking.ErrUnsupported):
		return metrics.OutcomeUnsupported
	default:
		return metrics.OutcomeError
	}
}

func (a *instrumentedAdapter) record(op string, err error) {
	entity := string(a.inner.EntityType())
	outcome := outcomeOf(err)
	metrics.IncBookingOperation(entity, op, outcome)
	if err != nil && outcome != metrics.OutcomeUnsupported {
		a.svc.logger.Warn().Err(err).Str("entity", entity).Str("operation", op).Msg("booking operation failed")
	}
}

func (a *instrumentedAdapter) recordList(op string, list []models.Booking, err error) ([]models.Booking, error) {
	if err == nil && len(list) == 0 {
		metrics.IncBookingOperation(string(a.inner.EntityType()), op, metrics.OutcomeEmpty)
		return list, nil
	}
	a.record(op, err)
	return list, err
}

func (a *instrumentedAdapter) mutated(op, eventType, action string, actorID int64, b models.Booking, err error) (models.Booking, error) {
	a.record(op, err)
	if err == nil {
		a.svc.publishEvent(eventType, b, action, actorID)
	}
	return b, err
}

func (a *instrumentedAdapter) EntityType() models.EntityType { return a.inner.EntityType() }

func (a *instrumentedAdapter) SupportsSellerBookings() bool { return a.inner.SupportsSellerBookings() }

func (a *instrumentedAdapter) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error) {
	b, err := a.inner.CreateBooking(ctx, req)
	return a.mutated("create_booking", events.EventBookingCreated, "create", req.BuyerUserID, b, err)
}

func (a *instrumentedAdapter) GetBuyerBookings(ctx context.Context, buyerID int64) ([]models.Booking, error) {
	list, err := a.inner.GetBuyerBookings(ctx, buyerID)
	return a.recordList("get_buyer_bookings", list, err)
}

func (a *instrumentedAdapter) GetEntityBookings(ctx context.Context, entityID int64) ([]models.Booking, error) {
	list, err := a.inner.GetEntityBookings(ctx, entityID)
	return a.recordList("get_entity_bookings", list, err)
}

func (a *instrumentedAdapter) GetSellerBookings(ctx context.Context, sellerID int64) ([]models.Booking, error) {
	list, err := a.inner.GetSellerBookings(ctx, sellerID)
	return a.recordList("get_seller_bookings", list, err)
}

func (a *instrumentedAdapter) GetBookingByID(ctx context.Context, bookingID, contextID int64) (models.Booking, error) {
	b, err := a.inner.GetBookingByID(ctx, bookingID, contextID)
	a.record("get_booking_by_id", err)
	return b, err
}

func (a *instrumentedAdapter) GetPendingBookings(ctx context.Context, sellerID int64) ([]models.Booking, error) {
	list, err := a.inner.GetPendingBookings(ctx, sellerID)
	return a.recordList("get_pending_bookings", list, err)
}

func (a *instrumentedAdapter) SendMessage(ctx context.Context, req models.SendMessageRequest) (models.Booking, error) {
	b, err := a.inner.SendMessage(ctx, req)
	return a.mutated("send_message", events.EventBookingMessageSent, "message", req.SenderUserID, b, err)
}

func (a *instrumentedAdapter) UpdateStatus(ctx context.Context, bookingID int64, s models.BookingStatus) (models.Booking, error) {
	b, err := a.inner.UpdateStatus(ctx, bookingID, s)
	return a.mutated("update_status", events.EventBookingStatusChanged, "update_status", 0, b, err)
}

func (a *instrumentedAdapter) AcceptBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	b, err := a.inner.AcceptBooking(ctx, bookingID)
	return a.mutated("accept_booking", events.EventBookingStatusChanged, "accept", 0, b, err)
}

func (a *instrumentedAdapter) RejectBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	b, err := a.inner.RejectBooking(ctx, bookingID)
	return a.mutated("reject_booking", events.EventBookingStatusChanged, "reject", 0, b, err)
}

func (a *instrumentedAdapter) ApproveBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	b, err := a.inner.ApproveBooking(ctx, bookingID)
	return a.mutated("approve_booking", events.EventBookingStatusChanged, "approve", 0, b, err)
}
