package booking

import (
	"context"

	"tradepost/internal/metrics"
	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
)

// GetBookingByID resolves one booking. Entities without a lookup strategy
// fail with ErrLookupNotImplemented rather than guessing an endpoint.
//
// contextID is the id the caller browses by: the listing id on the seller
// side or the user id on the buyer side. Mobile scans the entity-side list
// first and falls back to the buyer-side list when that call fails or holds
// no match.
func (a *entityAdapter) GetBookingByID(ctx context.Context, bookingID, contextID int64) (models.Booking, error) {
	if a.strat.lookup != lookupEntityThenBuyer {
		err := errors.Newf("getBookingById is not implemented for %s bookings", a.entity)
		return models.Booking{}, errors.Mark(errors.Mark(err, ErrLookupNotImplemented), ErrUnsupported)
	}

	bookings, err := a.GetEntityBookings(ctx, contextID)
	if err == nil {
		if b, ok := findBooking(bookings, bookingID); ok {
			return b, nil
		}
	} else {
		a.logger.Warn().
			Err(err).
			Str("entity", string(a.entity)).
			Int64("booking_id", bookingID).
			Int64("context_id", contextID).
			Msg("entity-side booking lookup failed, falling back to buyer bookings")
	}

	metrics.IncBookingOperation(string(a.entity), "get_booking_by_id", metrics.OutcomeFallback)
	bookings, err = a.GetBuyerBookings(ctx, contextID)
	if err != nil {
		return models.Booking{}, err
	}
	if b, ok := findBooking(bookings, bookingID); ok {
		return b, nil
	}
	return models.Booking{}, errors.Mark(
		errors.Newf("booking %d not found for %s context %d", bookingID, a.entity, contextID),
		ErrNotFound,
	)
}

func findBooking(bookings []models.Booking, id int64) (models.Booking, bool) {
	for _, b := range bookings {
		if b.Matches(id) {
			return b, true
		}
	}
	return models.Booking{}, false
}
