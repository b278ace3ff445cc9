package booking

import (
	"net/http"
	"strings"

	"tradepost/internal/httpclient"
	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupported is returned, before any network call, for operations
	// the entity type's backend does not expose.
	ErrUnsupported = errors.New("operation not supported for entity type")
	// ErrLookupNotImplemented marks entity types with no single-booking lookup
	// strategy. Errors carrying it also match ErrUnsupported.
	ErrLookupNotImplemented = errors.New("booking lookup not implemented for entity type")
	// ErrMalformedResponse is returned when a payload cannot yield a booking.
	ErrMalformedResponse = errors.New("malformed booking response")
	// ErrNotFound is returned when a lookup exhausts every strategy.
	ErrNotFound = errors.New("booking not found")
)

const noRequestsFound = "no requests found"

// IsEmptyResultMasquerade reports whether err is the backend's way of saying
// "empty list": HTTP 400 with a "no requests found" message.
func IsEmptyResultMasquerade(err error) bool {
	var apiErr *httpclient.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(apiErr.Message), noRequestsFound)
}

// isEmptySellerResult is the looser seller-list policy: any 400 or 404.
func isEmptySellerResult(err error) bool {
	status, ok := httpclient.StatusCode(err)
	return ok && (status == http.StatusBadRequest || status == http.StatusNotFound)
}

func unsupportedError(op string, entity models.EntityType) error {
	return errors.Mark(errors.Newf("%s is not supported for %s bookings", op, entity), ErrUnsupported)
}

func malformedError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrMalformedResponse)
}
