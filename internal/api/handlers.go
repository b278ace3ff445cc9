package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"tradepost/internal/booking"
	"tradepost/internal/domain"
	"tradepost/internal/httpclient"
	"tradepost/internal/models"
	"tradepost/internal/status"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type bookingHandlers struct {
	svc    domain.BookingService
	logger *zerolog.Logger
}

type listResponse struct {
	Bookings []models.Booking `json:"bookings"`
	Count    int              `json:"count"`
}

type createBookingBody struct {
	EntityID    int64  `json:"entityId"`
	BuyerUserID int64  `json:"buyerUserId"`
	Message     string `json:"message"`
	BookingDate string `json:"bookingDate"`
}

type sendMessageBody struct {
	SenderUserID int64  `json:"senderUserId"`
	Message      string `json:"message"`
}

type updateStatusBody struct {
	Status string `json:"status"`
}

// errorStatus maps adapter errors onto gateway responses. Backend 4xx
// answers are passed through; anything else upstream is a bad gateway.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, booking.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, booking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	if code, ok := httpclient.StatusCode(err); ok {
		if code >= 400 && code < 500 {
			return code
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *bookingHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errorStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("booking request failed")
	}
	writeError(w, code, err.Error())
}

func (h *bookingHandlers) adapter(w http.ResponseWriter, r *http.Request) (booking.Adapter, bool) {
	t, err := models.ParseEntityType(r.PathValue("entity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	a, err := h.svc.AdapterFor(t)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return a, true
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Newf("%s must be a positive integer", name)
	}
	return id, nil
}

// pathTarget resolves the adapter and a positive id path value.
func (h *bookingHandlers) pathTarget(w http.ResponseWriter, r *http.Request, name string) (booking.Adapter, int64, bool) {
	a, ok := h.adapter(w, r)
	if !ok {
		return nil, 0, false
	}
	id, err := parseID(r.PathValue(name), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, 0, false
	}
	return a, id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeList(w http.ResponseWriter, list []models.Booking) {
	if list == nil {
		list = []models.Booking{}
	}
	writeJSON(w, http.StatusOK, listResponse{Bookings: list, Count: len(list)})
}

func (h *bookingHandlers) buyerBookings(w http.ResponseWriter, r *http.Request) {
	a, id, ok := h.pathTarget(w, r, "id")
	if !ok {
		return
	}
	list, err := a.GetBuyerBookings(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *bookingHandlers) entityBookings(w http.ResponseWriter, r *http.Request) {
	a, id, ok := h.pathTarget(w, r, "id")
	if !ok {
		return
	}
	list, err := a.GetEntityBookings(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *bookingHandlers) sellerBookings(w http.ResponseWriter, r *http.Request) {
	a, id, ok := h.pathTarget(w, r, "id")
	if !ok {
		return
	}
	list, err := a.GetSellerBookings(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *bookingHandlers) pendingBookings(w http.ResponseWriter, r *http.Request) {
	a, ok := h.adapter(w, r)
	if !ok {
		return
	}
	var sellerID int64
	if raw := r.URL.Query().Get("sellerId"); raw != "" {
		id, err := parseID(raw, "sellerId")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sellerID = id
	}
	list, err := a.GetPendingBookings(r.Context(), sellerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *bookingHandlers) thread(w http.ResponseWriter, r *http.Request) {
	t, err := models.ParseEntityType(r.PathValue("entity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	bookingID, err := parseID(r.PathValue("bookingId"), "bookingId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	contextID, err := parseID(r.URL.Query().Get("context"), "context")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.svc.Thread(r.Context(), t, bookingID, contextID, status.ParseRole(r.URL.Query().Get("role")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *bookingHandlers) createBooking(w http.ResponseWriter, r *http.Request) {
	a, ok := h.adapter(w, r)
	if !ok {
		return
	}
	var body createBookingBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.EntityID <= 0 || body.BuyerUserID <= 0 {
		writeError(w, http.StatusBadRequest, "entityId and buyerUserId are required")
		return
	}

	b, err := a.CreateBooking(r.Context(), models.CreateBookingRequest{
		EntityID:    body.EntityID,
		EntityType:  a.EntityType(),
		BuyerUserID: body.BuyerUserID,
		Message:     strings.TrimSpace(body.Message),
		BookingDate: strings.TrimSpace(body.BookingDate),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *bookingHandlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	a, id, ok := h.pathTarget(w, r, "bookingId")
	if !ok {
		return
	}
	var body sendMessageBody
	if !decodeBody(w, r, &body) {
		return
	}
	message := strings.TrimSpace(body.Message)
	if body.SenderUserID <= 0 || message == "" {
		writeError(w, http.StatusBadRequest, "senderUserId and message are required")
		return
	}

	b, err := a.SendMessage(r.Context(), models.SendMessageRequest{BookingID: id, SenderUserID: body.SenderUserID, Message: message})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *bookingHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	a, id, ok := h.pathTarget(w, r, "bookingId")
	if !ok {
		return
	}
	var body updateStatusBody
	if !decodeBody(w, r, &body) {
		return
	}
	raw := strings.TrimSpace(body.Status)
	if raw == "" {
		writeError(w, http.StatusBadRequest, "status is required")
		return
	}

	b, err := a.UpdateStatus(r.Context(), id, models.BookingStatus(strings.ToUpper(raw)))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type transition func(a booking.Adapter, r *http.Request, id int64) (models.Booking, error)

func (h *bookingHandlers) transition(w http.ResponseWriter, r *http.Request, do transition) {
	a, id, ok := h.pathTarget(w, r, "bookingId")
	if !ok {
		return
	}
	b, err := do(a, r, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *bookingHandlers) accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a booking.Adapter, r *http.Request, id int64) (models.Booking, error) {
		return a.AcceptBooking(r.Context(), id)
	})
}

func (h *bookingHandlers) reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a booking.Adapter, r *http.Request, id int64) (models.Booking, error) {
		return a.RejectBooking(r.Context(), id)
	})
}

func (h *bookingHandlers) approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(a booking.Adapter, r *http.Request, id int64) (models.Booking, error) {
		return a.ApproveBooking(r.Context(), id)
	})
}
