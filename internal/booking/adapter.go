package booking

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"tradepost/internal/httpclient"
	"tradepost/internal/logging"
	"tradepost/internal/metrics"
	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Doer performs one backend call and returns the response body.
// *httpclient.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req httpclient.Request) ([]byte, error)
}

// Adapter is the entity-agnostic booking API. Every result is normalized.
type Adapter interface {
	EntityType() models.EntityType
	SupportsSellerBookings() bool

	CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error)
	GetBuyerBookings(ctx context.Context, buyerID int64) ([]models.Booking, error)
	GetEntityBookings(ctx context.Context, entityID int64) ([]models.Booking, error)
	GetSellerBookings(ctx context.Context, sellerID int64) ([]models.Booking, error)
	GetBookingByID(ctx context.Context, bookingID, contextID int64) (models.Booking, error)
	GetPendingBookings(ctx context.Context, sellerID int64) ([]models.Booking, error)
	SendMessage(ctx context.Context, req models.SendMessageRequest) (models.Booking, error)
	UpdateStatus(ctx context.Context, bookingID int64, status models.BookingStatus) (models.Booking, error)
	AcceptBooking(ctx context.Context, bookingID int64) (models.Booking, error)
	RejectBooking(ctx context.Context, bookingID int64) (models.Booking, error)
	ApproveBooking(ctx context.Context, bookingID int64) (models.Booking, error)
}

// Option configures an adapter.
type Option func(*entityAdapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *entityAdapter) {
		a.logger = logging.Component(logger, "booking_adapter")
	}
}

// WithClock replaces time.Now, used for the laptop bookingDate default.
func WithClock(now func() time.Time) Option {
	return func(a *entityAdapter) {
		a.now = now
	}
}

type entityAdapter struct {
	entity    models.EntityType
	cfg       EndpointConfig
	strat     strategy
	transport Doer
	logger    *zerolog.Logger
	now       func() time.Time
}

// NewAdapter builds the adapter for entity t over transport.
func NewAdapter(t models.EntityType, transport Doer, opts ...Option) (Adapter, error) {
	cfg, ok := LookupConfig(t)
	if !ok {
		return nil, errors.Newf("no booking adapter for entity type %q", t)
	}
	if transport == nil {
		return nil, errors.New("booking adapter requires a transport")
	}
	a := &entityAdapter{
		entity:    t,
		cfg:       cfg,
		strat:     strategyFor(t),
		transport: transport,
		logger:    logging.Component(nil, "booking_adapter"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *entityAdapter) EntityType() models.EntityType { return a.entity }

func (a *entityAdapter) SupportsSellerBookings() bool { return a.cfg.SellerBookings != nil }

// cacheScope groups cached GETs so any successful mutation on the entity
// type invalidates them.
func (a *entityAdapter) cacheScope() string {
	return "booking:" + string(a.entity)
}

func (a *entityAdapter) CreateBooking(ctx context.Context, req models.CreateBookingRequest) (models.Booking, error) {
	raw, err := a.transport.Do(ctx, httpclient.Request{
		Method:     http.MethodPost,
		Path:       a.cfg.Create,
		JSON:       a.strat.shapeCreate(req, a.now()),
		CacheScope: a.cacheScope(),
	})
	if err != nil {
		return models.Booking{}, err
	}
	return Normalize(a.entity, raw)
}

func (a *entityAdapter) GetBuyerBookings(ctx context.Context, buyerID int64) ([]models.Booking, error) {
	return a.fetchList(ctx, "get_buyer_bookings", a.cfg.BuyerBookings(buyerID), IsEmptyResultMasquerade)
}

func (a *entityAdapter) GetEntityBookings(ctx context.Context, entityID int64) ([]models.Booking, error) {
	return a.fetchList(ctx, "get_entity_bookings", a.cfg.EntityBookings(entityID), IsEmptyResultMasquerade)
}

func (a *entityAdapter) GetSellerBookings(ctx context.Context, sellerID int64) ([]models.Booking, error) {
	if a.cfg.SellerBookings == nil {
		return nil, unsupportedError("getSellerBookings", a.entity)
	}
	return a.fetchList(ctx, "get_seller_bookings", a.cfg.SellerBookings(sellerID), isEmptySellerResult)
}

// GetPendingBookings lists pending bookings. The backend endpoint takes no
// seller filter, so sellerID is only logged.
func (a *entityAdapter) GetPendingBookings(ctx context.Context, sellerID int64) ([]models.Booking, error) {
	a.logger.Debug().
		Str("entity", string(a.entity)).
		Int64("seller_id", sellerID).
		Msg("pending bookings endpoint is not filtered by seller")
	return a.fetchList(ctx, "get_pending_bookings", a.cfg.Pending, nil)
}

func (a *entityAdapter) SendMessage(ctx context.Context, req models.SendMessageRequest) (models.Booking, error) {
	body := a.strat.shapeMessage(req)
	return a.mutate(ctx, http.MethodPatch, a.cfg.SendMessage(req.BookingID), body.Query, body.Form)
}

func (a *entityAdapter) UpdateStatus(ctx context.Context, bookingID int64, status models.BookingStatus) (models.Booking, error) {
	query := url.Values{"status": {string(status)}}
	return a.mutate(ctx, http.MethodPatch, a.cfg.UpdateStatus(bookingID), query, nil)
}

func (a *entityAdapter) AcceptBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	return a.mutate(ctx, http.MethodPatch, a.cfg.Accept(bookingID), nil, nil)
}

func (a *entityAdapter) RejectBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	return a.mutate(ctx, http.MethodPatch, a.cfg.Reject(bookingID), nil, nil)
}

func (a *entityAdapter) ApproveBooking(ctx context.Context, bookingID int64) (models.Booking, error) {
	return a.mutate(ctx, http.MethodPost, a.cfg.Approve(bookingID), nil, nil)
}

func (a *entityAdapter) mutate(ctx context.Context, method, path string, query, form url.Values) (models.Booking, error) {
	raw, err := a.transport.Do(ctx, httpclient.Request{
		Method:     method,
		Path:       path,
		Query:      query,
		Form:       form,
		CacheScope: a.cacheScope(),
	})
	if err != nil {
		return models.Booking{}, err
	}
	return Normalize(a.entity, raw)
}

// fetchList GETs a list endpoint. Errors accepted by emptyOK become an empty
// list; every other error is returned unchanged.
func (a *entityAdapter) fetchList(ctx context.Context, op, path string, emptyOK func(error) bool) ([]models.Booking, error) {
	raw, err := a.transport.Do(ctx, httpclient.Request{
		Method:     http.MethodGet,
		Path:       path,
		CacheScope: a.cacheScope(),
	})
	if err != nil {
		if emptyOK != nil && emptyOK(err) {
			metrics.IncEmptySuppressed(string(a.entity), op)
			a.logger.Debug().
				Err(err).
				Str("entity", string(a.entity)).
				Str("operation", op).
				Msg("backend error treated as empty result")
			return []models.Booking{}, nil
		}
		return nil, err
	}
	return NormalizeList(a.entity, raw)
}
