package service

import (
	"context"
	"sync"

	"tradepost/internal/booking"
	"tradepost/internal/domain"
	"tradepost/internal/events"
	"tradepost/internal/logging"
	"tradepost/internal/models"
	"tradepost/internal/status"

	"github.com/rs/zerolog"
)

// BookingService hands out instrumented booking adapters, one per entity
// type, and publishes an event after every successful mutation.
type BookingService struct {
	transport booking.Doer
	eventBus  domain.EventPublisher
	logger    *zerolog.Logger
	opts      []booking.Option

	mu       sync.Mutex
	adapters map[models.EntityType]booking.Adapter
}

func NewBookingService(transport booking.Doer, eventBus domain.EventPublisher, logger *zerolog.Logger, opts ...booking.Option) *BookingService {
	logger = logging.Component(logger, "booking_service")
	return &BookingService{
		transport: transport,
		eventBus:  eventBus,
		logger:    logger,
		opts:      append([]booking.Option{booking.WithLogger(logger)}, opts...),
		adapters:  make(map[models.EntityType]booking.Adapter),
	}
}

// AdapterFor returns the adapter for t, building it on first use.
func (s *BookingService) AdapterFor(t models.EntityType) (booking.Adapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.adapters[t]; ok {
		return a, nil
	}
	inner, err := booking.NewAdapter(t, s.transport, s.opts...)
	if err != nil {
		return nil, err
	}
	a := &instrumentedAdapter{inner: inner, svc: s}
	s.adapters[t] = a
	return a, nil
}

// Thread loads one booking and renders it for role.
func (s *BookingService) Thread(ctx context.Context, t models.EntityType, bookingID, contextID int64, role status.Role) (status.View, error) {
	a, err := s.AdapterFor(t)
	if err != nil {
		return status.View{}, err
	}
	b, err := a.GetBookingByID(ctx, bookingID, contextID)
	if err != nil {
		return status.View{}, err
	}
	return status.ViewOf(role, b), nil
}

func (s *BookingService) publishEvent(eventType string, b models.Booking, action string, actorID int64) {
	if s.eventBus == nil {
		return
	}

	if err := s.eventBus.PublishJSON(eventType, events.PayloadFor(b, action, actorID)); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.BookingID).Msg("publish event error")
	}
}
