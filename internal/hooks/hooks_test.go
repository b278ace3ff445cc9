package hooks

import (
	"context"
	"sync"
	"testing"

	"tradepost/internal/booking"
	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubAdapter implements only the calls a test needs; anything else panics
// on the nil embedded interface.
type stubAdapter struct {
	booking.Adapter
	entity models.EntityType

	mu     sync.Mutex
	calls  int
	buyer  func(id int64) ([]models.Booking, error)
	detail func(id, contextID int64) (models.Booking, error)
	create func(req models.CreateBookingRequest) (models.Booking, error)
}

func (s *stubAdapter) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubAdapter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *stubAdapter) GetBuyerBookings(_ context.Context, id int64) ([]models.Booking, error) {
	s.count()
	return s.buyer(id)
}

func (s *stubAdapter) GetEntityBookings(_ context.Context, id int64) ([]models.Booking, error) {
	s.count()
	return s.buyer(id)
}

func (s *stubAdapter) GetBookingByID(_ context.Context, id, contextID int64) (models.Booking, error) {
	s.count()
	return s.detail(id, contextID)
}

func (s *stubAdapter) CreateBooking(_ context.Context, req models.CreateBookingRequest) (models.Booking, error) {
	s.count()
	return s.create(req)
}

func sourceOf(adapters ...*stubAdapter) (AdapterSource, *[]models.EntityType) {
	var requested []models.EntityType
	return SourceFunc(func(t models.EntityType) (booking.Adapter, error) {
		requested = append(requested, t)
		for _, a := range adapters {
			if a.entity == t {
				return a, nil
			}
		}
		return nil, errors.Newf("no adapter for %s", t)
	}), &requested
}

func bookingsFor(ids ...int64) []models.Booking {
	out := make([]models.Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Booking{BookingID: id, RequestID: id})
	}
	return out
}

func TestQuerySyncOnlyRefetchesOnDepsChange(t *testing.T) {
	car := &stubAdapter{entity: models.EntityCar, buyer: func(id int64) ([]models.Booking, error) {
		return bookingsFor(id * 10), nil
	}}
	laptop := &stubAdapter{entity: models.EntityLaptop, buyer: func(id int64) ([]models.Booking, error) {
		return bookingsFor(id * 100), nil
	}}
	src, requested := sourceOf(car, laptop)
	q := NewBuyerBookings(src)
	ctx := context.Background()

	st := q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 1, Enabled: true})
	assert.False(t, st.Loading)
	assert.True(t, st.Fetched)
	assert.Equal(t, bookingsFor(10), st.Data)

	q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 1, Enabled: true})
	assert.Equal(t, 1, car.Calls())

	st = q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 2, Enabled: true})
	assert.Equal(t, bookingsFor(20), st.Data)
	assert.Equal(t, 2, car.Calls())

	st = q.Sync(ctx, Deps{EntityType: models.EntityLaptop, ID: 2, Enabled: true})
	assert.Equal(t, bookingsFor(200), st.Data)
	assert.Equal(t, []models.EntityType{models.EntityCar, models.EntityCar, models.EntityLaptop}, *requested)

	q.Refresh(ctx)
	assert.Equal(t, 2, laptop.Calls())
}

func TestQueryDisabledKeepsStaleData(t *testing.T) {
	car := &stubAdapter{entity: models.EntityCar, buyer: func(id int64) ([]models.Booking, error) {
		return bookingsFor(id), nil
	}}
	src, _ := sourceOf(car)
	q := NewEntityBookings(src)
	ctx := context.Background()

	q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 4, Enabled: true})
	st := q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 5, Enabled: false})
	assert.False(t, st.Loading)
	assert.Equal(t, bookingsFor(4), st.Data)

	st = q.Refresh(ctx)
	assert.Equal(t, bookingsFor(4), st.Data)
	assert.Equal(t, 1, car.Calls())

	st = q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 0, Enabled: true})
	assert.False(t, st.Loading)
	assert.Equal(t, 1, car.Calls())
}

func TestQueryErrorState(t *testing.T) {
	fail := true
	car := &stubAdapter{entity: models.EntityCar, buyer: func(id int64) ([]models.Booking, error) {
		if fail {
			return nil, errors.New("backend unavailable")
		}
		return bookingsFor(id), nil
	}}
	src, _ := sourceOf(car)
	q := NewBuyerBookings(src)
	ctx := context.Background()

	st := q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 3, Enabled: true})
	assert.Equal(t, "backend unavailable", st.Err)
	assert.False(t, st.Loading)
	assert.False(t, st.Fetched)

	fail = false
	st = q.Refresh(ctx)
	assert.Empty(t, st.Err)
	assert.Equal(t, bookingsFor(3), st.Data)
}

type emptyError struct{}

func (emptyError) Error() string { return "" }

func TestQueryFallbackErrorText(t *testing.T) {
	car := &stubAdapter{entity: models.EntityCar, detail: func(id, contextID int64) (models.Booking, error) {
		return models.Booking{}, emptyError{}
	}}
	src, _ := sourceOf(car)
	st := NewBookingDetail(src).Sync(context.Background(), Deps{EntityType: models.EntityCar, ID: 1, ContextID: 2, Enabled: true})
	assert.Equal(t, errFetchBooking, st.Err)
}

func TestQueryUnknownEntity(t *testing.T) {
	src, _ := sourceOf()
	st := NewBuyerBookings(src).Sync(context.Background(), Deps{EntityType: "bike", ID: 1, Enabled: true})
	assert.Contains(t, st.Err, "bike")
	assert.False(t, st.Loading)
}

func TestQueryDiscardsStaleResponse(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var first sync.Once

	car := &stubAdapter{entity: models.EntityCar, buyer: func(id int64) ([]models.Booking, error) {
		isFirst := false
		first.Do(func() { isFirst = true })
		if isFirst {
			close(started)
			<-release
			return bookingsFor(1), nil
		}
		return bookingsFor(2), nil
	}}
	src := SourceFunc(func(models.EntityType) (booking.Adapter, error) { return car, nil })
	q := NewBuyerBookings(src)
	ctx := context.Background()

	done := make(chan State[[]models.Booking])
	go func() {
		done <- q.Sync(ctx, Deps{EntityType: models.EntityCar, ID: 9, Enabled: true})
	}()
	<-started

	latest := q.Refresh(ctx)
	assert.Equal(t, bookingsFor(2), latest.Data)
	assert.False(t, latest.Loading)

	close(release)
	stale := <-done
	assert.Equal(t, bookingsFor(2), stale.Data)
	assert.Equal(t, bookingsFor(2), q.State().Data)
}

func TestBookingDetailUsesContext(t *testing.T) {
	mobile := &stubAdapter{entity: models.EntityMobile, detail: func(id, contextID int64) (models.Booking, error) {
		return models.Booking{BookingID: id, RequestID: id, BuyerID: contextID}, nil
	}}
	src, _ := sourceOf(mobile)
	q := NewBookingDetail(src)

	st := q.Sync(context.Background(), Deps{EntityType: models.EntityMobile, ID: 31, ContextID: 5, Enabled: true})
	require.Empty(t, st.Err)
	assert.Equal(t, int64(31), st.Data.BookingID)
	assert.Equal(t, int64(5), st.Data.BuyerID)

	st = q.Sync(context.Background(), Deps{EntityType: models.EntityMobile, ID: 31, Enabled: true})
	assert.Equal(t, 1, mobile.Calls())
	assert.Equal(t, int64(31), st.Data.BookingID)
}

func TestCreateBookingMutation(t *testing.T) {
	var got models.CreateBookingRequest
	laptop := &stubAdapter{entity: models.EntityLaptop, create: func(req models.CreateBookingRequest) (models.Booking, error) {
		got = req
		if req.Message == "" {
			return models.Booking{}, errors.New("message is required")
		}
		return models.Booking{BookingID: 7, RequestID: 7}, nil
	}}
	src, _ := sourceOf(laptop)
	m := NewCreateBooking(src, models.EntityLaptop)
	ctx := context.Background()

	b, err := m.Run(ctx, models.CreateBookingRequest{EntityID: 3, BuyerUserID: 5, Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), b.BookingID)
	assert.Equal(t, models.EntityLaptop, got.EntityType)
	assert.Equal(t, MutationState[models.Booking]{Data: b}, m.State())

	_, err = m.Run(ctx, models.CreateBookingRequest{EntityID: 3, BuyerUserID: 5})
	require.Error(t, err)
	st := m.State()
	assert.Equal(t, "message is required", st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, b, st.Data)
}

func TestSendMessageMutationUnknownEntity(t *testing.T) {
	src, _ := sourceOf()
	m := NewSendMessage(src, "bike")
	_, err := m.Run(context.Background(), models.SendMessageRequest{BookingID: 1, SenderUserID: 2, Message: "x"})
	require.Error(t, err)
	assert.NotEmpty(t, m.State().Err)
}
