package hooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"tradepost/internal/booking"
	"tradepost/internal/cache"
	"tradepost/internal/httpclient"
	"tradepost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshReachesBackendThroughCache(t *testing.T) {
	var (
		hits    atomic.Int32
		payload atomic.Value
	)
	payload.Store(`[{"requestId":31,"mobileId":9,"buyerUserId":5,"conversation":[]}]`)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/mobile/requests/buyer/5", r.URL.Path)
		hits.Add(1)
		_, _ = w.Write([]byte(payload.Load().(string)))
	}))
	t.Cleanup(ts.Close)

	client := httpclient.New(ts.URL, time.Second, httpclient.WithCache(cache.NewMemoryStore(), 30*time.Second))
	adapter, err := booking.NewAdapter(models.EntityMobile, client)
	require.NoError(t, err)
	source := SourceFunc(func(models.EntityType) (booking.Adapter, error) { return adapter, nil })

	ctx := context.Background()
	q := NewBuyerBookings(source)
	st := q.Sync(ctx, Deps{EntityType: models.EntityMobile, ID: 5, Enabled: true})
	require.Empty(t, st.Err)
	require.Len(t, st.Data, 1)
	assert.Equal(t, 0, st.Data[0].MessageCount)

	payload.Store(`[{"requestId":31,"mobileId":9,"buyerUserId":5,"conversation":[
		{"senderId":5,"senderType":"BUYER","message":"hi"},
		{"senderId":8,"senderType":"SELLER","message":"hello"}]}]`)

	st = q.Refresh(ctx)
	require.Empty(t, st.Err)
	assert.Equal(t, int32(2), hits.Load())
	require.Len(t, st.Data, 1)
	assert.Equal(t, 2, st.Data[0].MessageCount)
	assert.Equal(t, "hello", st.Data[0].LastMessage)
}
