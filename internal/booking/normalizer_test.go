package booking

import (
	"encoding/json"
	"testing"
	"time"

	"tradepost/internal/models"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCanonicalID(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int64
	}{
		{name: "bookingId", raw: `{"bookingId": 11, "status": "PENDING"}`, want: 11},
		{name: "requestId only", raw: `{"requestId": 12, "status": "PENDING"}`, want: 12},
		{name: "bookingId wins", raw: `{"bookingId": 13, "requestId": 99}`, want: 13},
		{name: "string id", raw: `{"requestId": "14"}`, want: 14},
		{name: "enveloped", raw: `{"data": {"requestId": 15}, "message": "ok"}`, want: 15},
	}
	for _, et := range models.AllEntityTypes() {
		for _, tt := range tests {
			t.Run(string(et)+"/"+tt.name, func(t *testing.T) {
				b, err := Normalize(et, []byte(tt.raw))
				require.NoError(t, err)
				assert.Equal(t, tt.want, b.BookingID)
				assert.Equal(t, tt.want, b.RequestID)
				assert.Equal(t, et, b.EntityType)
				assert.NotNil(t, b.Conversation)
				assert.True(t, b.Matches(tt.want))
			})
		}
	}
}

func TestNormalizeConversation(t *testing.T) {
	for _, raw := range []string{`{"bookingId":1}`, `{"bookingId":1,"conversation":null}`} {
		b, err := Normalize(models.EntityCar, []byte(raw))
		require.NoError(t, err)
		assert.Equal(t, []models.BookingMessage{}, b.Conversation)
		assert.Zero(t, b.MessageCount)
		assert.Empty(t, b.LastMessage)
		assert.Nil(t, b.LastMessageTime)
	}
}

func TestNormalizeFullPayload(t *testing.T) {
	raw := `{
		"requestId": 21,
		"mobileId": 300,
		"buyerUserId": 5,
		"sellerId": 6,
		"buyerName": "Asha",
		"seller": {"name": "Ravi"},
		"status": "in_negotiation",
		"createdAt": "2024-05-01T10:00:00Z",
		"updatedAt": "2024-05-02T09:30:00Z",
		"conversation": [
			{"senderUserId": 5, "senderType": "buyer", "message": "still available?", "timestamp": "2024-05-01T10:00:00Z"},
			{"senderId": 6, "senderType": "SELLER", "message": "yes", "createdAt": "2024-05-01T11:00:00Z", "senderName": "Ravi"}
		],
		"mobile": {"id": 300, "brand": "Pixel"}
	}`

	got, err := Normalize(models.EntityMobile, []byte(raw))
	require.NoError(t, err)

	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	last := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	want := models.Booking{
		BookingID:  21,
		RequestID:  21,
		EntityID:   300,
		EntityType: models.EntityMobile,
		BuyerID:    5,
		SellerID:   6,
		BuyerName:  "Asha",
		SellerName: "Ravi",
		Status:     models.StatusInNegotiation,
		CreatedAt:  created,
		UpdatedAt:  &updated,
		Conversation: []models.BookingMessage{
			{SenderID: 5, SenderType: models.SenderBuyer, Message: "still available?", Timestamp: created},
			{SenderID: 6, SenderType: models.SenderSeller, Message: "yes", Timestamp: last, SenderName: "Ravi"},
		},
		MessageCount:    2,
		LastMessage:     "yes",
		LastMessageTime: &last,
		EntityData:      json.RawMessage(`{"id": 300, "brand": "Pixel"}`),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize() mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeDerivedFieldsFromPayload(t *testing.T) {
	raw := `{
		"bookingId": 3,
		"carId": 40,
		"messageCount": 9,
		"lastMessage": "see you at noon",
		"lastMessageTime": "2024-06-01T12:00:00",
		"conversation": [{"senderId": 1, "senderType": "BUYER", "message": "hi"}]
	}`
	b, err := Normalize(models.EntityCar, []byte(raw))
	require.NoError(t, err)

	assert.Equal(t, int64(40), b.EntityID)
	assert.Equal(t, 9, b.MessageCount)
	assert.Equal(t, "see you at noon", b.LastMessage)
	require.NotNil(t, b.LastMessageTime)
	assert.True(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local).Equal(*b.LastMessageTime))
}

func TestNormalizeStatus(t *testing.T) {
	b, err := Normalize(models.EntityLaptop, []byte(`{"bookingId":1,"status":"FOO"}`))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatus("FOO"), b.Status)

	b, err = Normalize(models.EntityLaptop, []byte(`{"bookingId":1,"status":"accepted"}`))
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, b.Status)
}

func TestNormalizeUnparseableTimeDegrades(t *testing.T) {
	b, err := Normalize(models.EntityLaptop, []byte(`{"bookingId":1,"createdAt":"yesterday","updatedAt":"soon"}`))
	require.NoError(t, err)
	assert.True(t, b.CreatedAt.IsZero())
	assert.Nil(t, b.UpdatedAt)
}

func TestNormalizeMalformed(t *testing.T) {
	for name, raw := range map[string]string{
		"invalid json": `{"bookingId":`,
		"array":        `[{"bookingId":1}]`,
		"no id":        `{"status":"PENDING"}`,
		"null id":      `{"bookingId":null,"requestId":null}`,
		"zero id":      `{"bookingId":0}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(models.EntityMobile, []byte(raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}

func TestNormalizeList(t *testing.T) {
	t.Run("car envelope", func(t *testing.T) {
		got, err := NormalizeList(models.EntityCar, []byte(`{"data":[{"bookingId":1},{"requestId":2}],"count":2,"message":"ok"}`))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[1].BookingID)
	})

	t.Run("car envelope without data", func(t *testing.T) {
		for _, raw := range []string{`{"data":null,"count":0}`, `{"count":0,"message":"none"}`} {
			got, err := NormalizeList(models.EntityCar, []byte(raw))
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		}
	})

	t.Run("car bare array", func(t *testing.T) {
		_, err := NormalizeList(models.EntityCar, []byte(`[{"bookingId":1}]`))
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	})

	t.Run("mobile bare array", func(t *testing.T) {
		got, err := NormalizeList(models.EntityMobile, []byte(`[{"requestId":4,"conversation":null}]`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, int64(4), got[0].BookingID)
		assert.NotNil(t, got[0].Conversation)
	})

	t.Run("laptop empty array", func(t *testing.T) {
		got, err := NormalizeList(models.EntityLaptop, []byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("laptop envelope", func(t *testing.T) {
		_, err := NormalizeList(models.EntityLaptop, []byte(`{"data":[]}`))
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	})

	t.Run("item without id", func(t *testing.T) {
		_, err := NormalizeList(models.EntityMobile, []byte(`[{"bookingId":1},{"status":"PENDING"}]`))
		assert.True(t, errors.Is(err, ErrMalformedResponse))
	})
}
