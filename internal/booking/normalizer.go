package booking

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"tradepost/internal/models"

	"github.com/tidwall/gjson"
)

// Normalize maps a single booking payload, bare or enveloped under "data",
// onto the canonical Booking shape.
func Normalize(t models.EntityType, raw []byte) (models.Booking, error) {
	if !gjson.ValidBytes(raw) {
		return models.Booking{}, malformedError("%s booking response is not valid JSON", t)
	}
	res := gjson.ParseBytes(raw)
	if data := res.Get("data"); data.IsObject() {
		res = data
	}
	if !res.IsObject() {
		return models.Booking{}, malformedError("%s booking response is not an object", t)
	}
	return normalizeResult(t, res)
}

// NormalizeList unwraps a list response with the entity's list strategy and
// normalizes every element.
func NormalizeList(t models.EntityType, raw []byte) ([]models.Booking, error) {
	items, err := strategyFor(t).unwrapList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]models.Booking, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, malformedError("%s booking list item %d is not an object", t, i)
		}
		b, err := normalizeResult(t, item)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func normalizeResult(t models.EntityType, res gjson.Result) (models.Booking, error) {
	meta, _ := models.EntityInfo(t)

	id := firstPositiveInt(res, "bookingId", "requestId")
	if id <= 0 {
		return models.Booking{}, malformedError("%s booking payload has no bookingId or requestId", t)
	}

	b := models.Booking{
		BookingID:  id,
		RequestID:  id,
		EntityType: t,
		BuyerName:  firstString(res, "buyerName", "buyer.name"),
		SellerName: firstString(res, "sellerName", "seller.name"),
		Status:     normalizeStatus(firstString(res, "status", "bookingStatus")),
		CreatedAt:  firstTime(res, "createdAt"),
	}
	b.EntityID, _ = firstInt(res, "entityId", meta.IDField, meta.PayloadField+".id")
	b.BuyerID, _ = firstInt(res, "buyerId", "buyerUserId", "buyer.id")
	b.SellerID, _ = firstInt(res, "sellerId", "sellerUserId", "seller.id")
	if updated := firstTime(res, "updatedAt"); !updated.IsZero() {
		b.UpdatedAt = &updated
	}

	b.Conversation = normalizeConversation(res.Get("conversation"))

	if count := res.Get("messageCount"); count.Type == gjson.Number {
		b.MessageCount = int(count.Int())
	} else {
		b.MessageCount = len(b.Conversation)
	}

	var last *models.BookingMessage
	if n := len(b.Conversation); n > 0 {
		last = &b.Conversation[n-1]
	}
	if msg := res.Get("lastMessage"); msg.Type == gjson.String {
		b.LastMessage = msg.Str
	} else if last != nil {
		b.LastMessage = last.Message
	}
	if ts := firstTime(res, "lastMessageTime"); !ts.IsZero() {
		b.LastMessageTime = &ts
	} else if last != nil && !last.Timestamp.IsZero() {
		ts := last.Timestamp
		b.LastMessageTime = &ts
	}

	for _, path := range []string{"entityData", meta.PayloadField} {
		if data := res.Get(path); data.IsObject() {
			b.EntityData = json.RawMessage(data.Raw)
			break
		}
	}
	return b, nil
}

func normalizeConversation(conv gjson.Result) []models.BookingMessage {
	if !conv.IsArray() {
		return []models.BookingMessage{}
	}
	items := conv.Array()
	out := make([]models.BookingMessage, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		msg := models.BookingMessage{
			SenderType: models.SenderType(strings.ToUpper(firstString(item, "senderType"))),
			Message:    firstString(item, "message"),
			Timestamp:  firstTime(item, "timestamp", "createdAt", "sentAt"),
			SenderName: firstString(item, "senderName"),
		}
		msg.SenderID, _ = firstInt(item, "senderId", "senderUserId")
		out = append(out, msg)
	}
	return out
}

// normalizeStatus upper-cases known statuses sent in another case and keeps
// anything else verbatim.
func normalizeStatus(raw string) models.BookingStatus {
	if upper := models.BookingStatus(strings.ToUpper(raw)); upper.IsKnown() {
		return upper
	}
	return models.BookingStatus(raw)
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

func firstInt(res gjson.Result, paths ...string) (int64, bool) {
	for _, path := range paths {
		r := res.Get(path)
		if !present(r) {
			continue
		}
		switch r.Type {
		case gjson.Number:
			return r.Int(), true
		case gjson.String:
			if v, err := strconv.ParseInt(strings.TrimSpace(r.Str), 10, 64); err == nil {
				return v, true
			}
		}
	}
	return 0, false
}

// firstPositiveInt skips zero and negative ids.
func firstPositiveInt(res gjson.Result, paths ...string) int64 {
	for _, path := range paths {
		if v, ok := firstInt(res, path); ok && v > 0 {
			return v
		}
	}
	return 0
}

func firstString(res gjson.Result, paths ...string) string {
	for _, path := range paths {
		if r := res.Get(path); present(r) {
			return strings.TrimSpace(r.String())
		}
	}
	return ""
}

// firstTime accepts the string layouts understood by models.ParseTimestamp
// and epoch milliseconds.
func firstTime(res gjson.Result, paths ...string) time.Time {
	for _, path := range paths {
		r := res.Get(path)
		if !present(r) {
			continue
		}
		if r.Type == gjson.Number {
			return time.UnixMilli(r.Int())
		}
		return models.ParseTimestamp(r.String())
	}
	return time.Time{}
}
