package booking

import (
	"net/url"
	"strconv"
	"time"

	"tradepost/internal/models"

	"github.com/tidwall/gjson"
)

type lookupMode int

const (
	lookupUnavailable lookupMode = iota
	// lookupEntityThenBuyer scans the entity-side list, then the buyer-side list.
	lookupEntityThenBuyer
)

// messageBody is how a strategy wants a message sent: query parameters,
// multipart form fields, or both.
type messageBody struct {
	Query url.Values
	Form  url.Values
}

// strategy is the per-entity request and response shaping.
type strategy struct {
	shapeCreate  func(req models.CreateBookingRequest, now time.Time) interface{}
	shapeMessage func(req models.SendMessageRequest) messageBody
	unwrapList   func(raw []byte) ([]gjson.Result, error)
	lookup       lookupMode
}

type mobileCreateBody struct {
	MobileID    int64  `json:"mobileId"`
	BuyerUserID int64  `json:"buyerUserId"`
	Message     string `json:"message"`
}

type carCreateBody struct {
	CarID   int64  `json:"carId"`
	BuyerID int64  `json:"buyerId"`
	Message string `json:"message"`
}

type laptopCreateBody struct {
	LaptopID    int64  `json:"laptopId"`
	BuyerUserID int64  `json:"buyerUserId"`
	Message     string `json:"message"`
	BookingDate string `json:"bookingDate"`
}

var strategies = map[models.EntityType]strategy{
	models.EntityMobile: {
		shapeCreate: func(req models.CreateBookingRequest, _ time.Time) interface{} {
			return mobileCreateBody{MobileID: req.EntityID, BuyerUserID: req.BuyerUserID, Message: req.Message}
		},
		shapeMessage: formMessage,
		unwrapList:   unwrapArray,
		lookup:       lookupEntityThenBuyer,
	},
	models.EntityCar: {
		shapeCreate: func(req models.CreateBookingRequest, _ time.Time) interface{} {
			return carCreateBody{CarID: req.EntityID, BuyerID: req.BuyerUserID, Message: req.Message}
		},
		shapeMessage: formMessage,
		unwrapList:   unwrapDataEnvelope,
	},
	models.EntityLaptop: {
		shapeCreate: func(req models.CreateBookingRequest, now time.Time) interface{} {
			date := req.BookingDate
			if date == "" {
				date = now.Format(models.DateLayout)
			}
			return laptopCreateBody{LaptopID: req.EntityID, BuyerUserID: req.BuyerUserID, Message: req.Message, BookingDate: date}
		},
		shapeMessage: queryMessage,
		unwrapList:   unwrapArray,
	},
}

func strategyFor(t models.EntityType) strategy {
	s, ok := strategies[t]
	if !ok {
		panic("booking: no shaping strategy for entity type " + strconv.Quote(string(t)))
	}
	return s
}

func messageFields(req models.SendMessageRequest) url.Values {
	return url.Values{
		"senderUserId": {strconv.FormatInt(req.SenderUserID, 10)},
		"message":      {req.Message},
	}
}

func formMessage(req models.SendMessageRequest) messageBody {
	return messageBody{Form: messageFields(req)}
}

func queryMessage(req models.SendMessageRequest) messageBody {
	return messageBody{Query: messageFields(req)}
}

func unwrapArray(raw []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformedError("booking list response is not valid JSON")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsArray() {
		return nil, malformedError("booking list response is not an array")
	}
	return res.Array(), nil
}

// unwrapDataEnvelope reads {data, count, message}; null or missing data is an
// empty list.
func unwrapDataEnvelope(raw []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformedError("booking list response is not valid JSON")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return nil, malformedError("booking list response is not an envelope object")
	}
	data := res.Get("data")
	switch {
	case !present(data):
		return []gjson.Result{}, nil
	case data.IsArray():
		return data.Array(), nil
	default:
		return nil, malformedError("booking list envelope data is not an array")
	}
}
