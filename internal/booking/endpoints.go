package booking

import (
	"fmt"

	"tradepost/internal/models"
)

// PathBuilder turns an id into a backend path.
type PathBuilder func(id int64) string

// EndpointConfig maps logical booking operations to backend paths for one
// entity type. Nil builders mark operations the backend does not expose.
type EndpointConfig struct {
	Base           string
	Create         string
	Pending        string
	BuyerBookings  PathBuilder
	EntityBookings PathBuilder
	SellerBookings PathBuilder
	BookingByID    PathBuilder
	SendMessage    PathBuilder
	UpdateStatus   PathBuilder
	Accept         PathBuilder
	Reject         PathBuilder
	Approve        PathBuilder
}

func resourcePath(base, format string) PathBuilder {
	tmpl := base + format
	return func(id int64) string {
		return fmt.Sprintf(tmpl, id)
	}
}

func newEndpointConfig(base, create, entityFormat string) EndpointConfig {
	return EndpointConfig{
		Base:           base,
		Create:         base + create,
		Pending:        base + "/pending",
		BuyerBookings:  resourcePath(base, "/buyer/%d"),
		EntityBookings: resourcePath(base, entityFormat),
		SendMessage:    resourcePath(base, "/%d/message"),
		UpdateStatus:   resourcePath(base, "/%d/status"),
		Accept:         resourcePath(base, "/%d/accept"),
		Reject:         resourcePath(base, "/%d/reject"),
		Approve:        resourcePath(base, "/%d/complete"),
	}
}

var endpointConfigs = func() map[models.EntityType]EndpointConfig {
	mobile := newEndpointConfig("/api/v1/mobile/requests", "/create", "/%d")

	car := newEndpointConfig("/api/carBookings", "/createBooking", "/car/%d")
	car.SellerBookings = resourcePath(car.Base, "/seller/%d")
	car.BookingByID = resourcePath(car.Base, "/%d")

	laptop := newEndpointConfig("/api/laptopBookings", "/create", "/%d")
	laptop.SellerBookings = resourcePath(laptop.Base, "/seller/%d")
	laptop.BookingByID = resourcePath(laptop.Base, "/laptop-bookings/%d")

	return map[models.EntityType]EndpointConfig{
		models.EntityMobile: mobile,
		models.EntityCar:    car,
		models.EntityLaptop: laptop,
	}
}()

// LookupConfig returns the endpoint table for t.
func LookupConfig(t models.EntityType) (EndpointConfig, bool) {
	cfg, ok := endpointConfigs[t]
	return cfg, ok
}

// ConfigFor returns the endpoint table for t and panics for a type outside
// the registry; callers validate entity types at the boundary.
func ConfigFor(t models.EntityType) EndpointConfig {
	cfg, ok := LookupConfig(t)
	if !ok {
		panic(fmt.Sprintf("booking: no endpoint config for entity type %q", t))
	}
	return cfg
}
