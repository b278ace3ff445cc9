// Package status maps booking statuses to role-specific presentation.
package status

import (
	"strings"

	"tradepost/internal/models"
)

// Role is the viewer's side of a booking.
type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
)

// ParseRole accepts "buyer" or "seller" in any case. Anything else is the buyer view.
func ParseRole(raw string) Role {
	if Role(strings.ToLower(strings.TrimSpace(raw))) == RoleSeller {
		return RoleSeller
	}
	return RoleBuyer
}

// Config is how a status is presented to one role.
type Config struct {
	Label   string `json:"label"`
	Color   string `json:"color"`
	BgColor string `json:"bgColor"`
	Icon    string `json:"icon"`
}

var buyerConfigs = map[models.BookingStatus]Config{
	models.StatusPending:       {Label: "Pending", Color: "#B45309", BgColor: "#FEF3C7", Icon: "clock-outline"},
	models.StatusInNegotiation: {Label: "In Negotiation", Color: "#1D4ED8", BgColor: "#DBEAFE", Icon: "chat-processing-outline"},
	models.StatusConfirmed:     {Label: "Confirmed", Color: "#047857", BgColor: "#D1FAE5", Icon: "check-circle-outline"},
	models.StatusAccepted:      {Label: "Accepted", Color: "#047857", BgColor: "#D1FAE5", Icon: "handshake-outline"},
	models.StatusRejected:      {Label: "Rejected", Color: "#B91C1C", BgColor: "#FEE2E2", Icon: "close-circle-outline"},
	models.StatusCompleted:     {Label: "Completed", Color: "#4338CA", BgColor: "#E0E7FF", Icon: "check-all"},
	models.StatusSold:          {Label: "Sold", Color: "#374151", BgColor: "#E5E7EB", Icon: "tag-outline"},
}

var sellerConfigs = map[models.BookingStatus]Config{
	models.StatusPending:       {Label: "New Request", Color: "#B45309", BgColor: "#FEF3C7", Icon: "bell-ring-outline"},
	models.StatusInNegotiation: {Label: "Negotiating", Color: "#1D4ED8", BgColor: "#DBEAFE", Icon: "chat-processing-outline"},
	models.StatusConfirmed:     {Label: "Confirmed", Color: "#047857", BgColor: "#D1FAE5", Icon: "check-circle-outline"},
	models.StatusAccepted:      {Label: "Accepted", Color: "#047857", BgColor: "#D1FAE5", Icon: "handshake-outline"},
	models.StatusRejected:      {Label: "Declined", Color: "#B91C1C", BgColor: "#FEE2E2", Icon: "close-circle-outline"},
	models.StatusCompleted:     {Label: "Deal Completed", Color: "#4338CA", BgColor: "#E0E7FF", Icon: "check-all"},
	models.StatusSold:          {Label: "Sold", Color: "#374151", BgColor: "#E5E7EB", Icon: "tag-outline"},
}

func fallback(s models.BookingStatus) Config {
	return Config{Label: string(s), Color: "#6B7280", BgColor: "#F3F4F6", Icon: "help-circle-outline"}
}

// ForBuyer returns the buyer-facing presentation of s.
func ForBuyer(s models.BookingStatus) Config {
	if cfg, ok := buyerConfigs[s]; ok {
		return cfg
	}
	return fallback(s)
}

// ForSeller returns the seller-facing presentation of s.
func ForSeller(s models.BookingStatus) Config {
	if cfg, ok := sellerConfigs[s]; ok {
		return cfg
	}
	return fallback(s)
}

// For dispatches on role.
func For(role Role, s models.BookingStatus) Config {
	if role == RoleSeller {
		return ForSeller(s)
	}
	return ForBuyer(s)
}

// IsChatDisabled reports whether the thread no longer accepts messages.
func IsChatDisabled(s models.BookingStatus) bool {
	switch s {
	case models.StatusCompleted, models.StatusRejected, models.StatusSold:
		return true
	}
	return false
}

// View is a booking as one role sees it.
type View struct {
	Booking      models.Booking `json:"booking"`
	Role         Role           `json:"role"`
	Status       Config         `json:"status"`
	ChatDisabled bool           `json:"chatDisabled"`
}

// ViewOf renders b for role.
func ViewOf(role Role, b models.Booking) View {
	return View{
		Booking:      b,
		Role:         role,
		Status:       For(role, b.Status),
		ChatDisabled: IsChatDisabled(b.Status),
	}
}
