package models

import (
	"fmt"
	"strings"
)

// EntityType is the kind of tradable listing a booking is attached to.
type EntityType string

const (
	EntityMobile EntityType = "mobile"
	EntityCar    EntityType = "car"
	EntityLaptop EntityType = "laptop"
)

// Bike listings exist in the catalogue but have no booking backend yet,
// so "bike" is deliberately absent from the registry below.

// EntityMeta describes how an entity type is presented and addressed.
type EntityMeta struct {
	Type        EntityType
	Label       string
	PluralLabel string
	Icon        string
	// IDField is the key the backend uses for the listing id in booking payloads.
	IDField string
	// PayloadField holds the embedded listing object, when the backend sends one.
	PayloadField string
}

var entityRegistry = []EntityMeta{
	{Type: EntityMobile, Label: "Mobile", PluralLabel: "Mobiles", Icon: "cellphone", IDField: "mobileId", PayloadField: "mobile"},
	{Type: EntityCar, Label: "Car", PluralLabel: "Cars", Icon: "car", IDField: "carId", PayloadField: "car"},
	{Type: EntityLaptop, Label: "Laptop", PluralLabel: "Laptops", Icon: "laptop", IDField: "laptopId", PayloadField: "laptop"},
}

// IsValidEntity reports whether raw names a supported entity type.
func IsValidEntity(raw string) bool {
	_, ok := EntityInfo(EntityType(raw))
	return ok
}

// AllEntityTypes returns the supported entity types in display order.
func AllEntityTypes() []EntityType {
	out := make([]EntityType, 0, len(entityRegistry))
	for _, meta := range entityRegistry {
		out = append(out, meta.Type)
	}
	return out
}

// EntityInfo returns display metadata for t.
func EntityInfo(t EntityType) (EntityMeta, bool) {
	for _, meta := range entityRegistry {
		if meta.Type == t {
			return meta, true
		}
	}
	return EntityMeta{}, false
}

// ParseEntityType accepts user or transport input such as " Car ".
func ParseEntityType(raw string) (EntityType, error) {
	t := EntityType(strings.ToLower(strings.TrimSpace(raw)))
	if !IsValidEntity(string(t)) {
		return "", fmt.Errorf("unknown entity type %q", raw)
	}
	return t, nil
}

func (t EntityType) String() string {
	return string(t)
}
