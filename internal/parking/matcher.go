package parking

import (
	"fmt"
	"sort"
)

// Fallback marks an automatic assignment made under a relaxed rule.
type Fallback string

const (
	FallbackNone          Fallback = ""
	FallbackChargerlessEV Fallback = "ev_without_charger"
	FallbackCompact       Fallback = "compact_for_car"
)

type Assignment struct {
	Slot     Slot
	Fallback Fallback
}

func (a Assignment) IsFallback() bool {
	return a.Fallback != FallbackNone
}

// ValidateManualSlot checks an operator-chosen slot, looked up by number in
// the inventory, against the vehicle type.
func ValidateManualSlot(number string, vehicleType VehicleType, inventory []Slot) (Slot, error) {
	for _, slot := range inventory {
		if slot.Number == number {
			return CheckSlot(slot, vehicleType)
		}
	}
	return Slot{}, fmt.Errorf("slot %s: %w", number, ErrNotFound)
}

// CheckSlot applies the manual-selection rules to a single resolved slot.
func CheckSlot(slot Slot, vehicleType VehicleType) (Slot, error) {
	if !slot.IsAvailable() {
		return Slot{}, fmt.Errorf("slot %s is %s: %w", slot.Number, slot.Status, ErrNotAvailable)
	}
	if !vehicleType.Accepts(slot.Type) && !(vehicleType == VehicleCar && slot.Type == SlotCompact) {
		return Slot{}, fmt.Errorf("slot %s (%s) for %s: %w", slot.Number, slot.Type, vehicleType, ErrTypeMismatch)
	}
	if vehicleType == VehicleEV && slot.Type == SlotEV && !slot.ChargerAvailable {
		return Slot{}, fmt.Errorf("slot %s: %w", slot.Number, ErrChargerUnavailable)
	}
	return slot, nil
}

// SelectAutomaticSlot picks the lowest-numbered slot from the first
// non-empty tier: compatible (charger-equipped for EV), then charger-less EV,
// then Compact for cars.
func SelectAutomaticSlot(vehicleType VehicleType, inventory []Slot) (Assignment, error) {
	if slot, ok := firstByNumber(inventory, func(s Slot) bool {
		if !vehicleType.Accepts(s.Type) {
			return false
		}
		return vehicleType != VehicleEV || s.ChargerAvailable
	}); ok {
		return Assignment{Slot: slot}, nil
	}

	switch vehicleType {
	case VehicleEV:
		if slot, ok := firstByNumber(inventory, func(s Slot) bool {
			return s.Type == SlotEV && !s.ChargerAvailable
		}); ok {
			return Assignment{Slot: slot, Fallback: FallbackChargerlessEV}, nil
		}
	case VehicleCar:
		if slot, ok := firstByNumber(inventory, func(s Slot) bool {
			return s.Type == SlotCompact
		}); ok {
			return Assignment{Slot: slot, Fallback: FallbackCompact}, nil
		}
	}

	return Assignment{}, fmt.Errorf("vehicle type %s: %w", vehicleType, ErrNoSlotAvailable)
}

func firstByNumber(inventory []Slot, match func(Slot) bool) (Slot, bool) {
	var candidates []Slot
	for _, slot := range inventory {
		if slot.IsAvailable() && match(slot) {
			candidates = append(candidates, slot)
		}
	}
	if len(candidates) == 0 {
		return Slot{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Number < candidates[j].Number
	})

	return candidates[0], true
}
