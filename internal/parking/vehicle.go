package parking

import (
	"fmt"
	"strings"
)

type VehicleType string

const (
	VehicleCar      VehicleType = "Car"
	VehicleBike     VehicleType = "Bike"
	VehicleEV       VehicleType = "EV"
	VehicleHandicap VehicleType = "Handicap Accessible"
)

var vehicleTypes = []VehicleType{VehicleCar, VehicleBike, VehicleEV, VehicleHandicap}

// compatibleSlotTypes is the fixed vehicle -> slot type table.
var compatibleSlotTypes = map[VehicleType][]SlotType{
	VehicleCar:      {SlotRegular, SlotCompact},
	VehicleBike:     {SlotBike},
	VehicleEV:       {SlotEV},
	VehicleHandicap: {SlotHandicap},
}

func ParseVehicleType(s string) (VehicleType, error) {
	for _, vt := range vehicleTypes {
		if matchesLabel(s, string(vt)) {
			return vt, nil
		}
	}
	return "", fmt.Errorf("vehicle type %q: %w", s, ErrInvalidInput)
}

// CompatibleSlotTypes returns a copy of the slot types a vehicle type may occupy.
func (vt VehicleType) CompatibleSlotTypes() []SlotType {
	types := compatibleSlotTypes[vt]
	out := make([]SlotType, len(types))
	copy(out, types)
	return out
}

func (vt VehicleType) Accepts(st SlotType) bool {
	for _, t := range compatibleSlotTypes[vt] {
		if t == st {
			return true
		}
	}
	return false
}

func (vt VehicleType) Valid() bool {
	_, ok := compatibleSlotTypes[vt]
	return ok
}

// NormalizePlate trims and upper-cases a number plate.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

// matchesLabel compares case-insensitively and treats '_' and '-' as spaces,
// so "handicap_accessible" and "day-pass" parse from the shell.
func matchesLabel(input, label string) bool {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(input))
	return strings.EqualFold(normalized, label)
}
