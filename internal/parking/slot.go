package parking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SlotType string

const (
	SlotRegular  SlotType = "Regular"
	SlotCompact  SlotType = "Compact"
	SlotEV       SlotType = "EV"
	SlotHandicap SlotType = "Handicap Accessible"
	SlotBike     SlotType = "Bike"
)

var slotTypes = []SlotType{SlotRegular, SlotCompact, SlotEV, SlotHandicap, SlotBike}

func ParseSlotType(s string) (SlotType, error) {
	for _, st := range slotTypes {
		if matchesLabel(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("slot type %q: %w", s, ErrInvalidInput)
}

type SlotStatus string

const (
	StatusAvailable   SlotStatus = "Available"
	StatusOccupied    SlotStatus = "Occupied"
	StatusMaintenance SlotStatus = "Maintenance"
)

func ParseSlotStatus(s string) (SlotStatus, error) {
	for _, st := range []SlotStatus{StatusAvailable, StatusOccupied, StatusMaintenance} {
		if matchesLabel(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("slot status %q: %w", s, ErrInvalidInput)
}

type Slot struct {
	ID               string     `json:"id"`
	Number           string     `json:"slotNumber"`
	Type             SlotType   `json:"slotType"`
	Status           SlotStatus `json:"status"`
	ChargerAvailable bool       `json:"isChargerAvailable"`
	CurrentSessionID string     `json:"currentSessionId,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Occupant is the part of an active session shown on an occupied slot.
type Occupant struct {
	SessionID   string      `json:"id"`
	NumberPlate string      `json:"vehicleNumberPlate"`
	VehicleType VehicleType `json:"vehicleType"`
	BillingType BillingType `json:"billingType"`
	EntryTime   time.Time   `json:"entryTime"`
}

// SlotView is a slot as the dashboard lists it.
type SlotView struct {
	Slot
	CurrentSession *Occupant `json:"currentSession,omitempty"`
}

// NewSlot creates an Available slot. The charger flag only sticks for EV slots.
func NewSlot(number string, slotType SlotType, charger bool, at time.Time) *Slot {
	return &Slot{
		ID:               uuid.NewString(),
		Number:           number,
		Type:             slotType,
		Status:           StatusAvailable,
		ChargerAvailable: slotType == SlotEV && charger,
		CreatedAt:        at,
		UpdatedAt:        at,
	}
}

func (s *Slot) IsAvailable() bool {
	return s.Status == StatusAvailable
}

func (s *Slot) Occupy(sessionID string, at time.Time) {
	s.Status = StatusOccupied
	s.CurrentSessionID = sessionID
	s.UpdatedAt = at
}

func (s *Slot) Release(at time.Time) string {
	sessionID := s.CurrentSessionID
	s.Status = StatusAvailable
	s.CurrentSessionID = ""
	s.UpdatedAt = at
	return sessionID
}

// SetStatus applies an operator toggle. Only Available and Maintenance are
// accepted, and an Occupied slot has to be checked out first.
func (s *Slot) SetStatus(status SlotStatus, at time.Time) error {
	if status != StatusAvailable && status != StatusMaintenance {
		return fmt.Errorf("status must be %s or %s, got %q: %w", StatusAvailable, StatusMaintenance, status, ErrInvalidInput)
	}
	if s.Status == StatusOccupied {
		return fmt.Errorf("slot %s is occupied, check out the vehicle first: %w", s.Number, ErrNotAvailable)
	}
	s.Status = status
	s.UpdatedAt = at
	return nil
}

// SlotSpec describes a slot to seed. A nil Charger on an EV slot means a
// charger is fitted.
type SlotSpec struct {
	Number  string
	Type    SlotType
	Charger *bool
}

func (spec SlotSpec) Build(at time.Time) *Slot {
	charger := spec.Type == SlotEV
	if spec.Charger != nil {
		charger = *spec.Charger
	}
	return NewSlot(spec.Number, spec.Type, charger, at)
}

func withoutCharger() *bool {
	v := false
	return &v
}

// DefaultSlotSpecs is the mall's initial inventory.
func DefaultSlotSpecs() []SlotSpec {
	return []SlotSpec{
		{Number: "A1-01", Type: SlotRegular},
		{Number: "A1-02", Type: SlotRegular},
		{Number: "A1-03", Type: SlotCompact},
		{Number: "B1-01", Type: SlotEV},
		{Number: "B1-02", Type: SlotHandicap},
		{Number: "C1-01", Type: SlotBike},
		{Number: "C1-02", Type: SlotBike},
		{Number: "D1-01", Type: SlotRegular},
		{Number: "D1-02", Type: SlotRegular},
		{Number: "E1-01", Type: SlotEV, Charger: withoutCharger()},
		{Number: "E1-02", Type: SlotRegular},
		{Number: "F1-01", Type: SlotCompact},
		{Number: "G1-01", Type: SlotHandicap},
		{Number: "H1-01", Type: SlotBike},
	}
}
