package parking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionActive    SessionStatus = "Active"
	SessionCompleted SessionStatus = "Completed"
)

type BillingType string

const (
	BillingHourly  BillingType = "Hourly"
	BillingDayPass BillingType = "Day Pass"
)

func ParseBillingType(s string) (BillingType, error) {
	for _, bt := range []BillingType{BillingHourly, BillingDayPass} {
		if matchesLabel(s, string(bt)) {
			return bt, nil
		}
	}
	return "", fmt.Errorf("billing type %q: %w", s, ErrInvalidInput)
}

type Session struct {
	ID          string        `json:"id"`
	NumberPlate string        `json:"vehicleNumberPlate"`
	VehicleType VehicleType   `json:"vehicleType"`
	SlotID      string        `json:"slotId"`
	SlotNumber  string        `json:"slotNumber"`
	EntryTime   time.Time     `json:"entryTime"`
	ExitTime    *time.Time    `json:"exitTime"`
	Status      SessionStatus `json:"status"`
	BillingType BillingType   `json:"billingType"`
	Amount      float64       `json:"billingAmount"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

func NewSession(plate string, vehicleType VehicleType, billingType BillingType, slot Slot, entry time.Time, amount float64) *Session {
	return &Session{
		ID:          uuid.NewString(),
		NumberPlate: NormalizePlate(plate),
		VehicleType: vehicleType,
		SlotID:      slot.ID,
		SlotNumber:  slot.Number,
		EntryTime:   entry,
		Status:      SessionActive,
		BillingType: billingType,
		Amount:      amount,
		CreatedAt:   entry,
		UpdatedAt:   entry,
	}
}

func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

// Complete closes the session. It is only valid once.
func (s *Session) Complete(exit time.Time, amount float64) error {
	if !s.IsActive() {
		return fmt.Errorf("session %s: %w", s.ID, ErrSessionNotActive)
	}
	s.ExitTime = &exit
	s.Status = SessionCompleted
	s.Amount = amount
	s.UpdatedAt = exit
	return nil
}

// Duration is the stay length; zero while the session is active.
func (s *Session) Duration() time.Duration {
	if s.ExitTime == nil {
		return 0
	}
	return s.ExitTime.Sub(s.EntryTime)
}
