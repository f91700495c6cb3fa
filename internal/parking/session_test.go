package parking

import (
	"errors"
	"testing"
	"time"
)

func TestSessionComplete(t *testing.T) {
	slot := NewSlot("A1-01", SlotRegular, false, testTime)
	session := NewSession(" ka01 ", VehicleCar, BillingHourly, *slot, testTime, 0)

	if session.NumberPlate != "KA01" {
		t.Errorf("Expected normalized plate KA01, got %s", session.NumberPlate)
	}
	if session.SlotNumber != "A1-01" || session.SlotID != slot.ID {
		t.Error("Expected session to reference its slot")
	}
	if session.Duration() != 0 {
		t.Error("Expected zero duration while active")
	}

	exit := testTime.Add(2 * time.Hour)
	if err := session.Complete(exit, 100); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if session.Status != SessionCompleted || session.Amount != 100 {
		t.Errorf("Expected completed session billed 100, got %s %v", session.Status, session.Amount)
	}
	if session.Duration() != 2*time.Hour {
		t.Errorf("Expected 2h, got %s", session.Duration())
	}

	if err := session.Complete(exit, 50); !errors.Is(err, ErrSessionNotActive) {
		t.Errorf("Expected ErrSessionNotActive, got %v", err)
	}
	if session.Amount != 100 {
		t.Error("Expected a second completion to leave the amount unchanged")
	}
}

func TestParseBillingType(t *testing.T) {
	for input, want := range map[string]BillingType{
		"hourly":   BillingHourly,
		"Day Pass": BillingDayPass,
		"day_pass": BillingDayPass,
		"DAY-PASS": BillingDayPass,
	} {
		got, err := ParseBillingType(input)
		if err != nil || got != want {
			t.Errorf("ParseBillingType(%q): expected %s, got %s (%v)", input, want, got, err)
		}
	}

	if _, err := ParseBillingType("monthly"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
