package parking

import (
	"errors"
	"testing"
	"time"
)

var testTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func TestNewSlot(t *testing.T) {
	slot := NewSlot("A1-01", SlotRegular, true, testTime)

	if slot.Number != "A1-01" {
		t.Errorf("Expected slot number A1-01, got %s", slot.Number)
	}
	if slot.ID == "" {
		t.Error("Expected new slot to have an id")
	}
	if !slot.IsAvailable() {
		t.Error("Expected new slot to be available")
	}
	if slot.ChargerAvailable {
		t.Error("Expected charger flag to be ignored on a Regular slot")
	}
}

func TestSlotOccupyAndRelease(t *testing.T) {
	slot := NewSlot("B1-01", SlotEV, true, testTime)

	slot.Occupy("session-1", testTime.Add(time.Minute))
	if slot.Status != StatusOccupied {
		t.Errorf("Expected slot to be occupied, got %s", slot.Status)
	}
	if slot.CurrentSessionID != "session-1" {
		t.Errorf("Expected current session session-1, got %s", slot.CurrentSessionID)
	}

	released := slot.Release(testTime.Add(time.Hour))
	if released != "session-1" {
		t.Errorf("Expected released session session-1, got %s", released)
	}
	if !slot.IsAvailable() || slot.CurrentSessionID != "" {
		t.Error("Expected slot to be available with no session after release")
	}
}

func TestSlotSetStatus(t *testing.T) {
	slot := NewSlot("A1-01", SlotRegular, false, testTime)

	if err := slot.SetStatus(StatusMaintenance, testTime); err != nil {
		t.Errorf("Unexpected error: %s", err)
	}
	if slot.Status != StatusMaintenance {
		t.Errorf("Expected Maintenance, got %s", slot.Status)
	}

	if err := slot.SetStatus(StatusOccupied, testTime); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for Occupied, got %v", err)
	}

	slot.Status = StatusAvailable
	slot.Occupy("s", testTime)
	if err := slot.SetStatus(StatusMaintenance, testTime); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("Expected ErrNotAvailable on occupied slot, got %v", err)
	}
	if err := slot.SetStatus(StatusAvailable, testTime); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("Expected ErrNotAvailable on occupied slot, got %v", err)
	}
}

func TestDefaultSlotSpecs(t *testing.T) {
	specs := DefaultSlotSpecs()
	if len(specs) != 14 {
		t.Fatalf("Expected 14 slots, got %d", len(specs))
	}

	chargers := map[string]bool{}
	for _, spec := range specs {
		slot := spec.Build(testTime)
		if slot.Type == SlotEV {
			chargers[slot.Number] = slot.ChargerAvailable
		}
	}

	if !chargers["B1-01"] {
		t.Error("Expected B1-01 to have a charger")
	}
	if chargers["E1-01"] {
		t.Error("Expected E1-01 to have no charger")
	}
}
