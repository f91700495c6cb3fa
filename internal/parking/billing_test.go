package parking

import (
	"errors"
	"testing"
	"time"
)

func TestPriceHourly(t *testing.T) {
	cfg := DefaultHourlyPricing()

	tests := []struct {
		name     string
		duration time.Duration
		want     float64
	}{
		{"zero length", 0, 50},
		{"one second", time.Second, 50},
		{"59 minutes", 59 * time.Minute, 50},
		{"exactly one hour", time.Hour, 50},
		{"one hour and a second", time.Hour + time.Second, 100},
		{"61 minutes", 61 * time.Minute, 100},
		{"three hours", 3 * time.Hour, 100},
		{"five hours", 5 * time.Hour, 150},
		{"1000 minutes", 1000 * time.Minute, 150},
		{"two days", 48 * time.Hour, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PriceHourly(testTime, testTime.Add(tt.duration), cfg)
			if err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}
			if got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPriceHourlyClampsToCap(t *testing.T) {
	cfg := HourlyPricing{
		Tiers:  []Tier{{DurationHours: 1, Amount: 50}, {DurationHours: 24, Amount: 500}},
		MaxCap: 200,
	}

	got, err := PriceHourly(testTime, testTime.Add(10*time.Hour), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if got != 200 {
		t.Errorf("Expected 200, got %v", got)
	}

	cfg.MaxCap = 0
	got, _ = PriceHourly(testTime, testTime.Add(2*time.Hour), cfg)
	if got != 0 {
		t.Errorf("Expected a zero cap to clamp to 0, got %v", got)
	}
}

func TestPriceHourlyUnsortedTiers(t *testing.T) {
	cfg := HourlyPricing{
		Tiers:  []Tier{{DurationHours: 6, Amount: 150}, {DurationHours: 1, Amount: 50}, {DurationHours: 3, Amount: 100}},
		MaxCap: 200,
	}

	got, err := PriceHourly(testTime, testTime.Add(61*time.Minute), cfg)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if got != 100 {
		t.Errorf("Expected 100, got %v", got)
	}
	if cfg.Tiers[0].DurationHours != 6 {
		t.Error("Expected caller's tiers to be left in place")
	}
}

func TestPriceHourlyErrors(t *testing.T) {
	if _, err := PriceHourly(testTime, testTime.Add(-time.Minute), DefaultHourlyPricing()); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Expected ErrInvalidInterval, got %v", err)
	}
	if _, err := PriceHourly(testTime, testTime.Add(time.Minute), HourlyPricing{}); !errors.Is(err, ErrMissingPricingConfig) {
		t.Errorf("Expected ErrMissingPricingConfig, got %v", err)
	}
}

func TestBillableMinutes(t *testing.T) {
	tests := []struct {
		duration time.Duration
		want     int64
	}{
		{0, 0},
		{-time.Minute, 0},
		{time.Nanosecond, 1},
		{time.Minute, 1},
		{time.Minute + time.Second, 2},
		{90 * time.Minute, 90},
	}

	for _, tt := range tests {
		if got := BillableMinutes(testTime, testTime.Add(tt.duration)); got != tt.want {
			t.Errorf("BillableMinutes(%s): expected %d, got %d", tt.duration, tt.want, got)
		}
	}
}

func TestPriceDayPass(t *testing.T) {
	if got := PriceDayPass(DayPassPricing{Rate: 150}); got != 150 {
		t.Errorf("Expected 150, got %v", got)
	}
}

func TestNewHourlyPricing(t *testing.T) {
	cfg, err := NewHourlyPricing([]Tier{{DurationHours: 3, Amount: 100}, {DurationHours: 1, Amount: 50}}, 200)
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if cfg.Tiers[0].DurationHours != 1 {
		t.Errorf("Expected tiers sorted ascending, got %v", cfg.Tiers)
	}

	invalid := []struct {
		tiers  []Tier
		maxCap float64
	}{
		{nil, 200},
		{[]Tier{{DurationHours: 0, Amount: 50}}, 200},
		{[]Tier{{DurationHours: 1, Amount: -1}}, 200},
		{[]Tier{{DurationHours: 1, Amount: 50}}, -5},
		{[]Tier{{DurationHours: 1, Amount: 50}, {DurationHours: 3, Amount: 100}}, 0},
	}
	for _, tt := range invalid {
		if _, err := NewHourlyPricing(tt.tiers, tt.maxCap); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("NewHourlyPricing(%v, %v): expected ErrInvalidInput, got %v", tt.tiers, tt.maxCap, err)
		}
	}

	if _, err := NewDayPassPricing(-1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for negative rate, got %v", err)
	}
}
