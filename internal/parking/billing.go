package parking

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Tier charges Amount for any stay up to DurationHours.
type Tier struct {
	DurationHours float64 `json:"durationHours"`
	Amount        float64 `json:"amount"`
}

type HourlyPricing struct {
	Tiers  []Tier  `json:"hourlyRates"`
	MaxCap float64 `json:"maxHourlyCap"`
}

type DayPassPricing struct {
	Rate float64 `json:"dayPassRate"`
}

// NewHourlyPricing validates the tiers and stores them sorted by threshold.
func NewHourlyPricing(tiers []Tier, maxCap float64) (HourlyPricing, error) {
	if len(tiers) == 0 {
		return HourlyPricing{}, fmt.Errorf("at least one hourly tier is required: %w", ErrInvalidInput)
	}
	if maxCap <= 0 {
		return HourlyPricing{}, fmt.Errorf("max cap %v must be positive: %w", maxCap, ErrInvalidInput)
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	for _, t := range sorted {
		if t.DurationHours <= 0 || t.Amount < 0 {
			return HourlyPricing{}, fmt.Errorf("tier {%v h, %v}: %w", t.DurationHours, t.Amount, ErrInvalidInput)
		}
	}
	sortTiers(sorted)

	return HourlyPricing{Tiers: sorted, MaxCap: maxCap}, nil
}

func NewDayPassPricing(rate float64) (DayPassPricing, error) {
	if rate < 0 {
		return DayPassPricing{}, fmt.Errorf("day pass rate %v is negative: %w", rate, ErrInvalidInput)
	}
	return DayPassPricing{Rate: rate}, nil
}

func DefaultHourlyPricing() HourlyPricing {
	return HourlyPricing{
		Tiers: []Tier{
			{DurationHours: 1, Amount: 50},
			{DurationHours: 3, Amount: 100},
			{DurationHours: 6, Amount: 150},
		},
		MaxCap: 200,
	}
}

func DefaultDayPassPricing() DayPassPricing {
	return DayPassPricing{Rate: 150}
}

func PriceDayPass(cfg DayPassPricing) float64 {
	return cfg.Rate
}

// BillableMinutes is the stay length in whole minutes, partial minutes
// rounded up.
func BillableMinutes(entry, exit time.Time) int64 {
	d := exit.Sub(entry)
	if d <= 0 {
		return 0
	}
	minutes := int64(d / time.Minute)
	if d%time.Minute != 0 {
		minutes++
	}
	return minutes
}

// PriceHourly charges the first tier whose threshold covers the stay, or the
// largest tier past every threshold, clamped to MaxCap.
// A zero-length stay is charged the first tier.
func PriceHourly(entry, exit time.Time, cfg HourlyPricing) (float64, error) {
	if exit.Before(entry) {
		return 0, fmt.Errorf("entry %s, exit %s: %w", entry.Format(time.RFC3339), exit.Format(time.RFC3339), ErrInvalidInterval)
	}
	if len(cfg.Tiers) == 0 {
		return 0, fmt.Errorf("hourly tiers: %w", ErrMissingPricingConfig)
	}

	tiers := cfg.Tiers
	if !tiersSorted(tiers) {
		tiers = make([]Tier, len(cfg.Tiers))
		copy(tiers, cfg.Tiers)
		sortTiers(tiers)
	}

	hours := float64(BillableMinutes(entry, exit)) / 60

	var price float64
	for _, tier := range tiers {
		price = tier.Amount
		if hours <= tier.DurationHours {
			break
		}
	}

	return math.Max(math.Min(price, cfg.MaxCap), 0), nil
}

func sortTiers(tiers []Tier) {
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].DurationHours < tiers[j].DurationHours
	})
}

func tiersSorted(tiers []Tier) bool {
	return sort.SliceIsSorted(tiers, func(i, j int) bool {
		return tiers[i].DurationHours < tiers[j].DurationHours
	})
}
