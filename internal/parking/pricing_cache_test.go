package parking

import (
	"context"
	"errors"
	"testing"
	"time"
)

type countingPricingRepo struct {
	hourly       *HourlyPricing
	dayPass      *DayPassPricing
	hourlyReads  int
	dayPassReads int
}

func (r *countingPricingRepo) GetHourlyPricing(context.Context) (*HourlyPricing, error) {
	r.hourlyReads++
	if r.hourly == nil {
		return nil, ErrMissingPricingConfig
	}
	cfg := *r.hourly
	cfg.Tiers = append([]Tier(nil), r.hourly.Tiers...)
	return &cfg, nil
}

func (r *countingPricingRepo) GetDayPassPricing(context.Context) (*DayPassPricing, error) {
	r.dayPassReads++
	if r.dayPass == nil {
		return nil, ErrMissingPricingConfig
	}
	cfg := *r.dayPass
	return &cfg, nil
}

func (r *countingPricingRepo) SaveHourlyPricing(_ context.Context, cfg HourlyPricing) error {
	r.hourly = &cfg
	return nil
}

func (r *countingPricingRepo) SaveDayPassPricing(_ context.Context, cfg DayPassPricing) error {
	r.dayPass = &cfg
	return nil
}

func TestPricingCacheReadsThroughOnce(t *testing.T) {
	repo := &countingPricingRepo{}
	cache := NewPricingCache(repo, time.Minute)
	ctx := context.Background()

	if _, err := cache.Hourly(ctx); !errors.Is(err, ErrMissingPricingConfig) {
		t.Fatalf("Expected ErrMissingPricingConfig, got %v", err)
	}

	if err := cache.SaveHourly(ctx, DefaultHourlyPricing()); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	for i := 0; i < 3; i++ {
		cfg, err := cache.Hourly(ctx)
		if err != nil {
			t.Fatalf("Unexpected error: %s", err)
		}
		if cfg.MaxCap != 200 {
			t.Errorf("Expected cap 200, got %v", cfg.MaxCap)
		}
	}

	if repo.hourlyReads != 2 {
		t.Errorf("Expected 2 repository reads, got %d", repo.hourlyReads)
	}
}

func TestPricingCacheSaveInvalidates(t *testing.T) {
	repo := &countingPricingRepo{dayPass: &DayPassPricing{Rate: 150}}
	cache := NewPricingCache(repo, time.Minute)
	ctx := context.Background()

	cfg, _ := cache.DayPass(ctx)
	if cfg.Rate != 150 {
		t.Fatalf("Expected 150, got %v", cfg.Rate)
	}

	if err := cache.SaveDayPass(ctx, DayPassPricing{Rate: 120}); err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}

	cfg, _ = cache.DayPass(ctx)
	if cfg.Rate != 120 {
		t.Errorf("Expected 120 after save, got %v", cfg.Rate)
	}

}

func TestPricingCacheExpires(t *testing.T) {
	repo := &countingPricingRepo{dayPass: &DayPassPricing{Rate: 150}}
	cache := NewPricingCache(repo, 20*time.Millisecond)
	ctx := context.Background()

	if cfg, _ := cache.DayPass(ctx); cfg.Rate != 150 {
		t.Fatalf("Expected 150, got %v", cfg.Rate)
	}

	// Edited by another instance behind the cache.
	repo.dayPass = &DayPassPricing{Rate: 80}
	if cfg, _ := cache.DayPass(ctx); cfg.Rate != 150 {
		t.Errorf("Expected cached 150, got %v", cfg.Rate)
	}

	time.Sleep(50 * time.Millisecond)
	if cfg, _ := cache.DayPass(ctx); cfg.Rate != 80 {
		t.Errorf("Expected 80 after expiry, got %v", cfg.Rate)
	}
	if repo.dayPassReads != 2 {
		t.Errorf("Expected 2 repository reads, got %d", repo.dayPassReads)
	}
}

func TestPricingCacheSortsStoredTiers(t *testing.T) {
	repo := &countingPricingRepo{hourly: &HourlyPricing{
		Tiers: []Tier{{DurationHours: 6, Amount: 150}, {DurationHours: 1, Amount: 50}},
	}}
	cache := NewPricingCache(repo, time.Minute)

	cfg, err := cache.Hourly(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %s", err)
	}
	if cfg.Tiers[0].DurationHours != 1 {
		t.Errorf("Expected tiers sorted ascending, got %v", cfg.Tiers)
	}
}
