package parking

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// PricingCache keeps the two pricing records in memory for ttl. Writes go
// through to the repository and drop the cached copies.
type PricingCache struct {
	repo    PricingRepository
	hourly  *expirable.LRU[BillingType, HourlyPricing]
	dayPass *expirable.LRU[BillingType, DayPassPricing]
}

func NewPricingCache(repo PricingRepository, ttl time.Duration) *PricingCache {
	return &PricingCache{
		repo:    repo,
		hourly:  expirable.NewLRU[BillingType, HourlyPricing](1, nil, ttl),
		dayPass: expirable.NewLRU[BillingType, DayPassPricing](1, nil, ttl),
	}
}

func (c *PricingCache) Hourly(ctx context.Context) (HourlyPricing, error) {
	if cfg, ok := c.hourly.Get(BillingHourly); ok {
		return cfg, nil
	}

	cfg, err := c.repo.GetHourlyPricing(ctx)
	if err != nil {
		return HourlyPricing{}, err
	}

	if !tiersSorted(cfg.Tiers) {
		sortTiers(cfg.Tiers)
	}
	c.hourly.Add(BillingHourly, *cfg)
	return *cfg, nil
}

func (c *PricingCache) DayPass(ctx context.Context) (DayPassPricing, error) {
	if cfg, ok := c.dayPass.Get(BillingDayPass); ok {
		return cfg, nil
	}

	cfg, err := c.repo.GetDayPassPricing(ctx)
	if err != nil {
		return DayPassPricing{}, err
	}

	c.dayPass.Add(BillingDayPass, *cfg)
	return *cfg, nil
}

func (c *PricingCache) SaveHourly(ctx context.Context, cfg HourlyPricing) error {
	if err := c.repo.SaveHourlyPricing(ctx, cfg); err != nil {
		return err
	}
	c.hourly.Purge()
	return nil
}

func (c *PricingCache) SaveDayPass(ctx context.Context, cfg DayPassPricing) error {
	if err := c.repo.SaveDayPassPricing(ctx, cfg); err != nil {
		return err
	}
	c.dayPass.Purge()
	return nil
}
