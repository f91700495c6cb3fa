package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"mall-parking/internal/parking"
)

func (r *repo) GetHourlyPricing(ctx context.Context) (*parking.HourlyPricing, error) {
	var (
		raw    []byte
		maxCap float64
	)
	err := r.q.QueryRow(ctx, `
		SELECT hourly_rates, COALESCE(max_hourly_cap, 0)
		FROM pricing_configs WHERE billing_type = $1 AND hourly_rates IS NOT NULL`,
		string(parking.BillingHourly)).Scan(&raw, &maxCap)
	if err != nil {
		return nil, missingPricing(err, parking.BillingHourly)
	}

	cfg := parking.HourlyPricing{MaxCap: maxCap}
	if err := json.Unmarshal(raw, &cfg.Tiers); err != nil {
		return nil, fmt.Errorf("decode hourly rates: %w", err)
	}
	return &cfg, nil
}

func (r *repo) GetDayPassPricing(ctx context.Context) (*parking.DayPassPricing, error) {
	var cfg parking.DayPassPricing
	err := r.q.QueryRow(ctx, `
		SELECT day_pass_rate FROM pricing_configs
		WHERE billing_type = $1 AND day_pass_rate IS NOT NULL`,
		string(parking.BillingDayPass)).Scan(&cfg.Rate)
	if err != nil {
		return nil, missingPricing(err, parking.BillingDayPass)
	}
	return &cfg, nil
}

func (r *repo) SaveHourlyPricing(ctx context.Context, cfg parking.HourlyPricing) error {
	raw, err := json.Marshal(cfg.Tiers)
	if err != nil {
		return err
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO pricing_configs (billing_type, hourly_rates, max_hourly_cap, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (billing_type) DO UPDATE
		SET hourly_rates = EXCLUDED.hourly_rates, max_hourly_cap = EXCLUDED.max_hourly_cap, updated_at = now()`,
		string(parking.BillingHourly), raw, cfg.MaxCap)
	return err
}

func (r *repo) SaveDayPassPricing(ctx context.Context, cfg parking.DayPassPricing) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO pricing_configs (billing_type, day_pass_rate, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (billing_type) DO UPDATE
		SET day_pass_rate = EXCLUDED.day_pass_rate, updated_at = now()`,
		string(parking.BillingDayPass), cfg.Rate)
	return err
}

func missingPricing(err error, bt parking.BillingType) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", bt, parking.ErrMissingPricingConfig)
	}
	return err
}
