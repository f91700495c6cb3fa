package parking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mall-parking/internal/parking"
	"mall-parking/internal/storage/memory"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newLot(t *testing.T) (*parking.ParkingLot, *clock) {
	t.Helper()
	store := memory.New()
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	lot := parking.NewParkingLot(store, memory.NewLocker(), parking.NewPricingCache(store, time.Minute),
		parking.WithClock(clk.Now))
	require.NoError(t, lot.EnsureDefaults(context.Background()))
	return lot, clk
}

func TestEnsureDefaultsSeedsInventoryAndPricing(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	slots, err := lot.ListSlots(ctx, parking.SlotFilter{})
	require.NoError(t, err)
	assert.Len(t, slots, 14)

	pricing, err := lot.Pricing(ctx)
	require.NoError(t, err)
	assert.Equal(t, parking.DefaultHourlyPricing(), pricing.Hourly)
	assert.Equal(t, 150.0, pricing.DayPass.Rate)

	require.NoError(t, lot.EnsureDefaults(ctx))
}

func TestCheckInAutomatic(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	result, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "ka01hh1234",
		VehicleType: parking.VehicleCar,
		BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)

	assert.Equal(t, "A1-01", result.Slot.Number)
	assert.Equal(t, parking.StatusOccupied, result.Slot.Status)
	assert.Equal(t, result.Session.ID, result.Slot.CurrentSessionID)
	assert.Equal(t, "KA01HH1234", result.Session.NumberPlate)
	assert.Equal(t, 0.0, result.Session.Amount)
	assert.Equal(t, parking.FallbackNone, result.Fallback)

	slots, err := lot.ListSlots(ctx, parking.SlotFilter{Status: parking.StatusOccupied})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, result.Session.ID, slots[0].CurrentSessionID)
	require.NotNil(t, slots[0].CurrentSession)
	assert.Equal(t, "KA01HH1234", slots[0].CurrentSession.NumberPlate)
	assert.Equal(t, result.Session.EntryTime, slots[0].CurrentSession.EntryTime)

	free, err := lot.ListSlots(ctx, parking.SlotFilter{Status: parking.StatusAvailable})
	require.NoError(t, err)
	for _, slot := range free {
		assert.Nil(t, slot.CurrentSession, slot.Number)
	}
}

func TestCheckInManualSlot(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	result, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-1",
		VehicleType: parking.VehicleEV,
		BillingType: parking.BillingHourly,
		ManualSlot:  "B1-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "B1-01", result.Slot.Number)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-2",
		VehicleType: parking.VehicleEV,
		BillingType: parking.BillingHourly,
		ManualSlot:  "E1-01",
	})
	assert.ErrorIs(t, err, parking.ErrChargerUnavailable)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-2",
		VehicleType: parking.VehicleEV,
		BillingType: parking.BillingHourly,
		ManualSlot:  "B1-01",
	})
	assert.ErrorIs(t, err, parking.ErrNotAvailable)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "CAR-1",
		VehicleType: parking.VehicleCar,
		BillingType: parking.BillingHourly,
		ManualSlot:  "Z9-99",
	})
	assert.ErrorIs(t, err, parking.ErrNotFound)
}

func TestCheckInEVFallback(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	first, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-1", VehicleType: parking.VehicleEV, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)
	assert.Equal(t, "B1-01", first.Slot.Number)

	second, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-2", VehicleType: parking.VehicleEV, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)
	assert.Equal(t, "E1-01", second.Slot.Number)
	assert.Equal(t, parking.FallbackChargerlessEV, second.Fallback)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "EV-3", VehicleType: parking.VehicleEV, BillingType: parking.BillingHourly,
	})
	assert.ErrorIs(t, err, parking.ErrNoSlotAvailable)
}

func TestCheckInDuplicatePlate(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	_, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: " ka01 ", VehicleType: parking.VehicleBike, BillingType: parking.BillingHourly,
	})
	assert.ErrorIs(t, err, parking.ErrDuplicateActiveSession)

	occupied, err := lot.ListSlots(ctx, parking.SlotFilter{Status: parking.StatusOccupied})
	require.NoError(t, err)
	assert.Len(t, occupied, 1)
}

func TestCheckInValidation(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	for _, req := range []parking.CheckInRequest{
		{NumberPlate: " ", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly},
		{NumberPlate: "X", VehicleType: "Truck", BillingType: parking.BillingHourly},
		{NumberPlate: "X", VehicleType: parking.VehicleCar, BillingType: "Monthly"},
	} {
		_, err := lot.CheckIn(ctx, req)
		assert.ErrorIs(t, err, parking.ErrInvalidInput)
	}
}

func TestCheckOutHourly(t *testing.T) {
	lot, clk := newLot(t)
	ctx := context.Background()

	in, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)

	clk.Advance(61 * time.Minute)

	out, err := lot.CheckOut(ctx, in.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, parking.SessionCompleted, out.Status)
	assert.Equal(t, 100.0, out.Amount)
	require.NotNil(t, out.ExitTime)
	assert.Equal(t, 61*time.Minute, out.Duration())

	slot, err := lot.ListSlots(ctx, parking.SlotFilter{Status: parking.StatusOccupied})
	require.NoError(t, err)
	assert.Empty(t, slot)

	_, err = lot.CheckOut(ctx, in.Session.ID)
	assert.ErrorIs(t, err, parking.ErrSessionNotActive)

	_, err = lot.FindActiveSession(ctx, "KA01")
	assert.ErrorIs(t, err, parking.ErrNotFound)
}

func TestCheckOutDayPassKeepsRate(t *testing.T) {
	lot, clk := newLot(t)
	ctx := context.Background()

	in, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "DP1", VehicleType: parking.VehicleBike, BillingType: parking.BillingDayPass,
	})
	require.NoError(t, err)
	assert.Equal(t, 150.0, in.Session.Amount)

	clk.Advance(20 * time.Hour)

	out, err := lot.CheckOut(ctx, in.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 150.0, out.Amount)
}

func TestCheckOutUnknownSession(t *testing.T) {
	lot, _ := newLot(t)

	_, err := lot.CheckOut(context.Background(), "missing")
	assert.ErrorIs(t, err, parking.ErrNotFound)
}

func TestCheckOutMissingHourlyPricing(t *testing.T) {
	store := memory.New()
	lot := parking.NewParkingLot(store, memory.NewLocker(), parking.NewPricingCache(store, time.Minute))
	ctx := context.Background()

	_, err := lot.SeedSlots(ctx, parking.DefaultSlotSpecs())
	require.NoError(t, err)

	in, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)

	_, err = lot.CheckOut(ctx, in.Session.ID)
	assert.ErrorIs(t, err, parking.ErrMissingPricingConfig)

	_, err = lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA02", VehicleType: parking.VehicleCar, BillingType: parking.BillingDayPass,
	})
	assert.ErrorIs(t, err, parking.ErrMissingPricingConfig)
}

func TestSetSlotStatus(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	slot, err := lot.SetSlotStatus(ctx, "A1-01", parking.StatusMaintenance)
	require.NoError(t, err)
	assert.Equal(t, parking.StatusMaintenance, slot.Status)

	in, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)
	assert.Equal(t, "A1-02", in.Slot.Number)

	_, err = lot.SetSlotStatus(ctx, "A1-02", parking.StatusMaintenance)
	assert.ErrorIs(t, err, parking.ErrNotAvailable)

	_, err = lot.SetSlotStatus(ctx, "A1-01", parking.StatusOccupied)
	assert.ErrorIs(t, err, parking.ErrInvalidInput)

	slot, err = lot.SetSlotStatus(ctx, "A1-01", parking.StatusAvailable)
	require.NoError(t, err)
	assert.Equal(t, parking.StatusAvailable, slot.Status)
}

func TestSeedSlotsRefusedWhileParked(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	_, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)

	_, err = lot.SeedSlots(ctx, parking.DefaultSlotSpecs())
	assert.ErrorIs(t, err, parking.ErrNotAvailable)

	_, err = lot.SeedSlots(ctx, []parking.SlotSpec{
		{Number: "A1-01", Type: parking.SlotRegular},
		{Number: "A1-01", Type: parking.SlotCompact},
	})
	assert.ErrorIs(t, err, parking.ErrInvalidInput)
}

func TestUpdatePricingTakesEffect(t *testing.T) {
	lot, clk := newLot(t)
	ctx := context.Background()

	_, err := lot.UpdateHourlyPricing(ctx, []parking.Tier{{DurationHours: 2, Amount: 30}}, 0)
	assert.ErrorIs(t, err, parking.ErrInvalidInput)

	_, err = lot.UpdateHourlyPricing(ctx, []parking.Tier{{DurationHours: 2, Amount: 30}}, 100)
	require.NoError(t, err)
	dp, err := lot.UpdateDayPassPricing(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, 99.0, dp.Rate)

	in, err := lot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: "KA01", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
	})
	require.NoError(t, err)
	clk.Advance(30 * time.Minute)

	out, err := lot.CheckOut(ctx, in.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, out.Amount)

	_, err = lot.UpdateHourlyPricing(ctx, nil, 100)
	assert.ErrorIs(t, err, parking.ErrInvalidInput)
}

func TestConcurrentCheckInsSamePlate(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var succeeded, duplicates int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lot.CheckIn(ctx, parking.CheckInRequest{
				NumberPlate: "RACE", VehicleType: parking.VehicleCar, BillingType: parking.BillingHourly,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, parking.ErrDuplicateActiveSession):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, duplicates)
}

func TestConcurrentCheckInsFillLot(t *testing.T) {
	lot, _ := newLot(t)
	ctx := context.Background()

	plates := []string{"B1", "B2", "B3", "B4", "B5"}
	results := make(chan string, len(plates))
	var wg sync.WaitGroup
	for _, plate := range plates {
		wg.Add(1)
		go func(plate string) {
			defer wg.Done()
			res, err := lot.CheckIn(ctx, parking.CheckInRequest{
				NumberPlate: plate, VehicleType: parking.VehicleBike, BillingType: parking.BillingHourly,
			})
			if err == nil {
				results <- res.Slot.Number
			}
		}(plate)
	}
	wg.Wait()
	close(results)

	seen := map[string]bool{}
	for number := range results {
		assert.False(t, seen[number], "slot %s assigned twice", number)
		seen[number] = true
	}
	assert.Len(t, seen, 3)
}
