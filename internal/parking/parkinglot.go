package parking

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const defaultLockTTL = 10 * time.Second

type ParkingLot struct {
	store   Store
	locker  Locker
	pricing *PricingCache
	lockTTL time.Duration
	now     func() time.Time
}

type Option func(*ParkingLot)

func WithClock(now func() time.Time) Option {
	return func(pl *ParkingLot) {
		pl.now = now
	}
}

func WithLockTTL(ttl time.Duration) Option {
	return func(pl *ParkingLot) {
		if ttl > 0 {
			pl.lockTTL = ttl
		}
	}
}

func NewParkingLot(store Store, locker Locker, pricing *PricingCache, opts ...Option) *ParkingLot {
	pl := &ParkingLot{
		store:   store,
		locker:  locker,
		pricing: pricing,
		lockTTL: defaultLockTTL,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

type CheckInRequest struct {
	NumberPlate string
	VehicleType VehicleType
	BillingType BillingType
	// ManualSlot is the slot number chosen by the operator; empty means
	// automatic assignment.
	ManualSlot string
}

func (r CheckInRequest) validate() error {
	if NormalizePlate(r.NumberPlate) == "" {
		return fmt.Errorf("number plate is required: %w", ErrInvalidInput)
	}
	if !r.VehicleType.Valid() {
		return fmt.Errorf("vehicle type %q: %w", r.VehicleType, ErrInvalidInput)
	}
	if r.BillingType != BillingHourly && r.BillingType != BillingDayPass {
		return fmt.Errorf("billing type %q: %w", r.BillingType, ErrInvalidInput)
	}
	return nil
}

type CheckInResult struct {
	Session  Session
	Slot     Slot
	Fallback Fallback
}

// CheckIn assigns a slot and opens a session. The slot and session writes
// share one store transaction.
func (pl *ParkingLot) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	plate := NormalizePlate(req.NumberPlate)

	unlock, err := pl.locker.Lock(ctx, "plate:"+plate, pl.lockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var amount float64
	if req.BillingType == BillingDayPass {
		cfg, err := pl.pricing.DayPass(ctx)
		if err != nil {
			return nil, err
		}
		amount = PriceDayPass(cfg)
	}

	var result *CheckInResult
	err = pl.store.InTx(ctx, func(tx Repository) error {
		active, err := tx.FindActiveByPlate(ctx, plate)
		switch {
		case err == nil:
			return fmt.Errorf("vehicle %s is parked in slot %s: %w", plate, active.SlotNumber, ErrDuplicateActiveSession)
		case !errors.Is(err, ErrNotFound):
			return err
		}

		assignment, err := pl.assign(ctx, tx, req)
		if err != nil {
			return err
		}

		now := pl.now()
		session := NewSession(plate, req.VehicleType, req.BillingType, assignment.Slot, now, amount)
		if err := tx.CreateSession(ctx, session); err != nil {
			return err
		}
		if err := tx.OccupySlot(ctx, assignment.Slot.Number, session.ID, now); err != nil {
			return err
		}

		slot := assignment.Slot
		slot.Occupy(session.ID, now)
		result = &CheckInResult{
			Session:  *session,
			Slot:     slot,
			Fallback: assignment.Fallback,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (pl *ParkingLot) assign(ctx context.Context, tx Repository, req CheckInRequest) (Assignment, error) {
	if req.ManualSlot != "" {
		slot, err := tx.GetSlot(ctx, req.ManualSlot)
		if err != nil {
			return Assignment{}, err
		}
		checked, err := CheckSlot(*slot, req.VehicleType)
		if err != nil {
			return Assignment{}, err
		}
		return Assignment{Slot: checked}, nil
	}

	inventory, err := tx.ListSlots(ctx, SlotFilter{Status: StatusAvailable})
	if err != nil {
		return Assignment{}, err
	}
	return SelectAutomaticSlot(req.VehicleType, inventory)
}

// CheckOut prices and closes an active session and frees its slot.
func (pl *ParkingLot) CheckOut(ctx context.Context, sessionID string) (*Session, error) {
	unlock, err := pl.locker.Lock(ctx, "session:"+sessionID, pl.lockTTL)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := pl.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsActive() {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrSessionNotActive)
	}

	exit := pl.now()
	amount := session.Amount
	if session.BillingType == BillingHourly {
		cfg, err := pl.pricing.Hourly(ctx)
		if err != nil {
			return nil, err
		}
		amount, err = PriceHourly(session.EntryTime, exit, cfg)
		if err != nil {
			return nil, err
		}
	}

	err = pl.store.InTx(ctx, func(tx Repository) error {
		if err := tx.CompleteSession(ctx, session.ID, exit, amount); err != nil {
			return err
		}
		return tx.ReleaseSlot(ctx, session.SlotNumber, exit)
	})
	if err != nil {
		return nil, err
	}

	if err := session.Complete(exit, amount); err != nil {
		return nil, err
	}
	return session, nil
}

// FindActiveSession looks up the active session for a plate.
func (pl *ParkingLot) FindActiveSession(ctx context.Context, plate string) (*Session, error) {
	plate = NormalizePlate(plate)
	if plate == "" {
		return nil, fmt.Errorf("number plate is required: %w", ErrInvalidInput)
	}
	return pl.store.FindActiveByPlate(ctx, plate)
}

// ListSlots returns the matching slots, each occupied one with a summary of
// the session parked in it.
func (pl *ParkingLot) ListSlots(ctx context.Context, filter SlotFilter) ([]SlotView, error) {
	slots, err := pl.store.ListSlots(ctx, filter)
	if err != nil {
		return nil, err
	}

	views := make([]SlotView, len(slots))
	occupied := false
	for i, slot := range slots {
		views[i].Slot = slot
		occupied = occupied || slot.CurrentSessionID != ""
	}
	if !occupied {
		return views, nil
	}

	active, err := pl.store.ListSessions(ctx, SessionFilter{Status: SessionActive})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Session, len(active))
	for _, s := range active {
		byID[s.ID] = s
	}

	for i := range views {
		s, ok := byID[views[i].CurrentSessionID]
		if !ok {
			continue
		}
		views[i].CurrentSession = &Occupant{
			SessionID:   s.ID,
			NumberPlate: s.NumberPlate,
			VehicleType: s.VehicleType,
			BillingType: s.BillingType,
			EntryTime:   s.EntryTime,
		}
	}
	return views, nil
}

// SetSlotStatus is the operator's Available <-> Maintenance toggle.
func (pl *ParkingLot) SetSlotStatus(ctx context.Context, number string, status SlotStatus) (*Slot, error) {
	if status != StatusAvailable && status != StatusMaintenance {
		return nil, fmt.Errorf("status must be %s or %s, got %q: %w", StatusAvailable, StatusMaintenance, status, ErrInvalidInput)
	}
	return pl.store.SetSlotStatus(ctx, number, status, pl.now())
}

// SeedSlots replaces the inventory. It refuses while vehicles are parked.
func (pl *ParkingLot) SeedSlots(ctx context.Context, specs []SlotSpec) ([]Slot, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no slots to seed: %w", ErrInvalidInput)
	}

	now := pl.now()
	slots := make([]Slot, 0, len(specs))
	seen := make(map[string]bool, len(specs))
	for _, spec := range specs {
		if spec.Number == "" || seen[spec.Number] {
			return nil, fmt.Errorf("slot number %q is empty or repeated: %w", spec.Number, ErrInvalidInput)
		}
		seen[spec.Number] = true
		slots = append(slots, *spec.Build(now))
	}

	err := pl.store.InTx(ctx, func(tx Repository) error {
		active, err := tx.ListSessions(ctx, SessionFilter{Status: SessionActive})
		if err != nil {
			return err
		}
		if len(active) > 0 {
			return fmt.Errorf("%d vehicles still parked: %w", len(active), ErrNotAvailable)
		}
		return tx.ReplaceSlots(ctx, slots)
	})
	if err != nil {
		return nil, err
	}

	return slots, nil
}

type Pricing struct {
	Hourly  HourlyPricing  `json:"hourly"`
	DayPass DayPassPricing `json:"dayPass"`
}

func (pl *ParkingLot) Pricing(ctx context.Context) (*Pricing, error) {
	hourly, err := pl.pricing.Hourly(ctx)
	if err != nil {
		return nil, err
	}
	dayPass, err := pl.pricing.DayPass(ctx)
	if err != nil {
		return nil, err
	}
	return &Pricing{Hourly: hourly, DayPass: dayPass}, nil
}

func (pl *ParkingLot) UpdateHourlyPricing(ctx context.Context, tiers []Tier, maxCap float64) (*HourlyPricing, error) {
	cfg, err := NewHourlyPricing(tiers, maxCap)
	if err != nil {
		return nil, err
	}
	if err := pl.pricing.SaveHourly(ctx, cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (pl *ParkingLot) UpdateDayPassPricing(ctx context.Context, rate float64) (*DayPassPricing, error) {
	cfg, err := NewDayPassPricing(rate)
	if err != nil {
		return nil, err
	}
	if err := pl.pricing.SaveDayPass(ctx, cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// EnsureDefaults seeds the default pricing records and inventory when the
// store has none.
func (pl *ParkingLot) EnsureDefaults(ctx context.Context) error {
	if _, err := pl.store.GetHourlyPricing(ctx); errors.Is(err, ErrMissingPricingConfig) {
		if err := pl.pricing.SaveHourly(ctx, DefaultHourlyPricing()); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if _, err := pl.store.GetDayPassPricing(ctx); errors.Is(err, ErrMissingPricingConfig) {
		if err := pl.pricing.SaveDayPass(ctx, DefaultDayPassPricing()); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	slots, err := pl.store.ListSlots(ctx, SlotFilter{})
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		if _, err := pl.SeedSlots(ctx, DefaultSlotSpecs()); err != nil {
			return err
		}
	}
	return nil
}
