package parking

import (
	"context"
	"time"
)

// SlotFilter selects slots; zero fields match everything.
type SlotFilter struct {
	Type   SlotType
	Status SlotStatus
}

func (f SlotFilter) Match(s Slot) bool {
	if f.Type != "" && s.Type != f.Type {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// SessionFilter selects sessions; zero times are unbounded and bounds are
// inclusive.
type SessionFilter struct {
	Status      SessionStatus
	EntryAfter  time.Time
	EntryBefore time.Time
	ExitAfter   time.Time
	ExitBefore  time.Time
}

func (f SessionFilter) Match(s Session) bool {
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	if !f.EntryAfter.IsZero() && s.EntryTime.Before(f.EntryAfter) {
		return false
	}
	if !f.EntryBefore.IsZero() && s.EntryTime.After(f.EntryBefore) {
		return false
	}
	if !f.ExitAfter.IsZero() || !f.ExitBefore.IsZero() {
		if s.ExitTime == nil {
			return false
		}
		if !f.ExitAfter.IsZero() && s.ExitTime.Before(f.ExitAfter) {
			return false
		}
		if !f.ExitBefore.IsZero() && s.ExitTime.After(f.ExitBefore) {
			return false
		}
	}
	return true
}

// SlotRepository guards every status change with the state it expects, so a
// lost race surfaces as ErrNotAvailable instead of a double assignment.
type SlotRepository interface {
	ListSlots(ctx context.Context, filter SlotFilter) ([]Slot, error)
	GetSlot(ctx context.Context, number string) (*Slot, error)
	CountSlotsByStatus(ctx context.Context) (map[SlotStatus]int, error)
	ReplaceSlots(ctx context.Context, slots []Slot) error
	OccupySlot(ctx context.Context, number, sessionID string, at time.Time) error
	ReleaseSlot(ctx context.Context, number string, at time.Time) error
	SetSlotStatus(ctx context.Context, number string, status SlotStatus, at time.Time) (*Slot, error)
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	FindActiveByPlate(ctx context.Context, plate string) (*Session, error)
	CompleteSession(ctx context.Context, id string, exit time.Time, amount float64) error
	ListSessions(ctx context.Context, filter SessionFilter) ([]Session, error)
}

type PricingRepository interface {
	GetHourlyPricing(ctx context.Context) (*HourlyPricing, error)
	GetDayPassPricing(ctx context.Context) (*DayPassPricing, error)
	SaveHourlyPricing(ctx context.Context, cfg HourlyPricing) error
	SaveDayPassPricing(ctx context.Context, cfg DayPassPricing) error
}

type Repository interface {
	SlotRepository
	SessionRepository
	PricingRepository
}

// Store is a Repository with an all-or-nothing transaction.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(tx Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// Locker serializes work on a key across callers. The returned func releases
// the lock.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(), error)
}
