// Package memory keeps the parking inventory, sessions and pricing in process
// memory. It is the default store and the one the tests run against.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"mall-parking/internal/parking"
)

type state struct {
	slots    map[string]parking.Slot
	sessions map[string]parking.Session
	hourly   *parking.HourlyPricing
	dayPass  *parking.DayPassPricing
}

func newState() *state {
	return &state{
		slots:    make(map[string]parking.Slot),
		sessions: make(map[string]parking.Session),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = cloneSession(v)
	}
	if s.hourly != nil {
		h := cloneHourly(*s.hourly)
		c.hourly = &h
	}
	if s.dayPass != nil {
		d := *s.dayPass
		c.dayPass = &d
	}
	return c
}

// Store serializes every call behind one mutex. InTx works on a copy of the
// state and swaps it in only when fn succeeds.
type Store struct {
	mu sync.RWMutex
	st *state
}

var _ parking.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

func (s *Store) InTx(ctx context.Context, fn func(tx parking.Repository) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.st.clone()
	if err := fn(&repo{st: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = draft
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) read() *repo {
	return &repo{st: s.st}
}

func (s *Store) ListSlots(ctx context.Context, filter parking.SlotFilter) ([]parking.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListSlots(ctx, filter)
}

func (s *Store) GetSlot(ctx context.Context, number string) (*parking.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetSlot(ctx, number)
}

func (s *Store) CountSlotsByStatus(ctx context.Context) (map[parking.SlotStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().CountSlotsByStatus(ctx)
}

func (s *Store) ReplaceSlots(ctx context.Context, slots []parking.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ReplaceSlots(ctx, slots)
}

func (s *Store) OccupySlot(ctx context.Context, number, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().OccupySlot(ctx, number, sessionID, at)
}

func (s *Store) ReleaseSlot(ctx context.Context, number string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().ReleaseSlot(ctx, number, at)
}

func (s *Store) SetSlotStatus(ctx context.Context, number string, status parking.SlotStatus, at time.Time) (*parking.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SetSlotStatus(ctx, number, status, at)
}

func (s *Store) CreateSession(ctx context.Context, session *parking.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().CreateSession(ctx, session)
}

func (s *Store) GetSession(ctx context.Context, id string) (*parking.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetSession(ctx, id)
}

func (s *Store) FindActiveByPlate(ctx context.Context, plate string) (*parking.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().FindActiveByPlate(ctx, plate)
}

func (s *Store) CompleteSession(ctx context.Context, id string, exit time.Time, amount float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().CompleteSession(ctx, id, exit, amount)
}

func (s *Store) ListSessions(ctx context.Context, filter parking.SessionFilter) ([]parking.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().ListSessions(ctx, filter)
}

func (s *Store) GetHourlyPricing(ctx context.Context) (*parking.HourlyPricing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetHourlyPricing(ctx)
}

func (s *Store) GetDayPassPricing(ctx context.Context) (*parking.DayPassPricing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.read().GetDayPassPricing(ctx)
}

func (s *Store) SaveHourlyPricing(ctx context.Context, cfg parking.HourlyPricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SaveHourlyPricing(ctx, cfg)
}

func (s *Store) SaveDayPassPricing(ctx context.Context, cfg parking.DayPassPricing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read().SaveDayPassPricing(ctx, cfg)
}

// repo is the unlocked implementation; the caller holds the mutex.
type repo struct {
	st *state
}

func (r *repo) ListSlots(_ context.Context, filter parking.SlotFilter) ([]parking.Slot, error) {
	slots := make([]parking.Slot, 0, len(r.st.slots))
	for _, slot := range r.st.slots {
		if filter.Match(slot) {
			slots = append(slots, slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return slots[i].Number < slots[j].Number
	})
	return slots, nil
}

func (r *repo) GetSlot(_ context.Context, number string) (*parking.Slot, error) {
	slot, ok := r.st.slots[number]
	if !ok {
		return nil, fmt.Errorf("slot %s: %w", number, parking.ErrNotFound)
	}
	return &slot, nil
}

func (r *repo) CountSlotsByStatus(_ context.Context) (map[parking.SlotStatus]int, error) {
	counts := map[parking.SlotStatus]int{
		parking.StatusAvailable:   0,
		parking.StatusOccupied:    0,
		parking.StatusMaintenance: 0,
	}
	for _, slot := range r.st.slots {
		counts[slot.Status]++
	}
	return counts, nil
}

func (r *repo) ReplaceSlots(_ context.Context, slots []parking.Slot) error {
	r.st.slots = make(map[string]parking.Slot, len(slots))
	for _, slot := range slots {
		r.st.slots[slot.Number] = slot
	}
	return nil
}

func (r *repo) OccupySlot(_ context.Context, number, sessionID string, at time.Time) error {
	slot, ok := r.st.slots[number]
	if !ok {
		return fmt.Errorf("slot %s: %w", number, parking.ErrNotFound)
	}
	if !slot.IsAvailable() {
		return fmt.Errorf("slot %s is %s: %w", number, slot.Status, parking.ErrNotAvailable)
	}
	slot.Occupy(sessionID, at)
	r.st.slots[number] = slot
	return nil
}

func (r *repo) ReleaseSlot(_ context.Context, number string, at time.Time) error {
	slot, ok := r.st.slots[number]
	if !ok {
		// The slot was reseeded away; nothing to free.
		return nil
	}
	if slot.Status != parking.StatusOccupied {
		return fmt.Errorf("slot %s is %s: %w", number, slot.Status, parking.ErrNotAvailable)
	}
	slot.Release(at)
	r.st.slots[number] = slot
	return nil
}

func (r *repo) SetSlotStatus(_ context.Context, number string, status parking.SlotStatus, at time.Time) (*parking.Slot, error) {
	slot, ok := r.st.slots[number]
	if !ok {
		return nil, fmt.Errorf("slot %s: %w", number, parking.ErrNotFound)
	}
	if err := slot.SetStatus(status, at); err != nil {
		return nil, err
	}
	r.st.slots[number] = slot
	return &slot, nil
}

func (r *repo) CreateSession(_ context.Context, session *parking.Session) error {
	for _, existing := range r.st.sessions {
		if existing.IsActive() && existing.NumberPlate == session.NumberPlate {
			return fmt.Errorf("vehicle %s: %w", session.NumberPlate, parking.ErrDuplicateActiveSession)
		}
	}
	r.st.sessions[session.ID] = cloneSession(*session)
	return nil
}

func (r *repo) GetSession(_ context.Context, id string) (*parking.Session, error) {
	session, ok := r.st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, parking.ErrNotFound)
	}
	session = cloneSession(session)
	return &session, nil
}

func (r *repo) FindActiveByPlate(_ context.Context, plate string) (*parking.Session, error) {
	for _, session := range r.st.sessions {
		if session.IsActive() && session.NumberPlate == plate {
			session = cloneSession(session)
			return &session, nil
		}
	}
	return nil, fmt.Errorf("active session for %s: %w", plate, parking.ErrNotFound)
}

func (r *repo) CompleteSession(_ context.Context, id string, exit time.Time, amount float64) error {
	session, ok := r.st.sessions[id]
	if !ok {
		return fmt.Errorf("session %s: %w", id, parking.ErrNotFound)
	}
	if err := session.Complete(exit, amount); err != nil {
		return err
	}
	r.st.sessions[id] = session
	return nil
}

func (r *repo) ListSessions(_ context.Context, filter parking.SessionFilter) ([]parking.Session, error) {
	sessions := make([]parking.Session, 0)
	for _, session := range r.st.sessions {
		if filter.Match(session) {
			sessions = append(sessions, cloneSession(session))
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].EntryTime.Before(sessions[j].EntryTime)
	})
	return sessions, nil
}

func (r *repo) GetHourlyPricing(_ context.Context) (*parking.HourlyPricing, error) {
	if r.st.hourly == nil {
		return nil, fmt.Errorf("%s: %w", parking.BillingHourly, parking.ErrMissingPricingConfig)
	}
	cfg := cloneHourly(*r.st.hourly)
	return &cfg, nil
}

func (r *repo) GetDayPassPricing(_ context.Context) (*parking.DayPassPricing, error) {
	if r.st.dayPass == nil {
		return nil, fmt.Errorf("%s: %w", parking.BillingDayPass, parking.ErrMissingPricingConfig)
	}
	cfg := *r.st.dayPass
	return &cfg, nil
}

func (r *repo) SaveHourlyPricing(_ context.Context, cfg parking.HourlyPricing) error {
	c := cloneHourly(cfg)
	r.st.hourly = &c
	return nil
}

func (r *repo) SaveDayPassPricing(_ context.Context, cfg parking.DayPassPricing) error {
	r.st.dayPass = &cfg
	return nil
}

func cloneSession(s parking.Session) parking.Session {
	if s.ExitTime != nil {
		exit := *s.ExitTime
		s.ExitTime = &exit
	}
	return s
}

func cloneHourly(cfg parking.HourlyPricing) parking.HourlyPricing {
	tiers := make([]parking.Tier, len(cfg.Tiers))
	copy(tiers, cfg.Tiers)
	cfg.Tiers = tiers
	return cfg
}
