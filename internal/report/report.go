// Package report aggregates completed parking sessions into revenue and
// utilization figures. All day and hour boundaries are UTC.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"mall-parking/internal/parking"
)

const dateLayout = "2006-01-02"

// Source is the read side of the parking store that reports need.
type Source interface {
	ListSlots(ctx context.Context, filter parking.SlotFilter) ([]parking.Slot, error)
	CountSlotsByStatus(ctx context.Context) (map[parking.SlotStatus]int, error)
	ListSessions(ctx context.Context, filter parking.SessionFilter) ([]parking.Session, error)
}

type Reporter struct {
	source Source
	now    func() time.Time
}

func NewReporter(source Source) *Reporter {
	return &Reporter{
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of r reading the current time from now.
func (r *Reporter) WithClock(now func() time.Time) *Reporter {
	c := *r
	c.now = now
	return &c
}

type RevenueSummary struct {
	TotalRevenue    float64 `json:"totalRevenue"`
	HourlyRevenue   float64 `json:"hourlyRevenue"`
	DayPassRevenue  float64 `json:"dayPassRevenue"`
	TotalSessions   int     `json:"totalSessions"`
	HourlySessions  int     `json:"hourlySessions"`
	DayPassSessions int     `json:"dayPassSessions"`
}

func (r *Reporter) RevenueSummary(ctx context.Context) (*RevenueSummary, error) {
	sessions, err := r.source.ListSessions(ctx, parking.SessionFilter{Status: parking.SessionCompleted})
	if err != nil {
		return nil, err
	}

	summary := &RevenueSummary{}
	for _, s := range sessions {
		summary.TotalRevenue += s.Amount
		summary.TotalSessions++
		switch s.BillingType {
		case parking.BillingHourly:
			summary.HourlyRevenue += s.Amount
			summary.HourlySessions++
		case parking.BillingDayPass:
			summary.DayPassRevenue += s.Amount
			summary.DayPassSessions++
		}
	}
	return summary, nil
}

type HourRevenue struct {
	Hour           int     `json:"hour"`
	TotalRevenue   float64 `json:"totalRevenuePerHour"`
	HourlyRevenue  float64 `json:"hourlyRevenue"`
	DayPassRevenue float64 `json:"dayPassRevenue"`
}

// DailyRevenue buckets the day's completed sessions by exit hour; all 24
// buckets are returned.
func (r *Reporter) DailyRevenue(ctx context.Context, day time.Time) ([]HourRevenue, error) {
	start, end := dayBounds(day)
	sessions, err := r.source.ListSessions(ctx, parking.SessionFilter{
		Status:     parking.SessionCompleted,
		ExitAfter:  start,
		ExitBefore: end,
	})
	if err != nil {
		return nil, err
	}

	buckets := make([]HourRevenue, 24)
	for i := range buckets {
		buckets[i].Hour = i
	}
	for _, s := range sessions {
		b := &buckets[s.ExitTime.UTC().Hour()]
		b.TotalRevenue += s.Amount
		addByType(s, &b.HourlyRevenue, &b.DayPassRevenue)
	}
	return buckets, nil
}

type DayRevenue struct {
	Day            int     `json:"day"`
	TotalRevenue   float64 `json:"totalRevenuePerDay"`
	HourlyRevenue  float64 `json:"hourlyRevenue"`
	DayPassRevenue float64 `json:"dayPassRevenue"`
}

// MonthlyRevenue buckets completed sessions by exit day, one bucket per day
// of the month.
func (r *Reporter) MonthlyRevenue(ctx context.Context, year int, month time.Month) ([]DayRevenue, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("month %d: %w", month, parking.ErrInvalidInput)
	}
	if year < 1 {
		return nil, fmt.Errorf("year %d: %w", year, parking.ErrInvalidInput)
	}

	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := start.AddDate(0, 1, 0)
	sessions, err := r.source.ListSessions(ctx, parking.SessionFilter{
		Status:     parking.SessionCompleted,
		ExitAfter:  start,
		ExitBefore: next.Add(-time.Nanosecond),
	})
	if err != nil {
		return nil, err
	}

	days := next.Add(-time.Nanosecond).Day()
	buckets := make([]DayRevenue, days)
	for i := range buckets {
		buckets[i].Day = i + 1
	}
	for _, s := range sessions {
		b := &buckets[s.ExitTime.UTC().Day()-1]
		b.TotalRevenue += s.Amount
		addByType(s, &b.HourlyRevenue, &b.DayPassRevenue)
	}
	return buckets, nil
}

type PeakHour struct {
	Hour                 int   `json:"hour"`
	EntryCount           int   `json:"entryCount"`
	TotalDurationMinutes int64 `json:"totalDurationMinutes"`
}

// PeakHours counts completed sessions by entry hour. A non-nil day restricts
// it to sessions that overlap that day.
func (r *Reporter) PeakHours(ctx context.Context, day *time.Time) ([]PeakHour, error) {
	filter := parking.SessionFilter{Status: parking.SessionCompleted}
	if day != nil {
		start, end := dayBounds(*day)
		filter.EntryBefore = end
		filter.ExitAfter = start
	}

	sessions, err := r.source.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	buckets := make([]PeakHour, 24)
	for i := range buckets {
		buckets[i].Hour = i
	}
	for _, s := range sessions {
		b := &buckets[s.EntryTime.UTC().Hour()]
		b.EntryCount++
		if s.ExitTime != nil {
			b.TotalDurationMinutes += parking.BillableMinutes(s.EntryTime, *s.ExitTime)
		}
	}
	return buckets, nil
}

type SlotUsage struct {
	SlotID                 string           `json:"slotId"`
	SlotNumber             string           `json:"slotNumber"`
	SlotType               parking.SlotType `json:"slotType"`
	TotalOccupationMinutes int64            `json:"totalOccupationMinutes"`
	SessionCount           int              `json:"sessionCount"`
}

// SlotUtilization sums billable minutes per slot, least used first. A
// positive periodDays keeps only sessions that entered in that many days.
// Sessions whose slot is no longer in the inventory are dropped.
func (r *Reporter) SlotUtilization(ctx context.Context, periodDays int) ([]SlotUsage, error) {
	if periodDays < 0 {
		return nil, fmt.Errorf("period %d days: %w", periodDays, parking.ErrInvalidInput)
	}

	filter := parking.SessionFilter{Status: parking.SessionCompleted}
	if periodDays > 0 {
		filter.EntryAfter = r.now().AddDate(0, 0, -periodDays)
	}

	sessions, err := r.source.ListSessions(ctx, filter)
	if err != nil {
		return nil, err
	}
	slots, err := r.source.ListSlots(ctx, parking.SlotFilter{})
	if err != nil {
		return nil, err
	}

	bySlot := make(map[string]*SlotUsage, len(slots))
	for _, slot := range slots {
		bySlot[slot.Number] = &SlotUsage{SlotID: slot.ID, SlotNumber: slot.Number, SlotType: slot.Type}
	}

	used := make(map[string]*SlotUsage)
	for _, s := range sessions {
		usage, ok := bySlot[s.SlotNumber]
		if !ok || s.ExitTime == nil {
			continue
		}
		usage.TotalOccupationMinutes += parking.BillableMinutes(s.EntryTime, *s.ExitTime)
		usage.SessionCount++
		used[s.SlotNumber] = usage
	}

	out := make([]SlotUsage, 0, len(used))
	for _, usage := range used {
		out = append(out, *usage)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalOccupationMinutes != out[j].TotalOccupationMinutes {
			return out[i].TotalOccupationMinutes < out[j].TotalOccupationMinutes
		}
		if out[i].SessionCount != out[j].SessionCount {
			return out[i].SessionCount < out[j].SessionCount
		}
		return out[i].SlotNumber < out[j].SlotNumber
	})
	return out, nil
}

type DashboardCounts struct {
	TotalSlots       int `json:"totalSlots"`
	FreeSlots        int `json:"freeSlots"`
	OccupiedSlots    int `json:"occupiedSlots"`
	MaintenanceSlots int `json:"maintenanceSlots"`
}

func (r *Reporter) DashboardCounts(ctx context.Context) (*DashboardCounts, error) {
	counts, err := r.source.CountSlotsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	dc := &DashboardCounts{
		FreeSlots:        counts[parking.StatusAvailable],
		OccupiedSlots:    counts[parking.StatusOccupied],
		MaintenanceSlots: counts[parking.StatusMaintenance],
	}
	for _, n := range counts {
		dc.TotalSlots += n
	}
	return dc, nil
}

// ParseDate reads a YYYY-MM-DD day in UTC.
func ParseDate(s string) (time.Time, error) {
	day, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q, want YYYY-MM-DD: %w", s, parking.ErrInvalidInput)
	}
	return day, nil
}

func dayBounds(day time.Time) (time.Time, time.Time) {
	day = day.UTC()
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func addByType(s parking.Session, hourly, dayPass *float64) {
	switch s.BillingType {
	case parking.BillingHourly:
		*hourly += s.Amount
	case parking.BillingDayPass:
		*dayPass += s.Amount
	}
}
