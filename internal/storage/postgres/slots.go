package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mall-parking/internal/parking"
)

const slotColumns = `id, slot_number, slot_type, status, charger_available,
	COALESCE(current_session_id, ''), created_at, updated_at`

func scanSlot(row pgx.Row) (*parking.Slot, error) {
	var (
		slot             parking.Slot
		slotType, status string
	)
	err := row.Scan(&slot.ID, &slot.Number, &slotType, &status, &slot.ChargerAvailable,
		&slot.CurrentSessionID, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	slot.Type = parking.SlotType(slotType)
	slot.Status = parking.SlotStatus(status)
	return &slot, nil
}

func slotQuery(filter parking.SlotFilter) (string, []any) {
	var w where
	if filter.Type != "" {
		w.add("slot_type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	return "SELECT " + slotColumns + " FROM parking_slots" + w.sql() + " ORDER BY slot_number", w.args
}

func (r *repo) ListSlots(ctx context.Context, filter parking.SlotFilter) ([]parking.Slot, error) {
	query, args := slotQuery(filter)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]parking.Slot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, *slot)
	}
	return slots, rows.Err()
}

func (r *repo) GetSlot(ctx context.Context, number string) (*parking.Slot, error) {
	slot, err := scanSlot(r.q.QueryRow(ctx,
		`SELECT `+slotColumns+` FROM parking_slots WHERE slot_number = $1`, number))
	if err != nil {
		return nil, notFound(err, "slot %s", number)
	}
	return slot, nil
}

func (r *repo) CountSlotsByStatus(ctx context.Context) (map[parking.SlotStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM parking_slots GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[parking.SlotStatus]int{
		parking.StatusAvailable:   0,
		parking.StatusOccupied:    0,
		parking.StatusMaintenance: 0,
	}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[parking.SlotStatus(status)] = count
	}
	return counts, rows.Err()
}

func (r *repo) ReplaceSlots(ctx context.Context, slots []parking.Slot) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM parking_slots`); err != nil {
		return err
	}
	for _, slot := range slots {
		_, err := r.q.Exec(ctx, `
			INSERT INTO parking_slots (id, slot_number, slot_type, status, charger_available,
				current_session_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
			slot.ID, slot.Number, string(slot.Type), string(slot.Status), slot.ChargerAvailable,
			slot.CurrentSessionID, slot.CreatedAt, slot.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("slot %s: %w", slot.Number, parking.ErrInvalidInput)
			}
			return err
		}
	}
	return nil
}

func (r *repo) OccupySlot(ctx context.Context, number, sessionID string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE parking_slots
		SET status = 'Occupied', current_session_id = $2, updated_at = $3
		WHERE slot_number = $1 AND status = 'Available'`,
		number, sessionID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.conflict(ctx, number)
	}
	return nil
}

func (r *repo) ReleaseSlot(ctx context.Context, number string, at time.Time) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE parking_slots
		SET status = 'Available', current_session_id = NULL, updated_at = $2
		WHERE slot_number = $1 AND status = 'Occupied'`,
		number, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		err := r.conflict(ctx, number)
		if errors.Is(err, parking.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}

func (r *repo) SetSlotStatus(ctx context.Context, number string, status parking.SlotStatus, at time.Time) (*parking.Slot, error) {
	if status != parking.StatusAvailable && status != parking.StatusMaintenance {
		return nil, fmt.Errorf("status %q: %w", status, parking.ErrInvalidInput)
	}

	slot, err := scanSlot(r.q.QueryRow(ctx, `
		UPDATE parking_slots
		SET status = $2, updated_at = $3
		WHERE slot_number = $1 AND status <> 'Occupied'
		RETURNING `+slotColumns,
		number, string(status), at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.conflict(ctx, number)
	}
	return slot, err
}

// conflict explains why a guarded update touched no row.
func (r *repo) conflict(ctx context.Context, number string) error {
	slot, err := r.GetSlot(ctx, number)
	if err != nil {
		return err
	}
	return fmt.Errorf("slot %s is %s: %w", number, slot.Status, parking.ErrNotAvailable)
}
