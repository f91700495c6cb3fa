package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"mall-parking/internal/parking"
)

const sessionColumns = `id, number_plate, vehicle_type, slot_id, slot_number, entry_time, exit_time,
	status, billing_type, billing_amount, created_at, updated_at`

func scanSession(row pgx.Row) (*parking.Session, error) {
	var s parking.Session
	var vehicleType, status, billingType string
	err := row.Scan(&s.ID, &s.NumberPlate, &vehicleType, &s.SlotID, &s.SlotNumber, &s.EntryTime, &s.ExitTime,
		&status, &billingType, &s.Amount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.VehicleType = parking.VehicleType(vehicleType)
	s.Status = parking.SessionStatus(status)
	s.BillingType = parking.BillingType(billingType)
	return &s, nil
}

func sessionQuery(filter parking.SessionFilter) (string, []any) {
	var w where
	if filter.Status != "" {
		w.add("status = ?", string(filter.Status))
	}
	if !filter.EntryAfter.IsZero() {
		w.add("entry_time >= ?", filter.EntryAfter)
	}
	if !filter.EntryBefore.IsZero() {
		w.add("entry_time <= ?", filter.EntryBefore)
	}
	if !filter.ExitAfter.IsZero() {
		w.add("exit_time >= ?", filter.ExitAfter)
	}
	if !filter.ExitBefore.IsZero() {
		w.add("exit_time <= ?", filter.ExitBefore)
	}
	return "SELECT " + sessionColumns + " FROM parking_sessions" + w.sql() + " ORDER BY entry_time", w.args
}

func (r *repo) CreateSession(ctx context.Context, s *parking.Session) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO parking_sessions (id, number_plate, vehicle_type, slot_id, slot_number, entry_time,
			exit_time, status, billing_type, billing_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		s.ID, s.NumberPlate, string(s.VehicleType), s.SlotID, s.SlotNumber, s.EntryTime,
		s.ExitTime, string(s.Status), string(s.BillingType), s.Amount, s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("vehicle %s: %w", s.NumberPlate, parking.ErrDuplicateActiveSession)
	}
	return err
}

func (r *repo) GetSession(ctx context.Context, id string) (*parking.Session, error) {
	s, err := scanSession(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM parking_sessions WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "session %s", id)
	}
	return s, nil
}

func (r *repo) FindActiveByPlate(ctx context.Context, plate string) (*parking.Session, error) {
	s, err := scanSession(r.q.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM parking_sessions WHERE number_plate = $1 AND status = 'Active'`, plate))
	if err != nil {
		return nil, notFound(err, "active session for %s", plate)
	}
	return s, nil
}

func (r *repo) CompleteSession(ctx context.Context, id string, exit time.Time, amount float64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE parking_sessions
		SET exit_time = $2, status = 'Completed', billing_amount = $3, updated_at = $2
		WHERE id = $1 AND status = 'Active'`,
		id, exit, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetSession(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("session %s: %w", id, parking.ErrSessionNotActive)
	}
	return nil
}

func (r *repo) ListSessions(ctx context.Context, filter parking.SessionFilter) ([]parking.Session, error) {
	query, args := sessionQuery(filter)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]parking.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
