// Package postgres is the PostgreSQL implementation of the parking store.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mall-parking/internal/parking"
)

// uniqueViolation is the SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Store struct {
	repo
	pool *pgxpool.Pool
}

var _ parking.Store = (*Store)(nil)

// Open connects a traced pool and pings it.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}

	dbName := "mall_parking"
	if config.ConnConfig.Database != "" {
		dbName = config.ConnConfig.Database
	}
	config.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithTrimSQLInSpanName(),
		otelpgx.WithDisableQuerySpanNamePrefix(),
		otelpgx.WithSpanNameFunc(func(stmt string) string {
			return spanName(dbName, stmt)
		}),
	)

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{repo: repo{q: pool}, pool: pool}, nil
}

func spanName(dbName, stmt string) string {
	fields := strings.Fields(stmt)
	if len(fields) == 0 {
		return dbName
	}
	return dbName + " " + strings.ToUpper(fields[0])
}

func (s *Store) InTx(ctx context.Context, fn func(tx parking.Repository) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&repo{q: tx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the schema when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS parking_slots (
	id                 TEXT PRIMARY KEY,
	slot_number        TEXT NOT NULL UNIQUE,
	slot_type          TEXT NOT NULL,
	status             TEXT NOT NULL DEFAULT 'Available',
	charger_available  BOOLEAN NOT NULL DEFAULT FALSE,
	current_session_id TEXT,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS parking_sessions (
	id             TEXT PRIMARY KEY,
	number_plate   TEXT NOT NULL,
	vehicle_type   TEXT NOT NULL,
	slot_id        TEXT NOT NULL,
	slot_number    TEXT NOT NULL,
	entry_time     TIMESTAMPTZ NOT NULL,
	exit_time      TIMESTAMPTZ,
	status         TEXT NOT NULL DEFAULT 'Active',
	billing_type   TEXT NOT NULL,
	billing_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS parking_sessions_active_plate
	ON parking_sessions (number_plate) WHERE status = 'Active';
CREATE INDEX IF NOT EXISTS parking_sessions_entry_time ON parking_sessions (entry_time);
CREATE INDEX IF NOT EXISTS parking_sessions_exit_time ON parking_sessions (exit_time);

CREATE TABLE IF NOT EXISTS pricing_configs (
	billing_type   TEXT PRIMARY KEY,
	hourly_rates   JSONB,
	max_hourly_cap DOUBLE PRECISION,
	day_pass_rate  DOUBLE PRECISION,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// repo runs against either the pool or an open transaction.
type repo struct {
	q querier
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func notFound(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf(format+": %w", append(args, parking.ErrNotFound)...)
	}
	return err
}
