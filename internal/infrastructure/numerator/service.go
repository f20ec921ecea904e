// Package numerator provides the PostgreSQL implementation of document auto-numbering.
// This is the infrastructure layer - it implements core/numerator.Generator interface.
package numerator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	corenumerator "stockgate/internal/core/numerator"
)

// Querier runs a single-row statement, on the transaction carried by ctx when there is one.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service allocates numbers from counter rows in sys_sequences.
//
// The increment is a row-level write, so the counter stays locked until the
// surrounding transaction ends and no two writers can see the same value.
type Service struct {
	db Querier
}

// Ensure compile-time interface compliance.
var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(db Querier) *Service {
	return &Service{db: db}
}

const (
	incrementSQL = `
		UPDATE sys_sequences SET current_val = current_val + 1, updated_at = now()
		WHERE key = $1
		RETURNING current_val`

	insertSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1, updated_at = now()
		RETURNING current_val`

	setSQL = `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2, updated_at = now()
		RETURNING current_val`
)

// GetNextNumber allocates the next number of the period.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := cfg.Key(period)

	var num int64
	err := s.db.QueryRow(ctx, incrementSQL, key).Scan(&num)
	if errors.Is(err, pgx.ErrNoRows) {
		num, err = s.openCounter(ctx, cfg, key, period)
	}
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return cfg.Format(period, num), nil
}

// openCounter creates the counter row of a new period. A concurrent creator
// turns the insert into an increment.
func (s *Service) openCounter(ctx context.Context, cfg corenumerator.Config, key string, period time.Time) (int64, error) {
	start := int64(1)
	if cfg.Seed != nil {
		last, err := s.lastIssued(ctx, cfg, period)
		if err != nil {
			return 0, err
		}
		start = last + 1
	}

	var num int64
	if err := s.db.QueryRow(ctx, insertSQL, key, start).Scan(&num); err != nil {
		return 0, fmt.Errorf("open counter: %w", err)
	}
	return num, nil
}

// lastIssued returns the counter of the lexicographically greatest number
// already stored for the period, 0 when there is none.
func (s *Service) lastIssued(ctx context.Context, cfg corenumerator.Config, period time.Time) (int64, error) {
	query, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(fmt.Sprintf("MAX(%s)", cfg.Seed.Column)).
		From(cfg.Seed.Table).
		Where(squirrel.Like{cfg.Seed.Column: cfg.NumberPrefix(period) + "%"}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var last *string
	if err := s.db.QueryRow(ctx, query, args...).Scan(&last); err != nil {
		return 0, fmt.Errorf("seed counter: %w", err)
	}
	if last == nil {
		return 0, nil
	}
	n, _ := corenumerator.Counter(*last)
	return n, nil
}

// SetNextNumber sets the counter value (for migration purposes).
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	var result int64
	if err := s.db.QueryRow(ctx, setSQL, cfg.Key(period), value).Scan(&result); err != nil {
		return fmt.Errorf("set number: %w", err)
	}
	return nil
}
