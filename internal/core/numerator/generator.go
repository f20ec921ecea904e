package numerator

import (
	"context"
	"time"
)

// Generator generates sequential document numbers.
// This is the domain contract - implementations live in infrastructure layer.
//
// Implementations run on the caller's transaction when one is present in ctx,
// so the counter row stays locked until the numbered document is committed.
type Generator interface {
	// GetNextNumber allocates the next number of the period.
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber sets the counter value (for migration purposes).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
