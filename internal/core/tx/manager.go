// Package tx is the transaction contract the goods receipt service runs its
// commands under.
package tx

import "context"

// Manager runs fn in one transaction: fn's error rolls everything back,
// success commits. The transaction travels in the ctx passed to fn, and a
// nested call joins it instead of opening a second one.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
