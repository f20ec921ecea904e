// Package memstore provides in-memory implementations of the storage ports
// for service tests.
package memstore

import (
	"context"
	"sync"
)

// Snapshotter is a store whose state can be captured and restored.
type Snapshotter interface {
	Snapshot() (restore func())
}

type txKey struct{}

// TxManager serializes transactions, which stands in for row locks, and
// restores every registered store when fn fails.
type TxManager struct {
	mu      sync.Mutex
	stores  []Snapshotter
	commits int
	aborts  int
}

// NewTxManager creates a manager over stores.
func NewTxManager(stores ...Snapshotter) *TxManager {
	return &TxManager{stores: stores}
}

// Register adds a store to roll back on failure.
func (m *TxManager) Register(s Snapshotter) {
	m.stores = append(m.stores, s)
}

// RunInTransaction implements tx.Manager. Nested calls join the outer transaction.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	restores := make([]func(), 0, len(m.stores))
	for _, s := range m.stores {
		restores = append(restores, s.Snapshot())
	}

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		for _, restore := range restores {
			restore()
		}
		m.aborts++
		return err
	}
	m.commits++
	return nil
}

// Commits returns the number of committed transactions.
func (m *TxManager) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Aborts returns the number of rolled back transactions.
func (m *TxManager) Aborts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.aborts
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	return ctx.Value(txKey{}) != nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
