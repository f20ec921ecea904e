package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgate/internal/core/id"
)

// recordingTx records every statement and fails the ones containing failOn.
type recordingTx struct {
	pgx.Tx
	failOn string
	execs  []string
}

func (t *recordingTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	stmt := strings.Join(strings.Fields(sql), " ")
	t.execs = append(t.execs, stmt)
	if t.failOn != "" && strings.Contains(stmt, t.failOn) {
		return pgconn.CommandTag{}, errors.New("statement failed")
	}
	return pgconn.CommandTag{}, nil
}

type outboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

func (f outboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error { return f(ctx, msg) }

func newBatchContext(tx *recordingTx) (*TxManager, context.Context) {
	m := &TxManager{defaults: DefaultTxOptions()}
	return m, context.WithValue(context.Background(), txKey{}, &Tx{Tx: tx})
}

func TestOutboxRelay_FailedHandlerWriteStillRecordsRetry(t *testing.T) {
	tx := &recordingTx{failOn: "INSERT INTO reg_stock_movements"}
	m, ctx := newBatchContext(tx)

	relay := NewOutboxRelay(m, 10, outboxHandlerFunc(func(ctx context.Context, _ *OutboxMessage) error {
		_, err := m.Exec(ctx, "INSERT INTO reg_stock_movements (id) VALUES ($1)", id.New())
		return err
	}))

	err := relay.processMessage(ctx, &OutboxMessage{ID: id.New(), EventType: "goods_receipt.completed"})
	require.Error(t, err)

	require.Len(t, tx.execs, 4)
	assert.True(t, strings.HasPrefix(tx.execs[0], "SAVEPOINT sp_"))
	assert.Contains(t, tx.execs[1], "INSERT INTO reg_stock_movements")
	assert.True(t, strings.HasPrefix(tx.execs[2], "ROLLBACK TO SAVEPOINT sp_"))
	assert.Contains(t, tx.execs[3], "retry_count = retry_count + 1")
}

func TestOutboxRelay_DeliveredMessageReleasesSavepoint(t *testing.T) {
	tx := &recordingTx{}
	m, ctx := newBatchContext(tx)

	relay := NewOutboxRelay(m, 10, outboxHandlerFunc(func(context.Context, *OutboxMessage) error { return nil }))

	require.NoError(t, relay.processMessage(ctx, &OutboxMessage{ID: id.New()}))

	require.Len(t, tx.execs, 3)
	assert.True(t, strings.HasPrefix(tx.execs[0], "SAVEPOINT sp_"))
	assert.True(t, strings.HasPrefix(tx.execs[1], "RELEASE SAVEPOINT sp_"))
	assert.Contains(t, tx.execs[2], "published_at")
}
