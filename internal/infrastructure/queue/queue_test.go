package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockgate/internal/core/id"
	"stockgate/internal/core/types"
	"stockgate/internal/domain/documents/goods_receipt"
	"stockgate/internal/infrastructure/storage/postgres"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

type fakeRefresher struct {
	refreshed []id.ID
	err       error
}

func (f *fakeRefresher) RefreshProductStock(_ context.Context, productID id.ID) error {
	f.refreshed = append(f.refreshed, productID)
	return f.err
}

func TestForwarder_Handle(t *testing.T) {
	ctx := context.Background()

	t.Run("known event", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		msg := &postgres.OutboxMessage{ID: id.New(), EventType: goods_receipt.EventCompleted, Payload: []byte(`{}`)}

		require.NoError(t, NewForwarder(enq).Handle(ctx, msg))
		require.Len(t, enq.tasks, 1)
		assert.Equal(t, TaskGoodsReceiptCompleted, enq.tasks[0].Type())
		assert.Equal(t, []byte(`{}`), enq.tasks[0].Payload())
	})

	t.Run("unknown event is acknowledged", func(t *testing.T) {
		enq := &fakeEnqueuer{}
		msg := &postgres.OutboxMessage{ID: id.New(), EventType: "Something"}

		require.NoError(t, NewForwarder(enq).Handle(ctx, msg))
		assert.Empty(t, enq.tasks)
	})

	t.Run("already queued", func(t *testing.T) {
		enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
		msg := &postgres.OutboxMessage{ID: id.New(), EventType: goods_receipt.EventDeleted}

		assert.NoError(t, NewForwarder(enq).Handle(ctx, msg))
	})

	t.Run("broker failure is retried by the relay", func(t *testing.T) {
		enq := &fakeEnqueuer{err: errors.New("connection refused")}
		msg := &postgres.OutboxMessage{ID: id.New(), EventType: goods_receipt.EventCancelled}

		assert.Error(t, NewForwarder(enq).Handle(ctx, msg))
	})
}

func TestHandleCompleted_RefreshesPostedProductsOnce(t *testing.T) {
	productA, productB, productC := id.New(), id.New(), id.New()
	payload, err := json.Marshal(goods_receipt.CompletedPayload{
		ID:     id.New(),
		Number: "GRN-202610-0001",
		Items: []goods_receipt.PostedItem{
			{ProductID: productA, QtyPassed: types.NewQuantity(30)},
			{ProductID: productA, QtyPassed: types.NewQuantity(5)},
			{ProductID: productB, QtyPassed: 0, QtyRejected: types.NewQuantity(10)},
			{ProductID: productC, QtyPassed: types.NewQuantity(1)},
		},
	})
	require.NoError(t, err)

	refresher := &fakeRefresher{}
	h := NewHandlers(refresher)

	require.NoError(t, h.HandleCompleted(context.Background(), asynq.NewTask(TaskGoodsReceiptCompleted, payload)))
	assert.Equal(t, []id.ID{productA, productC}, refresher.refreshed)
}

func TestHandleCompleted_Errors(t *testing.T) {
	h := NewHandlers(&fakeRefresher{})

	err := h.HandleCompleted(context.Background(), asynq.NewTask(TaskGoodsReceiptCompleted, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	payload, _ := json.Marshal(goods_receipt.CompletedPayload{
		Items: []goods_receipt.PostedItem{{ProductID: id.New(), QtyPassed: types.NewQuantity(1)}},
	})
	failing := NewHandlers(&fakeRefresher{err: errors.New("db down")})
	err = failing.HandleCompleted(context.Background(), asynq.NewTask(TaskGoodsReceiptCompleted, payload))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleStatusChange(t *testing.T) {
	h := NewHandlers(&fakeRefresher{})
	payload, _ := json.Marshal(goods_receipt.StatusPayload{ID: id.New(), Number: "GRN-202610-0002", Status: goods_receipt.StatusCancelled})

	assert.NoError(t, h.HandleStatusChange(context.Background(), asynq.NewTask(TaskGoodsReceiptCancelled, payload)))
	assert.ErrorIs(t, h.HandleStatusChange(context.Background(), asynq.NewTask(TaskGoodsReceiptDeleted, []byte("x"))), asynq.SkipRetry)
}

func TestInline_RunsHandlers(t *testing.T) {
	productID := id.New()
	payload, _ := json.Marshal(goods_receipt.CompletedPayload{
		ID:    id.New(),
		Items: []goods_receipt.PostedItem{{ProductID: productID, QtyPassed: types.NewQuantity(2)}},
	})
	refresher := &fakeRefresher{}
	inline := NewInline(NewHandlers(refresher))
	ctx := context.Background()

	require.NoError(t, inline.Handle(ctx, &postgres.OutboxMessage{ID: id.New(), EventType: goods_receipt.EventCompleted, Payload: payload}))
	assert.Equal(t, []id.ID{productID}, refresher.refreshed)

	assert.NoError(t, inline.Handle(ctx, &postgres.OutboxMessage{ID: id.New(), EventType: goods_receipt.EventCompleted, Payload: []byte("{")}))
	assert.NoError(t, inline.Handle(ctx, &postgres.OutboxMessage{ID: id.New(), EventType: "Other"}))
}
