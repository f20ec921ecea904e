package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"

	"stockgate/internal/infrastructure/storage/postgres"
	"stockgate/pkg/logger"
)

// Enqueuer is the part of asynq.Client the forwarder uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Forwarder delivers outbox messages as asynq tasks.
type Forwarder struct {
	client   Enqueuer
	maxRetry int
}

var _ postgres.OutboxHandler = (*Forwarder)(nil)

// NewForwarder creates a forwarder.
func NewForwarder(client Enqueuer) *Forwarder {
	return &Forwarder{client: client, maxRetry: 10}
}

// Handle enqueues msg with its id as task id, so a message delivered twice
// by the relay is queued once.
func (f *Forwarder) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	taskType, ok := TaskType(msg.EventType)
	if !ok {
		// Unknown events are acknowledged; nothing consumes them.
		logger.Warn(ctx, "outbox event has no task type", "event_type", msg.EventType, "message_id", msg.ID)
		return nil
	}

	task := asynq.NewTask(taskType, msg.Payload)
	_, err := f.client.EnqueueContext(ctx, task,
		asynq.TaskID(msg.ID.String()),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(f.maxRetry),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// Inline runs outbox messages through the task handlers in-process.
// Used when no broker is configured.
type Inline struct {
	mux *asynq.ServeMux
}

var _ postgres.OutboxHandler = (*Inline)(nil)

// NewInline creates an in-process handler.
func NewInline(handlers *Handlers) *Inline {
	mux := asynq.NewServeMux()
	handlers.Register(mux)
	return &Inline{mux: mux}
}

// Handle implements postgres.OutboxHandler. Messages whose payload cannot
// be decoded are acknowledged, matching asynq.SkipRetry on the broker path.
func (i *Inline) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	taskType, ok := TaskType(msg.EventType)
	if !ok {
		return nil
	}
	err := i.mux.ProcessTask(ctx, asynq.NewTask(taskType, msg.Payload))
	if errors.Is(err, asynq.SkipRetry) {
		logger.Warn(ctx, "dropping undecodable outbox message", "message_id", msg.ID, "error", err)
		return nil
	}
	return err
}
