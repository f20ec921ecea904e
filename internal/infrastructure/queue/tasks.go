// Package queue forwards outbox events to asynq and consumes them.
package queue

import (
	"stockgate/internal/domain/documents/goods_receipt"
)

// QueueDefault is the queue every event task is placed on.
const QueueDefault = "default"

// Task types.
const (
	TaskGoodsReceiptCompleted = "goods_receipt:completed"
	TaskGoodsReceiptCancelled = "goods_receipt:cancelled"
	TaskGoodsReceiptDeleted   = "goods_receipt:deleted"
)

var taskTypes = map[string]string{
	goods_receipt.EventCompleted: TaskGoodsReceiptCompleted,
	goods_receipt.EventCancelled: TaskGoodsReceiptCancelled,
	goods_receipt.EventDeleted:   TaskGoodsReceiptDeleted,
}

// TaskType returns the task type for an outbox event type.
func TaskType(eventType string) (string, bool) {
	t, ok := taskTypes[eventType]
	return t, ok
}
