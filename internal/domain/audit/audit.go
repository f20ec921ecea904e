// Package audit defines the change history recorded for every document command.
package audit

import (
	"context"

	appctx "stockgate/internal/core/context"
	"stockgate/internal/core/id"
)

// Action names an audited command.
type Action string

const (
	ActionCreate   Action = "create"
	ActionArrive   Action = "arrive"
	ActionRecordQC Action = "record_qc"
	ActionUpdateQC Action = "update_qc"
	ActionApprove  Action = "approve"
	ActionCancel   Action = "cancel"
	ActionDelete   Action = "delete"
)

// Record is one audit entry.
type Record struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	UserID     string
	Changes    map[string]any
}

// Logger stores audit records on the caller's transaction.
type Logger interface {
	Log(ctx context.Context, record Record) error
}

// NewRecord builds a record attributed to the user in ctx.
func NewRecord(ctx context.Context, entityType string, entityID id.ID, action Action, changes map[string]any) Record {
	return Record{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		UserID:     appctx.GetUserID(ctx),
		Changes:    changes,
	}
}

// Discard is a Logger that keeps nothing.
type Discard struct{}

func (Discard) Log(context.Context, Record) error { return nil }
