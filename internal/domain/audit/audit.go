// Package audit records who created or deleted reconciliation data and what
// the record looked like at that moment.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appctx "estoque/internal/core/context"
	"estoque/internal/core/id"
	"estoque/internal/domain"
	"estoque/internal/domain/adjustment"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionDelete Action = "delete"
)

// EntityTransfer is the entity type of transfer audit entries.
const EntityTransfer = "adjustment_transfer"

// Entry is one audit record. Snapshot holds the JSON of the entity.
type Entry struct {
	ID         id.ID           `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   id.ID           `db:"entity_id" json:"entityId"`
	Action     Action          `db:"action" json:"action"`
	OperatorID string          `db:"operator_id" json:"operatorId"`
	RequestID  string          `db:"request_id" json:"requestId,omitempty"`
	Snapshot   json.RawMessage `db:"snapshot" json:"snapshot"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// Sink persists audit entries.
type Sink interface {
	Log(ctx context.Context, entry Entry) error
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// Recorder turns entity lifecycle events into audit entries.
type Recorder struct {
	sink Sink
}

// NewRecorder creates a recorder writing to sink.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record stores a snapshot of entity under the given action.
func (r *Recorder) Record(ctx context.Context, entityType string, entityID id.ID, action Action, entity any) error {
	snapshot, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	return r.sink.Log(ctx, Entry{
		ID:         id.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		OperatorID: appctx.GetOperatorID(ctx),
		RequestID:  appctx.GetRequestID(ctx),
		Snapshot:   snapshot,
		CreatedAt:  time.Now().UTC(),
	})
}

// AttachTransfers registers create/delete hooks on the transfer service.
func (r *Recorder) AttachTransfers(hooks *domain.HookRegistry[*adjustment.Transfer]) {
	hooks.On(domain.AfterCreate, func(ctx context.Context, t *adjustment.Transfer) error {
		return r.Record(ctx, EntityTransfer, t.ID, ActionCreate, t)
	})
	hooks.On(domain.AfterDelete, func(ctx context.Context, t *adjustment.Transfer) error {
		return r.Record(ctx, EntityTransfer, t.ID, ActionDelete, t)
	})
}

// History returns the audit trail of one transfer, newest first.
func (r *Recorder) History(ctx context.Context, transferID id.ID, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.sink.History(ctx, EntityTransfer, transferID, limit)
}
