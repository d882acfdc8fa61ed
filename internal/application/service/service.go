package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dkp-kub/bantuan-kub/internal/application/dispatcher"
	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/event"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// recorder holds what the workflow services share: the transaction boundary,
// the audit trail and post-commit event publication.
type recorder struct {
	historyRepo port.HistoryRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
	now         func() time.Time
}

// inTx runs fn in one transaction. Failures without a workflow code
// (begin, commit) are reported as storage failures.
func (r *recorder) inTx(ctx context.Context, op string, fn func(txCtx context.Context) error) error {
	err := r.txManager.WithTransaction(ctx, fn)
	if err != nil && workflow.Code(err) == "INTERNAL" {
		return workflow.StorageFailure(op, err)
	}
	return err
}

func (r *recorder) record(ctx context.Context, h *entity.ApprovalHistory) error {
	h.Timestamp = r.now()
	return workflow.StorageFailure("create history", r.historyRepo.Create(ctx, h))
}

// publish dispatches an event once the change is committed.
// Handler failures are logged and never undo the change.
func (r *recorder) publish(ctx context.Context, t event.Type, kind entity.Kind, id int64, actor entity.Actor, payload map[string]interface{}) {
	if r.events == nil {
		return
	}
	evt := event.NewEventWithCorrelation(t, kind, id, actor, payload, event.CorrelationIDFrom(ctx))
	if err := r.events.Dispatch(ctx, evt); err != nil {
		r.logger.Error("Failed to dispatch event", "error", err, "type", t.String(), "entity_id", id)
	}
}

func historyEntry(kind entity.Kind, id int64, actor entity.Actor, field entity.Field, from, to, action, note string) *entity.ApprovalHistory {
	return &entity.ApprovalHistory{
		EntityKind:     kind,
		EntityID:       id,
		ActorUserID:    actor.UserID,
		ActorRole:      actor.Role,
		Field:          field,
		PreviousStatus: from,
		NewStatus:      to,
		ActionType:     action,
		Catatan:        note,
	}
}

// checkVersion rejects a write prepared against a stale read
func checkVersion(kind entity.Kind, id, stored, given int64) error {
	if stored != given {
		return fmt.Errorf("%w: %s %d is at version %d, request carries %d",
			workflow.ErrVersionConflict, kind, id, stored, given)
	}
	return nil
}

func notFound(kind entity.Kind, id int64) error {
	return fmt.Errorf("%w: %s %d", workflow.ErrNotFound, kind, id)
}

func pageDefaults(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
