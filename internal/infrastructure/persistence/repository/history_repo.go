package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ApprovalHistory) error {
	query := `
		INSERT INTO approval_history (
			entity_kind, entity_id, actor_user_id, actor_role, field,
			previous_status, new_status, action_type, catatan, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		history.EntityKind,
		history.EntityID,
		history.ActorUserID,
		history.ActorRole,
		history.Field,
		history.PreviousStatus,
		history.NewStatus,
		history.ActionType,
		history.Catatan,
		history.Timestamp.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("entity_kind", string(history.EntityKind)),
			zap.Int64("entity_id", history.EntityID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByEntity retrieves the history of one record in chronological order
func (r *HistoryRepository) GetByEntity(ctx context.Context, kind entity.Kind, entityID int64) ([]*entity.ApprovalHistory, error) {
	query := `
		SELECT id, entity_kind, entity_id, actor_user_id, actor_role, field,
			previous_status, new_status, action_type, catatan, created_at
		FROM approval_history
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY id
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, kind, entityID)
	if err != nil {
		r.logger.Error("Failed to get history", zap.Int64("entity_id", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var histories []*entity.ApprovalHistory
	for rows.Next() {
		var h entity.ApprovalHistory
		if err := rows.Scan(
			&h.ID,
			&h.EntityKind,
			&h.EntityID,
			&h.ActorUserID,
			&h.ActorRole,
			&h.Field,
			&h.PreviousStatus,
			&h.NewStatus,
			&h.ActionType,
			&h.Catatan,
			&h.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		histories = append(histories, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", err)
	}

	return histories, nil
}

func (r *HistoryRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

var _ port.HistoryRepository = (*HistoryRepository)(nil)
