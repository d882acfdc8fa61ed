package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
)

// LineItemRepository implements port.LineItemRepository
type LineItemRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLineItemRepository creates a new detail_usulan repository
func NewLineItemRepository(db *sql.DB, logger *zap.Logger) port.LineItemRepository {
	return &LineItemRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a line item
func (r *LineItemRepository) Create(ctx context.Context, item *entity.LineItem) error {
	query := `
		INSERT INTO detail_usulan (
			pengajuan_id, nama_alat, spesifikasi, jumlah_alat,
			jumlah_disetujui, status_item, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if item.StatusItem == "" {
		item.StatusItem = entity.ItemPending
	}
	now := time.Now().UTC()

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		item.PengajuanID,
		item.NamaAlat,
		item.Spesifikasi,
		item.JumlahAlat,
		nullableInt(item.JumlahDisetujui),
		item.StatusItem,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create line item",
			zap.Int64("pengajuan_id", item.PengajuanID),
			zap.Error(err))
		return fmt.Errorf("failed to create line item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	item.ID = id
	item.CreatedAt = now
	return nil
}

// GetByPengajuanID retrieves the line items of a pengajuan in entry order
func (r *LineItemRepository) GetByPengajuanID(ctx context.Context, pengajuanID int64) ([]*entity.LineItem, error) {
	query := `
		SELECT id, pengajuan_id, nama_alat, spesifikasi, jumlah_alat,
			jumlah_disetujui, status_item, created_at
		FROM detail_usulan
		WHERE pengajuan_id = ?
		ORDER BY id
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, pengajuanID)
	if err != nil {
		r.logger.Error("Failed to get line items", zap.Int64("pengajuan_id", pengajuanID), zap.Error(err))
		return nil, fmt.Errorf("failed to get line items: %w", err)
	}
	defer rows.Close()

	var items []*entity.LineItem
	for rows.Next() {
		var item entity.LineItem
		var approved sql.NullInt64

		if err := rows.Scan(
			&item.ID,
			&item.PengajuanID,
			&item.NamaAlat,
			&item.Spesifikasi,
			&item.JumlahAlat,
			&approved,
			&item.StatusItem,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}

		if approved.Valid {
			qty := int(approved.Int64)
			item.JumlahDisetujui = &qty
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", err)
	}

	return items, nil
}

// UpdateDecision stores the Kabid decision of one item
func (r *LineItemRepository) UpdateDecision(ctx context.Context, item *entity.LineItem) error {
	query := `
		UPDATE detail_usulan
		SET jumlah_disetujui = ?, status_item = ?
		WHERE id = ? AND pengajuan_id = ?
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		nullableInt(item.JumlahDisetujui),
		item.StatusItem,
		item.ID,
		item.PengajuanID,
	)
	if err != nil {
		r.logger.Error("Failed to update line item decision", zap.Int64("id", item.ID), zap.Error(err))
		return fmt.Errorf("failed to update line item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: line item %d of pengajuan %d", workflow.ErrNotFound, item.ID, item.PengajuanID)
	}
	return nil
}

// DeleteByPengajuanID removes every line item of a pengajuan
func (r *LineItemRepository) DeleteByPengajuanID(ctx context.Context, pengajuanID int64) error {
	_, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM detail_usulan WHERE pengajuan_id = ?`, pengajuanID)
	if err != nil {
		r.logger.Error("Failed to delete line items", zap.Int64("pengajuan_id", pengajuanID), zap.Error(err))
		return fmt.Errorf("failed to delete line items: %w", err)
	}
	return nil
}

func (r *LineItemRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

var _ port.LineItemRepository = (*LineItemRepository)(nil)
