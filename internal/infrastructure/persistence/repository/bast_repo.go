package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
)

// BASTRepository implements port.BASTRepository
type BASTRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewBASTRepository creates a new BAST repository
func NewBASTRepository(db *sql.DB, logger *zap.Logger) port.BASTRepository {
	return &BASTRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert stores the BAST record of a pengajuan, replacing an earlier one
func (r *BASTRepository) Upsert(ctx context.Context, bast *entity.BAST) error {
	query := `
		INSERT INTO bast (pengajuan_id, no_bast, dokumen_bast, uploaded_by, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pengajuan_id) DO UPDATE SET
			no_bast = excluded.no_bast,
			dokumen_bast = excluded.dokumen_bast,
			uploaded_by = excluded.uploaded_by,
			created_at = excluded.created_at
	`

	now := time.Now().UTC()
	exec := r.getExecutor(ctx)
	if _, err := exec.ExecContext(ctx, query,
		bast.PengajuanID,
		bast.NoBAST,
		bast.DokumenBAST,
		bast.UploadedBy,
		now,
	); err != nil {
		r.logger.Error("Failed to upsert BAST", zap.Int64("pengajuan_id", bast.PengajuanID), zap.Error(err))
		return fmt.Errorf("failed to upsert bast: %w", err)
	}

	// LastInsertId is not reliable on the update branch of an upsert
	if err := exec.QueryRowContext(ctx, `SELECT id FROM bast WHERE pengajuan_id = ?`, bast.PengajuanID).Scan(&bast.ID); err != nil {
		return fmt.Errorf("failed to read bast id: %w", err)
	}
	bast.CreatedAt = now
	return nil
}

// GetByPengajuanID returns (nil, nil) when no BAST was attached
func (r *BASTRepository) GetByPengajuanID(ctx context.Context, pengajuanID int64) (*entity.BAST, error) {
	query := `
		SELECT id, pengajuan_id, no_bast, dokumen_bast, uploaded_by, created_at
		FROM bast
		WHERE pengajuan_id = ?
	`

	var bast entity.BAST
	err := r.getExecutor(ctx).QueryRowContext(ctx, query, pengajuanID).Scan(
		&bast.ID,
		&bast.PengajuanID,
		&bast.NoBAST,
		&bast.DokumenBAST,
		&bast.UploadedBy,
		&bast.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get BAST", zap.Int64("pengajuan_id", pengajuanID), zap.Error(err))
		return nil, fmt.Errorf("failed to get bast: %w", err)
	}
	return &bast, nil
}

func (r *BASTRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

var _ port.BASTRepository = (*BASTRepository)(nil)
