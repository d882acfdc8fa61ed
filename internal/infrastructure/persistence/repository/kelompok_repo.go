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

// KelompokRepository implements port.KelompokRepository
type KelompokRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewKelompokRepository creates a new cooperative repository
func NewKelompokRepository(db *sql.DB, logger *zap.Logger) port.KelompokRepository {
	return &KelompokRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a cooperative together with its member roster.
// Callers wrap it in a transaction so a failed member insert leaves nothing behind.
func (r *KelompokRepository) Create(ctx context.Context, k *entity.Kelompok) error {
	query := `
		INSERT INTO kelompok (nama, desa, kecamatan, kab_kota, nama_ketua, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	exec := r.getExecutor(ctx)
	result, err := exec.ExecContext(ctx, query, k.Nama, k.Desa, k.Kecamatan, k.KabKota, k.NamaKetua, now)
	if err != nil {
		r.logger.Error("Failed to create kelompok", zap.String("nama", k.Nama), zap.Error(err))
		return fmt.Errorf("failed to create kelompok: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	k.ID = id
	k.CreatedAt = now

	for _, a := range k.Anggota {
		a.KelompokID = id
		res, err := exec.ExecContext(ctx,
			`INSERT INTO anggota (kelompok_id, nama, nik, jabatan) VALUES (?, ?, ?, ?)`,
			a.KelompokID, a.Nama, a.NIK, a.Jabatan,
		)
		if err != nil {
			r.logger.Error("Failed to create anggota", zap.Int64("kelompok_id", id), zap.Error(err))
			return fmt.Errorf("failed to create anggota: %w", err)
		}
		if a.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}

	return nil
}

// GetByID retrieves a cooperative with its members, or (nil, nil)
func (r *KelompokRepository) GetByID(ctx context.Context, id int64) (*entity.Kelompok, error) {
	query := `
		SELECT id, nama, desa, kecamatan, kab_kota, nama_ketua, created_at
		FROM kelompok
		WHERE id = ?
	`

	exec := r.getExecutor(ctx)
	var k entity.Kelompok
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&k.ID, &k.Nama, &k.Desa, &k.Kecamatan, &k.KabKota, &k.NamaKetua, &k.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get kelompok", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get kelompok: %w", err)
	}

	rows, err := exec.QueryContext(ctx,
		`SELECT id, kelompok_id, nama, nik, jabatan FROM anggota WHERE kelompok_id = ? ORDER BY id`, id)
	if err != nil {
		r.logger.Error("Failed to get anggota", zap.Int64("kelompok_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get anggota: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a entity.Anggota
		if err := rows.Scan(&a.ID, &a.KelompokID, &a.Nama, &a.NIK, &a.Jabatan); err != nil {
			return nil, fmt.Errorf("failed to scan anggota: %w", err)
		}
		k.Anggota = append(k.Anggota, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate anggota: %w", err)
	}

	return &k, nil
}

// List retrieves cooperatives ordered by name, without members
func (r *KelompokRepository) List(ctx context.Context, limit, offset int) ([]*entity.Kelompok, error) {
	query := `
		SELECT id, nama, desa, kecamatan, kab_kota, nama_ketua, created_at
		FROM kelompok
		ORDER BY nama, id
		LIMIT ? OFFSET ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list kelompok", zap.Error(err))
		return nil, fmt.Errorf("failed to list kelompok: %w", err)
	}
	defer rows.Close()

	var result []*entity.Kelompok
	for rows.Next() {
		var k entity.Kelompok
		if err := rows.Scan(&k.ID, &k.Nama, &k.Desa, &k.Kecamatan, &k.KabKota, &k.NamaKetua, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan kelompok: %w", err)
		}
		result = append(result, &k)
	}
	return result, rows.Err()
}

// CountAnggota returns the size of a cooperative's roster
func (r *KelompokRepository) CountAnggota(ctx context.Context, kelompokID int64) (int, error) {
	var n int
	err := r.getExecutor(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM anggota WHERE kelompok_id = ?`, kelompokID).Scan(&n)
	if err != nil {
		r.logger.Error("Failed to count anggota", zap.Int64("kelompok_id", kelompokID), zap.Error(err))
		return 0, fmt.Errorf("failed to count anggota: %w", err)
	}
	return n, nil
}

func (r *KelompokRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

var _ port.KelompokRepository = (*KelompokRepository)(nil)
