package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
)

// PengajuanRepository implements port.PengajuanRepository
type PengajuanRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPengajuanRepository creates a new pengajuan repository
func NewPengajuanRepository(db *sql.DB, logger *zap.Logger) port.PengajuanRepository {
	return &PengajuanRepository{
		db:     db,
		logger: logger,
	}
}

const pengajuanSelect = `
	SELECT p.id, p.kelompok_id, p.user_id, p.judul_usulan, p.tahun, p.keterangan,
		COALESCE(k.nama, ''),
		p.status_verifikasi, p.catatan_verifikasi,
		p.status_verifikasi_kabid, p.catatan_verifikasi_kabid,
		p.dok_surat_permohonan, p.dok_proposal, p.dok_ktp_ketua,
		p.dok_sk_pengukuhan_kub, p.dok_foto_kegiatan,
		p.version, p.created_at, p.updated_at
	FROM pengajuan p
	LEFT JOIN kelompok k ON k.id = p.kelompok_id
`

// Create inserts a pengajuan at version 1
func (r *PengajuanRepository) Create(ctx context.Context, p *entity.Pengajuan) error {
	query := `
		INSERT INTO pengajuan (
			kelompok_id, user_id, judul_usulan, tahun, keterangan,
			status_verifikasi, catatan_verifikasi,
			status_verifikasi_kabid, catatan_verifikasi_kabid,
			dok_surat_permohonan, dok_proposal, dok_ktp_ketua,
			dok_sk_pengukuhan_kub, dok_foto_kegiatan,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	now := time.Now().UTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.KelompokID,
		p.UserID,
		p.JudulUsulan,
		p.Tahun,
		p.Keterangan,
		p.StatusVerifikasi,
		p.CatatanVerifikasi,
		kabidColumn(p.StatusVerifikasiKabid),
		p.CatatanVerifikasiKabid,
		p.StatusDokumen.SuratPermohonan,
		p.StatusDokumen.Proposal,
		p.StatusDokumen.KTPKetua,
		p.StatusDokumen.SKPengukuhanKUB,
		p.StatusDokumen.FotoKegiatan,
		now,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create pengajuan", zap.Int64("user_id", p.UserID), zap.Error(err))
		return fmt.Errorf("failed to create pengajuan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	p.ID = id
	p.Version = 1
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.StatusVerifikasiKabid == "" {
		p.StatusVerifikasiKabid = entity.KabidMenunggu
	}
	return nil
}

// GetByID retrieves a pengajuan without its line items
func (r *PengajuanRepository) GetByID(ctx context.Context, id int64) (*entity.Pengajuan, error) {
	p, err := scanPengajuan(r.getExecutor(ctx).QueryRowContext(ctx, pengajuanSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get pengajuan by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get pengajuan: %w", err)
	}
	return p, nil
}

// List retrieves pengajuan matching filter, newest first
func (r *PengajuanRepository) List(ctx context.Context, filter port.PengajuanFilter) ([]*entity.Pengajuan, error) {
	var where []string
	var args []interface{}

	if filter.UserID != 0 {
		where = append(where, "p.user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.KelompokID != 0 {
		where = append(where, "p.kelompok_id = ?")
		args = append(args, filter.KelompokID)
	}
	if filter.Tahun != 0 {
		where = append(where, "p.tahun = ?")
		args = append(args, filter.Tahun)
	}
	if len(filter.StatusVerifikasi) > 0 {
		values := make([]interface{}, len(filter.StatusVerifikasi))
		for i, s := range filter.StatusVerifikasi {
			values[i] = string(s)
		}
		where = append(where, "p.status_verifikasi IN ("+placeholders(len(values))+")")
		args = append(args, values...)
	}
	if len(filter.StatusKabid) > 0 {
		clause, values := kabidFilter(filter.StatusKabid)
		where = append(where, clause)
		args = append(args, values...)
	}

	query := pengajuanSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list pengajuan", zap.Error(err))
		return nil, fmt.Errorf("failed to list pengajuan: %w", err)
	}
	defer rows.Close()

	var result []*entity.Pengajuan
	for rows.Next() {
		p, err := scanPengajuan(rows)
		if err != nil {
			r.logger.Error("Failed to scan pengajuan", zap.Error(err))
			return nil, fmt.Errorf("failed to scan pengajuan: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pengajuan: %w", err)
	}

	return result, nil
}

// Update writes all mutable columns guarded by the optimistic version
func (r *PengajuanRepository) Update(ctx context.Context, p *entity.Pengajuan) error {
	query := `
		UPDATE pengajuan SET
			kelompok_id = ?, judul_usulan = ?, tahun = ?, keterangan = ?,
			status_verifikasi = ?, catatan_verifikasi = ?,
			status_verifikasi_kabid = ?, catatan_verifikasi_kabid = ?,
			dok_surat_permohonan = ?, dok_proposal = ?, dok_ktp_ketua = ?,
			dok_sk_pengukuhan_kub = ?, dok_foto_kegiatan = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	now := time.Now().UTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		p.KelompokID,
		p.JudulUsulan,
		p.Tahun,
		p.Keterangan,
		p.StatusVerifikasi,
		p.CatatanVerifikasi,
		kabidColumn(p.StatusVerifikasiKabid),
		p.CatatanVerifikasiKabid,
		p.StatusDokumen.SuratPermohonan,
		p.StatusDokumen.Proposal,
		p.StatusDokumen.KTPKetua,
		p.StatusDokumen.SKPengukuhanKUB,
		p.StatusDokumen.FotoKegiatan,
		now,
		p.ID,
		p.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update pengajuan", zap.Int64("id", p.ID), zap.Error(err))
		return fmt.Errorf("failed to update pengajuan: %w", err)
	}

	if err := versionedResult(ctx, r.getExecutor(ctx), result, "pengajuan", p.ID, p.Version); err != nil {
		return err
	}

	p.Version++
	p.UpdatedAt = now
	return nil
}

// Delete removes a pengajuan; line items and BAST go with it
func (r *PengajuanRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM pengajuan WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete pengajuan", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete pengajuan: %w", err)
	}
	return requireAffected(result, "pengajuan", id)
}

// getExecutor returns the transaction carried by ctx or the database
func (r *PengajuanRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPengajuan(row rowScanner) (*entity.Pengajuan, error) {
	var p entity.Pengajuan
	var kabid sql.NullString

	err := row.Scan(
		&p.ID,
		&p.KelompokID,
		&p.UserID,
		&p.JudulUsulan,
		&p.Tahun,
		&p.Keterangan,
		&p.NamaKelompok,
		&p.StatusVerifikasi,
		&p.CatatanVerifikasi,
		&kabid,
		&p.CatatanVerifikasiKabid,
		&p.StatusDokumen.SuratPermohonan,
		&p.StatusDokumen.Proposal,
		&p.StatusDokumen.KTPKetua,
		&p.StatusDokumen.SKPengukuhanKUB,
		&p.StatusDokumen.FotoKegiatan,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.StatusVerifikasiKabid = entity.KabidMenunggu
	if kabid.Valid {
		p.StatusVerifikasiKabid = entity.StatusKabid(kabid.String)
	}
	return &p, nil
}

// kabidColumn maps the pending Kabid status to NULL
func kabidColumn(s entity.StatusKabid) interface{} {
	if s == "" || s == entity.KabidMenunggu {
		return nil
	}
	return string(s)
}

// kabidFilter builds a status_verifikasi_kabid predicate where Menunggu matches NULL
func kabidFilter(statuses []entity.StatusKabid) (string, []interface{}) {
	var values []interface{}
	pending := false
	for _, s := range statuses {
		if s == entity.KabidMenunggu {
			pending = true
			continue
		}
		values = append(values, string(s))
	}

	var parts []string
	if pending {
		parts = append(parts, "p.status_verifikasi_kabid IS NULL")
	}
	if len(values) > 0 {
		parts = append(parts, "p.status_verifikasi_kabid IN ("+placeholders(len(values))+")")
	}
	return "(" + strings.Join(parts, " OR ") + ")", values
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func requireAffected(result sql.Result, table string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", workflow.ErrNotFound, table, id)
	}
	return nil
}

// versionedResult tells a stale version apart from a missing row when an update touched nothing
func versionedResult(ctx context.Context, exec sqlite.Executor, result sql.Result, table string, id, version int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n > 0 {
		return nil
	}

	var current int64
	err = exec.QueryRowContext(ctx, "SELECT version FROM "+table+" WHERE id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", workflow.ErrNotFound, table, id)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s version: %w", table, err)
	}
	return fmt.Errorf("%w: %s %d is at version %d, not %d", workflow.ErrVersionConflict, table, id, current, version)
}

var _ port.PengajuanRepository = (*PengajuanRepository)(nil)
