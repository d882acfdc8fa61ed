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
	"github.com/dkp-kub/bantuan-kub/internal/infrastructure/persistence/sqlite"
)

// MonitoringRepository implements port.MonitoringRepository
type MonitoringRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMonitoringRepository creates a new monitoring repository
func NewMonitoringRepository(db *sql.DB, logger *zap.Logger) port.MonitoringRepository {
	return &MonitoringRepository{
		db:     db,
		logger: logger,
	}
}

const monitoringSelect = `
	SELECT id, user_id, kelompok_id, nama_kelompok, periode, keterangan,
		status_verifikasi_kabid, catatan_verifikasi_kabid,
		version, created_at, updated_at
	FROM monitoring
`

// Create inserts a monitoring report and its production rows
func (r *MonitoringRepository) Create(ctx context.Context, m *entity.Monitoring) error {
	query := `
		INSERT INTO monitoring (
			user_id, kelompok_id, nama_kelompok, periode, keterangan,
			status_verifikasi_kabid, catatan_verifikasi_kabid,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`

	now := time.Now().UTC()
	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		m.UserID,
		nullableID(m.KelompokID),
		m.NamaKelompok,
		m.Periode,
		m.Keterangan,
		monitoringColumn(m.StatusVerifikasiKabid),
		m.CatatanVerifikasiKabid,
		now,
		now,
	)
	if err != nil {
		r.logger.Error("Failed to create monitoring", zap.Int64("user_id", m.UserID), zap.Error(err))
		return fmt.Errorf("failed to create monitoring: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	m.ID = id
	m.Version = 1
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.StatusVerifikasiKabid == "" {
		m.StatusVerifikasiKabid = entity.MonitoringMenunggu
	}

	return r.insertRows(ctx, id, m.Rows)
}

// GetByID retrieves a monitoring report with its production rows, or (nil, nil)
func (r *MonitoringRepository) GetByID(ctx context.Context, id int64) (*entity.Monitoring, error) {
	m, err := scanMonitoring(r.getExecutor(ctx).QueryRowContext(ctx, monitoringSelect+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get monitoring", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get monitoring: %w", err)
	}

	if m.Rows, err = r.getRows(ctx, id); err != nil {
		return nil, err
	}
	return m, nil
}

// List retrieves monitoring reports matching filter, newest first
func (r *MonitoringRepository) List(ctx context.Context, filter port.MonitoringFilter) ([]*entity.Monitoring, error) {
	var where []string
	var args []interface{}

	if filter.UserID != 0 {
		where = append(where, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Status) > 0 {
		var parts []string
		var values []interface{}
		for _, s := range filter.Status {
			if s == entity.MonitoringMenunggu {
				parts = append(parts, "status_verifikasi_kabid IS NULL")
				continue
			}
			values = append(values, string(s))
		}
		if len(values) > 0 {
			parts = append(parts, "status_verifikasi_kabid IN ("+placeholders(len(values))+")")
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
		args = append(args, values...)
	}

	query := monitoringSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list monitoring", zap.Error(err))
		return nil, fmt.Errorf("failed to list monitoring: %w", err)
	}
	defer rows.Close()

	var result []*entity.Monitoring
	for rows.Next() {
		m, err := scanMonitoring(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan monitoring: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monitoring: %w", err)
	}
	return result, nil
}

// Update writes the mutable columns guarded by the optimistic version
func (r *MonitoringRepository) Update(ctx context.Context, m *entity.Monitoring) error {
	query := `
		UPDATE monitoring SET
			kelompok_id = ?, nama_kelompok = ?, periode = ?, keterangan = ?,
			status_verifikasi_kabid = ?, catatan_verifikasi_kabid = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`

	now := time.Now().UTC()
	exec := r.getExecutor(ctx)
	result, err := exec.ExecContext(ctx, query,
		nullableID(m.KelompokID),
		m.NamaKelompok,
		m.Periode,
		m.Keterangan,
		monitoringColumn(m.StatusVerifikasiKabid),
		m.CatatanVerifikasiKabid,
		now,
		m.ID,
		m.Version,
	)
	if err != nil {
		r.logger.Error("Failed to update monitoring", zap.Int64("id", m.ID), zap.Error(err))
		return fmt.Errorf("failed to update monitoring: %w", err)
	}

	if err := versionedResult(ctx, exec, result, "monitoring", m.ID, m.Version); err != nil {
		return err
	}

	m.Version++
	m.UpdatedAt = now
	return nil
}

// ReplaceRows swaps the production rows of a report
func (r *MonitoringRepository) ReplaceRows(ctx context.Context, monitoringID int64, rows []*entity.ProduksiRow) error {
	if _, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM detail_produksi WHERE monitoring_id = ?`, monitoringID); err != nil {
		r.logger.Error("Failed to delete production rows", zap.Int64("monitoring_id", monitoringID), zap.Error(err))
		return fmt.Errorf("failed to delete production rows: %w", err)
	}
	return r.insertRows(ctx, monitoringID, rows)
}

// Delete removes a monitoring report and its rows
func (r *MonitoringRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.getExecutor(ctx).ExecContext(ctx, `DELETE FROM monitoring WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete monitoring", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete monitoring: %w", err)
	}
	return requireAffected(result, "monitoring", id)
}

func (r *MonitoringRepository) insertRows(ctx context.Context, monitoringID int64, rows []*entity.ProduksiRow) error {
	query := `
		INSERT INTO detail_produksi (monitoring_id, tanggal, jenis_ikan, hasil_tangkapan_kg, bbm_liter)
		VALUES (?, ?, ?, ?, ?)
	`

	exec := r.getExecutor(ctx)
	for _, row := range rows {
		row.MonitoringID = monitoringID
		result, err := exec.ExecContext(ctx, query,
			row.MonitoringID,
			row.Tanggal,
			row.JenisIkan,
			row.HasilTangkapanKg,
			row.BBMLiter,
		)
		if err != nil {
			r.logger.Error("Failed to create production row", zap.Int64("monitoring_id", monitoringID), zap.Error(err))
			return fmt.Errorf("failed to create production row: %w", err)
		}
		if row.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
	}
	return nil
}

func (r *MonitoringRepository) getRows(ctx context.Context, monitoringID int64) ([]*entity.ProduksiRow, error) {
	query := `
		SELECT id, monitoring_id, tanggal, jenis_ikan, hasil_tangkapan_kg, bbm_liter
		FROM detail_produksi
		WHERE monitoring_id = ?
		ORDER BY tanggal, id
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, monitoringID)
	if err != nil {
		r.logger.Error("Failed to get production rows", zap.Int64("monitoring_id", monitoringID), zap.Error(err))
		return nil, fmt.Errorf("failed to get production rows: %w", err)
	}
	defer rows.Close()

	var result []*entity.ProduksiRow
	for rows.Next() {
		var row entity.ProduksiRow
		if err := rows.Scan(
			&row.ID,
			&row.MonitoringID,
			&row.Tanggal,
			&row.JenisIkan,
			&row.HasilTangkapanKg,
			&row.BBMLiter,
		); err != nil {
			return nil, fmt.Errorf("failed to scan production row: %w", err)
		}
		result = append(result, &row)
	}
	return result, rows.Err()
}

func (r *MonitoringRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.Conn(ctx, r.db)
}

func scanMonitoring(row rowScanner) (*entity.Monitoring, error) {
	var m entity.Monitoring
	var kelompokID sql.NullInt64
	var status sql.NullString

	if err := row.Scan(
		&m.ID,
		&m.UserID,
		&kelompokID,
		&m.NamaKelompok,
		&m.Periode,
		&m.Keterangan,
		&status,
		&m.CatatanVerifikasiKabid,
		&m.Version,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	m.KelompokID = kelompokID.Int64
	m.StatusVerifikasiKabid = entity.MonitoringMenunggu
	if status.Valid {
		m.StatusVerifikasiKabid = entity.StatusMonitoring(status.String)
	}
	return &m, nil
}

func monitoringColumn(s entity.StatusMonitoring) interface{} {
	if s == "" || s == entity.MonitoringMenunggu {
		return nil
	}
	return string(s)
}

func nullableID(id int64) interface{} {
	if id == 0 {
		return nil
	}
	return id
}

var _ port.MonitoringRepository = (*MonitoringRepository)(nil)
