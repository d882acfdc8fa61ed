package port

import (
	"context"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

// PengajuanFilter narrows a pengajuan listing.
// Zero values mean "no restriction".
type PengajuanFilter struct {
	UserID           int64
	KelompokID       int64
	Tahun            int
	StatusVerifikasi []entity.StatusVerifikasi
	StatusKabid      []entity.StatusKabid
	Limit            int
	Offset           int
}

// MonitoringFilter narrows a monitoring listing
type MonitoringFilter struct {
	UserID int64
	Status []entity.StatusMonitoring
	Limit  int
	Offset int
}

// PengajuanRepository defines persistence operations for Pengajuan.
// GetByID returns (nil, nil) when the row does not exist.
type PengajuanRepository interface {
	Create(ctx context.Context, p *entity.Pengajuan) error
	GetByID(ctx context.Context, id int64) (*entity.Pengajuan, error)
	List(ctx context.Context, filter PengajuanFilter) ([]*entity.Pengajuan, error)

	// Update writes every mutable column when the stored version equals p.Version,
	// then bumps p.Version. A stale version yields workflow.ErrVersionConflict.
	Update(ctx context.Context, p *entity.Pengajuan) error

	Delete(ctx context.Context, id int64) error
}

// LineItemRepository defines persistence operations for the detail_usulan rows of a pengajuan
type LineItemRepository interface {
	Create(ctx context.Context, item *entity.LineItem) error
	GetByPengajuanID(ctx context.Context, pengajuanID int64) ([]*entity.LineItem, error)
	UpdateDecision(ctx context.Context, item *entity.LineItem) error
	DeleteByPengajuanID(ctx context.Context, pengajuanID int64) error
}

// BASTRepository defines persistence operations for the BAST handover record
type BASTRepository interface {
	// Upsert inserts the record or replaces the existing one of the same pengajuan
	Upsert(ctx context.Context, bast *entity.BAST) error
	GetByPengajuanID(ctx context.Context, pengajuanID int64) (*entity.BAST, error)
}

// KelompokRepository defines persistence operations for cooperatives and their member roster
type KelompokRepository interface {
	Create(ctx context.Context, k *entity.Kelompok) error
	GetByID(ctx context.Context, id int64) (*entity.Kelompok, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Kelompok, error)
	CountAnggota(ctx context.Context, kelompokID int64) (int, error)
}

// MonitoringRepository defines persistence operations for monitoring reports.
// Production rows are owned by the report and written with it.
type MonitoringRepository interface {
	Create(ctx context.Context, m *entity.Monitoring) error
	GetByID(ctx context.Context, id int64) (*entity.Monitoring, error)
	List(ctx context.Context, filter MonitoringFilter) ([]*entity.Monitoring, error)

	// Update follows the same version contract as PengajuanRepository.Update
	Update(ctx context.Context, m *entity.Monitoring) error

	ReplaceRows(ctx context.Context, monitoringID int64, rows []*entity.ProduksiRow) error
	Delete(ctx context.Context, id int64) error
}

// HistoryRepository defines persistence operations for ApprovalHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ApprovalHistory) error
	GetByEntity(ctx context.Context, kind entity.Kind, entityID int64) ([]*entity.ApprovalHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
