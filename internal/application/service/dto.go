package service

import (
	"strings"
	"time"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// LineItemInput is one requested equipment row
type LineItemInput struct {
	NamaAlat    string `json:"nama_alat" binding:"required"`
	Spesifikasi string `json:"spesifikasi"`
	JumlahAlat  int    `json:"jumlah_alat" binding:"required,min=1"`
}

// SubmitPengajuanInput creates a pengajuan in Menunggu
type SubmitPengajuanInput struct {
	KelompokID    int64            `json:"kelompok_id" binding:"required"`
	JudulUsulan   string           `json:"judul_usulan" binding:"required"`
	Tahun         int              `json:"tahun" binding:"required"`
	Keterangan    string           `json:"keterangan"`
	StatusDokumen entity.Checklist `json:"status_dokumen"`
	Items         []LineItemInput  `json:"detail_usulan" binding:"dive"`
}

// AdminDecisionInput is the Admin Kab/Kota verification of a pengajuan.
// StatusDokumen, when set, replaces the document checklist in the same write.
type AdminDecisionInput struct {
	Status        entity.StatusVerifikasi `json:"status_verifikasi" binding:"required"`
	Catatan       string                  `json:"catatan_verifikasi"`
	StatusDokumen *entity.Checklist       `json:"status_dokumen"`
	Version       int64                   `json:"version" binding:"required,min=1"`
}

// KabidDecisionInput carries the per-item decisions of the Kepala Bidang.
// ApproveAll and RejectAll are shortcuts that decide every item at once.
type KabidDecisionInput struct {
	Items      []workflow.ItemDecision `json:"items"`
	ApproveAll bool                    `json:"approve_all"`
	RejectAll  bool                    `json:"reject_all"`
	Catatan    string                  `json:"catatan_verifikasi_kabid"`
	Version    int64                   `json:"version" binding:"required,min=1"`
}

// EditPengajuanInput changes the fields that are set. A non-nil Items replaces every line item.
type EditPengajuanInput struct {
	KelompokID    *int64            `json:"kelompok_id"`
	JudulUsulan   *string           `json:"judul_usulan"`
	Tahun         *int              `json:"tahun"`
	Keterangan    *string           `json:"keterangan"`
	StatusDokumen *entity.Checklist `json:"status_dokumen"`
	Items         []LineItemInput   `json:"detail_usulan" binding:"omitempty,dive"`
	Version       int64             `json:"version" binding:"required,min=1"`
}

// AttachBASTInput is the handover document uploaded by Admin
type AttachBASTInput struct {
	NoBAST   string
	Filename string
	Content  []byte
}

// PengajuanQuery filters a role-staged listing
type PengajuanQuery struct {
	Tahun            int                     `form:"tahun"`
	StatusVerifikasi entity.StatusVerifikasi `form:"status_verifikasi"`
	StatusKabid      entity.StatusKabid      `form:"status_verifikasi_kabid"`
	Limit            int                     `form:"limit"`
	Offset           int                     `form:"offset"`
}

// ProduksiRowInput is one production row of a monitoring report
type ProduksiRowInput struct {
	Tanggal          time.Time `json:"tanggal" binding:"required"`
	JenisIkan        string    `json:"jenis_ikan" binding:"required"`
	HasilTangkapanKg float64   `json:"hasil_tangkapan_kg" binding:"min=0"`
	BBMLiter         float64   `json:"bbm_liter" binding:"min=0"`
}

// SubmitMonitoringInput creates a monitoring report in Menunggu
type SubmitMonitoringInput struct {
	KelompokID int64              `json:"kelompok_id"`
	Periode    string             `json:"periode" binding:"required"`
	Keterangan string             `json:"keterangan"`
	Rows       []ProduksiRowInput `json:"detail_produksi" binding:"dive"`
}

// MonitoringDecisionInput is the Kepala Bidang decision on a monitoring report
type MonitoringDecisionInput struct {
	Status  entity.StatusMonitoring `json:"status_verifikasi_kabid" binding:"required"`
	Catatan string                  `json:"catatan_verifikasi_kabid"`
	Version int64                   `json:"version" binding:"required,min=1"`
}

// EditMonitoringInput changes the fields that are set. A non-nil Rows replaces every row.
type EditMonitoringInput struct {
	Periode    *string            `json:"periode"`
	Keterangan *string            `json:"keterangan"`
	Rows       []ProduksiRowInput `json:"detail_produksi" binding:"omitempty,dive"`
	Version    int64              `json:"version" binding:"required,min=1"`
}

// MonitoringQuery filters a monitoring listing
type MonitoringQuery struct {
	Status entity.StatusMonitoring `form:"status_verifikasi_kabid"`
	Limit  int                     `form:"limit"`
	Offset int                     `form:"offset"`
}

// AnggotaInput is one roster member
type AnggotaInput struct {
	Nama    string `json:"nama" binding:"required"`
	NIK     string `json:"nik" binding:"required,len=16,numeric"`
	Jabatan string `json:"jabatan"`
}

// CreateKelompokInput registers a cooperative with its roster
type CreateKelompokInput struct {
	Nama      string         `json:"nama" binding:"required"`
	Desa      string         `json:"desa"`
	Kecamatan string         `json:"kecamatan"`
	KabKota   string         `json:"kab_kota" binding:"required"`
	NamaKetua string         `json:"nama_ketua" binding:"required"`
	Anggota   []AnggotaInput `json:"anggota" binding:"dive"`
}

func validateItems(items []LineItemInput) error {
	if len(items) == 0 {
		return workflow.Validationf("at least one line item is required")
	}
	for i, item := range items {
		if strings.TrimSpace(item.NamaAlat) == "" {
			return workflow.Validationf("line item %d: nama_alat is required", i+1)
		}
		if item.JumlahAlat < 1 {
			return workflow.Validationf("line item %d: jumlah_alat must be at least 1", i+1)
		}
	}
	return nil
}

func validateRows(rows []ProduksiRowInput) error {
	if len(rows) == 0 {
		return workflow.Validationf("at least one production row is required")
	}
	for i, row := range rows {
		if row.Tanggal.IsZero() {
			return workflow.Validationf("production row %d: tanggal is required", i+1)
		}
		if strings.TrimSpace(row.JenisIkan) == "" {
			return workflow.Validationf("production row %d: jenis_ikan is required", i+1)
		}
		if row.HasilTangkapanKg < 0 || row.BBMLiter < 0 {
			return workflow.Validationf("production row %d: quantities cannot be negative", i+1)
		}
	}
	return nil
}

func toLineItems(pengajuanID int64, inputs []LineItemInput) []*entity.LineItem {
	items := make([]*entity.LineItem, 0, len(inputs))
	for _, in := range inputs {
		items = append(items, &entity.LineItem{
			PengajuanID: pengajuanID,
			NamaAlat:    strings.TrimSpace(in.NamaAlat),
			Spesifikasi: in.Spesifikasi,
			JumlahAlat:  in.JumlahAlat,
			StatusItem:  entity.ItemPending,
		})
	}
	return items
}

func toRows(monitoringID int64, inputs []ProduksiRowInput) []*entity.ProduksiRow {
	rows := make([]*entity.ProduksiRow, 0, len(inputs))
	for _, in := range inputs {
		rows = append(rows, &entity.ProduksiRow{
			MonitoringID:     monitoringID,
			Tanggal:          in.Tanggal,
			JenisIkan:        strings.TrimSpace(in.JenisIkan),
			HasilTangkapanKg: in.HasilTangkapanKg,
			BBMLiter:         in.BBMLiter,
		})
	}
	return rows
}
