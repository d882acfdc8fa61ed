package entity

import "time"

// Monitoring is a periodic catch and fuel-use report
type Monitoring struct {
	ID           int64  `json:"id"`
	UserID       int64  `json:"user_id"`
	KelompokID   int64  `json:"kelompok_id"`
	NamaKelompok string `json:"nama_kelompok"`
	Periode      string `json:"periode"`
	Keterangan   string `json:"keterangan"`

	StatusVerifikasiKabid  StatusMonitoring `json:"status_verifikasi_kabid"`
	CatatanVerifikasiKabid string           `json:"catatan_verifikasi_kabid"`

	Rows []*ProduksiRow `json:"detail_produksi,omitempty"`

	AllowedActions []string `json:"allowed_actions,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProduksiRow is one production detail row of a monitoring report.
// Rows are read-only to the workflow.
type ProduksiRow struct {
	ID               int64     `json:"id"`
	MonitoringID     int64     `json:"monitoring_id"`
	Tanggal          time.Time `json:"tanggal"`
	JenisIkan        string    `json:"jenis_ikan"`
	HasilTangkapanKg float64   `json:"hasil_tangkapan_kg"`
	BBMLiter         float64   `json:"bbm_liter"`
}
