package entity

import "time"

// Pengajuan is an equipment-assistance submission filed by a KUB member
type Pengajuan struct {
	ID           int64  `json:"id"`
	KelompokID   int64  `json:"kelompok_id"`
	UserID       int64  `json:"user_id"`
	JudulUsulan  string `json:"judul_usulan"`
	Tahun        int    `json:"tahun"`
	Keterangan   string `json:"keterangan"`
	NamaKelompok string `json:"nama_kelompok,omitempty"`

	StatusVerifikasi       StatusVerifikasi `json:"status_verifikasi"`
	CatatanVerifikasi      string           `json:"catatan_verifikasi"`
	StatusVerifikasiKabid  StatusKabid      `json:"status_verifikasi_kabid"`
	CatatanVerifikasiKabid string           `json:"catatan_verifikasi_kabid"`

	StatusDokumen Checklist `json:"status_dokumen"`

	Items []*LineItem `json:"detail_usulan,omitempty"`
	BAST  *BAST       `json:"bast,omitempty"`

	// AllowedActions is filled on a single read for the requesting actor
	AllowedActions []string `json:"allowed_actions,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is one requested-equipment row (detail_usulan) of a pengajuan
type LineItem struct {
	ID              int64      `json:"id"`
	PengajuanID     int64      `json:"pengajuan_id"`
	NamaAlat        string     `json:"nama_alat"`
	Spesifikasi     string     `json:"spesifikasi"`
	JumlahAlat      int        `json:"jumlah_alat"`
	JumlahDisetujui *int       `json:"jumlah_disetujui"`
	StatusItem      StatusItem `json:"status_item"`
	CreatedAt       time.Time  `json:"created_at"`
}

// FullyApproved returns true when the item was approved for its whole requested quantity
func (i *LineItem) FullyApproved() bool {
	return i.StatusItem == ItemApproved && i.JumlahDisetujui != nil && *i.JumlahDisetujui == i.JumlahAlat
}

// Checklist is the fixed set of supporting documents verified by Admin (status_dokumen)
type Checklist struct {
	SuratPermohonan bool `json:"surat_permohonan"`
	Proposal        bool `json:"proposal"`
	KTPKetua        bool `json:"ktp_ketua"`
	SKPengukuhanKUB bool `json:"sk_pengukuhan_kub"`
	FotoKegiatan    bool `json:"foto_kegiatan"`
}

// Complete reports whether every document has been checked
func (c Checklist) Complete() bool {
	return c.SuratPermohonan && c.Proposal && c.KTPKetua && c.SKPengukuhanKUB && c.FotoKegiatan
}

// BAST is the handover document attached after Kepala Bidang approval
type BAST struct {
	ID          int64     `json:"id"`
	PengajuanID int64     `json:"pengajuan_id"`
	NoBAST      string    `json:"no_bast"`
	DokumenBAST string    `json:"dokumen_bast"`
	UploadedBy  int64     `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Actor is the acting identity supplied by the identity collaborator
type Actor struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}
