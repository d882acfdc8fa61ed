package entity

// StatusVerifikasi is the Admin Kab/Kota stage status of a pengajuan
type StatusVerifikasi string

const (
	VerifikasiMenunggu    StatusVerifikasi = "Menunggu"
	VerifikasiDiterima    StatusVerifikasi = "Diterima"
	VerifikasiDitolak     StatusVerifikasi = "Ditolak"
	VerifikasiPerluRevisi StatusVerifikasi = "Perlu Revisi"
)

// IsValid reports whether s is a known Admin stage status
func (s StatusVerifikasi) IsValid() bool {
	switch s {
	case VerifikasiMenunggu, VerifikasiDiterima, VerifikasiDitolak, VerifikasiPerluRevisi:
		return true
	}
	return false
}

// StatusKabid is the Kepala Bidang stage status of a pengajuan.
// The storage layer keeps NULL for "not decided yet"; repositories normalize it to KabidMenunggu.
type StatusKabid string

const (
	KabidMenunggu            StatusKabid = "Menunggu"
	KabidDisetujuiSepenuhnya StatusKabid = "Disetujui Sepenuhnya"
	KabidDisetujuiSebagian   StatusKabid = "Disetujui Sebagian"
	KabidDitolak             StatusKabid = "Ditolak"
)

// IsTerminal returns true once the Kepala Bidang has decided
func (s StatusKabid) IsTerminal() bool {
	switch s {
	case KabidDisetujuiSepenuhnya, KabidDisetujuiSebagian, KabidDitolak:
		return true
	}
	return false
}

// IsApproved returns true for the two approval outcomes
func (s StatusKabid) IsApproved() bool {
	return s == KabidDisetujuiSepenuhnya || s == KabidDisetujuiSebagian
}

// StatusMonitoring is the Kepala Bidang status of a monitoring report
type StatusMonitoring string

const (
	MonitoringMenunggu  StatusMonitoring = "Menunggu"
	MonitoringDisetujui StatusMonitoring = "Disetujui"
	MonitoringDitolak   StatusMonitoring = "Ditolak"
)

// IsTerminal returns true once the monitoring report has been decided
func (s StatusMonitoring) IsTerminal() bool {
	return s == MonitoringDisetujui || s == MonitoringDitolak
}

// StatusItem is the per-line-item Kepala Bidang decision
type StatusItem string

const (
	ItemPending  StatusItem = "pending"
	ItemApproved StatusItem = "approved"
	ItemRejected StatusItem = "rejected"
)

// IsValid reports whether s is a known item status
func (s StatusItem) IsValid() bool {
	return s == ItemPending || s == ItemApproved || s == ItemRejected
}

// Role is the acting role supplied by the identity collaborator
type Role string

const (
	RoleUser         Role = "user"
	RoleAdminKabKota Role = "admin_kabkota"
	RoleKepalaBidang Role = "kepala_bidang"
	RoleKepalaDinas  Role = "kepala_dinas"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdminKabKota, RoleKepalaBidang, RoleKepalaDinas:
		return true
	}
	return false
}

// Kind names the entity a workflow record belongs to
type Kind string

const (
	KindPengajuan  Kind = "pengajuan"
	KindMonitoring Kind = "monitoring"
)

// Field names a status register
type Field string

const (
	FieldStatusVerifikasi      Field = "status_verifikasi"
	FieldStatusVerifikasiKabid Field = "status_verifikasi_kabid"
)

// History action types
const (
	ActionSubmit        = "SUBMIT"
	ActionAdminDecision = "ADMIN_DECISION"
	ActionKabidDecision = "KABID_DECISION"
	ActionResubmit      = "RESUBMIT"
	ActionEdit          = "EDIT"
	ActionDelete        = "DELETE"
	ActionAttachBAST    = "ATTACH_BAST"
)
