package event

// Type identifies the type of domain event
type Type string

const (
	TypePengajuanSubmitted    Type = "pengajuan.submitted"
	TypePengajuanAdminDecided Type = "pengajuan.admin_decided"
	TypePengajuanKabidDecided Type = "pengajuan.kabid_decided"
	TypePengajuanResubmitted  Type = "pengajuan.resubmitted"
	TypePengajuanEdited       Type = "pengajuan.edited"
	TypePengajuanDeleted      Type = "pengajuan.deleted"
	TypeBASTAttached          Type = "pengajuan.bast_attached"
	TypeMonitoringSubmitted   Type = "monitoring.submitted"
	TypeMonitoringDecided     Type = "monitoring.kabid_decided"
	TypeMonitoringEdited      Type = "monitoring.edited"
	TypeMonitoringDeleted     Type = "monitoring.deleted"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypePengajuanSubmitted,
		TypePengajuanAdminDecided,
		TypePengajuanKabidDecided,
		TypePengajuanResubmitted,
		TypePengajuanEdited,
		TypePengajuanDeleted,
		TypeBASTAttached,
		TypeMonitoringSubmitted,
		TypeMonitoringDecided,
		TypeMonitoringEdited,
		TypeMonitoringDeleted:
		return true
	default:
		return false
	}
}
