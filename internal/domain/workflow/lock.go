package workflow

import "github.com/dkp-kub/bantuan-kub/internal/domain/entity"

// IsPengajuanLocked reports whether a submission and its line items are immutable
// to the User and to Admin. That is the case once the Kabid stage is decided.
func IsPengajuanLocked(p *entity.Pengajuan) bool {
	return p.StatusVerifikasiKabid.IsTerminal()
}

// IsMonitoringLocked applies the same rule to monitoring reports
func IsMonitoringLocked(m *entity.Monitoring) bool {
	return m.StatusVerifikasiKabid.IsTerminal()
}

// lockedError builds the refusal returned for a mutation of a locked record
func lockedError(kind entity.Kind, from State, role entity.Role) error {
	return &TransitionError{
		Code:    ErrLocked,
		Kind:    kind,
		From:    from,
		Role:    role,
		Message: "record is locked after the kepala bidang decision (" + string(from) + ")",
	}
}

// EnsurePengajuanMutable returns ErrLocked when IsPengajuanLocked holds
func EnsurePengajuanMutable(p *entity.Pengajuan, role entity.Role) error {
	if IsPengajuanLocked(p) {
		return lockedError(entity.KindPengajuan, State(p.StatusVerifikasiKabid), role)
	}
	return nil
}

// EnsureMonitoringMutable returns ErrLocked when IsMonitoringLocked holds
func EnsureMonitoringMutable(m *entity.Monitoring, role entity.Role) error {
	if IsMonitoringLocked(m) {
		return lockedError(entity.KindMonitoring, State(m.StatusVerifikasiKabid), role)
	}
	return nil
}
