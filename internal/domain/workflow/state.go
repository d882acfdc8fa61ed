package workflow

import "github.com/dkp-kub/bantuan-kub/internal/domain/entity"

// State is a value held by one status register
type State string

const (
	StateMenunggu            State = "Menunggu"
	StateDiterima            State = "Diterima"
	StateDitolak             State = "Ditolak"
	StatePerluRevisi         State = "Perlu Revisi"
	StateDisetujuiSepenuhnya State = "Disetujui Sepenuhnya"
	StateDisetujuiSebagian   State = "Disetujui Sebagian"
	StateDisetujui           State = "Disetujui"
)

var validStates = map[State]bool{
	StateMenunggu:            true,
	StateDiterima:            true,
	StateDitolak:             true,
	StatePerluRevisi:         true,
	StateDisetujuiSepenuhnya: true,
	StateDisetujuiSebagian:   true,
	StateDisetujui:           true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known status value
func (s State) IsValid() bool {
	return validStates[s]
}

// Snapshot is the status tuple of one record at the time a transition is requested
type Snapshot struct {
	Kind       entity.Kind
	Admin      entity.StatusVerifikasi
	Kabid      entity.StatusKabid
	Monitoring entity.StatusMonitoring
}

// PengajuanSnapshot captures the status registers of a pengajuan
func PengajuanSnapshot(p *entity.Pengajuan) Snapshot {
	kabid := p.StatusVerifikasiKabid
	if kabid == "" {
		kabid = entity.KabidMenunggu
	}
	return Snapshot{
		Kind:  entity.KindPengajuan,
		Admin: p.StatusVerifikasi,
		Kabid: kabid,
	}
}

// MonitoringSnapshot captures the status register of a monitoring report
func MonitoringSnapshot(m *entity.Monitoring) Snapshot {
	status := m.StatusVerifikasiKabid
	if status == "" {
		status = entity.MonitoringMenunggu
	}
	return Snapshot{
		Kind:       entity.KindMonitoring,
		Monitoring: status,
	}
}

// current returns the value held by field in the snapshot
func (s Snapshot) current(field entity.Field) State {
	switch {
	case s.Kind == entity.KindMonitoring:
		return State(s.Monitoring)
	case field == entity.FieldStatusVerifikasi:
		return State(s.Admin)
	default:
		return State(s.Kabid)
	}
}
