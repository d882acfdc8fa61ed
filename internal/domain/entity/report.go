package entity

// KadisReport lists the Kabid-approved submissions of one year for the Kepala Dinas
type KadisReport struct {
	Tahun          int                 `json:"tahun"`
	Pengajuan      []*Pengajuan        `json:"pengajuan"`
	TotalPengajuan int                 `json:"total_pengajuan"`
	TotalDiminta   int                 `json:"total_jumlah_diminta"`
	TotalDisetujui int                 `json:"total_jumlah_disetujui"`
	PerStatus      map[StatusKabid]int `json:"per_status"`
}

// Add accumulates one approved submission, whose items must be loaded
func (r *KadisReport) Add(p *Pengajuan) {
	if r.PerStatus == nil {
		r.PerStatus = make(map[StatusKabid]int)
	}
	r.Pengajuan = append(r.Pengajuan, p)
	r.TotalPengajuan++
	r.PerStatus[p.StatusVerifikasiKabid]++
	for _, item := range p.Items {
		r.TotalDiminta += item.JumlahAlat
		if item.StatusItem == ItemApproved && item.JumlahDisetujui != nil {
			r.TotalDisetujui += *item.JumlahDisetujui
		}
	}
}
