package entity

import "time"

// Kelompok is a fishing cooperative (KUB), the applicant entity
type Kelompok struct {
	ID        int64      `json:"id"`
	Nama      string     `json:"nama"`
	Desa      string     `json:"desa"`
	Kecamatan string     `json:"kecamatan"`
	KabKota   string     `json:"kab_kota"`
	NamaKetua string     `json:"nama_ketua"`
	Anggota   []*Anggota `json:"anggota,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Anggota is one member on a cooperative's roster
type Anggota struct {
	ID         int64  `json:"id"`
	KelompokID int64  `json:"kelompok_id"`
	Nama       string `json:"nama"`
	NIK        string `json:"nik"`
	Jabatan    string `json:"jabatan"`
}
