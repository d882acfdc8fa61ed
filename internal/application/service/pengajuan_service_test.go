package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkp-kub/bantuan-kub/internal/application/dispatcher"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/event"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func submitInput(kelompokID int64) SubmitPengajuanInput {
	return SubmitPengajuanInput{
		KelompokID:  kelompokID,
		JudulUsulan: "Bantuan mesin tempel",
		Tahun:       2024,
		Items: []LineItemInput{
			{NamaAlat: "Mesin tempel 15 PK", JumlahAlat: 5},
			{NamaAlat: "Jaring insang", JumlahAlat: 3},
		},
	}
}

func TestPengajuanService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a pending submission with pending items", func(t *testing.T) {
		f := newFixture()
		kelompokID := f.store.seedKelompok(2)

		p, err := f.svc.Submit(ctx, owner, submitInput(kelompokID))
		require.NoError(t, err)

		assert.Equal(t, entity.VerifikasiMenunggu, p.StatusVerifikasi)
		assert.Equal(t, entity.KabidMenunggu, p.StatusVerifikasiKabid)
		assert.Equal(t, owner.UserID, p.UserID)
		assert.Equal(t, int64(1), p.Version)
		require.Len(t, p.Items, 2)
		for _, item := range f.store.items[p.ID] {
			assert.Equal(t, entity.ItemPending, item.StatusItem)
			assert.Nil(t, item.JumlahDisetujui)
		}
		assert.Equal(t, []string{entity.ActionSubmit}, f.store.historyActions(entity.KindPengajuan, p.ID))
	})

	tests := []struct {
		name    string
		actor   entity.Actor
		members int
		mutate  func(in *SubmitPengajuanInput)
		wantErr error
	}{
		{"no line items", owner, 2, func(in *SubmitPengajuanInput) { in.Items = nil }, workflow.ErrValidation},
		{"zero quantity", owner, 2, func(in *SubmitPengajuanInput) { in.Items[0].JumlahAlat = 0 }, workflow.ErrValidation},
		{"missing title", owner, 2, func(in *SubmitPengajuanInput) { in.JudulUsulan = "  " }, workflow.ErrValidation},
		{"kelompok without anggota", owner, 0, func(in *SubmitPengajuanInput) {}, workflow.ErrValidation},
		{"unknown kelompok", owner, 2, func(in *SubmitPengajuanInput) { in.KelompokID = 999 }, workflow.ErrNotFound},
		{"admin cannot submit", admin, 2, func(in *SubmitPengajuanInput) {}, workflow.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			in := submitInput(f.store.seedKelompok(tt.members))
			tt.mutate(&in)

			_, err := f.svc.Submit(ctx, tt.actor, in)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.store.pengajuan)
			assert.Empty(t, f.store.history)
		})
	}
}

// A submission with two items, accepted by Admin: the Kabid approves item 1
// fully and rejects item 2, which aggregates to Disetujui Sebagian.
func TestPengajuanService_PartialApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 5, 3)
	items := f.store.items[id]

	p, err := f.svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{
		Status:  entity.VerifikasiDiterima,
		Catatan: "dokumen lengkap",
		Version: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.VerifikasiDiterima, p.StatusVerifikasi)
	assert.Equal(t, int64(2), p.Version)

	p, err = f.svc.RecordKabidDecision(ctx, kabid, id, KabidDecisionInput{
		Items: []workflow.ItemDecision{
			{ItemID: items[0].ID, StatusItem: entity.ItemApproved, JumlahDisetujui: intPtr(5)},
			{ItemID: items[1].ID, StatusItem: entity.ItemRejected},
		},
		Catatan: "anggaran terbatas",
		Version: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.KabidDisetujuiSebagian, p.StatusVerifikasiKabid)

	stored := f.store.pengajuan[id]
	assert.Equal(t, entity.KabidDisetujuiSebagian, stored.StatusVerifikasiKabid)
	assert.Equal(t, "anggaran terbatas", stored.CatatanVerifikasiKabid)
	assert.Equal(t, entity.ItemApproved, f.store.items[id][0].StatusItem)
	assert.Equal(t, 5, *f.store.items[id][0].JumlahDisetujui)
	assert.Equal(t, entity.ItemRejected, f.store.items[id][1].StatusItem)
	assert.Equal(t, 0, *f.store.items[id][1].JumlahDisetujui)
	assert.Equal(t,
		[]string{entity.ActionAdminDecision, entity.ActionKabidDecision},
		f.store.historyActions(entity.KindPengajuan, id))

	t.Run("kabid cannot decide again", func(t *testing.T) {
		_, err := f.svc.RecordKabidDecision(ctx, kabid, id, KabidDecisionInput{ApproveAll: true, Version: 3})
		assert.ErrorIs(t, err, workflow.ErrStageLocked)
	})

	t.Run("admin cannot reverse acceptance", func(t *testing.T) {
		_, err := f.svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{Status: entity.VerifikasiDitolak, Version: 3})
		assert.ErrorIs(t, err, workflow.ErrLocked)
	})

	t.Run("record is locked for edits and delete", func(t *testing.T) {
		_, err := f.svc.Edit(ctx, admin, id, EditPengajuanInput{Keterangan: strPtr("x"), Version: 3})
		assert.ErrorIs(t, err, workflow.ErrLocked)
		assert.ErrorIs(t, f.svc.Delete(ctx, admin, id), workflow.ErrLocked)
	})

	assert.Equal(t, entity.KabidDisetujuiSebagian, f.store.pengajuan[id].StatusVerifikasiKabid)
	assert.Len(t, f.store.historyActions(entity.KindPengajuan, id), 2)
}

func TestPengajuanService_RecordKabidDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("requires admin acceptance", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 5)

		_, err := f.svc.RecordKabidDecision(ctx, kabid, id, KabidDecisionInput{ApproveAll: true, Version: 1})
		assert.ErrorIs(t, err, workflow.ErrPreconditionNotMet)
		assert.Equal(t, entity.KabidMenunggu, f.store.pengajuan[id].StatusVerifikasiKabid)
		assert.Equal(t, entity.ItemPending, f.store.items[id][0].StatusItem)
		assert.Empty(t, f.store.history)
	})

	t.Run("no line items", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu)

		_, err := f.svc.RecordKabidDecision(ctx, kabid, id, KabidDecisionInput{ApproveAll: true, Version: 1})
		assert.ErrorIs(t, err, workflow.ErrNoItemsToDecide)
	})

	tests := []struct {
		name  string
		input KabidDecisionInput
		want  entity.StatusKabid
	}{
		{"approve all", KabidDecisionInput{ApproveAll: true, Version: 1}, entity.KabidDisetujuiSepenuhnya},
		{"reject all", KabidDecisionInput{RejectAll: true, Version: 1}, entity.KabidDitolak},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 5, 3)

			p, err := f.svc.RecordKabidDecision(ctx, kabid, id, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.StatusVerifikasiKabid)
		})
	}

	invalid := []struct {
		name    string
		actor   entity.Actor
		input   KabidDecisionInput
		wantErr error
	}{
		{"bulk flags together", kabid, KabidDecisionInput{ApproveAll: true, RejectAll: true, Version: 1}, workflow.ErrValidation},
		{"no decision", kabid, KabidDecisionInput{Version: 1}, workflow.ErrValidation},
		{"quantity above request", kabid, KabidDecisionInput{Items: []workflow.ItemDecision{
			{ItemID: 0, StatusItem: entity.ItemApproved, JumlahDisetujui: intPtr(9)},
		}, Version: 1}, workflow.ErrValidation},
		{"stale version", kabid, KabidDecisionInput{ApproveAll: true, Version: 7}, workflow.ErrVersionConflict},
		{"admin role", admin, KabidDecisionInput{ApproveAll: true, Version: 1}, workflow.ErrUnauthorized},
		{"kadis role", kadis, KabidDecisionInput{ApproveAll: true, Version: 1}, workflow.ErrUnauthorized},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 5)
			for i := range tt.input.Items {
				tt.input.Items[i].ItemID = f.store.items[id][0].ID
			}

			_, err := f.svc.RecordKabidDecision(ctx, tt.actor, id, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, entity.KabidMenunggu, f.store.pengajuan[id].StatusVerifikasiKabid)
			assert.Equal(t, int64(1), f.store.pengajuan[id].Version)
		})
	}

	t.Run("storage failure leaves items and status untouched", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 5, 3)
		diskErr := errors.New("disk I/O error")
		f.pengajuan.updateFunc = func(ctx context.Context, p *entity.Pengajuan) error { return diskErr }

		_, err := f.svc.RecordKabidDecision(ctx, kabid, id, KabidDecisionInput{ApproveAll: true, Version: 1})
		require.Error(t, err)
		assert.ErrorIs(t, err, workflow.ErrStorageFailure)
		assert.ErrorIs(t, err, diskErr)

		assert.Equal(t, entity.KabidMenunggu, f.store.pengajuan[id].StatusVerifikasiKabid)
		for _, item := range f.store.items[id] {
			assert.Equal(t, entity.ItemPending, item.StatusItem)
		}
		assert.Empty(t, f.store.history)
	})
}

func TestPengajuanService_RecordAdminDecision(t *testing.T) {
	ctx := context.Background()

	t.Run("repeating a decision writes nothing", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
		in := AdminDecisionInput{Status: entity.VerifikasiDitolak, Catatan: "proposal belum ada", Version: 1}

		first, err := f.svc.RecordAdminDecision(ctx, admin, id, in)
		require.NoError(t, err)
		second, err := f.svc.RecordAdminDecision(ctx, admin, id, in)
		require.NoError(t, err)

		assert.Equal(t, entity.VerifikasiDitolak, second.StatusVerifikasi)
		assert.Equal(t, first.Version, second.Version)
		assert.Len(t, f.store.historyActions(entity.KindPengajuan, id), 1)
	})

	t.Run("updates the checklist with the decision", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
		checklist := entity.Checklist{SuratPermohonan: true, Proposal: true, KTPKetua: true, SKPengukuhanKUB: true, FotoKegiatan: true}

		p, err := f.svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{
			Status:        entity.VerifikasiDiterima,
			StatusDokumen: &checklist,
			Version:       1,
		})
		require.NoError(t, err)
		assert.True(t, p.StatusDokumen.Complete())
		assert.True(t, f.store.pengajuan[id].StatusDokumen.Complete())
	})

	tests := []struct {
		name    string
		actor   entity.Actor
		status  entity.StatusVerifikasi
		version int64
		wantErr error
	}{
		{"menunggu is not a decision", admin, entity.VerifikasiMenunggu, 1, workflow.ErrValidation},
		{"user cannot verify", owner, entity.VerifikasiDiterima, 1, workflow.ErrUnauthorized},
		{"kabid cannot verify", kabid, entity.VerifikasiDiterima, 1, workflow.ErrUnauthorized},
		{"stale version", admin, entity.VerifikasiDiterima, 5, workflow.ErrVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)

			_, err := f.svc.RecordAdminDecision(ctx, tt.actor, id, AdminDecisionInput{Status: tt.status, Version: tt.version})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, entity.VerifikasiMenunggu, f.store.pengajuan[id].StatusVerifikasi)
		})
	}

	t.Run("unknown pengajuan", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.RecordAdminDecision(ctx, admin, 404, AdminDecisionInput{Status: entity.VerifikasiDiterima, Version: 1})
		assert.ErrorIs(t, err, workflow.ErrNotFound)
	})

	t.Run("history failure rolls back the decision", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
		f.history.createFunc = func(ctx context.Context, h *entity.ApprovalHistory) error {
			return errors.New("database is locked")
		}

		_, err := f.svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{Status: entity.VerifikasiDiterima, Version: 1})
		assert.ErrorIs(t, err, workflow.ErrStorageFailure)
		assert.Equal(t, entity.VerifikasiMenunggu, f.store.pengajuan[id].StatusVerifikasi)
		assert.Equal(t, int64(1), f.store.pengajuan[id].Version)
	})

	t.Run("commit failure is a storage failure", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
		f.tx.commitErr = errors.New("failed to commit transaction")

		_, err := f.svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{Status: entity.VerifikasiDiterima, Version: 1})
		assert.ErrorIs(t, err, workflow.ErrStorageFailure)
		assert.Equal(t, entity.VerifikasiMenunggu, f.store.pengajuan[id].StatusVerifikasi)
	})
}

func TestPengajuanService_Edit(t *testing.T) {
	ctx := context.Background()

	t.Run("owner edit after kabid rejection is locked", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDitolak, 2)

		_, err := f.svc.Edit(ctx, owner, id, EditPengajuanInput{JudulUsulan: strPtr("Judul baru"), Version: 1})
		assert.ErrorIs(t, err, workflow.ErrLocked)
		assert.Equal(t, "LOCKED", workflow.Code(err))
		assert.Equal(t, "Bantuan alat tangkap", f.store.pengajuan[id].JudulUsulan)
	})

	t.Run("owner edit after admin rejection resubmits", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDitolak, entity.KabidMenunggu, 2)
		stored := f.store.pengajuan[id]
		stored.CatatanVerifikasi = "lengkapi proposal"
		f.store.pengajuan[id] = stored

		p, err := f.svc.Edit(ctx, owner, id, EditPengajuanInput{
			Items:   []LineItemInput{{NamaAlat: "Cool box", JumlahAlat: 4}},
			Version: 1,
		})
		require.NoError(t, err)

		assert.Equal(t, entity.VerifikasiMenunggu, p.StatusVerifikasi)
		assert.Empty(t, p.CatatanVerifikasi)
		assert.Equal(t, entity.VerifikasiMenunggu, f.store.pengajuan[id].StatusVerifikasi)
		assert.Empty(t, f.store.pengajuan[id].CatatanVerifikasi)
		require.Len(t, f.store.items[id], 1)
		assert.Equal(t, "Cool box", f.store.items[id][0].NamaAlat)
		assert.Equal(t, []string{entity.ActionResubmit}, f.store.historyActions(entity.KindPengajuan, id))
	})

	t.Run("owner edit of a pending submission keeps the status", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 2)

		p, err := f.svc.Edit(ctx, owner, id, EditPengajuanInput{Keterangan: strPtr("tambahan"), Version: 1})
		require.NoError(t, err)
		assert.Equal(t, entity.VerifikasiMenunggu, p.StatusVerifikasi)
		assert.Equal(t, "tambahan", f.store.pengajuan[id].Keterangan)
		assert.Len(t, f.store.items[id], 1)
		assert.Equal(t, []string{entity.ActionEdit}, f.store.historyActions(entity.KindPengajuan, id))
	})

	t.Run("admin edit does not resubmit", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiPerluRevisi, entity.KabidMenunggu, 2)

		p, err := f.svc.Edit(ctx, admin, id, EditPengajuanInput{StatusDokumen: &entity.Checklist{Proposal: true}, Version: 1})
		require.NoError(t, err)
		assert.Equal(t, entity.VerifikasiPerluRevisi, p.StatusVerifikasi)
		assert.True(t, f.store.pengajuan[id].StatusDokumen.Proposal)
	})

	tests := []struct {
		name    string
		actor   entity.Actor
		input   EditPengajuanInput
		wantErr error
	}{
		{"another user", other, EditPengajuanInput{Keterangan: strPtr("x"), Version: 1}, workflow.ErrUnauthorized},
		{"kabid", kabid, EditPengajuanInput{Keterangan: strPtr("x"), Version: 1}, workflow.ErrUnauthorized},
		{"kadis", kadis, EditPengajuanInput{Keterangan: strPtr("x"), Version: 1}, workflow.ErrUnauthorized},
		{"empty item list", owner, EditPengajuanInput{Items: []LineItemInput{}, Version: 1}, workflow.ErrValidation},
		{"stale version", owner, EditPengajuanInput{Keterangan: strPtr("x"), Version: 3}, workflow.ErrVersionConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDitolak, entity.KabidMenunggu, 2)

			_, err := f.svc.Edit(ctx, tt.actor, id, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, entity.VerifikasiDitolak, f.store.pengajuan[id].StatusVerifikasi)
			assert.Len(t, f.store.items[id], 1)
		})
	}
}

func TestPengajuanService_Delete(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDitolak, entity.KabidMenunggu, 2)

	assert.ErrorIs(t, f.svc.Delete(ctx, owner, id), workflow.ErrUnauthorized)
	require.NoError(t, f.svc.Delete(ctx, admin, id))
	assert.NotContains(t, f.store.pengajuan, id)
	assert.ErrorIs(t, f.svc.Delete(ctx, admin, id), workflow.ErrNotFound)

	history, err := f.svc.History(ctx, admin, id)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ActionDelete, history[0].ActionType)
}

func TestPengajuanService_Visibility(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pending := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
	accepted := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 1)
	approved := f.store.seedPengajuan(other.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)
	rejected := f.store.seedPengajuan(other.UserID, entity.VerifikasiDiterima, entity.KabidDitolak, 1)

	ids := func(list []*entity.Pengajuan) []int64 {
		out := []int64{}
		for _, p := range list {
			out = append(out, p.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		actor entity.Actor
		want  []int64
	}{
		{"user sees own", owner, []int64{pending, accepted}},
		{"admin sees all", admin, []int64{pending, accepted, approved, rejected}},
		{"kabid sees admin accepted", kabid, []int64{accepted, approved, rejected}},
		{"kadis sees kabid approved", kadis, []int64{approved}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := f.svc.ListForActor(ctx, tt.actor, PengajuanQuery{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(list))
		})
	}

	_, err := f.svc.Get(ctx, other, pending)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	_, err = f.svc.Get(ctx, kabid, pending)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
	_, err = f.svc.Get(ctx, kadis, rejected)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	p, err := f.svc.Get(ctx, kadis, approved)
	require.NoError(t, err)
	assert.Len(t, p.Items, 1)

	list, err := f.svc.ListForActor(ctx, kabid, PengajuanQuery{StatusVerifikasi: entity.VerifikasiMenunggu})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPengajuanService_GetAllowedActions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pending := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)
	revise := f.store.seedPengajuan(owner.UserID, entity.VerifikasiPerluRevisi, entity.KabidMenunggu, 1)
	accepted := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 1)
	approved := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSebagian, 1)

	tests := []struct {
		name  string
		actor entity.Actor
		id    int64
		want  []string
	}{
		{"admin reviews a new submission", admin, pending, []string{"MINTA_REVISI", "TERIMA", "TOLAK"}},
		{"owner waits on a new submission", owner, pending, []string{}},
		{"owner resubmits a revision", owner, revise, []string{"AJUKAN_ULANG"}},
		{"kabid decides an accepted submission", kabid, accepted, []string{"SETUJUI_PENUH", "SETUJUI_SEBAGIAN", "TOLAK"}},
		{"admin may still revise before kabid", admin, accepted, []string{"MINTA_REVISI", "TERIMA", "TOLAK"}},
		{"nothing left after kabid", admin, approved, []string{}},
		{"kadis reads only", kadis, approved, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.svc.Get(ctx, tt.actor, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.AllowedActions)
		})
	}
}

func TestPengajuanService_BAST(t *testing.T) {
	ctx := context.Background()
	content := []byte("%PDF-1.4 bast")

	t.Run("requires kabid approval", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDitolak, 1)

		_, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "001/BAST/2024", Filename: "bast.pdf", Content: content})
		assert.ErrorIs(t, err, workflow.ErrPreconditionNotMet)
		assert.Empty(t, f.files.files)
	})

	t.Run("attach, replace and sign", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSebagian, 1)

		bast, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "001/BAST/2024", Filename: "../../etc/bast.pdf", Content: content})
		require.NoError(t, err)
		assert.Regexp(t, fmt.Sprintf(`^bast/%d/[0-9a-f-]{36}-bast\.pdf$`, id), bast.DokumenBAST)
		assert.Equal(t, content, f.files.files[bast.DokumenBAST])

		replaced, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "002/BAST/2024", Filename: "bast-rev.pdf", Content: content})
		require.NoError(t, err)
		assert.Equal(t, bast.ID, replaced.ID)
		assert.NotContains(t, f.files.files, bast.DokumenBAST)
		assert.Equal(t, "002/BAST/2024", f.store.bast[id].NoBAST)

		url, expires, err := f.svc.BASTURL(ctx, owner, id)
		require.NoError(t, err)
		assert.Contains(t, url, replaced.DokumenBAST)
		assert.False(t, expires.IsZero())

		_, _, err = f.svc.BASTURL(ctx, other, id)
		assert.ErrorIs(t, err, workflow.ErrNotFound)

		// the pengajuan itself stays untouched
		assert.Equal(t, int64(1), f.store.pengajuan[id].Version)
	})

	t.Run("same filename gets a fresh object", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)

		first, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "001/BAST/2024", Filename: "bast.pdf", Content: content})
		require.NoError(t, err)
		second, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "002/BAST/2024", Filename: "bast.pdf", Content: []byte("%PDF-1.4 v2")})
		require.NoError(t, err)

		assert.NotEqual(t, first.DokumenBAST, second.DokumenBAST)
		assert.Equal(t, map[string][]byte{second.DokumenBAST: []byte("%PDF-1.4 v2")}, f.files.files)
	})

	t.Run("failed re-attach keeps the live document", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)

		live, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "001/BAST/2024", Filename: "bast.pdf", Content: content})
		require.NoError(t, err)

		f.history.createFunc = func(ctx context.Context, history *entity.ApprovalHistory) error {
			return errors.New("disk I/O error")
		}
		_, err = f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "002/BAST/2024", Filename: "bast.pdf", Content: []byte("%PDF-1.4 v2")})
		assert.ErrorIs(t, err, workflow.ErrStorageFailure)

		assert.Equal(t, "001/BAST/2024", f.store.bast[id].NoBAST)
		assert.Equal(t, live.DokumenBAST, f.store.bast[id].DokumenBAST)
		assert.Equal(t, map[string][]byte{live.DokumenBAST: content}, f.files.files)
	})

	t.Run("reads and stores inside the transaction", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)

		outside := 0
		f.pengajuan.onGet = func(ctx context.Context, id int64) {
			if !inMemTx(ctx) {
				outside++
			}
		}
		f.files.saveFunc = func(ctx context.Context, path string, data []byte) error {
			assert.True(t, inMemTx(ctx), "document stored outside the transaction")
			f.files.files[path] = data
			return nil
		}

		_, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "001/BAST/2024", Filename: "bast.pdf", Content: content})
		require.NoError(t, err)
		assert.Zero(t, outside, "pengajuan read outside the transaction")
	})

	t.Run("rejects bad input", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)

		_, err := f.svc.AttachBAST(ctx, kabid, id, AttachBASTInput{NoBAST: "1", Filename: "a.pdf", Content: content})
		assert.ErrorIs(t, err, workflow.ErrUnauthorized)
		_, err = f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "1", Filename: "..", Content: content})
		assert.ErrorIs(t, err, workflow.ErrValidation)
		_, err = f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "1", Filename: "a.pdf"})
		assert.ErrorIs(t, err, workflow.ErrValidation)
	})

	t.Run("file storage failure", func(t *testing.T) {
		f := newFixture()
		id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDisetujuiSepenuhnya, 1)
		f.files.saveFunc = func(ctx context.Context, path string, content []byte) error {
			return errors.New("no space left on device")
		}

		_, err := f.svc.AttachBAST(ctx, admin, id, AttachBASTInput{NoBAST: "1", Filename: "a.pdf", Content: content})
		assert.ErrorIs(t, err, workflow.ErrStorageFailure)
		assert.Empty(t, f.store.bast)
	})
}

func TestPengajuanService_KadisReport(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	full := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 2, 4)
	partial := f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidMenunggu, 5, 3)
	f.store.seedPengajuan(owner.UserID, entity.VerifikasiDiterima, entity.KabidDitolak, 10)

	_, err := f.svc.RecordKabidDecision(ctx, kabid, full, KabidDecisionInput{ApproveAll: true, Version: 1})
	require.NoError(t, err)
	items := f.store.items[partial]
	_, err = f.svc.RecordKabidDecision(ctx, kabid, partial, KabidDecisionInput{
		Items: []workflow.ItemDecision{
			{ItemID: items[0].ID, StatusItem: entity.ItemApproved, JumlahDisetujui: intPtr(4)},
			{ItemID: items[1].ID, StatusItem: entity.ItemRejected},
		},
		Version: 1,
	})
	require.NoError(t, err)

	report, err := f.svc.KadisReport(ctx, kadis, 2024)
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalPengajuan)
	assert.Equal(t, 14, report.TotalDiminta)
	assert.Equal(t, 10, report.TotalDisetujui)
	assert.Equal(t, 1, report.PerStatus[entity.KabidDisetujuiSepenuhnya])
	assert.Equal(t, 1, report.PerStatus[entity.KabidDisetujuiSebagian])

	empty, err := f.svc.KadisReport(ctx, kadis, 2023)
	require.NoError(t, err)
	assert.Zero(t, empty.TotalPengajuan)

	_, err = f.svc.KadisReport(ctx, owner, 2024)
	assert.ErrorIs(t, err, workflow.ErrUnauthorized)
}

func TestPengajuanService_PublishesAfterCommit(t *testing.T) {
	ctx := event.WithCorrelationID(context.Background(), "req-42")
	f := newFixture()
	d := dispatcher.NewDispatcher()
	var got []*event.Event
	d.SubscribeAll("capture", func(ctx context.Context, evt *event.Event) error {
		got = append(got, evt)
		return errors.New("subscriber down")
	})

	svc := NewPengajuanService(PengajuanDeps{
		Pengajuan:  f.pengajuan,
		Items:      f.items,
		BAST:       &memBASTRepo{store: f.store},
		Kelompok:   f.kelompok,
		History:    f.history,
		TxManager:  f.tx,
		Files:      f.files,
		Signer:     f.signer,
		Dispatcher: d,
		Logger:     &mockLogger{},
	})
	id := f.store.seedPengajuan(owner.UserID, entity.VerifikasiMenunggu, entity.KabidMenunggu, 1)

	_, err := svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{Status: entity.VerifikasiPerluRevisi, Version: 1})
	require.NoError(t, err, "a failing subscriber must not fail the committed decision")
	assert.Equal(t, entity.VerifikasiPerluRevisi, f.store.pengajuan[id].StatusVerifikasi)

	require.Len(t, got, 1)
	assert.Equal(t, event.TypePengajuanAdminDecided, got[0].Type)
	assert.Equal(t, "req-42", got[0].CorrelationID)
	assert.Equal(t, "Perlu Revisi", got[0].Payload["to"])

	_, err = svc.RecordAdminDecision(ctx, admin, id, AdminDecisionInput{Status: entity.VerifikasiDiterima, Version: 9})
	assert.ErrorIs(t, err, workflow.ErrVersionConflict)
	assert.Len(t, got, 1, "a refused transition publishes nothing")
}
