package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dkp-kub/bantuan-kub/internal/application/dispatcher"
	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/event"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// PengajuanService orchestrates the submission workflow.
// It is the only component that persists a transition.
type PengajuanService interface {
	Submit(ctx context.Context, actor entity.Actor, input SubmitPengajuanInput) (*entity.Pengajuan, error)
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Pengajuan, error)
	ListForActor(ctx context.Context, actor entity.Actor, query PengajuanQuery) ([]*entity.Pengajuan, error)
	RecordAdminDecision(ctx context.Context, actor entity.Actor, id int64, input AdminDecisionInput) (*entity.Pengajuan, error)
	RecordKabidDecision(ctx context.Context, actor entity.Actor, id int64, input KabidDecisionInput) (*entity.Pengajuan, error)
	Edit(ctx context.Context, actor entity.Actor, id int64, input EditPengajuanInput) (*entity.Pengajuan, error)
	Delete(ctx context.Context, actor entity.Actor, id int64) error
	AttachBAST(ctx context.Context, actor entity.Actor, id int64, input AttachBASTInput) (*entity.BAST, error)
	BASTURL(ctx context.Context, actor entity.Actor, id int64) (string, time.Time, error)
	KadisReport(ctx context.Context, actor entity.Actor, tahun int) (*entity.KadisReport, error)
	History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ApprovalHistory, error)
}

// PengajuanDeps lists the collaborators of PengajuanService
type PengajuanDeps struct {
	Pengajuan  port.PengajuanRepository
	Items      port.LineItemRepository
	BAST       port.BASTRepository
	Kelompok   port.KelompokRepository
	History    port.HistoryRepository
	TxManager  port.TransactionManager
	Files      port.FileStorage
	Signer     port.URLSigner
	Dispatcher dispatcher.Dispatcher
	Logger     Logger

	// URLTTL is the lifetime of a BAST retrieval URL
	URLTTL time.Duration
}

type pengajuanServiceImpl struct {
	recorder
	pengajuanRepo port.PengajuanRepository
	itemRepo      port.LineItemRepository
	bastRepo      port.BASTRepository
	kelompokRepo  port.KelompokRepository
	files         port.FileStorage
	signer        port.URLSigner
	urlTTL        time.Duration
}

// NewPengajuanService creates a new PengajuanService
func NewPengajuanService(deps PengajuanDeps) PengajuanService {
	ttl := deps.URLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &pengajuanServiceImpl{
		recorder: recorder{
			historyRepo: deps.History,
			txManager:   deps.TxManager,
			events:      deps.Dispatcher,
			logger:      deps.Logger,
			now:         time.Now,
		},
		pengajuanRepo: deps.Pengajuan,
		itemRepo:      deps.Items,
		bastRepo:      deps.BAST,
		kelompokRepo:  deps.Kelompok,
		files:         deps.Files,
		signer:        deps.Signer,
		urlTTL:        ttl,
	}
}

// Submit creates a pengajuan with its line items, pending Admin verification
func (s *pengajuanServiceImpl) Submit(ctx context.Context, actor entity.Actor, input SubmitPengajuanInput) (*entity.Pengajuan, error) {
	if actor.Role != entity.RoleUser {
		return nil, fmt.Errorf("%w: only a kelompok member can submit a pengajuan", workflow.ErrUnauthorized)
	}
	if strings.TrimSpace(input.JudulUsulan) == "" {
		return nil, workflow.Validationf("judul_usulan is required")
	}
	if input.Tahun <= 0 {
		return nil, workflow.Validationf("tahun is required")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	p := &entity.Pengajuan{
		KelompokID:            input.KelompokID,
		UserID:                actor.UserID,
		JudulUsulan:           strings.TrimSpace(input.JudulUsulan),
		Tahun:                 input.Tahun,
		Keterangan:            input.Keterangan,
		StatusVerifikasi:      entity.VerifikasiMenunggu,
		StatusVerifikasiKabid: entity.KabidMenunggu,
		StatusDokumen:         input.StatusDokumen,
	}

	err := s.inTx(ctx, "submit pengajuan", func(txCtx context.Context) error {
		if err := s.ensureKelompok(txCtx, input.KelompokID); err != nil {
			return err
		}
		if err := s.pengajuanRepo.Create(txCtx, p); err != nil {
			return workflow.StorageFailure("create pengajuan", err)
		}

		p.Items = toLineItems(p.ID, input.Items)
		for _, item := range p.Items {
			if err := s.itemRepo.Create(txCtx, item); err != nil {
				return workflow.StorageFailure("create line item", err)
			}
		}

		return s.record(txCtx, historyEntry(entity.KindPengajuan, p.ID, actor,
			entity.FieldStatusVerifikasi, "", string(p.StatusVerifikasi), entity.ActionSubmit, ""))
	})
	if err != nil {
		s.logger.Error("Failed to submit pengajuan", "error", err, "user_id", actor.UserID)
		return nil, err
	}

	s.logger.Info("Pengajuan submitted", "id", p.ID, "user_id", actor.UserID, "items", len(p.Items))
	s.publish(ctx, event.TypePengajuanSubmitted, entity.KindPengajuan, p.ID, actor, map[string]interface{}{
		"kelompok_id": p.KelompokID,
		"items":       len(p.Items),
	})
	return p, nil
}

func (s *pengajuanServiceImpl) ensureKelompok(ctx context.Context, kelompokID int64) error {
	k, err := s.kelompokRepo.GetByID(ctx, kelompokID)
	if err != nil {
		return workflow.StorageFailure("get kelompok", err)
	}
	if k == nil {
		return notFound("kelompok", kelompokID)
	}
	members, err := s.kelompokRepo.CountAnggota(ctx, kelompokID)
	if err != nil {
		return workflow.StorageFailure("count anggota", err)
	}
	if members < 1 {
		return workflow.Validationf("kelompok %d has no registered anggota", kelompokID)
	}
	return nil
}

// Get returns the pengajuan with its line items and BAST when actor may see it
func (s *pengajuanServiceImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Pengajuan, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeePengajuan(actor, p) {
		return nil, notFound(entity.KindPengajuan, id)
	}

	if p.BAST, err = s.bastRepo.GetByPengajuanID(ctx, id); err != nil {
		return nil, workflow.StorageFailure("get bast", err)
	}
	p.AllowedActions = actionNames(workflow.AllowedActions(ctx, workflow.PengajuanSnapshot(p), actor.Role))
	return p, nil
}

func actionNames(triggers []workflow.Trigger) []string {
	names := make([]string, 0, len(triggers))
	for _, t := range triggers {
		names = append(names, t.String())
	}
	return names
}

// load reads a pengajuan and its line items
func (s *pengajuanServiceImpl) load(ctx context.Context, id int64) (*entity.Pengajuan, error) {
	p, err := s.pengajuanRepo.GetByID(ctx, id)
	if err != nil {
		return nil, workflow.StorageFailure("get pengajuan", err)
	}
	if p == nil {
		return nil, notFound(entity.KindPengajuan, id)
	}
	if p.Items, err = s.itemRepo.GetByPengajuanID(ctx, id); err != nil {
		return nil, workflow.StorageFailure("get line items", err)
	}
	return p, nil
}

// canSeePengajuan applies the role-staged visibility of a submission
func canSeePengajuan(actor entity.Actor, p *entity.Pengajuan) bool {
	switch actor.Role {
	case entity.RoleUser:
		return p.UserID == actor.UserID
	case entity.RoleAdminKabKota:
		return true
	case entity.RoleKepalaBidang:
		return p.StatusVerifikasi == entity.VerifikasiDiterima
	case entity.RoleKepalaDinas:
		return p.StatusVerifikasiKabid.IsApproved()
	}
	return false
}

// ListForActor returns the queue of the acting role
func (s *pengajuanServiceImpl) ListForActor(ctx context.Context, actor entity.Actor, query PengajuanQuery) ([]*entity.Pengajuan, error) {
	filter := port.PengajuanFilter{Tahun: query.Tahun}
	filter.Limit, filter.Offset = pageDefaults(query.Limit, query.Offset)

	if query.StatusVerifikasi != "" {
		filter.StatusVerifikasi = []entity.StatusVerifikasi{query.StatusVerifikasi}
	}
	if query.StatusKabid != "" {
		filter.StatusKabid = []entity.StatusKabid{query.StatusKabid}
	}

	switch actor.Role {
	case entity.RoleUser:
		filter.UserID = actor.UserID
	case entity.RoleAdminKabKota:
	case entity.RoleKepalaBidang:
		if query.StatusVerifikasi != "" && query.StatusVerifikasi != entity.VerifikasiDiterima {
			return []*entity.Pengajuan{}, nil
		}
		filter.StatusVerifikasi = []entity.StatusVerifikasi{entity.VerifikasiDiterima}
	case entity.RoleKepalaDinas:
		if query.StatusKabid != "" && !query.StatusKabid.IsApproved() {
			return []*entity.Pengajuan{}, nil
		}
		if query.StatusKabid == "" {
			filter.StatusKabid = []entity.StatusKabid{entity.KabidDisetujuiSepenuhnya, entity.KabidDisetujuiSebagian}
		}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", workflow.ErrUnauthorized, actor.Role)
	}

	list, err := s.pengajuanRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list pengajuan", "error", err, "role", actor.Role)
		return nil, workflow.StorageFailure("list pengajuan", err)
	}
	return list, nil
}

// RecordAdminDecision moves status_verifikasi. Repeating the decision already
// stored with the same note writes nothing and returns the current record.
func (s *pengajuanServiceImpl) RecordAdminDecision(ctx context.Context, actor entity.Actor, id int64, input AdminDecisionInput) (*entity.Pengajuan, error) {
	var (
		p       *entity.Pengajuan
		from    entity.StatusVerifikasi
		changed bool
	)

	err := s.inTx(ctx, "record admin decision", func(txCtx context.Context) error {
		var err error
		if p, err = s.load(txCtx, id); err != nil {
			return err
		}
		if err := workflow.EnsurePengajuanMutable(p, actor.Role); err != nil {
			return err
		}

		to, err := workflow.CanTransition(txCtx, entity.FieldStatusVerifikasi,
			workflow.PengajuanSnapshot(p), workflow.State(input.Status), actor.Role)
		if err != nil {
			return err
		}

		from = p.StatusVerifikasi
		checklist := p.StatusDokumen
		if input.StatusDokumen != nil {
			checklist = *input.StatusDokumen
		}
		if entity.StatusVerifikasi(to) == from && input.Catatan == p.CatatanVerifikasi && checklist == p.StatusDokumen {
			return nil
		}
		if err := checkVersion(entity.KindPengajuan, id, p.Version, input.Version); err != nil {
			return err
		}

		p.StatusVerifikasi = entity.StatusVerifikasi(to)
		p.CatatanVerifikasi = input.Catatan
		p.StatusDokumen = checklist
		if err := s.pengajuanRepo.Update(txCtx, p); err != nil {
			return workflow.StorageFailure("update pengajuan", err)
		}
		changed = true

		return s.record(txCtx, historyEntry(entity.KindPengajuan, id, actor, entity.FieldStatusVerifikasi,
			string(from), string(p.StatusVerifikasi), entity.ActionAdminDecision, input.Catatan))
	})
	if err != nil {
		s.logger.Error("Failed to record admin decision", "error", err, "id", id, "status", input.Status)
		return nil, err
	}
	if !changed {
		return p, nil
	}

	s.logger.Info("Admin decision recorded", "id", id, "from", from, "to", p.StatusVerifikasi)
	s.publish(ctx, event.TypePengajuanAdminDecided, entity.KindPengajuan, id, actor, map[string]interface{}{
		"from":    string(from),
		"to":      string(p.StatusVerifikasi),
		"catatan": p.CatatanVerifikasi,
	})
	return p, nil
}

// RecordKabidDecision stores the per-item decisions and the status aggregated from them.
// Both are written in one transaction.
func (s *pengajuanServiceImpl) RecordKabidDecision(ctx context.Context, actor entity.Actor, id int64, input KabidDecisionInput) (*entity.Pengajuan, error) {
	if input.ApproveAll && input.RejectAll {
		return nil, workflow.Validationf("approve_all and reject_all are exclusive")
	}
	if (input.ApproveAll || input.RejectAll) && len(input.Items) > 0 {
		return nil, workflow.Validationf("item decisions cannot be combined with a bulk decision")
	}

	var p *entity.Pengajuan
	err := s.inTx(ctx, "record kabid decision", func(txCtx context.Context) error {
		var err error
		if p, err = s.load(txCtx, id); err != nil {
			return err
		}

		snap := workflow.PengajuanSnapshot(p)
		if err := workflow.CheckKabidStage(snap, actor.Role); err != nil {
			return err
		}
		if len(p.Items) == 0 {
			return workflow.ErrNoItemsToDecide
		}
		if len(input.Items) == 0 && !input.ApproveAll && !input.RejectAll {
			return workflow.Validationf("no item decision given")
		}

		decisions := input.Items
		switch {
		case input.ApproveAll:
			decisions = workflow.ApproveAll(p.Items)
		case input.RejectAll:
			decisions = workflow.RejectAll(p.Items)
		}

		items, err := workflow.ApplyDecisions(p.Items, decisions)
		if err != nil {
			return err
		}
		status, err := workflow.Aggregate(items)
		if err != nil {
			return err
		}

		to, err := workflow.CanTransition(txCtx, entity.FieldStatusVerifikasiKabid, snap, workflow.State(status), actor.Role)
		if err != nil {
			return err
		}
		if err := checkVersion(entity.KindPengajuan, id, p.Version, input.Version); err != nil {
			return err
		}

		for _, item := range items {
			if err := s.itemRepo.UpdateDecision(txCtx, item); err != nil {
				return workflow.StorageFailure("update line item", err)
			}
		}

		p.Items = items
		p.StatusVerifikasiKabid = entity.StatusKabid(to)
		p.CatatanVerifikasiKabid = input.Catatan
		if err := s.pengajuanRepo.Update(txCtx, p); err != nil {
			return workflow.StorageFailure("update pengajuan", err)
		}

		return s.record(txCtx, historyEntry(entity.KindPengajuan, id, actor, entity.FieldStatusVerifikasiKabid,
			string(snap.Kabid), string(p.StatusVerifikasiKabid), entity.ActionKabidDecision, input.Catatan))
	})
	if err != nil {
		s.logger.Error("Failed to record kabid decision", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Kabid decision recorded", "id", id, "status", p.StatusVerifikasiKabid)
	s.publish(ctx, event.TypePengajuanKabidDecided, entity.KindPengajuan, id, actor, map[string]interface{}{
		"to":      string(p.StatusVerifikasiKabid),
		"catatan": p.CatatanVerifikasiKabid,
	})
	return p, nil
}

// Edit changes a pengajuan before the Kabid decision. An owner edit of a rejected
// or revision-requested submission is a resubmission: status_verifikasi returns to
// Menunggu and the Admin note is cleared.
func (s *pengajuanServiceImpl) Edit(ctx context.Context, actor entity.Actor, id int64, input EditPengajuanInput) (*entity.Pengajuan, error) {
	if input.JudulUsulan != nil && strings.TrimSpace(*input.JudulUsulan) == "" {
		return nil, workflow.Validationf("judul_usulan cannot be empty")
	}
	if input.Tahun != nil && *input.Tahun <= 0 {
		return nil, workflow.Validationf("tahun must be positive")
	}
	if input.Items != nil {
		if err := validateItems(input.Items); err != nil {
			return nil, err
		}
	}

	var (
		p     *entity.Pengajuan
		from  entity.StatusVerifikasi
		reset bool
	)

	err := s.inTx(ctx, "edit pengajuan", func(txCtx context.Context) error {
		var err error
		if p, err = s.load(txCtx, id); err != nil {
			return err
		}
		if err := workflow.EnsurePengajuanMutable(p, actor.Role); err != nil {
			return err
		}
		if err := canEdit(actor, p.UserID); err != nil {
			return err
		}
		if reset, err = workflow.Resubmission(txCtx, workflow.PengajuanSnapshot(p), actor.Role); err != nil {
			return err
		}
		if err := checkVersion(entity.KindPengajuan, id, p.Version, input.Version); err != nil {
			return err
		}

		if input.KelompokID != nil && *input.KelompokID != p.KelompokID {
			if err := s.ensureKelompok(txCtx, *input.KelompokID); err != nil {
				return err
			}
			p.KelompokID = *input.KelompokID
		}
		if input.JudulUsulan != nil {
			p.JudulUsulan = strings.TrimSpace(*input.JudulUsulan)
		}
		if input.Tahun != nil {
			p.Tahun = *input.Tahun
		}
		if input.Keterangan != nil {
			p.Keterangan = *input.Keterangan
		}
		if input.StatusDokumen != nil {
			p.StatusDokumen = *input.StatusDokumen
		}

		from = p.StatusVerifikasi
		if reset {
			p.StatusVerifikasi = entity.VerifikasiMenunggu
			p.CatatanVerifikasi = ""
		}
		if err := s.pengajuanRepo.Update(txCtx, p); err != nil {
			return workflow.StorageFailure("update pengajuan", err)
		}

		if input.Items != nil {
			if err := s.itemRepo.DeleteByPengajuanID(txCtx, id); err != nil {
				return workflow.StorageFailure("delete line items", err)
			}
			p.Items = toLineItems(id, input.Items)
			for _, item := range p.Items {
				if err := s.itemRepo.Create(txCtx, item); err != nil {
					return workflow.StorageFailure("create line item", err)
				}
			}
		}

		action := entity.ActionEdit
		if reset {
			action = entity.ActionResubmit
		}
		return s.record(txCtx, historyEntry(entity.KindPengajuan, id, actor, entity.FieldStatusVerifikasi,
			string(from), string(p.StatusVerifikasi), action, ""))
	})
	if err != nil {
		s.logger.Error("Failed to edit pengajuan", "error", err, "id", id)
		return nil, err
	}

	eventType := event.TypePengajuanEdited
	if reset {
		eventType = event.TypePengajuanResubmitted
		s.logger.Info("Pengajuan resubmitted", "id", id, "from", from)
	}
	s.publish(ctx, eventType, entity.KindPengajuan, id, actor, map[string]interface{}{
		"from": string(from),
		"to":   string(p.StatusVerifikasi),
	})
	return p, nil
}

// canEdit allows the owning User and Admin to change a record
func canEdit(actor entity.Actor, ownerID int64) error {
	switch actor.Role {
	case entity.RoleAdminKabKota:
		return nil
	case entity.RoleUser:
		if actor.UserID == ownerID {
			return nil
		}
		return fmt.Errorf("%w: record belongs to another user", workflow.ErrUnauthorized)
	}
	return fmt.Errorf("%w: %s cannot edit records", workflow.ErrUnauthorized, actor.Role)
}

// Delete removes a pengajuan that the Kabid has not decided yet
func (s *pengajuanServiceImpl) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	var p *entity.Pengajuan
	err := s.inTx(ctx, "delete pengajuan", func(txCtx context.Context) error {
		var err error
		if p, err = s.load(txCtx, id); err != nil {
			return err
		}
		if err := workflow.EnsurePengajuanMutable(p, actor.Role); err != nil {
			return err
		}
		if actor.Role != entity.RoleAdminKabKota {
			return fmt.Errorf("%w: only %s can delete a pengajuan", workflow.ErrUnauthorized, entity.RoleAdminKabKota)
		}
		if err := s.pengajuanRepo.Delete(txCtx, id); err != nil {
			return workflow.StorageFailure("delete pengajuan", err)
		}
		return s.record(txCtx, historyEntry(entity.KindPengajuan, id, actor, entity.FieldStatusVerifikasi,
			string(p.StatusVerifikasi), "", entity.ActionDelete, ""))
	})
	if err != nil {
		s.logger.Error("Failed to delete pengajuan", "error", err, "id", id)
		return err
	}

	s.logger.Info("Pengajuan deleted", "id", id)
	s.publish(ctx, event.TypePengajuanDeleted, entity.KindPengajuan, id, actor, map[string]interface{}{
		"status_verifikasi": string(p.StatusVerifikasi),
	})
	return nil
}

// AttachBAST stores the handover document of a Kabid-approved pengajuan.
// Attaching again replaces the record and its file.
func (s *pengajuanServiceImpl) AttachBAST(ctx context.Context, actor entity.Actor, id int64, input AttachBASTInput) (*entity.BAST, error) {
	if actor.Role != entity.RoleAdminKabKota {
		return nil, fmt.Errorf("%w: only %s can attach a BAST", workflow.ErrUnauthorized, entity.RoleAdminKabKota)
	}
	if strings.TrimSpace(input.NoBAST) == "" {
		return nil, workflow.Validationf("no_bast is required")
	}
	if len(input.Content) == 0 {
		return nil, workflow.Validationf("bast document is empty")
	}
	name := path.Base(strings.ReplaceAll(input.Filename, "\\", "/"))
	if name == "." || name == "/" || name == ".." || name == "" {
		return nil, workflow.Validationf("invalid filename %q", input.Filename)
	}

	// one object per upload; the previous document goes only after commit
	storedPath := fmt.Sprintf("bast/%d/%s-%s", id, uuid.NewString(), name)
	bast := &entity.BAST{
		PengajuanID: id,
		NoBAST:      strings.TrimSpace(input.NoBAST),
		DokumenBAST: storedPath,
		UploadedBy:  actor.UserID,
	}

	var previous *entity.BAST
	saved := false
	err := s.inTx(ctx, "attach bast", func(txCtx context.Context) error {
		p, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if !p.StatusVerifikasiKabid.IsApproved() {
			return &workflow.TransitionError{
				Code:    workflow.ErrPreconditionNotMet,
				Kind:    entity.KindPengajuan,
				From:    workflow.State(p.StatusVerifikasiKabid),
				Role:    actor.Role,
				Message: "a BAST needs a kepala bidang approval",
			}
		}
		if previous, err = s.bastRepo.GetByPengajuanID(txCtx, id); err != nil {
			return workflow.StorageFailure("get bast", err)
		}

		if err := s.files.Save(txCtx, storedPath, input.Content); err != nil {
			s.logger.Error("Failed to store BAST document", "error", err, "id", id, "path", storedPath)
			return workflow.StorageFailure("save bast document", err)
		}
		saved = true

		if err := s.bastRepo.Upsert(txCtx, bast); err != nil {
			return workflow.StorageFailure("upsert bast", err)
		}
		return s.record(txCtx, historyEntry(entity.KindPengajuan, id, actor, "",
			string(p.StatusVerifikasiKabid), string(p.StatusVerifikasiKabid), entity.ActionAttachBAST, bast.NoBAST))
	})
	if err != nil {
		s.logger.Error("Failed to attach BAST", "error", err, "id", id)
		if saved {
			s.removeFile(ctx, storedPath)
		}
		return nil, err
	}
	if previous != nil {
		s.removeFile(ctx, previous.DokumenBAST)
	}

	s.logger.Info("BAST attached", "id", id, "no_bast", bast.NoBAST)
	s.publish(ctx, event.TypeBASTAttached, entity.KindPengajuan, id, actor, map[string]interface{}{
		"no_bast": bast.NoBAST,
		"path":    storedPath,
	})
	return bast, nil
}

func (s *pengajuanServiceImpl) removeFile(ctx context.Context, p string) {
	if err := s.files.Delete(ctx, p); err != nil {
		s.logger.Error("Failed to remove BAST document", "error", err, "path", p)
	}
}

// BASTURL mints a time-limited retrieval URL for the BAST of a visible pengajuan
func (s *pengajuanServiceImpl) BASTURL(ctx context.Context, actor entity.Actor, id int64) (string, time.Time, error) {
	p, err := s.Get(ctx, actor, id)
	if err != nil {
		return "", time.Time{}, err
	}
	if p.BAST == nil {
		return "", time.Time{}, notFound("bast of pengajuan", id)
	}

	url, expires, err := s.signer.SignURL(p.BAST.DokumenBAST, s.urlTTL)
	if err != nil {
		s.logger.Error("Failed to sign BAST url", "error", err, "id", id)
		return "", time.Time{}, fmt.Errorf("sign bast url: %w", err)
	}
	return url, expires, nil
}

// KadisReport summarizes the Kabid-approved submissions of one year
func (s *pengajuanServiceImpl) KadisReport(ctx context.Context, actor entity.Actor, tahun int) (*entity.KadisReport, error) {
	if actor.Role != entity.RoleKepalaDinas && actor.Role != entity.RoleKepalaBidang {
		return nil, fmt.Errorf("%w: the report is for %s", workflow.ErrUnauthorized, entity.RoleKepalaDinas)
	}
	if tahun <= 0 {
		return nil, workflow.Validationf("tahun is required")
	}

	list, err := s.pengajuanRepo.List(ctx, port.PengajuanFilter{
		Tahun:       tahun,
		StatusKabid: []entity.StatusKabid{entity.KabidDisetujuiSepenuhnya, entity.KabidDisetujuiSebagian},
	})
	if err != nil {
		s.logger.Error("Failed to build kadis report", "error", err, "tahun", tahun)
		return nil, workflow.StorageFailure("list pengajuan", err)
	}

	report := &entity.KadisReport{Tahun: tahun, Pengajuan: []*entity.Pengajuan{}, PerStatus: map[entity.StatusKabid]int{}}
	for _, p := range list {
		if p.Items, err = s.itemRepo.GetByPengajuanID(ctx, p.ID); err != nil {
			return nil, workflow.StorageFailure("get line items", err)
		}
		report.Add(p)
	}
	return report, nil
}

// History returns the audit trail of a visible pengajuan.
// Admin may also read the trail of a deleted one.
func (s *pengajuanServiceImpl) History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ApprovalHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		if !errors.Is(err, workflow.ErrNotFound) || actor.Role != entity.RoleAdminKabKota {
			return nil, err
		}
	}

	entries, err := s.historyRepo.GetByEntity(ctx, entity.KindPengajuan, id)
	if err != nil {
		return nil, workflow.StorageFailure("get history", err)
	}
	if len(entries) == 0 {
		return nil, notFound(entity.KindPengajuan, id)
	}
	return entries, nil
}
