package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dkp-kub/bantuan-kub/internal/application/dispatcher"
	"github.com/dkp-kub/bantuan-kub/internal/application/port"
	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
	"github.com/dkp-kub/bantuan-kub/internal/domain/event"
	"github.com/dkp-kub/bantuan-kub/internal/domain/workflow"
)

// MonitoringService orchestrates the single-stage monitoring workflow
type MonitoringService interface {
	Submit(ctx context.Context, actor entity.Actor, input SubmitMonitoringInput) (*entity.Monitoring, error)
	Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Monitoring, error)
	List(ctx context.Context, actor entity.Actor, query MonitoringQuery) ([]*entity.Monitoring, error)
	RecordKabidDecision(ctx context.Context, actor entity.Actor, id int64, input MonitoringDecisionInput) (*entity.Monitoring, error)
	Edit(ctx context.Context, actor entity.Actor, id int64, input EditMonitoringInput) (*entity.Monitoring, error)
	Delete(ctx context.Context, actor entity.Actor, id int64) error
	History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ApprovalHistory, error)
}

type monitoringServiceImpl struct {
	recorder
	monitoringRepo port.MonitoringRepository
	kelompokRepo   port.KelompokRepository
}

// NewMonitoringService creates a new MonitoringService
func NewMonitoringService(
	monitoringRepo port.MonitoringRepository,
	kelompokRepo port.KelompokRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) MonitoringService {
	return &monitoringServiceImpl{
		recorder: recorder{
			historyRepo: historyRepo,
			txManager:   txManager,
			events:      events,
			logger:      logger,
			now:         time.Now,
		},
		monitoringRepo: monitoringRepo,
		kelompokRepo:   kelompokRepo,
	}
}

// Submit creates a monitoring report pending the Kepala Bidang decision
func (s *monitoringServiceImpl) Submit(ctx context.Context, actor entity.Actor, input SubmitMonitoringInput) (*entity.Monitoring, error) {
	if actor.Role != entity.RoleUser {
		return nil, fmt.Errorf("%w: only a kelompok member can submit a monitoring report", workflow.ErrUnauthorized)
	}
	if strings.TrimSpace(input.Periode) == "" {
		return nil, workflow.Validationf("periode is required")
	}
	if err := validateRows(input.Rows); err != nil {
		return nil, err
	}

	m := &entity.Monitoring{
		UserID:                actor.UserID,
		KelompokID:            input.KelompokID,
		Periode:               strings.TrimSpace(input.Periode),
		Keterangan:            input.Keterangan,
		StatusVerifikasiKabid: entity.MonitoringMenunggu,
	}

	err := s.inTx(ctx, "submit monitoring", func(txCtx context.Context) error {
		if input.KelompokID != 0 {
			k, err := s.kelompokRepo.GetByID(txCtx, input.KelompokID)
			if err != nil {
				return workflow.StorageFailure("get kelompok", err)
			}
			if k == nil {
				return notFound("kelompok", input.KelompokID)
			}
			m.NamaKelompok = k.Nama
		}

		m.Rows = toRows(0, input.Rows)
		if err := s.monitoringRepo.Create(txCtx, m); err != nil {
			return workflow.StorageFailure("create monitoring", err)
		}
		return s.record(txCtx, historyEntry(entity.KindMonitoring, m.ID, actor, entity.FieldStatusVerifikasiKabid,
			"", string(m.StatusVerifikasiKabid), entity.ActionSubmit, ""))
	})
	if err != nil {
		s.logger.Error("Failed to submit monitoring", "error", err, "user_id", actor.UserID)
		return nil, err
	}

	s.logger.Info("Monitoring submitted", "id", m.ID, "user_id", actor.UserID, "rows", len(m.Rows))
	s.publish(ctx, event.TypeMonitoringSubmitted, entity.KindMonitoring, m.ID, actor, map[string]interface{}{
		"periode": m.Periode,
		"rows":    len(m.Rows),
	})
	return m, nil
}

// Get returns the report with its production rows when actor may see it
func (s *monitoringServiceImpl) Get(ctx context.Context, actor entity.Actor, id int64) (*entity.Monitoring, error) {
	m, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSeeMonitoring(actor, m) {
		return nil, notFound(entity.KindMonitoring, id)
	}
	m.AllowedActions = actionNames(workflow.AllowedActions(ctx, workflow.MonitoringSnapshot(m), actor.Role))
	return m, nil
}

func (s *monitoringServiceImpl) load(ctx context.Context, id int64) (*entity.Monitoring, error) {
	m, err := s.monitoringRepo.GetByID(ctx, id)
	if err != nil {
		return nil, workflow.StorageFailure("get monitoring", err)
	}
	if m == nil {
		return nil, notFound(entity.KindMonitoring, id)
	}
	return m, nil
}

func canSeeMonitoring(actor entity.Actor, m *entity.Monitoring) bool {
	switch actor.Role {
	case entity.RoleUser:
		return m.UserID == actor.UserID
	case entity.RoleAdminKabKota, entity.RoleKepalaBidang:
		return true
	case entity.RoleKepalaDinas:
		return m.StatusVerifikasiKabid == entity.MonitoringDisetujui
	}
	return false
}

// List returns the monitoring queue of the acting role
func (s *monitoringServiceImpl) List(ctx context.Context, actor entity.Actor, query MonitoringQuery) ([]*entity.Monitoring, error) {
	filter := port.MonitoringFilter{}
	filter.Limit, filter.Offset = pageDefaults(query.Limit, query.Offset)
	if query.Status != "" {
		filter.Status = []entity.StatusMonitoring{query.Status}
	}

	switch actor.Role {
	case entity.RoleUser:
		filter.UserID = actor.UserID
	case entity.RoleAdminKabKota, entity.RoleKepalaBidang:
	case entity.RoleKepalaDinas:
		if query.Status != "" && query.Status != entity.MonitoringDisetujui {
			return []*entity.Monitoring{}, nil
		}
		filter.Status = []entity.StatusMonitoring{entity.MonitoringDisetujui}
	default:
		return nil, fmt.Errorf("%w: unknown role %q", workflow.ErrUnauthorized, actor.Role)
	}

	list, err := s.monitoringRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list monitoring", "error", err, "role", actor.Role)
		return nil, workflow.StorageFailure("list monitoring", err)
	}
	return list, nil
}

// RecordKabidDecision approves or rejects a pending report. The decision is terminal.
func (s *monitoringServiceImpl) RecordKabidDecision(ctx context.Context, actor entity.Actor, id int64, input MonitoringDecisionInput) (*entity.Monitoring, error) {
	var (
		m    *entity.Monitoring
		from entity.StatusMonitoring
	)

	err := s.inTx(ctx, "record monitoring decision", func(txCtx context.Context) error {
		var err error
		if m, err = s.load(txCtx, id); err != nil {
			return err
		}

		to, err := workflow.CanTransition(txCtx, entity.FieldStatusVerifikasiKabid,
			workflow.MonitoringSnapshot(m), workflow.State(input.Status), actor.Role)
		if err != nil {
			return err
		}
		if err := checkVersion(entity.KindMonitoring, id, m.Version, input.Version); err != nil {
			return err
		}

		from = m.StatusVerifikasiKabid
		m.StatusVerifikasiKabid = entity.StatusMonitoring(to)
		m.CatatanVerifikasiKabid = input.Catatan
		if err := s.monitoringRepo.Update(txCtx, m); err != nil {
			return workflow.StorageFailure("update monitoring", err)
		}
		return s.record(txCtx, historyEntry(entity.KindMonitoring, id, actor, entity.FieldStatusVerifikasiKabid,
			string(from), string(m.StatusVerifikasiKabid), entity.ActionKabidDecision, input.Catatan))
	})
	if err != nil {
		s.logger.Error("Failed to record monitoring decision", "error", err, "id", id, "status", input.Status)
		return nil, err
	}

	s.logger.Info("Monitoring decision recorded", "id", id, "status", m.StatusVerifikasiKabid)
	s.publish(ctx, event.TypeMonitoringDecided, entity.KindMonitoring, id, actor, map[string]interface{}{
		"from":    string(from),
		"to":      string(m.StatusVerifikasiKabid),
		"catatan": m.CatatanVerifikasiKabid,
	})
	return m, nil
}

// Edit changes a report the Kepala Bidang has not decided yet
func (s *monitoringServiceImpl) Edit(ctx context.Context, actor entity.Actor, id int64, input EditMonitoringInput) (*entity.Monitoring, error) {
	if input.Periode != nil && strings.TrimSpace(*input.Periode) == "" {
		return nil, workflow.Validationf("periode cannot be empty")
	}
	if input.Rows != nil {
		if err := validateRows(input.Rows); err != nil {
			return nil, err
		}
	}

	var m *entity.Monitoring
	err := s.inTx(ctx, "edit monitoring", func(txCtx context.Context) error {
		var err error
		if m, err = s.load(txCtx, id); err != nil {
			return err
		}
		if err := workflow.EnsureMonitoringMutable(m, actor.Role); err != nil {
			return err
		}
		if err := canEdit(actor, m.UserID); err != nil {
			return err
		}
		if err := checkVersion(entity.KindMonitoring, id, m.Version, input.Version); err != nil {
			return err
		}

		if input.Periode != nil {
			m.Periode = strings.TrimSpace(*input.Periode)
		}
		if input.Keterangan != nil {
			m.Keterangan = *input.Keterangan
		}
		if err := s.monitoringRepo.Update(txCtx, m); err != nil {
			return workflow.StorageFailure("update monitoring", err)
		}
		if input.Rows != nil {
			m.Rows = toRows(id, input.Rows)
			if err := s.monitoringRepo.ReplaceRows(txCtx, id, m.Rows); err != nil {
				return workflow.StorageFailure("replace production rows", err)
			}
		}

		status := string(m.StatusVerifikasiKabid)
		return s.record(txCtx, historyEntry(entity.KindMonitoring, id, actor, entity.FieldStatusVerifikasiKabid,
			status, status, entity.ActionEdit, ""))
	})
	if err != nil {
		s.logger.Error("Failed to edit monitoring", "error", err, "id", id)
		return nil, err
	}

	s.publish(ctx, event.TypeMonitoringEdited, entity.KindMonitoring, id, actor, nil)
	return m, nil
}

// Delete removes an undecided report
func (s *monitoringServiceImpl) Delete(ctx context.Context, actor entity.Actor, id int64) error {
	err := s.inTx(ctx, "delete monitoring", func(txCtx context.Context) error {
		m, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if err := workflow.EnsureMonitoringMutable(m, actor.Role); err != nil {
			return err
		}
		if actor.Role != entity.RoleAdminKabKota {
			return fmt.Errorf("%w: only %s can delete a monitoring report", workflow.ErrUnauthorized, entity.RoleAdminKabKota)
		}
		if err := s.monitoringRepo.Delete(txCtx, id); err != nil {
			return workflow.StorageFailure("delete monitoring", err)
		}
		return s.record(txCtx, historyEntry(entity.KindMonitoring, id, actor, entity.FieldStatusVerifikasiKabid,
			string(m.StatusVerifikasiKabid), "", entity.ActionDelete, ""))
	})
	if err != nil {
		s.logger.Error("Failed to delete monitoring", "error", err, "id", id)
		return err
	}

	s.logger.Info("Monitoring deleted", "id", id)
	s.publish(ctx, event.TypeMonitoringDeleted, entity.KindMonitoring, id, actor, nil)
	return nil
}

// History returns the audit trail of a visible report
func (s *monitoringServiceImpl) History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ApprovalHistory, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.GetByEntity(ctx, entity.KindMonitoring, id)
	if err != nil {
		return nil, workflow.StorageFailure("get history", err)
	}
	return entries, nil
}
