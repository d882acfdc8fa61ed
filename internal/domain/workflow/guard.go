package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

// stageOwner returns the only role allowed to move a status register
func stageOwner(kind entity.Kind, field entity.Field) entity.Role {
	if kind == entity.KindPengajuan && field == entity.FieldStatusVerifikasi {
		return entity.RoleAdminKabKota
	}
	return entity.RoleKepalaBidang
}

// BuildAdminStageMachine configures the status_verifikasi register of a pengajuan.
// Diterima is a one-way gate once the Kabid stage has started.
func BuildAdminStageMachine(snap Snapshot) StateMachine {
	builder := NewBuilder()

	kabidNotStarted := func(ctx context.Context) error {
		if snap.Kabid.IsTerminal() {
			return fmt.Errorf("kepala bidang has already decided (%s)", snap.Kabid)
		}
		return nil
	}

	for _, open := range []State{StateMenunggu, StateDitolak, StatePerluRevisi} {
		builder.Configure(open).
			Permit(TriggerTerima, StateDiterima).
			Permit(TriggerTolak, StateDitolak).
			Permit(TriggerMintaRevisi, StatePerluRevisi)
	}

	// Resubmission by the owner after rejection or a revision request
	builder.Configure(StateDitolak).Permit(TriggerAjukanUlang, StateMenunggu)
	builder.Configure(StatePerluRevisi).Permit(TriggerAjukanUlang, StateMenunggu)

	builder.Configure(StateDiterima).
		PermitIf(TriggerTerima, StateDiterima, kabidNotStarted).
		PermitIf(TriggerTolak, StateDitolak, kabidNotStarted).
		PermitIf(TriggerMintaRevisi, StatePerluRevisi, kabidNotStarted)

	return builder.Build(State(snap.Admin))
}

// BuildKabidStageMachine configures the status_verifikasi_kabid register of a pengajuan.
// Every decided value is terminal.
func BuildKabidStageMachine(snap Snapshot) StateMachine {
	builder := NewBuilder()

	adminAccepted := func(ctx context.Context) error {
		if snap.Admin != entity.VerifikasiDiterima {
			return fmt.Errorf("admin verification is %s, not %s", snap.Admin, entity.VerifikasiDiterima)
		}
		return nil
	}

	builder.Configure(StateMenunggu).
		PermitIf(TriggerSetujuiPenuh, StateDisetujuiSepenuhnya, adminAccepted).
		PermitIf(TriggerSetujuiSebagian, StateDisetujuiSebagian, adminAccepted).
		PermitIf(TriggerTolak, StateDitolak, adminAccepted)

	// Disetujui Sepenuhnya, Disetujui Sebagian and Ditolak have no outgoing transitions
	builder.Configure(StateDisetujuiSepenuhnya)
	builder.Configure(StateDisetujuiSebagian)
	builder.Configure(StateDitolak)

	return builder.Build(State(snap.Kabid))
}

// BuildMonitoringMachine configures the single Kabid register of a monitoring report
func BuildMonitoringMachine(snap Snapshot) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateMenunggu).
		Permit(TriggerSetujui, StateDisetujui).
		Permit(TriggerTolak, StateDitolak)

	builder.Configure(StateDisetujui)
	builder.Configure(StateDitolak)

	return builder.Build(State(snap.Monitoring))
}

func machineFor(field entity.Field, snap Snapshot) StateMachine {
	switch {
	case snap.Kind == entity.KindMonitoring:
		return BuildMonitoringMachine(snap)
	case field == entity.FieldStatusVerifikasi:
		return BuildAdminStageMachine(snap)
	default:
		return BuildKabidStageMachine(snap)
	}
}

func isTerminal(field entity.Field, snap Snapshot) bool {
	switch {
	case snap.Kind == entity.KindMonitoring:
		return snap.Monitoring.IsTerminal()
	case field == entity.FieldStatusVerifikasi:
		return false
	default:
		return snap.Kabid.IsTerminal()
	}
}

// CanTransition decides whether role may move field from its current value to requested.
// It returns the resulting value, or a *TransitionError carrying the refusal reason.
func CanTransition(ctx context.Context, field entity.Field, snap Snapshot, requested State, role entity.Role) (State, error) {
	from := snap.current(field)
	refuse := func(code error, format string, args ...interface{}) (State, error) {
		return from, &TransitionError{
			Code:    code,
			Kind:    snap.Kind,
			Field:   field,
			From:    from,
			To:      requested,
			Role:    role,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if owner := stageOwner(snap.Kind, field); role != owner {
		return refuse(ErrUnauthorized, "stage is owned by %s", owner)
	}

	trigger, ok := triggerFor(requested)
	if !ok || requested == StateMenunggu {
		return refuse(ErrValidation, "%q is not a decision", requested)
	}

	if isTerminal(field, snap) {
		return refuse(ErrStageLocked, "stage already decided as %s", from)
	}

	// The Kabid stage can only start once Admin has accepted the submission
	if snap.Kind == entity.KindPengajuan && field == entity.FieldStatusVerifikasiKabid &&
		snap.Admin != entity.VerifikasiDiterima {
		return refuse(ErrPreconditionNotMet, "admin verification is %s, not %s", snap.Admin, entity.VerifikasiDiterima)
	}

	machine := machineFor(field, snap)
	if err := machine.Fire(ctx, trigger); err != nil {
		if errors.Is(err, ErrGuardFailed) {
			return refuse(ErrStageLocked, "%v", err)
		}
		return refuse(ErrValidation, "%v", err)
	}

	return machine.State(), nil
}

// CheckKabidStage verifies the Kabid stage of a pengajuan may be decided by role,
// before any per-item decision is aggregated.
func CheckKabidStage(snap Snapshot, role entity.Role) error {
	from := State(snap.Kabid)
	refuse := func(code error, format string, args ...interface{}) error {
		return &TransitionError{
			Code:    code,
			Kind:    snap.Kind,
			Field:   entity.FieldStatusVerifikasiKabid,
			From:    from,
			Role:    role,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if role != entity.RoleKepalaBidang {
		return refuse(ErrUnauthorized, "stage is owned by %s", entity.RoleKepalaBidang)
	}
	if snap.Kabid.IsTerminal() {
		return refuse(ErrStageLocked, "stage already decided as %s", snap.Kabid)
	}
	if snap.Admin != entity.VerifikasiDiterima {
		return refuse(ErrPreconditionNotMet, "admin verification is %s, not %s", snap.Admin, entity.VerifikasiDiterima)
	}
	return nil
}

// Resubmission applies the edit-as-transition rule for a pengajuan edited by its owner.
// It reports whether status_verifikasi must be reset to Menunggu and catatan_verifikasi cleared.
func Resubmission(ctx context.Context, snap Snapshot, role entity.Role) (bool, error) {
	if role != entity.RoleUser {
		return false, nil
	}
	if snap.Kabid.IsTerminal() {
		return false, &TransitionError{
			Code:    ErrLocked,
			Kind:    snap.Kind,
			Field:   entity.FieldStatusVerifikasi,
			From:    State(snap.Admin),
			To:      StateMenunggu,
			Role:    role,
			Message: fmt.Sprintf("kepala bidang has already decided (%s)", snap.Kabid),
		}
	}
	if !State(snap.Admin).IsValid() {
		return false, nil
	}

	machine := BuildAdminStageMachine(snap)
	if !machine.CanFire(TriggerAjukanUlang) {
		return false, nil
	}
	if err := machine.Fire(ctx, TriggerAjukanUlang); err != nil {
		return false, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return machine.State() == StateMenunggu, nil
}

// AllowedActions lists the triggers role could fire on the record right now, sorted.
// Guards are evaluated, so a locked stage yields no actions.
func AllowedActions(ctx context.Context, snap Snapshot, role entity.Role) []Trigger {
	var build func(Snapshot) StateMachine
	field := entity.FieldStatusVerifikasiKabid
	switch {
	case snap.Kind == entity.KindPengajuan && role == entity.RoleUser:
		if reset, err := Resubmission(ctx, snap, role); err == nil && reset {
			return []Trigger{TriggerAjukanUlang}
		}
		return []Trigger{}
	case snap.Kind == entity.KindMonitoring && role == entity.RoleKepalaBidang:
		build = BuildMonitoringMachine
	case snap.Kind == entity.KindPengajuan && role == entity.RoleAdminKabKota:
		build = BuildAdminStageMachine
		field = entity.FieldStatusVerifikasi
	case snap.Kind == entity.KindPengajuan && role == entity.RoleKepalaBidang:
		build = BuildKabidStageMachine
	default:
		return []Trigger{}
	}
	if !snap.current(field).IsValid() {
		return []Trigger{}
	}

	allowed := []Trigger{}
	for _, trigger := range build(snap).PermittedTriggers() {
		// resubmission belongs to the owner
		if trigger == TriggerAjukanUlang {
			continue
		}
		if err := build(snap).Fire(ctx, trigger); err == nil {
			allowed = append(allowed, trigger)
		}
	}
	sort.Slice(allowed, func(i, j int) bool { return allowed[i] < allowed[j] })
	return allowed
}
