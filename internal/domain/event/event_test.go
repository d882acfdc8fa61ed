package event

import (
	"testing"
	"time"

	"github.com/dkp-kub/bantuan-kub/internal/domain/entity"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"submitted", TypePengajuanSubmitted, true},
		{"kabid decided", TypePengajuanKabidDecided, true},
		{"bast attached", TypeBASTAttached, true},
		{"monitoring decided", TypeMonitoringDecided, true},
		{"unknown", Type("pengajuan.archived"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEventWithCorrelation(t *testing.T) {
	actor := entity.Actor{UserID: 7, Role: entity.RoleAdminKabKota}
	before := time.Now()

	e := NewEventWithCorrelation(TypePengajuanAdminDecided, entity.KindPengajuan, 42, actor, map[string]interface{}{
		"to": "Diterima",
	}, "req-123")

	if e.ID == "" {
		t.Error("NewEventWithCorrelation() should generate an ID")
	}
	if e.CorrelationID != "req-123" {
		t.Errorf("CorrelationID = %q, want %q", e.CorrelationID, "req-123")
	}
	if e.EntityID != 42 || e.Kind != entity.KindPengajuan {
		t.Errorf("entity = %s/%d, want pengajuan/42", e.Kind, e.EntityID)
	}
	if e.Actor != actor {
		t.Errorf("Actor = %+v, want %+v", e.Actor, actor)
	}
	if e.Timestamp.Before(before) {
		t.Error("Timestamp should be set at creation")
	}
	if got := e.Payload["to"]; got != "Diterima" {
		t.Errorf("Payload[to] = %v, want Diterima", got)
	}
}

func TestNewEventWithCorrelation_Defaults(t *testing.T) {
	e := NewEventWithCorrelation(TypeMonitoringSubmitted, entity.KindMonitoring, 3, entity.Actor{}, nil, "")
	if e.Payload == nil {
		t.Error("Payload should never be nil")
	}
	if e.CorrelationID == "" {
		t.Error("empty correlation ID should be replaced")
	}
	if e.ID == e.CorrelationID {
		t.Error("ID and CorrelationID should differ")
	}
}

func TestNewEventWithCorrelation_UniqueIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		e := NewEventWithCorrelation(TypePengajuanSubmitted, entity.KindPengajuan, int64(i), entity.Actor{}, nil, "req")
		if seen[e.ID] {
			t.Fatalf("duplicate event ID %s", e.ID)
		}
		seen[e.ID] = true
	}
}
