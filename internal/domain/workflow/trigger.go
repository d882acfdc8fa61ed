package workflow

// Trigger represents a reviewer action that can cause a state transition
type Trigger string

const (
	TriggerTerima          Trigger = "TERIMA"
	TriggerTolak           Trigger = "TOLAK"
	TriggerMintaRevisi     Trigger = "MINTA_REVISI"
	TriggerSetujuiPenuh    Trigger = "SETUJUI_PENUH"
	TriggerSetujuiSebagian Trigger = "SETUJUI_SEBAGIAN"
	TriggerSetujui         Trigger = "SETUJUI"
	TriggerAjukanUlang     Trigger = "AJUKAN_ULANG"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// triggerFor maps a requested target value to the action that produces it
func triggerFor(target State) (Trigger, bool) {
	switch target {
	case StateDiterima:
		return TriggerTerima, true
	case StateDitolak:
		return TriggerTolak, true
	case StatePerluRevisi:
		return TriggerMintaRevisi, true
	case StateDisetujuiSepenuhnya:
		return TriggerSetujuiPenuh, true
	case StateDisetujuiSebagian:
		return TriggerSetujuiSebagian, true
	case StateDisetujui:
		return TriggerSetujui, true
	case StateMenunggu:
		return TriggerAjukanUlang, true
	}
	return "", false
}
