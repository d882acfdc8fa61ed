package entity

import "time"

// ApprovalHistory represents the audit trail of a workflow record
type ApprovalHistory struct {
	ID             int64     `json:"id"`
	EntityKind     Kind      `json:"entity_kind"`
	EntityID       int64     `json:"entity_id"`
	ActorUserID    int64     `json:"actor_user_id"`
	ActorRole      Role      `json:"actor_role"`
	Field          Field     `json:"field,omitempty"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActionType     string    `json:"action_type"`
	Catatan        string    `json:"catatan"`
	Timestamp      time.Time `json:"timestamp"`
}
