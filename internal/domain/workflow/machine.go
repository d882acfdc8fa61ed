package workflow

import "context"

// StateMachine tracks the value of one status register and validates changes to it
type StateMachine interface {
	// State returns the current value
	State() State

	// CanFire returns true if the trigger is configured for the current value
	CanFire(trigger Trigger) bool

	// Fire applies the trigger, moving to the new value if a transition allows it
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers configured for the current value
	PermittedTriggers() []Trigger
}
