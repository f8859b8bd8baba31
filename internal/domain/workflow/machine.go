package workflow

import "context"

// StateMachine tracks the current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the target state when permitted
	Fire(ctx context.Context, trigger Trigger) error
}

// BuildDisclosureMachine returns a machine that flips between collapsed and
// expanded on every toggle. Reset always lands on collapsed.
func BuildDisclosureMachine(initial State) StateMachine {
	builder := NewBuilder()

	builder.Configure(StateCollapsed).
		Permit(TriggerToggle, StateExpanded).
		Permit(TriggerReset, StateCollapsed)

	builder.Configure(StateExpanded).
		Permit(TriggerToggle, StateCollapsed).
		Permit(TriggerReset, StateCollapsed)

	return builder.Build(initial)
}
