package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	// TriggerToggle is raised by a click on a group's arrow icon
	TriggerToggle Trigger = "TOGGLE"
	// TriggerReset collapses a group regardless of its state
	TriggerReset Trigger = "RESET"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
