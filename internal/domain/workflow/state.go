package workflow

// State represents the disclosure state of a dashboard status group
type State string

const (
	StateCollapsed State = "COLLAPSED"
	StateExpanded  State = "EXPANDED"
)

var validStates = map[State]bool{
	StateCollapsed: true,
	StateExpanded:  true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known disclosure state
func (s State) IsValid() bool {
	return validStates[s]
}
