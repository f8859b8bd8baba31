package event

// Type identifies the type of domain event
type Type string

const (
	TypeGroupToggled   Type = "group.toggled"
	TypeEditRequested  Type = "bill.edit_requested"
	TypeBillAccepted   Type = "bill.accepted"
	TypeBillRefused    Type = "bill.refused"
	TypeSnapshotLoaded Type = "snapshot.loaded"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeGroupToggled,
		TypeEditRequested,
		TypeBillAccepted,
		TypeBillRefused,
		TypeSnapshotLoaded:
		return true
	default:
		return false
	}
}

// IsDecision reports whether the event records a review decision
func (t Type) IsDecision() bool {
	return t == TypeBillAccepted || t == TypeBillRefused
}
