package entity

// Status is the workflow state of a Bill
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRefused  Status = "refused"
)

// IsKnown reports whether s is one of the three workflow statuses.
// Stores may return anything; unknown values are carried as-is.
func (s Status) IsKnown() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRefused:
		return true
	default:
		return false
	}
}

// IsDecision reports whether s is a reviewer outcome
func (s Status) IsDecision() bool {
	return s == StatusAccepted || s == StatusRefused
}

func (s Status) String() string {
	return string(s)
}

// Role of a session user
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleAdmin    Role = "Admin"
)

// Dashboard group indexes, in display order
const (
	GroupPending  = 1
	GroupAccepted = 2
	GroupRefused  = 3
)

// GroupIndexes lists every dashboard group index
var GroupIndexes = []int{GroupPending, GroupAccepted, GroupRefused}

// StatusForGroup maps a dashboard group index to the status it lists.
func StatusForGroup(index int) (Status, bool) {
	switch index {
	case GroupPending:
		return StatusPending, true
	case GroupAccepted:
		return StatusAccepted, true
	case GroupRefused:
		return StatusRefused, true
	default:
		return "", false
	}
}

// GroupForStatus is the inverse of StatusForGroup
func GroupForStatus(status Status) (int, bool) {
	for _, idx := range GroupIndexes {
		if s, _ := StatusForGroup(idx); s == status {
			return idx, true
		}
	}
	return 0, false
}

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	return r == RoleEmployee || r == RoleAdmin
}
