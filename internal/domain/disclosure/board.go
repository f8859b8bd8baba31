// Package disclosure holds the dashboard expand/collapse state and the single
// open-bill slot. Transitions are plain method calls; rendering is derived
// from the resulting state by the caller.
package disclosure

import (
	"context"
	"errors"
	"fmt"

	"github.com/billed/bill-review/internal/domain/entity"
	"github.com/billed/bill-review/internal/domain/workflow"
)

// ErrUnknownGroup is returned for a group index outside 1..3
var ErrUnknownGroup = errors.New("unknown status group")

// Group is the toggle machine of one status group. Counter parity mirrors
// the machine: even is collapsed, odd is expanded.
type Group struct {
	Index   int
	Status  entity.Status
	counter int
	machine workflow.StateMachine
}

func newGroup(index int, status entity.Status) *Group {
	return &Group{
		Index:   index,
		Status:  status,
		machine: workflow.BuildDisclosureMachine(workflow.StateCollapsed),
	}
}

// Counter returns how many toggles the group has received
func (g *Group) Counter() int {
	return g.counter
}

// Expanded reports whether the group currently shows its cards
func (g *Group) Expanded() bool {
	return g.machine.State() == workflow.StateExpanded
}

func (g *Group) toggle() error {
	if err := g.machine.Fire(context.Background(), workflow.TriggerToggle); err != nil {
		return fmt.Errorf("toggle group %d: %w", g.Index, err)
	}
	g.counter++
	return nil
}

// ToggleResult describes the group after a toggle
type ToggleResult struct {
	Index    int
	Status   entity.Status
	Expanded bool
	Counter  int
}

// EditResult describes the open-bill slot after an edit request
type EditResult struct {
	BillID   string
	Index    int
	Opened   bool   // false when the request closed the already open bill
	Previous string // bill that was open before the request, if any
}

// Board is the disclosure state of one dashboard session
type Board struct {
	groups     map[int]*Group
	openBillID string
}

// NewBoard returns a board with every group collapsed and no open bill
func NewBoard() *Board {
	b := &Board{groups: make(map[int]*Group, len(entity.GroupIndexes))}
	for _, idx := range entity.GroupIndexes {
		status, _ := entity.StatusForGroup(idx)
		b.groups[idx] = newGroup(idx, status)
	}
	return b
}

// Group returns the group at index
func (b *Board) Group(index int) (*Group, error) {
	g, ok := b.groups[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGroup, index)
	}
	return g, nil
}

// Toggle flips the group at index between collapsed and expanded
func (b *Board) Toggle(index int) (ToggleResult, error) {
	g, err := b.Group(index)
	if err != nil {
		return ToggleResult{}, err
	}
	if err := g.toggle(); err != nil {
		return ToggleResult{}, err
	}
	return ToggleResult{
		Index:    g.Index,
		Status:   g.Status,
		Expanded: g.Expanded(),
		Counter:  g.counter,
	}, nil
}

// IsExpanded reports the state of the group at index; unknown groups are collapsed
func (b *Board) IsExpanded(index int) bool {
	g, ok := b.groups[index]
	return ok && g.Expanded()
}

// Counter returns the toggle count of the group at index
func (b *Board) Counter(index int) (int, error) {
	g, err := b.Group(index)
	if err != nil {
		return 0, err
	}
	return g.counter, nil
}

// RequestEdit handles a click on a bill card. Selecting the open bill again
// closes it; selecting another bill moves the slot, so at most one bill is
// ever open.
func (b *Board) RequestEdit(billID string, index int) EditResult {
	previous := b.openBillID

	if previous == billID {
		b.openBillID = ""
		return EditResult{BillID: billID, Index: index, Opened: false, Previous: previous}
	}

	b.openBillID = billID
	return EditResult{BillID: billID, Index: index, Opened: true, Previous: previous}
}

// CloseEdit clears the open-bill slot
func (b *Board) CloseEdit() {
	b.openBillID = ""
}

// OpenBillID returns the bill open for edit, or "" when none is
func (b *Board) OpenBillID() string {
	return b.openBillID
}

// IsSelected reports whether the card for billID should be highlighted
func (b *Board) IsSelected(billID string) bool {
	return billID != "" && b.openBillID == billID
}
