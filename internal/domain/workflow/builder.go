package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a transition may happen
type GuardFunc func(ctx context.Context) bool

// Builder configures transitions and produces independent machines
type Builder interface {
	Configure(state State) Configuration
	Build(initial State) StateMachine
}

// Configuration declares the transitions leaving one state
type Configuration interface {
	Permit(trigger Trigger, to State) Configuration
	PermitIf(trigger Trigger, to State, guard GuardFunc) Configuration
}

type transition struct {
	to    State
	guard GuardFunc
}

type transitions map[Trigger][]transition

type builder struct {
	table map[State]transitions
}

type configuration struct {
	from  State
	table transitions
}

type machine struct {
	current State
	table   map[State]transitions
}

// NewBuilder creates an empty builder
func NewBuilder() Builder {
	return &builder{table: make(map[State]transitions)}
}

func (b *builder) Configure(state State) Configuration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if _, ok := b.table[state]; !ok {
		b.table[state] = make(transitions)
	}
	return &configuration{from: state, table: b.table[state]}
}

// Build copies the table so machines built from one builder never share state
func (b *builder) Build(initial State) StateMachine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	table := make(map[State]transitions, len(b.table))
	for state, ts := range b.table {
		cp := make(transitions, len(ts))
		for trigger, list := range ts {
			cp[trigger] = append([]transition(nil), list...)
		}
		table[state] = cp
	}

	return &machine{current: initial, table: table}
}

func (c *configuration) Permit(trigger Trigger, to State) Configuration {
	return c.PermitIf(trigger, to, nil)
}

func (c *configuration) PermitIf(trigger Trigger, to State, guard GuardFunc) Configuration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}
	c.table[trigger] = append(c.table[trigger], transition{to: to, guard: guard})
	return c
}

func (m *machine) State() State {
	return m.current
}

func (m *machine) CanFire(trigger Trigger) bool {
	return len(m.table[m.current][trigger]) > 0
}

// Fire tries each configured transition in order and takes the first whose
// guard passes.
func (m *machine) Fire(ctx context.Context, trigger Trigger) error {
	candidates := m.table[m.current][trigger]
	if len(candidates) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range candidates {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}
