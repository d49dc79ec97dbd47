// Package confirm implements the two-step confirmation that guards every
// editor write: a draft is confirmed, then confirmed again, and only the
// final confirmation applies it.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// State is the position of one (session, document, flow) in the flow.
type State string

const (
	StateViewing             State = "viewing"
	StatePendingConfirm      State = "pending_confirm"
	StatePendingFinalConfirm State = "pending_final_confirm"
)

// Event drives a transition.
type Event string

const (
	EventConfirm      Event = "confirm"
	EventFinalConfirm Event = "final_confirm"
	EventCancel       Event = "cancel"
)

var (
	// ErrInvalidTransition is returned when an event is not accepted in the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrUnknownFlow is returned for flow names no mutator is registered for.
	ErrUnknownFlow = errors.New("unknown flow")
	// ErrUnknownEvent is returned for event names outside the enum.
	ErrUnknownEvent = errors.New("unknown event")
)

// ParseEvent validates an event name.
func ParseEvent(value string) (Event, error) {
	switch e := Event(value); e {
	case EventConfirm, EventFinalConfirm, EventCancel:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEvent, value)
	}
}

// Key scopes flow state to one session looking at one document.
type Key struct {
	SessionID  string
	DocumentID string
	Flow       string
}

func (k Key) String() string {
	return k.SessionID + ":" + k.DocumentID + ":" + k.Flow
}

// Entry is the persisted flow state. Viewing entries are never stored.
type Entry struct {
	State State  `json:"state"`
	Draft string `json:"draft,omitempty"`
}

// ApplyFunc performs the guarded write and reports whether a document changed.
type ApplyFunc func(ctx context.Context, documentID, draft string) (bool, error)

// Flow binds a name to the mutation it guards.
type Flow struct {
	Name  string
	Apply ApplyFunc
}

// Transition describes the outcome of Fire.
type Transition struct {
	From     State  `json:"from"`
	To       State  `json:"to"`
	Draft    string `json:"draft,omitempty"`
	Applied  bool   `json:"applied"`
	Modified bool   `json:"modified"`
}

// Next is the pure transition table. FinalConfirm is the only event that
// leads to a write; callers decide what that write is.
func Next(from State, event Event) (State, error) {
	switch {
	case event == EventCancel:
		return StateViewing, nil
	case from == StateViewing && event == EventConfirm:
		return StatePendingConfirm, nil
	case from == StatePendingConfirm && event == EventConfirm:
		return StatePendingFinalConfirm, nil
	case from == StatePendingFinalConfirm && event == EventFinalConfirm:
		return StateViewing, nil
	default:
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, event, from)
	}
}

// Machine runs flows against a Store.
type Machine struct {
	store  Store
	flows  map[string]Flow
	logger *slog.Logger
}

// NewMachine registers flows by name.
func NewMachine(store Store, logger *slog.Logger, flows ...Flow) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{store: store, flows: make(map[string]Flow, len(flows)), logger: logger}
	for _, f := range flows {
		m.flows[f.Name] = f
	}
	return m
}

// Flows lists registered flow names in order.
func (m *Machine) Flows() []string {
	names := make([]string, 0, len(m.flows))
	for name := range m.flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// State returns the current entry; an unknown key is Viewing.
func (m *Machine) State(ctx context.Context, key Key) (Entry, error) {
	if _, ok := m.flows[key.Flow]; !ok {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownFlow, key.Flow)
	}

	entry, ok, err := m.store.Get(ctx, key)
	if err != nil {
		return Entry{}, fmt.Errorf("load flow state: %w", err)
	}
	if !ok {
		return Entry{State: StateViewing}, nil
	}
	return entry, nil
}

// Fire applies event to the flow at key. The draft argument is only read on
// the first Confirm. A failed write leaves the flow pending so it can be
// retried or cancelled.
func (m *Machine) Fire(ctx context.Context, key Key, event Event, draft string) (Transition, error) {
	flow, ok := m.flows[key.Flow]
	if !ok {
		return Transition{}, fmt.Errorf("%w: %q", ErrUnknownFlow, key.Flow)
	}

	current, err := m.State(ctx, key)
	if err != nil {
		return Transition{}, err
	}

	to, err := Next(current.State, event)
	if err != nil {
		return Transition{From: current.State, To: current.State, Draft: current.Draft}, err
	}

	tr := Transition{From: current.State, To: to}

	switch {
	case event == EventCancel:
		if err := m.store.Delete(ctx, key); err != nil {
			return tr, fmt.Errorf("clear flow state: %w", err)
		}
	case to == StatePendingConfirm:
		tr.Draft = draft
		if err := m.store.Put(ctx, key, Entry{State: to, Draft: draft}); err != nil {
			return tr, fmt.Errorf("store flow state: %w", err)
		}
	case to == StatePendingFinalConfirm:
		tr.Draft = current.Draft
		if err := m.store.Put(ctx, key, Entry{State: to, Draft: current.Draft}); err != nil {
			return tr, fmt.Errorf("store flow state: %w", err)
		}
	case event == EventFinalConfirm:
		tr.Draft = current.Draft
		modified, err := flow.Apply(ctx, key.DocumentID, current.Draft)
		if err != nil {
			m.logger.Warn("flow apply failed", "flow", key.Flow, "document", key.DocumentID, "err", err)
			return Transition{From: current.State, To: current.State, Draft: current.Draft}, fmt.Errorf("apply %s: %w", key.Flow, err)
		}
		tr.Applied = true
		tr.Modified = modified
		if err := m.store.Delete(ctx, key); err != nil {
			return tr, fmt.Errorf("clear flow state: %w", err)
		}
	}

	m.logger.Debug("flow transition",
		"flow", key.Flow,
		"document", key.DocumentID,
		"from", tr.From,
		"to", tr.To,
		"applied", tr.Applied,
	)
	return tr, nil
}
