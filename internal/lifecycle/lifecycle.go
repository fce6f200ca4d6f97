// Package lifecycle validates and applies status transitions for records whose
// only non-CRUD behaviour is moving through an enumerated status field.
package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind names an entity type with a status lifecycle.
type Kind string

const (
	KindInquiry        Kind = "inquiry"
	KindProposal       Kind = "proposal"
	KindBooking        Kind = "booking"
	KindTicket         Kind = "ticket"
	KindInvitationCode Kind = "invitation_code"
)

// Status is a value of an entity's status field.
type Status string

// Action is a transition command issued by an operator.
type Action string

const (
	ActionQualify    Action = "qualify"
	ActionDisqualify Action = "disqualify"
	ActionConvert    Action = "convert"
	ActionSend       Action = "send"
	ActionView       Action = "view"
	ActionAccept     Action = "accept"
	ActionReject     Action = "reject"
	ActionConfirm    Action = "confirm"
	ActionMarkPaid   Action = "mark_paid"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionStart      Action = "start"
	ActionAssign     Action = "assign"
	ActionResolve    Action = "resolve"
	ActionRedeem     Action = "redeem"
)

var knownActions = map[Action]struct{}{
	ActionQualify: {}, ActionDisqualify: {}, ActionConvert: {},
	ActionSend: {}, ActionView: {}, ActionAccept: {}, ActionReject: {},
	ActionConfirm: {}, ActionMarkPaid: {}, ActionComplete: {}, ActionCancel: {},
	ActionStart: {}, ActionAssign: {}, ActionResolve: {}, ActionRedeem: {},
}

// ParseAction converts a wire string into an Action. Unknown strings fail
// with ErrUnknownAction.
func ParseAction(raw string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownActions[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
	return a, nil
}

// Stamp names the timestamp field written when a transition lands.
type Stamp string

const (
	StampNone           Stamp = ""
	StampDisqualifiedAt Stamp = "disqualifiedAt"
	StampConvertedAt    Stamp = "convertedAt"
	StampSentAt         Stamp = "sentAt"
	StampViewedAt       Stamp = "viewedAt"
	StampAcceptedAt     Stamp = "acceptedAt"
	StampRejectedAt     Stamp = "rejectedAt"
	StampConfirmedAt    Stamp = "confirmedAt"
	StampPaidAt         Stamp = "paidAt"
	StampCompletedAt    Stamp = "completedAt"
	StampCancelledAt    Stamp = "cancelledAt"
	StampResolvedAt     Stamp = "resolvedAt"
	StampUsedAt         Stamp = "usedAt"
)

// Payload carries the optional data that accompanies a command.
type Payload struct {
	Reason string
	Notes  string
	Actor  string
}

// Result is the outcome of an accepted transition.
type Result struct {
	Kind   Kind
	From   Status
	To     Status
	Action Action
	Stamp  Stamp
	At     time.Time
	Reason string
	Notes  string
	Actor  string
}

type requirement uint8

const (
	needsReason requirement = 1 << iota
	needsActor
)

type edge struct {
	from     []Status
	to       Status
	stamp    Stamp
	requires requirement
}

// Machine is the transition table for one entity kind.
type Machine struct {
	kind     Kind
	initial  Status
	statuses map[Status]struct{}
	terminal map[Status]struct{}
	edges    map[Action]edge
}

// Kind returns the entity kind governed by the machine.
func (m *Machine) Kind() Kind { return m.kind }

// Initial returns the status new records start in.
func (m *Machine) Initial() Status { return m.initial }

// IsTerminal reports whether no transition leaves s.
func (m *Machine) IsTerminal(s Status) bool {
	_, ok := m.terminal[s]
	return ok
}

// Knows reports whether s is a valid status for the kind.
func (m *Machine) Knows(s Status) bool {
	_, ok := m.statuses[s]
	return ok
}

// Statuses lists every status of the kind.
func (m *Machine) Statuses() []Status {
	out := make([]Status, 0, len(m.statuses))
	for s := range m.statuses {
		out = append(out, s)
	}
	return out
}

// Validate checks the payload requirements of action without looking at the
// current status, so callers can reject a request before loading the record.
func (m *Machine) Validate(action Action, p Payload) error {
	e, ok := m.edges[action]
	if !ok {
		return m.reject("", action, ErrUnknownAction)
	}
	if e.requires&needsReason != 0 && strings.TrimSpace(p.Reason) == "" {
		return m.reject("", action, ErrReasonRequired)
	}
	if e.requires&needsActor != 0 && strings.TrimSpace(p.Actor) == "" {
		return m.reject("", action, ErrActorRequired)
	}
	return nil
}

// Apply decides whether action is legal from current and computes the
// resulting status and stamp.
func (m *Machine) Apply(current Status, action Action, p Payload, now time.Time) (Result, error) {
	e, ok := m.edges[action]
	if !ok {
		return Result{}, m.reject(current, action, ErrUnknownAction)
	}
	if m.IsTerminal(current) {
		return Result{}, m.reject(current, action, ErrAlreadyTerminal)
	}
	if !containsStatus(e.from, current) {
		return Result{}, m.reject(current, action, ErrIllegalTransition)
	}
	if err := m.Validate(action, p); err != nil {
		var te *TransitionError
		if errors.As(err, &te) {
			te.From = current
		}
		return Result{}, err
	}
	return Result{
		Kind:   m.kind,
		From:   current,
		To:     e.to,
		Action: action,
		Stamp:  e.stamp,
		At:     now.UTC(),
		Reason: strings.TrimSpace(p.Reason),
		Notes:  strings.TrimSpace(p.Notes),
		Actor:  strings.TrimSpace(p.Actor),
	}, nil
}

func (m *Machine) reject(from Status, action Action, err error) error {
	return &TransitionError{Kind: m.kind, From: from, Action: action, Err: err}
}

func containsStatus(list []Status, s Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
