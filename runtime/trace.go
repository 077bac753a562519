// trace.go — the ordered, append-only log of structured events, spec.md §6.
package runtime

import (
	"encoding/json"
	"fmt"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
)

// EventKind is the closed set of trace event tags spec.md §6 names.
type EventKind string

const (
	EventInit   EventKind = "init"
	EventAssign EventKind = "asg"
	EventComm   EventKind = "com"
	EventSelect EventKind = "sel"
	EventRace   EventKind = "race"
	EventDisch  EventKind = "dis"
	EventIf     EventKind = "if"
	EventIfRace EventKind = "ifRace"
	EventCall   EventKind = "call"
	EventRet    EventKind = "ret"
)

// Event is one entry of a Trace: a kind tag, a printable message, and the
// source location it happened at (best-effort — synthetic events such as
// init bindings use a synthetic <init> location).
type Event struct {
	Kind    EventKind
	Message string
	Loc     ast.SourceRange
}

// String renders an event as spec.md §6 specifies:
// "<kind> @<file>:<line>:<col> <message>". An event whose location has no
// file is rendered as "<kind> <message>", without the "@..." part.
func (e Event) String() string {
	if e.Loc.File == "" {
		return fmt.Sprintf("%s %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s @%s:%d:%d %s", e.Kind, e.Loc.File, e.Loc.Start.Line, e.Loc.Start.Col, e.Message)
}

// Trace is the ordered sequence of events emitted by one simulator run.
type Trace struct {
	events []Event
}

// NewTrace returns an empty trace.
func NewTrace() *Trace { return &Trace{} }

// Append adds one event to the end of the trace. Its position is the total
// order of interpreter steps, never reordered afterwards.
func (t *Trace) Append(kind EventKind, message string, loc ast.SourceRange) {
	t.events = append(t.events, Event{Kind: kind, Message: message, Loc: loc})
}

// Events returns the trace's events in recorded order. Callers must not
// mutate the returned slice's backing array.
func (t *Trace) Events() []Event {
	return t.events
}

// Len reports how many events the trace currently holds.
func (t *Trace) Len() int { return len(t.events) }

// jsonEvent is Event's explicit wire shape: stable field names, no
// reflection-driven surprises if Event ever grows an unexported field.
type jsonEvent struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
}

// MarshalJSON renders the trace as an ordered array of events, for the
// --json CLI flag.
func (t *Trace) MarshalJSON() ([]byte, error) {
	out := make([]jsonEvent, len(t.events))
	for i, e := range t.events {
		out[i] = jsonEvent{Kind: string(e.Kind), Message: e.Message, File: e.Loc.File, Line: e.Loc.Start.Line, Col: e.Loc.Start.Col}
	}
	return json.Marshal(out)
}
