// result.go — the simulator's public output contract, spec.md §4.4.1.
package sim

import (
	"encoding/json"

	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

// Result holds everything Simulator.Run produces. Ok is false exactly when
// Diagnostic is non-nil (the first, and only, runtime fault of the run). All
// other fields are populated with whatever partial state interpretation
// reached before stopping, successful or not (spec.md §4.4.1).
type Result struct {
	Ok    bool
	Store *runtime.Store
	Races *runtime.Memory
	Trace *runtime.Trace

	Diagnostic *Diagnostic

	// RunID correlates this result with the logs emitted for the same
	// Simulator.Run call (ambient: see SPEC_FULL.md "Run correlation").
	RunID string
}

type jsonRaceEntry struct {
	Left       string `json:"left"`
	Right      string `json:"right"`
	Winner     string `json:"winner"`
	Loser      string `json:"loser"`
	VWinner    string `json:"vWinner"`
	VLoser     string `json:"vLoser"`
	Discharged bool   `json:"discharged"`
}

type jsonDiagnostic struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

type jsonResult struct {
	RunID      string                   `json:"runId"`
	Ok         bool                     `json:"ok"`
	Diagnostic *jsonDiagnostic          `json:"diagnostic,omitempty"`
	Store      map[string]string        `json:"store"`
	Races      map[string]jsonRaceEntry `json:"races"`
	Trace      *runtime.Trace           `json:"trace"`
}

// MarshalJSON renders the result with stable, explicit field names, for the
// --json CLI flag.
func (r Result) MarshalJSON() ([]byte, error) {
	store := make(map[string]string)
	for k, v := range r.Store.Snapshot() {
		store[k] = v.String()
	}

	races := make(map[string]jsonRaceEntry)
	for k, e := range r.Races.Snapshot() {
		races[k] = jsonRaceEntry{
			Left: e.LeftProc, Right: e.RightProc,
			Winner: e.WinnerProc, Loser: e.LoserProc,
			VWinner: e.VWinner.String(), VLoser: e.VLoser.String(),
			Discharged: e.Discharged,
		}
	}

	var diag *jsonDiagnostic
	if r.Diagnostic != nil {
		diag = &jsonDiagnostic{Kind: string(r.Diagnostic.Kind), File: r.Diagnostic.File, Line: r.Diagnostic.Line, Col: r.Diagnostic.Col, Message: r.Diagnostic.Message}
	}

	return json.Marshal(jsonResult{RunID: r.RunID, Ok: r.Ok, Diagnostic: diag, Store: store, Races: races, Trace: r.Trace})
}
