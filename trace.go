package dispatch

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Outcome classifies a backend attempt or a whole call.
type Outcome string

const (
	OutcomeHandled        Outcome = "handled"
	OutcomeDeclined       Outcome = "declined"
	OutcomeError          Outcome = "error"
	OutcomeDefault        Outcome = "default"
	OutcomeNotImplemented Outcome = "not_implemented"
)

// Trace captures the backends a call visited, in order, and how it ended.
type Trace struct {
	CallID   string    `json:"call_id"`
	Function string    `json:"function,omitempty"`
	Domain   string    `json:"domain"`
	Backend  string    `json:"backend,omitempty"`
	Outcome  Outcome   `json:"outcome"`
	Attempts []Attempt `json:"attempts"`
}

// Attempt details one backend visited by a call.
type Attempt struct {
	Backend string  `json:"backend"`
	Coerce  bool    `json:"coerce,omitempty"`
	Outcome Outcome `json:"outcome"`
	Stage   Stage   `json:"stage,omitempty"`
	Err     string  `json:"error,omitempty"`
}

func newTrace(f *Function) Trace {
	return Trace{
		CallID:   uuid.NewString(),
		Function: f.name,
		Domain:   f.domain,
	}
}

func (t *Trace) record(attempt Attempt) {
	t.Attempts = append(t.Attempts, attempt)
	if attempt.Outcome == OutcomeHandled {
		t.Backend = attempt.Backend
	}
}

func (a Attempt) declined(stage Stage) Attempt {
	a.Outcome = OutcomeDeclined
	a.Stage = stage
	return a
}

func (a Attempt) failed(err error) Attempt {
	a.Outcome = OutcomeError
	var backendErr *BackendError
	if errors.As(err, &backendErr) {
		a.Stage = backendErr.Stage
	}
	if err != nil {
		a.Err = err.Error()
	}
	return a
}

// Tried returns the backend names in the order they were attempted.
func (t Trace) Tried() []string {
	out := make([]string, len(t.Attempts))
	for i, attempt := range t.Attempts {
		out[i] = attempt.Backend
	}
	return out
}

// ToJSON serialises the trace for logging or transport.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload produced by ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
