package models

import "time"

type OutcomeKind string

const (
	OutcomeSuccess OutcomeKind = "success"
	OutcomeFailure OutcomeKind = "failure"
)

// RequestSnapshot is exactly what the tester sent
type RequestSnapshot struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body,omitempty"`
}

// TestOutcome is the terminal result of one tester run. Success carries the
// response fields and the request snapshot; Failure carries Error and
// CORSError only. corsError is always serialised.
type TestOutcome struct {
	Kind OutcomeKind `json:"kind"`

	Status     int               `json:"status,omitempty"`
	StatusText string            `json:"statusText,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Data       interface{}       `json:"data,omitempty"`
	Request    *RequestSnapshot  `json:"requestDetails,omitempty"`

	Error     string `json:"error,omitempty"`
	CORSError bool   `json:"corsError"`

	SettledAt time.Time     `json:"settledAt"`
	Duration  time.Duration `json:"-"`
}

func (o TestOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess
}

// StatusOK reports a 2xx response
func (o TestOutcome) StatusOK() bool {
	return o.Status >= 200 && o.Status < 300
}
