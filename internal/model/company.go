// Package model defines the core data types for the company summarizer.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."`
// annotations) tell serialization libraries how to map fields.
package model

import "time"

// ResultStatus is the terminal outcome for one company.
// Go doesn't have enums, so we use typed string constants.
type ResultStatus string

const (
	StatusSuccess ResultStatus = "success"
	StatusWarning ResultStatus = "warning"
	StatusError   ResultStatus = "error"
)

// Label is the human-readable form written to the output worksheet.
func (s ResultStatus) Label() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusWarning:
		return "Warning"
	case StatusError:
		return "Error"
	default:
		return string(s)
	}
}

// State is where a single company sits in the generation state machine:
//
//	Pending → Requesting → Validating → (Success | Warning | Error)
type State string

const (
	StatePending    State = "pending"
	StateRequesting State = "requesting"
	StateValidating State = "validating"
	StateSuccess    State = "success"
	StateWarning    State = "warning"
	StateError      State = "error"
)

// Terminal reports whether no further processing happens after s.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateWarning || s == StateError
}

// StateFor maps a terminal result status to its state.
func StateFor(status ResultStatus) State {
	switch status {
	case StatusSuccess:
		return StateSuccess
	case StatusWarning:
		return StateWarning
	default:
		return StateError
	}
}

// Parameters are the sampling parameters sent with every completion.
type Parameters struct {
	MaxTokens        int
	Temperature      float32
	TopP             float32
	FrequencyPenalty float32
	PresencePenalty  float32
}

// CompletionRequest is one fully rendered prompt plus its parameters.
// It is built once per company and never modified afterwards.
type CompletionRequest struct {
	CompanyName string
	Prompt      string
	Params      Parameters
}

// CompletionResult is what the completion layer hands back to its caller.
type CompletionResult struct {
	RawText  string
	Duration time.Duration
	Attempts int
}

// CompanyResult is the per-company row that ends up in the output worksheet.
// One is created for every input name, in input order.
type CompanyResult struct {
	CompanyName  string       `json:"company_name"`
	Summary      string       `json:"summary"`
	Status       ResultStatus `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Timestamp    time.Time    `json:"timestamp"`
	Attempts     int          `json:"attempts"`
	Metadata     Metadata     `json:"-"`
}
