package models

import (
	"time"

	"github.com/google/uuid"
)

// VideoRecord is one entry of a session's collection. Identifier holds the
// canonical YouTube id, never the raw submitted URL.
type VideoRecord struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Identifier  string    `json:"identifier"`
	CreatedAt   time.Time `json:"created_at"`
}

// Candidate is what a caller submits to the collection.
type Candidate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

type StatusKind string

const (
	StatusIdle       StatusKind = "idle"
	StatusValidating StatusKind = "validating"
	StatusError      StatusKind = "error"
)

type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message,omitempty"`
}

func IdleStatus() Status       { return Status{Kind: StatusIdle} }
func ValidatingStatus() Status { return Status{Kind: StatusValidating} }

func ErrorStatus(message string) Status {
	return Status{Kind: StatusError, Message: message}
}

// CollectionState is a read-only snapshot handed to consumers. Version grows
// with every change so consumers can drop snapshots that arrive out of order.
type CollectionState struct {
	Records []VideoRecord `json:"records"`
	Status  Status        `json:"status"`
	IsBusy  bool          `json:"is_busy"`
	Version uint64        `json:"version"`
}

// Verdict is the outcome of a remote validation call.
type Verdict string

const (
	VerdictValid       Verdict = "valid"
	VerdictRejected    Verdict = "rejected"
	VerdictUnavailable Verdict = "unavailable"
)

// FailurePolicy decides how rejected and unavailable validations are reported.
type FailurePolicy string

const (
	CollapseFailures    FailurePolicy = "collapse"
	DistinguishFailures FailurePolicy = "distinguish"
)
