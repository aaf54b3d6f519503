package cases

import (
	"errors"
	"time"
)

// Case is one incident record in the intake register.
type Case struct {
	ID           string    `json:"id"`
	Number       string    `json:"number"`
	Description  string    `json:"description"`
	Type         Type      `json:"type"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`
	Location     string    `json:"location"`
	IncidentAt   time.Time `json:"incident_at"`
	OperatorName string    `json:"operator_name"`
	CreatedBy    string    `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Type classifies the incident.
type Type string

const (
	TypeTheft      Type = "theft"
	TypeAssault    Type = "assault"
	TypeFraud      Type = "fraud"
	TypeVandalism  Type = "vandalism"
	TypeCCTVReview Type = "cctv-review"
	TypeOther      Type = "other"
)

// Types returns the closed type enumeration.
func Types() []Type {
	return []Type{TypeTheft, TypeAssault, TypeFraud, TypeVandalism, TypeCCTVReview, TypeOther}
}

// Priority orders triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities returns the closed priority enumeration.
func Priorities() []Priority {
	return []Priority{PriorityLow, PriorityMedium, PriorityHigh}
}

// Status tracks case progress.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "inprogress"
	StatusClosed     Status = "closed"
)

// Statuses returns the closed status enumeration.
func Statuses() []Status {
	return []Status{StatusNew, StatusInProgress, StatusClosed}
}

// ErrInvalidTransition indicates a status change the workflow does not
// allow.
var ErrInvalidTransition = errors.New("cases: invalid status transition")

// transitions lists the allowed status moves. Closed cases can be
// reopened into inprogress, never back to new.
var transitions = map[Status][]Status{
	StatusNew:        {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusClosed},
	StatusClosed:     {StatusInProgress},
}

// CanTransition reports whether the workflow allows from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
