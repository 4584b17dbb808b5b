package model

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionStatusOpen       SessionStatus = "OPEN"
	SessionStatusAssigned   SessionStatus = "ASSIGNED"
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
	SessionStatusCancelled  SessionStatus = "CANCELLED"
)

// lawfulTransitions is the full forward-only transition set. CANCELLED is
// reachable from every non-terminal state.
var lawfulTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusOpen:       {SessionStatusAssigned, SessionStatusInProgress, SessionStatusCancelled},
	SessionStatusAssigned:   {SessionStatusInProgress, SessionStatusCompleted, SessionStatusCancelled},
	SessionStatusInProgress: {SessionStatusCompleted, SessionStatusCancelled},
}

// CanTransitionTo reports whether moving from s to target is lawful.
// Terminal states allow nothing.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	for _, allowed := range lawfulTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusCompleted || s == SessionStatusCancelled
}

func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusOpen, SessionStatusAssigned, SessionStatusInProgress,
		SessionStatusCompleted, SessionStatusCancelled:
		return true
	}
	return false
}

type SessionPriority string

const (
	SessionPriorityLow    SessionPriority = "LOW"
	SessionPriorityNormal SessionPriority = "NORMAL"
	SessionPriorityHigh   SessionPriority = "HIGH"
)

func (p SessionPriority) IsValid() bool {
	switch p {
	case SessionPriorityLow, SessionPriorityNormal, SessionPriorityHigh:
		return true
	}
	return false
}

// Session is one emergency-response case tracked from creation to closure.
// It is owned by its creating medic until a doctor claims it.
type Session struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	PatientCode  string          `db:"patient_code" json:"patient_code"`
	Status       SessionStatus   `db:"status" json:"status"`
	Priority     SessionPriority `db:"priority" json:"priority"`
	CreatedBy    uuid.UUID       `db:"created_by" json:"created_by"`
	AssignedTo   *uuid.UUID      `db:"assigned_to" json:"assigned_to,omitempty"`
	CompleteNote *string         `db:"complete_note" json:"complete_note,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
	CompletedAt  *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
}

type CreateSessionRequest struct {
	PatientCode string          `json:"patient_code" binding:"required,max=64"`
	Priority    SessionPriority `json:"priority" binding:"required,oneof=LOW NORMAL HIGH"`
}

type AssignSessionRequest struct {
	DoctorID         uuid.UUID `json:"doctor_id" binding:"required"`
	StartImmediately bool      `json:"start_immediately"`
}

type TransitionRequest struct {
	Status SessionStatus `json:"status" binding:"required"`
}

type CompleteSessionRequest struct {
	Reason string `json:"reason" binding:"max=2000"`
}

type SessionFilters struct {
	Status     SessionStatus
	Priority   SessionPriority
	CreatedBy  uuid.UUID
	AssignedTo uuid.UUID
}
