package model

import (
	"time"

	"github.com/google/uuid"
)

type PlanStepStatus string

const (
	PlanStepPending    PlanStepStatus = "PENDING"
	PlanStepInProgress PlanStepStatus = "IN_PROGRESS"
	PlanStepCompleted  PlanStepStatus = "COMPLETED"
)

func (s PlanStepStatus) IsValid() bool {
	switch s {
	case PlanStepPending, PlanStepInProgress, PlanStepCompleted:
		return true
	}
	return false
}

// PlanStep is one free-text treatment instruction. Step statuses advance
// independently; there is no ordering dependency between steps.
type PlanStep struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	PlanID      uuid.UUID      `db:"plan_id" json:"plan_id"`
	Position    int            `db:"position" json:"position"`
	Description string         `db:"description" json:"description"`
	Status      PlanStepStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// TreatmentPlan is the doctor-authored diagnosis plus ordered steps for one
// session. Composition (diagnosis, add/delete step) is frozen once SentAt is
// set; step statuses keep advancing while the plan is executed.
type TreatmentPlan struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	SessionID uuid.UUID  `db:"session_id" json:"session_id"`
	Diagnosis string     `db:"diagnosis" json:"diagnosis,omitempty"`
	CreatedBy uuid.UUID  `db:"created_by" json:"created_by"`
	Steps     []PlanStep `json:"steps"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// Sent reports whether the plan has been released to the field team.
func (p *TreatmentPlan) Sent() bool {
	return p.SentAt != nil
}

type UpsertDiagnosisRequest struct {
	Diagnosis string `json:"diagnosis" binding:"required,max=4000"`
}

type AddPlanStepRequest struct {
	Description string `json:"description" binding:"required,max=2000"`
}

type UpdatePlanStepStatusRequest struct {
	Status PlanStepStatus `json:"status" binding:"required,oneof=PENDING IN_PROGRESS COMPLETED"`
}
