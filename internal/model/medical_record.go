package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MedicalRecord holds the semi-structured anamnesis for a session, 1:1 with
// Session. PatientHistory is shape-ambiguous by source: depending on which
// client wrote it, the column contains either a JSON object or a JSON string
// that itself encodes an object. It is stored verbatim and normalized only
// where it is read (see service/reconcile).
type MedicalRecord struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	SessionID          uuid.UUID       `db:"session_id" json:"session_id"`
	PatientHistory     json.RawMessage `db:"patient_history" json:"patient_history,omitempty"`
	Allergies          string          `db:"allergies" json:"allergies,omitempty"`
	CurrentMedications string          `db:"current_medications" json:"current_medications,omitempty"`
	Treatment          json.RawMessage `db:"treatment" json:"treatment,omitempty"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updated_at"`
}

type UpsertMedicalRecordRequest struct {
	PatientHistory     json.RawMessage `json:"patient_history"`
	Allergies          string          `json:"allergies" binding:"max=2000"`
	CurrentMedications string          `json:"current_medications" binding:"max=2000"`
}
