package model

import (
	"time"

	"github.com/google/uuid"
)

type VitalType string

const (
	VitalHeartRate        VitalType = "HEART_RATE"
	VitalBloodPressure    VitalType = "BLOOD_PRESSURE"
	VitalOxygenSaturation VitalType = "OXYGEN_SATURATION"
	VitalRespiratoryRate  VitalType = "RESPIRATORY_RATE"
	VitalTemperature      VitalType = "TEMPERATURE"
	VitalBloodGlucose     VitalType = "BLOOD_GLUCOSE"
	VitalPainLevel        VitalType = "PAIN_LEVEL"
	VitalConsciousness    VitalType = "CONSCIOUSNESS"
)

func (t VitalType) IsValid() bool {
	switch t {
	case VitalHeartRate, VitalBloodPressure, VitalOxygenSaturation,
		VitalRespiratoryRate, VitalTemperature, VitalBloodGlucose,
		VitalPainLevel, VitalConsciousness:
		return true
	}
	return false
}

// VitalSign is a single timestamped measurement. Rows are append-only and
// never mutated; the "current" value per type is derived by max RecordedAt.
// Value is a string because several types carry non-numeric payloads: the
// blood pressure composite "120/80", bounded sentinels such as "<20" or
// ">190", and enumerated consciousness levels.
type VitalSign struct {
	ID         uuid.UUID `db:"id" json:"id"`
	SessionID  uuid.UUID `db:"session_id" json:"session_id"`
	Type       VitalType `db:"type" json:"type"`
	Value      string    `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	RecordedBy uuid.UUID `db:"recorded_by" json:"recorded_by"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

type RecordVitalRequest struct {
	Type  VitalType `json:"type" binding:"required,vitaltype"`
	Value string    `json:"value" binding:"required,max=32"`
	Unit  string    `json:"unit" binding:"max=16"`
}
