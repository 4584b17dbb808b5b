package vitals

import (
	"strconv"
	"strings"

	"github.com/medrelay/session-api/pkg/errors"
)

// BloodPressure is the decoded "<systolic>/<diastolic>" composite. The
// components keep their original string form because either side may be a
// bounded sentinel such as ">190".
type BloodPressure struct {
	Systolic  string
	Diastolic string
}

// boundOf returns the numeric bound of a reading, treating "<n" and ">n"
// sentinels by their bound value.
func boundOf(reading string) (float64, bool) {
	trimmed := strings.TrimSpace(reading)
	trimmed = strings.TrimLeft(trimmed, "<>")
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseBloodPressure validates the composite value. This is the single
// authoritative owner of the systolic >= diastolic rule: every entry point
// records blood pressure through here. The rule only applies when both
// components are supplied; a lone systolic reading ("120/") is accepted.
func ParseBloodPressure(value string) (*BloodPressure, error) {
	parts := strings.SplitN(value, "/", 2)
	if len(parts) != 2 {
		return nil, errors.Validation("blood pressure must be <systolic>/<diastolic>", nil)
	}

	bp := &BloodPressure{
		Systolic:  strings.TrimSpace(parts[0]),
		Diastolic: strings.TrimSpace(parts[1]),
	}
	if bp.Systolic == "" {
		return nil, errors.Validation("systolic reading is required", nil)
	}

	sys, ok := boundOf(bp.Systolic)
	if !ok {
		return nil, errors.Validation("systolic reading is not numeric", nil)
	}

	if bp.Diastolic == "" {
		return bp, nil
	}
	dia, ok := boundOf(bp.Diastolic)
	if !ok {
		return nil, errors.Validation("diastolic reading is not numeric", nil)
	}
	if sys < dia {
		return nil, errors.Validation("systolic must not be below diastolic", nil)
	}
	return bp, nil
}
