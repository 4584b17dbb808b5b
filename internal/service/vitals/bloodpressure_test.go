package vitals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/pkg/errors"
)

func TestParseBloodPressure(t *testing.T) {
	bp, err := ParseBloodPressure("120/80")
	require.NoError(t, err)
	assert.Equal(t, "120", bp.Systolic)
	assert.Equal(t, "80", bp.Diastolic)

	// Bounded sentinels compare by their bound.
	bp, err = ParseBloodPressure(">190/100")
	require.NoError(t, err)
	assert.Equal(t, ">190", bp.Systolic)

	_, err = ParseBloodPressure("<90/60")
	assert.NoError(t, err)

	// A lone systolic reading is a valid measurement.
	bp, err = ParseBloodPressure("120/")
	require.NoError(t, err)
	assert.Equal(t, "120", bp.Systolic)
	assert.Empty(t, bp.Diastolic)
}

func TestParseBloodPressureRejectsInverted(t *testing.T) {
	_, err := ParseBloodPressure("80/120")
	assert.True(t, errors.Is(err, errors.ErrValidation), "systolic below diastolic must be rejected")

	// Equal readings pass; the rule is >=, not >.
	_, err = ParseBloodPressure("100/100")
	assert.NoError(t, err)
}

func TestParseBloodPressureMalformed(t *testing.T) {
	cases := []string{"120", "/80", "abc/80", "120/xyz", ""}
	for _, value := range cases {
		_, err := ParseBloodPressure(value)
		assert.True(t, errors.Is(err, errors.ErrValidation), "expected validation error for %q", value)
	}
}
