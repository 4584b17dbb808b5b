package reconcile

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medrelay/session-api/internal/model"
)

func treatmentNote(content string, at time.Time) *model.Note {
	return &model.Note{
		Type:      model.NoteTypeTreatment,
		Content:   content,
		CreatedAt: at,
	}
}

func TestReconcileStructuredHistoryWins(t *testing.T) {
	record := &model.MedicalRecord{
		PatientHistory: json.RawMessage(`{"treatment":{"access":"IO","breathing":"assistiert"}}`),
	}
	notes := []*model.Note{treatmentNote("Zugang: PVK.", time.Now())}

	result := Reconcile(record, notes)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "IO", result.Fields[FieldAccess], "the structured source shadows the note entirely")
	assert.Equal(t, "assistiert", result.Fields[FieldBreathing])
	assert.Empty(t, result.Additional)
}

func TestReconcileStringEncodedHistory(t *testing.T) {
	// Older clients wrote the history as a JSON string that itself encodes
	// the object.
	encoded, err := json.Marshal(`{"treatment":{"intubation":"RSI vor Ort"}}`)
	require.NoError(t, err)

	result := Reconcile(&model.MedicalRecord{PatientHistory: encoded}, nil)
	assert.Equal(t, "RSI vor Ort", result.Fields[FieldIntubation])
}

func TestReconcileLegacyRootFields(t *testing.T) {
	record := &model.MedicalRecord{
		PatientHistory: json.RawMessage(`{"access":"ZVK","anamnesis":"unauffällig"}`),
	}

	result := Reconcile(record, nil)
	assert.Equal(t, "ZVK", result.Fields[FieldAccess])
	// Root scraping only picks up known treatment fields.
	assert.NotContains(t, result.Additional, "anamnesis")
}

func TestReconcileRecordTreatmentColumn(t *testing.T) {
	record := &model.MedicalRecord{
		Treatment: json.RawMessage(`{"hemostasis":"Tourniquet links","reanimation":true}`),
	}

	result := Reconcile(record, nil)
	assert.Equal(t, "Tourniquet links", result.Fields[FieldHemostasis])
	assert.Equal(t, "Ja", result.Fields[FieldReanimation], "booleans render as Ja/Nein")
}

func TestReconcileNoteSegments(t *testing.T) {
	notes := []*model.Note{
		treatmentNote("Zugang: PVK. Perfusoren: Keine. Reanimation: Nein.", time.Now()),
	}

	result := Reconcile(nil, notes)
	require.Len(t, result.Fields, 2)
	assert.Equal(t, "PVK", result.Fields[FieldAccess])
	assert.Equal(t, "Nein", result.Fields[FieldReanimation])
	_, hasPerfusors := result.Fields[FieldPerfusors]
	assert.False(t, hasPerfusors, `"Keine" means not provided`)
}

func TestReconcileUnlabeledSegments(t *testing.T) {
	notes := []*model.Note{
		treatmentNote("Beatmung: kontrolliert. Patient war initial nicht ansprechbar.", time.Now()),
	}

	result := Reconcile(nil, notes)
	assert.Equal(t, "kontrolliert", result.Fields[FieldBreathing])
	assert.Equal(t, "Patient war initial nicht ansprechbar", result.Additional[AdditionalLabel])
}

func TestReconcileUnknownLabelBecomesAdditional(t *testing.T) {
	notes := []*model.Note{
		treatmentNote("Zugang: PVK. Lagerung: Schocklage.", time.Now()),
	}

	result := Reconcile(nil, notes)
	assert.Equal(t, "PVK", result.Fields[FieldAccess])
	assert.Equal(t, "Schocklage", result.Additional["Lagerung"])
}

func TestReconcileUsesLatestTreatmentNote(t *testing.T) {
	now := time.Now()
	notes := []*model.Note{
		treatmentNote("Zugang: PVK.", now.Add(-time.Hour)),
		treatmentNote("Zugang: IO.", now),
		{Type: model.NoteTypeGeneral, Content: "Zugang: ZVK.", CreatedAt: now.Add(time.Hour)},
	}

	result := Reconcile(nil, notes)
	assert.Equal(t, "IO", result.Fields[FieldAccess], "only the newest TREATMENT note counts")
}

func TestReconcileIgnoredKeys(t *testing.T) {
	record := &model.MedicalRecord{
		PatientHistory: json.RawMessage(`{"treatment":{"circulation":"stabil","cSpine":"fixiert","access":"PVK"}}`),
	}

	result := Reconcile(record, nil)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "PVK", result.Fields[FieldAccess])
	assert.Empty(t, result.Additional, "ignored legacy keys never surface")
}

func TestReconcileEmptySourceFallsThrough(t *testing.T) {
	// The structured source exists but holds nothing usable, so the note
	// still gets its turn.
	record := &model.MedicalRecord{
		PatientHistory: json.RawMessage(`{"treatment":{"access":"keine"}}`),
	}
	notes := []*model.Note{treatmentNote("Zugang: IO.", time.Now())}

	result := Reconcile(record, notes)
	assert.Equal(t, "IO", result.Fields[FieldAccess])
}

func TestReconcileNeverFails(t *testing.T) {
	cases := []*model.MedicalRecord{
		nil,
		{},
		{PatientHistory: json.RawMessage(`not json at all`)},
		{PatientHistory: json.RawMessage(`"also { not json"`)},
		{PatientHistory: json.RawMessage(`[1,2,3]`)},
		{Treatment: json.RawMessage(`42`)},
	}
	for _, record := range cases {
		result := Reconcile(record, nil)
		assert.True(t, result.Empty())
		assert.NotNil(t, result.Fields, "an empty result is still renderable")
	}

	result := Reconcile(nil, []*model.Note{treatmentNote("   ", time.Now()), nil})
	assert.True(t, result.Empty())
}

func TestReconcileAllSourcesEmpty(t *testing.T) {
	// "Keine" at every stage, including the regex fallback, degrades to an
	// empty result rather than an error.
	notes := []*model.Note{treatmentNote("Zugang: Keine.", time.Now())}

	result := Reconcile(nil, notes)
	assert.True(t, result.Empty())
}

func TestNotePatterns(t *testing.T) {
	note := treatmentNote("Beatmung: assistiert. Medikamente: Fentanyl 0,1 mg.", time.Now())

	raw := fromNotePatterns(nil, note)
	assert.Equal(t, "assistiert", raw["breathing"])
	assert.Equal(t, "Fentanyl 0,1 mg", raw["medicationText"])
}

func TestNumericValuesStringify(t *testing.T) {
	record := &model.MedicalRecord{
		PatientHistory: json.RawMessage(`{"treatment":{"perfusors":2}}`),
	}

	result := Reconcile(record, nil)
	assert.Equal(t, "2", result.Fields[FieldPerfusors])
}
