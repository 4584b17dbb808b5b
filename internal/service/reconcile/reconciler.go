// Package reconcile reconstructs "what treatment has already been
// administered" from heterogeneous historical data. Records written over
// several client generations keep the information in different places and
// shapes; the reconciler probes each known location in priority order and
// takes the first source that yields anything. It never fails: corrupt or
// missing data at every stage degrades to an empty result, which is a
// valid, displayable state.
package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/medrelay/session-api/internal/model"
)

// Result is the normalized treatment history. Fields holds the recognized
// treatment facts; Additional holds recovered values outside the known set.
type Result struct {
	Fields     map[Field]string  `json:"fields"`
	Additional map[string]string `json:"additional,omitempty"`
}

// Empty reports whether nothing could be recovered from any source.
func (r Result) Empty() bool {
	return len(r.Fields) == 0 && len(r.Additional) == 0
}

// source is one named extraction strategy. It returns a raw key->value map,
// or nil when the source holds nothing. Sources are never merged: the first
// non-empty one wins outright.
type source struct {
	name    string
	extract func(record *model.MedicalRecord, note *model.Note) map[string]string
}

var sources = []source{
	{"history_treatment", fromHistoryTreatment},
	{"history_root", fromHistoryRoot},
	{"record_treatment", fromRecordTreatment},
	{"note_segments", fromNoteSegments},
	{"note_patterns", fromNotePatterns},
}

// Reconcile resolves the treatment history for a session from its medical
// record and notes. Both inputs may be nil/empty.
func Reconcile(record *model.MedicalRecord, notes []*model.Note) Result {
	note := latestTreatmentNote(notes)

	for _, src := range sources {
		raw := src.extract(record, note)
		if len(raw) == 0 {
			continue
		}
		if result := classify(raw); !result.Empty() {
			return result
		}
	}
	return Result{Fields: map[Field]string{}}
}

// classify splits a raw map into known fields and additional entries,
// dropping ignored keys and "none provided" values.
func classify(raw map[string]string) Result {
	result := Result{Fields: map[Field]string{}}
	for key, value := range raw {
		value = cleanValue(value)
		if value == "" {
			continue
		}
		if _, ignored := ignoredKeys[key]; ignored {
			continue
		}
		if _, known := knownFields[Field(key)]; known {
			result.Fields[Field(key)] = value
			continue
		}
		if result.Additional == nil {
			result.Additional = map[string]string{}
		}
		result.Additional[key] = value
	}
	return result
}

// cleanValue trims noise and discards "keine", which dictation clients
// write to mean "none provided".
func cleanValue(value string) string {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "."))
	if strings.EqualFold(value, "keine") {
		return ""
	}
	return value
}

// historyMap normalizes the shape-ambiguous patient_history column: the
// payload is either a JSON object or a JSON string that itself encodes an
// object. Anything unparseable counts as absent.
func historyMap(record *model.MedicalRecord) map[string]interface{} {
	if record == nil || len(record.PatientHistory) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(record.PatientHistory, &obj); err == nil {
		return obj
	}

	var encoded string
	if err := json.Unmarshal(record.PatientHistory, &encoded); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(encoded), &obj); err != nil {
		return nil
	}
	return obj
}

func stringify(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		if v {
			return "Ja"
		}
		return "Nein"
	default:
		return ""
	}
}

// fromHistoryTreatment reads the treatment object written by current
// clients: patientHistory.treatment.
func fromHistoryTreatment(record *model.MedicalRecord, _ *model.Note) map[string]string {
	history := historyMap(record)
	if history == nil {
		return nil
	}
	treatment, ok := history["treatment"].(map[string]interface{})
	if !ok {
		return nil
	}

	out := map[string]string{}
	for key, value := range treatment {
		if s := stringify(value); s != "" {
			out[key] = s
		}
	}
	return out
}

// fromHistoryRoot reads the legacy shape where treatment fields sat
// directly at the root of patientHistory.
func fromHistoryRoot(record *model.MedicalRecord, _ *model.Note) map[string]string {
	history := historyMap(record)
	if history == nil {
		return nil
	}

	out := map[string]string{}
	for key, value := range history {
		if _, known := knownFields[Field(key)]; !known {
			continue
		}
		if s := stringify(value); s != "" {
			out[key] = s
		}
	}
	return out
}

// fromRecordTreatment reads the oldest location, a treatment object on the
// medical record itself.
func fromRecordTreatment(record *model.MedicalRecord, _ *model.Note) map[string]string {
	if record == nil || len(record.Treatment) == 0 {
		return nil
	}

	var obj map[string]interface{}
	if err := json.Unmarshal(record.Treatment, &obj); err != nil {
		var encoded string
		if err := json.Unmarshal(record.Treatment, &encoded); err != nil {
			return nil
		}
		if err := json.Unmarshal([]byte(encoded), &obj); err != nil {
			return nil
		}
	}

	out := map[string]string{}
	for key, value := range obj {
		if s := stringify(value); s != "" {
			out[key] = s
		}
	}
	return out
}

// fromNoteSegments parses the most recent TREATMENT note: segments split on
// ". ", each split on the first ":" into label and value. Labeled segments
// map through the known German labels; unlabeled ones accumulate under the
// synthetic "Weitere Angaben" entry.
func fromNoteSegments(_ *model.MedicalRecord, note *model.Note) map[string]string {
	if note == nil || strings.TrimSpace(note.Content) == "" {
		return nil
	}

	out := map[string]string{}
	var leftovers []string

	for _, segment := range strings.Split(note.Content, ". ") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}

		label, value, found := strings.Cut(segment, ":")
		if !found || strings.TrimSpace(value) == "" {
			leftovers = append(leftovers, strings.TrimSuffix(segment, "."))
			continue
		}

		key := strings.ToLower(strings.TrimSpace(label))
		if field, ok := noteLabels[key]; ok {
			out[string(field)] = strings.TrimSpace(value)
		} else {
			out[strings.TrimSpace(label)] = strings.TrimSpace(value)
		}
	}

	if len(leftovers) > 0 {
		out[AdditionalLabel] = strings.Join(leftovers, ". ")
	}
	return out
}

// fromNotePatterns is the last resort: fixed per-field regular expressions
// against the raw note text.
func fromNotePatterns(_ *model.MedicalRecord, note *model.Note) map[string]string {
	if note == nil || note.Content == "" {
		return nil
	}

	out := map[string]string{}
	for field, pattern := range fieldPatterns {
		match := pattern.FindStringSubmatch(note.Content)
		if match == nil {
			continue
		}
		out[string(field)] = strings.TrimSpace(match[1])
	}
	return out
}

func latestTreatmentNote(notes []*model.Note) *model.Note {
	var latest *model.Note
	for _, n := range notes {
		if n == nil || n.Type != model.NoteTypeTreatment {
			continue
		}
		if latest == nil || n.CreatedAt.After(latest.CreatedAt) {
			latest = n
		}
	}
	return latest
}
