package reconcile

import "regexp"

// Field names the treatment facts the reconciler can recover. The set
// mirrors the structured treatment object written by current clients.
type Field string

const (
	FieldBreathing        Field = "breathing"
	FieldAccess           Field = "access"
	FieldIntubation       Field = "intubation"
	FieldHemostasis       Field = "hemostasis"
	FieldPerfusors        Field = "perfusors"
	FieldMedicationText   Field = "medicationText"
	FieldExtendedMeasures Field = "extendedMeasures"
	FieldReanimation      Field = "reanimation"
	FieldThoraxDrainage   Field = "thoraxDrainage"
	FieldDecompression    Field = "decompression"
)

var knownFields = map[Field]struct{}{
	FieldBreathing:        {},
	FieldAccess:           {},
	FieldIntubation:       {},
	FieldHemostasis:       {},
	FieldPerfusors:        {},
	FieldMedicationText:   {},
	FieldExtendedMeasures: {},
	FieldReanimation:      {},
	FieldThoraxDrainage:   {},
	FieldDecompression:    {},
}

// ignoredKeys are legacy keys that show up in old records but were never
// treatment facts; they are dropped rather than surfaced as additional.
var ignoredKeys = map[string]struct{}{
	"circulation": {},
	"cSpine":      {},
	"analgesia":   {},
}

// AdditionalLabel collects free-text note segments that carry no
// recognizable label.
const AdditionalLabel = "Weitere Angaben"

// noteLabels maps the German labels used in dictated treatment notes onto
// fields.
var noteLabels = map[string]Field{
	"beatmung":             FieldBreathing,
	"zugang":               FieldAccess,
	"intubation":           FieldIntubation,
	"blutstillung":         FieldHemostasis,
	"perfusoren":           FieldPerfusors,
	"medikamente":          FieldMedicationText,
	"erweiterte maßnahmen": FieldExtendedMeasures,
	"reanimation":          FieldReanimation,
	"thoraxdrainage":       FieldThoraxDrainage,
	"dekompression":        FieldDecompression,
}

// fieldPatterns is the last-resort extraction against raw note text, one
// fixed pattern per field.
var fieldPatterns = map[Field]*regexp.Regexp{
	FieldBreathing:        regexp.MustCompile(`Beatmung: ([^.]+)\.`),
	FieldAccess:           regexp.MustCompile(`Zugang: ([^.]+)\.`),
	FieldIntubation:       regexp.MustCompile(`Intubation: ([^.]+)\.`),
	FieldHemostasis:       regexp.MustCompile(`Blutstillung: ([^.]+)\.`),
	FieldPerfusors:        regexp.MustCompile(`Perfusoren: ([^.]+)\.`),
	FieldMedicationText:   regexp.MustCompile(`Medikamente: ([^.]+)\.`),
	FieldExtendedMeasures: regexp.MustCompile(`Erweiterte Maßnahmen: ([^.]+)\.`),
	FieldReanimation:      regexp.MustCompile(`Reanimation: ([^.]+)\.`),
	FieldThoraxDrainage:   regexp.MustCompile(`Thoraxdrainage: ([^.]+)\.`),
	FieldDecompression:    regexp.MustCompile(`Dekompression: ([^.]+)\.`),
}
