package vitals

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
	"github.com/medrelay/session-api/pkg/errors"
	"github.com/medrelay/session-api/pkg/metrics"
)

// consciousnessLevels is the AVPU scale plus the orientation grades some
// monitors report.
var consciousnessLevels = map[string]struct{}{
	"ALERT":        {},
	"VERBAL":       {},
	"PAIN":         {},
	"UNRESPONSIVE": {},
	"ORIENTED":     {},
	"CONFUSED":     {},
}

// Service is the append-only vital sign store. Rows are immutable; the
// current value of a type is always derived by maximum recorded timestamp,
// never stored.
type Service struct {
	repo    repository.VitalSignRepository
	metrics *metrics.Metrics
}

// NewService wires the vital sign store. A nil metrics handle disables
// instrumentation.
func NewService(repo repository.VitalSignRepository, m *metrics.Metrics) *Service {
	return &Service{repo: repo, metrics: m}
}

// Record appends a measurement. Validation is structural only: the value
// must fit the type's declared domain (numeric, a "<n"/">n" bounded
// sentinel, the blood pressure composite, or an enumerated level). No
// physiological plausibility check happens here.
func (s *Service) Record(ctx context.Context, actor model.Actor, sessionID uuid.UUID, req *model.RecordVitalRequest) (*model.VitalSign, error) {
	if !req.Type.IsValid() {
		return nil, errors.Validation("unknown vital sign type", nil)
	}
	if err := validateValue(req.Type, req.Value); err != nil {
		return nil, err
	}

	vital := &model.VitalSign{
		SessionID:  sessionID,
		Type:       req.Type,
		Value:      strings.TrimSpace(req.Value),
		Unit:       req.Unit,
		RecordedBy: actor.ID,
	}
	if err := s.repo.Append(ctx, vital); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.VitalsRecorded.WithLabelValues(string(vital.Type)).Inc()
	}
	return vital, nil
}

// ResolveLatest returns the most recent measurement of the given type. A
// NotFound error means "not measured yet", which callers render as empty
// state, distinct from any recorded value.
func (s *Service) ResolveLatest(ctx context.Context, sessionID uuid.UUID, vitalType model.VitalType) (*model.VitalSign, error) {
	if !vitalType.IsValid() {
		return nil, errors.Validation("unknown vital sign type", nil)
	}
	return s.repo.Latest(ctx, sessionID, vitalType)
}

// ResolveCurrent returns the latest measurement per type for the session.
func (s *Service) ResolveCurrent(ctx context.Context, sessionID uuid.UUID) (map[model.VitalType]*model.VitalSign, error) {
	all, err := s.repo.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	current := make(map[model.VitalType]*model.VitalSign)
	for _, v := range all {
		best, ok := current[v.Type]
		if !ok || v.RecordedAt.After(best.RecordedAt) {
			current[v.Type] = v
		}
	}
	return current, nil
}

func (s *Service) List(ctx context.Context, sessionID uuid.UUID) ([]*model.VitalSign, error) {
	return s.repo.List(ctx, sessionID)
}

func validateValue(vitalType model.VitalType, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return errors.Validation("value is required", nil)
	}

	switch vitalType {
	case model.VitalBloodPressure:
		_, err := ParseBloodPressure(value)
		return err
	case model.VitalConsciousness:
		if _, ok := consciousnessLevels[strings.ToUpper(value)]; !ok {
			return errors.Validation("unknown consciousness level", nil)
		}
		return nil
	case model.VitalPainLevel:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 10 {
			return errors.Validation("pain level must be an integer between 0 and 10", nil)
		}
		return nil
	default:
		if _, ok := boundOf(value); !ok {
			return errors.Validation("value must be numeric or a bounded sentinel", nil)
		}
		return nil
	}
}
