package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/medrelay/session-api/internal/model"
	"github.com/medrelay/session-api/internal/repository"
)

// Service writes events into the transactional outbox. Publication to the
// broker happens asynchronously in the outbox processor; callers get
// at-most-once semantics and must never depend on delivery.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
