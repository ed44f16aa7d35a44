package main

import (
	"context"
	"fmt"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/logitrack/logitrack-backend/pkg/config"
	"github.com/logitrack/logitrack-backend/pkg/db/models"
	"github.com/logitrack/logitrack-backend/pkg/enums"
	"github.com/logitrack/logitrack-backend/pkg/logger"
)

type memRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (m *memRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var pending []models.OutboxEvent
	for _, event := range m.events {
		if event.PublishedAt != nil {
			continue
		}
		if maxAttempts > 0 && event.AttemptCount >= maxAttempts {
			continue
		}
		pending = append(pending, event)
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (m *memRepo) MarkPublished(id uuid.UUID) error {
	for i := range m.events {
		if m.events[i].ID == id {
			now := time.Now()
			m.events[i].PublishedAt = &now
		}
	}
	m.published = append(m.published, id)
	return nil
}

func (m *memRepo) MarkFailed(id uuid.UUID, err error) error {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events[i].AttemptCount++
		}
	}
	m.failed = append(m.failed, id)
	return nil
}

type stubResult struct {
	err error
}

func (s stubResult) Get(context.Context) (string, error) {
	return "msg-1", s.err
}

type stubPublisher struct {
	calls   int
	failFor map[enums.OutboxEventType]error
}

func (s *stubPublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	s.calls++
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	if err, ok := s.failFor[eventType]; ok {
		return stubResult{err: err}
	}
	return stubResult{}
}

func testService(t *testing.T, repo outboxRepository, pub publisher) *Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Config:     &config.Config{},
		Logger:     logger.New(logger.Options{ServiceName: "outbox-test", Level: zerolog.Disabled}),
		Repository: repo,
		Publisher:  pub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func pendingEvent(eventType enums.OutboxEventType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateShipment,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		CreatedAt:     time.Now(),
	}
}

func TestDrainBatchPublishesAndMarks(t *testing.T) {
	repo := &memRepo{events: []models.OutboxEvent{
		pendingEvent(enums.EventShipmentCreated),
		pendingEvent(enums.EventCODCollected),
	}}
	pub := &stubPublisher{}
	svc := testService(t, repo, pub)

	processed, err := svc.drainBatch(context.Background())
	if err != nil {
		t.Fatalf("drainBatch: %v", err)
	}
	if processed != 2 {
		t.Fatalf("expected 2 processed, got %d", processed)
	}
	if pub.calls != 2 {
		t.Fatalf("expected 2 publish calls, got %d", pub.calls)
	}
	if len(repo.published) != 2 || len(repo.failed) != 0 {
		t.Fatalf("expected 2 published and 0 failed, got %d/%d", len(repo.published), len(repo.failed))
	}

	processed, err = svc.drainBatch(context.Background())
	if err != nil {
		t.Fatalf("second drainBatch: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected empty second batch, got %d", processed)
	}
}

func TestDrainBatchFailureDoesNotBlockTheRest(t *testing.T) {
	bad := pendingEvent(enums.EventShipmentCreated)
	good := pendingEvent(enums.EventCODReconciled)
	repo := &memRepo{events: []models.OutboxEvent{bad, good}}
	pub := &stubPublisher{failFor: map[enums.OutboxEventType]error{
		enums.EventShipmentCreated: fmt.Errorf("topic unavailable"),
	}}
	svc := testService(t, repo, pub)

	processed, err := svc.drainBatch(context.Background())
	if err != nil {
		t.Fatalf("drainBatch: %v", err)
	}
	if processed != 2 {
		t.Fatalf("expected 2 processed, got %d", processed)
	}
	if len(repo.failed) != 1 || repo.failed[0] != bad.ID {
		t.Fatalf("expected the failing event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != good.ID {
		t.Fatalf("expected the good event published, got %v", repo.published)
	}
}

func TestDrainBatchSkipsExhaustedEvents(t *testing.T) {
	exhausted := pendingEvent(enums.EventShipmentCreated)
	exhausted.AttemptCount = defaultMaxAttempts
	repo := &memRepo{events: []models.OutboxEvent{exhausted}}
	pub := &stubPublisher{}
	svc := testService(t, repo, pub)

	processed, err := svc.drainBatch(context.Background())
	if err != nil {
		t.Fatalf("drainBatch: %v", err)
	}
	if processed != 0 || pub.calls != 0 {
		t.Fatalf("expected exhausted event skipped, processed=%d calls=%d", processed, pub.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := &memRepo{}
	svc := testService(t, repo, &stubPublisher{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := svc.Run(ctx); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewServiceAppliesDefaults(t *testing.T) {
	svc := testService(t, &memRepo{}, &stubPublisher{})

	if svc.batchSize != defaultBatchSize {
		t.Fatalf("expected default batch size, got %d", svc.batchSize)
	}
	if svc.maxAttempts != defaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", svc.maxAttempts)
	}
	if svc.pollInterval != time.Duration(defaultPollMs)*time.Millisecond {
		t.Fatalf("unexpected poll interval %s", svc.pollInterval)
	}
}
