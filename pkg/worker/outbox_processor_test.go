package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/pkg/logger"
	"github.com/carelink/portal-api/pkg/metrics"
)

var (
	metricsOnce   sync.Once
	sharedMetrics *metrics.Metrics
)

func testMetrics() *metrics.Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = metrics.NewMetrics("portal", "workertest")
	})
	return sharedMetrics
}

type fakeOutboxRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*model.OutboxEvent
}

func newFakeOutboxRepo() *fakeOutboxRepo {
	return &fakeOutboxRepo{events: make(map[uuid.UUID]*model.OutboxEvent)}
}

func (f *fakeOutboxRepo) add(eventType string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.events[id] = &model.OutboxEvent{
		ID:        id,
		EventType: eventType,
		Payload:   json.RawMessage(`{}`),
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return id
}

func (f *fakeOutboxRepo) status(id uuid.UUID) model.OutboxStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id].Status
}

func (f *fakeOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	event.ID = uuid.New()
	event.Status = model.OutboxStatusPending
	copied := *event
	f.events[event.ID] = &copied
	return nil
}

func (f *fakeOutboxRepo) CreateTx(ctx context.Context, _ *sqlx.Tx, event *model.OutboxEvent) error {
	return f.Create(ctx, event)
}

// ClaimPendingEvents mirrors the production claim: pending events move to
// processing and are handed out exactly once.
func (f *fakeOutboxRepo) ClaimPendingEvents(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var claimed []*model.OutboxEvent
	for _, e := range f.events {
		if e.Status != model.OutboxStatusPending {
			continue
		}
		e.Status = model.OutboxStatusProcessing
		copied := *e
		claimed = append(claimed, &copied)
		if len(claimed) == limit {
			break
		}
	}
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].CreatedAt.Before(claimed[j].CreatedAt) })
	return claimed, nil
}

func (f *fakeOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return errors.New("unknown event")
	}
	e.Status = status
	e.ErrorMessage = errorMessage
	if status == model.OutboxStatusFailed {
		e.RetryCount++
	}
	if status == model.OutboxStatusProcessed {
		now := time.Now()
		e.ProcessedAt = &now
	}
	return nil
}

func (f *fakeOutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for id, e := range f.events {
		if e.Status == model.OutboxStatusProcessed && e.ProcessedAt != nil && e.ProcessedAt.Before(before) {
			delete(f.events, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeBroker struct {
	mu        sync.Mutex
	published map[string]int
	fail      bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{published: make(map[string]int)}
}

func (f *fakeBroker) Publish(_ context.Context, channel string, _ interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.published[channel]++
	return nil
}

func (f *fakeBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	ch := make(chan []byte)
	close(ch)
	return ch, nil
}

func (f *fakeBroker) Close() error { return nil }

func newTestProcessor(repo *fakeOutboxRepo, broker *fakeBroker) *OutboxProcessor {
	return NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  time.Second,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, logger.NewLogger(nil), testMetrics())
}

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()
	p := newTestProcessor(repo, broker)

	id := repo.add(model.EventAppointmentConfirmed)

	require.NoError(t, p.processEvents(ctx))
	assert.Equal(t, 1, broker.published[model.EventAppointmentConfirmed])
	assert.Equal(t, model.OutboxStatusProcessed, repo.status(id))
}

func TestProcessEventsClaimsEachEventOnce(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()
	p := newTestProcessor(repo, broker)

	repo.add(model.EventAppointmentBooked)
	repo.add(model.EventAppointmentBooked)

	require.NoError(t, p.processEvents(ctx))
	require.NoError(t, p.processEvents(ctx))

	// The second pass finds nothing claimable; events are never re-published.
	assert.Equal(t, 2, broker.published[model.EventAppointmentBooked])
}

func TestProcessEventsMarksFailedAfterRetries(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()
	broker.fail = true
	p := newTestProcessor(repo, broker)

	id := repo.add(model.EventAppointmentCancelled)

	require.NoError(t, p.processEvents(ctx))
	assert.Equal(t, model.OutboxStatusFailed, repo.status(id))
	assert.Equal(t, 1, repo.events[id].RetryCount)
	require.NotNil(t, repo.events[id].ErrorMessage)
}

func TestDeleteProcessedBefore(t *testing.T) {
	ctx := context.Background()
	repo := newFakeOutboxRepo()
	broker := newFakeBroker()
	p := newTestProcessor(repo, broker)

	id := repo.add(model.EventAppointmentCompleted)
	require.NoError(t, p.processEvents(ctx))
	require.Equal(t, model.OutboxStatusProcessed, repo.status(id))

	deleted, err := repo.DeleteProcessedBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
