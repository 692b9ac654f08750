package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"tokoshop/internal/models"
	"tokoshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu     sync.Mutex
	sent   []Message
	failOn string
}

func (p *recordingPublisher) Publish(_ context.Context, msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.EventType == p.failOn {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.sent...)
}

func newOutbox(t *testing.T) *repositories.GORMOutboxRepository {
	t.Helper()
	db, err := repositories.OpenDatabase("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, repositories.Migrate(db, 1000))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return repositories.NewGORMOutboxRepository(db)
}

func TestOutboxPoller_PublishesInOrderAndMarks(t *testing.T) {
	outbox := newOutbox(t)
	ctx := context.Background()
	require.NoError(t, outbox.Append(ctx, "ORD-1001", models.EventOrderCreated, map[string]string{"order_number": "ORD-1001"}))
	require.NoError(t, outbox.Append(ctx, "ORD-1001", models.EventOrderPaid, map[string]string{"order_number": "ORD-1001"}))

	publisher := &recordingPublisher{}
	poller := NewOutboxPoller(outbox, publisher, time.Second)

	assert.Equal(t, 2, poller.ProcessOnce(ctx))
	sent := publisher.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, models.EventOrderCreated, sent[0].EventType)
	assert.Equal(t, models.EventOrderPaid, sent[1].EventType)
	assert.Equal(t, "ORD-1001", sent[0].Key)
	assert.JSONEq(t, `{"order_number":"ORD-1001"}`, string(sent[0].Body))

	assert.Equal(t, 0, poller.ProcessOnce(ctx))
	remaining, err := outbox.Unpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestOutboxPoller_StopsAtFirstFailure(t *testing.T) {
	outbox := newOutbox(t)
	ctx := context.Background()
	require.NoError(t, outbox.Append(ctx, "ORD-1001", models.EventOrderCreated, map[string]string{}))
	require.NoError(t, outbox.Append(ctx, "ORD-1001", models.EventOrderPaid, map[string]string{}))
	require.NoError(t, outbox.Append(ctx, "ORD-1001", models.EventOrderStatusChanged, map[string]string{}))

	publisher := &recordingPublisher{failOn: models.EventOrderPaid}
	poller := NewOutboxPoller(outbox, publisher, time.Second)

	assert.Equal(t, 1, poller.ProcessOnce(ctx))
	remaining, err := outbox.Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 2)
	assert.Equal(t, models.EventOrderPaid, remaining[0].EventType)

	publisher.failOn = ""
	assert.Equal(t, 2, poller.ProcessOnce(ctx))
}

type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) Append(ctx context.Context, aggregateID, eventType string, payload interface{}) error {
	return m.Called(ctx, aggregateID, eventType, payload).Error(0)
}

func (m *mockOutbox) Unpublished(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.OutboxEvent), args.Error(1)
}

func (m *mockOutbox) MarkPublished(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func TestOutboxPoller_StorageErrors(t *testing.T) {
	repo := new(mockOutbox)
	publisher := &recordingPublisher{}
	poller := NewOutboxPoller(repo, publisher, time.Second)
	ctx := context.Background()

	repo.On("Unpublished", mock.Anything, DefaultBatchSize).Return(nil, errors.New("database is locked")).Once()
	assert.Equal(t, 0, poller.ProcessOnce(ctx))

	// A failed mark leaves the event for redelivery
	repo.On("Unpublished", mock.Anything, DefaultBatchSize).
		Return([]models.OutboxEvent{{ID: 1, EventID: "e1", EventType: models.EventOrderCreated}, {ID: 2, EventID: "e2"}}, nil).Once()
	repo.On("MarkPublished", mock.Anything, uint(1)).Return(errors.New("database is locked")).Once()
	assert.Equal(t, 0, poller.ProcessOnce(ctx))
	assert.Len(t, publisher.messages(), 1)

	repo.AssertExpectations(t)
}

func TestOutboxPoller_RunStopsOnCancel(t *testing.T) {
	repo := new(mockOutbox)
	repo.On("Unpublished", mock.Anything, DefaultBatchSize).Return([]models.OutboxEvent{}, nil)
	poller := NewOutboxPoller(repo, &recordingPublisher{}, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		poller.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
	repo.AssertCalled(t, "Unpublished", mock.Anything, DefaultBatchSize)
}

type fakeWriter struct {
	written []kafka.Message
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_KeysByOrderAndSetsHeaders(t *testing.T) {
	writer := &fakeWriter{}
	publisher := NewKafkaPublisher(writer)

	err := publisher.Publish(context.Background(), Message{EventID: "e1", EventType: models.EventOrderPaid, Key: "ORD-1001", Body: []byte(`{}`)})
	require.NoError(t, err)
	require.Len(t, writer.written, 1)
	assert.Equal(t, "ORD-1001", string(writer.written[0].Key))
	assert.Equal(t, []kafka.Header{
		{Key: "event_type", Value: []byte(models.EventOrderPaid)},
		{Key: "event_id", Value: []byte("e1")},
	}, writer.written[0].Headers)

	require.NoError(t, publisher.Close())
	assert.True(t, writer.closed)
}

type mockRabbit struct {
	mock.Mock
}

func (m *mockRabbit) Publish(routingKey, messageID string, body []byte) error {
	return m.Called(routingKey, messageID, body).Error(0)
}

func (m *mockRabbit) Close() error {
	return m.Called().Error(0)
}

func TestRabbitPublisher_RoutesByEventType(t *testing.T) {
	client := new(mockRabbit)
	publisher := NewRabbitPublisher(client)
	body := []byte(`{"order_number":"ORD-1001"}`)

	client.On("Publish", models.EventOrderCreated, "e1", body).Return(nil).Once()
	require.NoError(t, publisher.Publish(context.Background(), Message{EventID: "e1", EventType: models.EventOrderCreated, Key: "ORD-1001", Body: body}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, publisher.Publish(ctx, Message{EventType: models.EventOrderPaid}))
	client.AssertExpectations(t)
}

func TestNewPublisher_Selection(t *testing.T) {
	p, client, err := NewPublisher(BrokerConfig{Broker: "none"})
	require.NoError(t, err)
	assert.IsType(t, LogPublisher{}, p)
	assert.Nil(t, client)

	p, _, err = NewPublisher(BrokerConfig{Broker: "kafka", KafkaBrokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	require.NoError(t, p.Close())

	_, _, err = NewPublisher(BrokerConfig{Broker: "kafka"})
	assert.Error(t, err)
	_, _, err = NewPublisher(BrokerConfig{Broker: "carrier-pigeon"})
	assert.Error(t, err)
}

func TestHandleOrderMessage(t *testing.T) {
	ok := amqp.Delivery{
		RoutingKey: models.EventOrderPaid,
		Body:       []byte(`{"order_number":"ORD-1001","owner_id":"alice","status":"processing","payment_status":"paid","total_amount":"37.25"}`),
	}
	assert.NoError(t, HandleOrderMessage(ok))

	assert.Error(t, HandleOrderMessage(amqp.Delivery{Body: []byte(`{not json`)}))
	assert.Error(t, HandleOrderMessage(amqp.Delivery{Body: []byte(`{}`)}))
}
