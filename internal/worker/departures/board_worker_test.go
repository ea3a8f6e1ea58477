package departures_test

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/worker/departures"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int64) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	args := m.Called(ctx, stream, group, messageIDs)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

// MockBoardProcessor is a mock of BoardProcessor
type MockBoardProcessor struct {
	mock.Mock
}

func (m *MockBoardProcessor) ProcessRequest(ctx context.Context, event *domain.DepartureRequestEvent) *domain.DepartureDoneEvent {
	args := m.Called(ctx, event)
	return args.Get(0).(*domain.DepartureDoneEvent)
}

func newWorker(stream *MockStreamRepository, processor *MockBoardProcessor) *departures.BoardWorker {
	return departures.NewBoardWorker(stream, processor, departures.Config{
		ConsumerGroup: "test-group",
		BatchSize:     5,
		Concurrency:   2,
	}, zap.NewNop())
}

func message(t *testing.T, id string, event domain.DepartureRequestEvent) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func TestBoardWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockBoardProcessor{})
	assert.Equal(t, "departure-board", w.Name())
	assert.Equal(t, "test-group", w.ConsumerGroup())
}

func TestBoardWorker_Stop(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockBoardProcessor{})

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
}

func TestBoardWorker_ContextCancellation(t *testing.T) {
	stream := &MockStreamRepository{}
	w := newWorker(stream, &MockBoardProcessor{})

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamDepartureRequest, "test-group").Return(nil)
	stream.On("ConsumeBatch", mock.Anything, domain.StreamDepartureRequest, "test-group", mock.AnythingOfType("string"), int64(5)).
		Return([]domain.StreamMessage{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- w.Start(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Worker did not stop on context cancellation")
	}

	stream.AssertExpectations(t)
}

func TestBoardWorker_StartFailsWithoutGroup(t *testing.T) {
	stream := &MockStreamRepository{}
	w := newWorker(stream, &MockBoardProcessor{})

	stream.On("CreateConsumerGroup", mock.Anything, domain.StreamDepartureRequest, "test-group").
		Return(errors.New("NOAUTH"))

	err := w.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "consumer group")
}

func TestBoardWorker_ProcessBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes results and acks", func(t *testing.T) {
		stream := &MockStreamRepository{}
		processor := &MockBoardProcessor{}
		w := newWorker(stream, processor)

		ok := domain.DepartureRequestEvent{RequestID: uuid.New(), StationID: 20018235, MaxDepartures: 10}
		failing := domain.DepartureRequestEvent{RequestID: uuid.New(), StationID: 20018240}

		stream.On("ConsumeBatch", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything, int64(5)).
			Return([]domain.StreamMessage{
				message(t, "1-0", ok),
				message(t, "2-0", failing),
			}, nil)

		okDone := &domain.DepartureDoneEvent{RequestID: ok.RequestID, StationID: ok.StationID, Status: domain.DeparturesStatusOK}
		failedDone := &domain.DepartureDoneEvent{RequestID: failing.RequestID, StationID: failing.StationID, Error: "upstream unavailable", Retryable: true}

		processor.On("ProcessRequest", ctx, mock.MatchedBy(func(e *domain.DepartureRequestEvent) bool {
			return e.RequestID == ok.RequestID
		})).Return(okDone)
		processor.On("ProcessRequest", ctx, mock.MatchedBy(func(e *domain.DepartureRequestEvent) bool {
			return e.RequestID == failing.RequestID
		})).Return(failedDone)

		stream.On("PublishToStream", ctx, domain.StreamDepartureDone, okDone).Return(nil)
		stream.On("PublishToStream", ctx, domain.StreamDepartureDone, failedDone).Return(nil)
		stream.On("AckMessages", ctx, domain.StreamDepartureRequest, "test-group", mock.MatchedBy(func(ids []string) bool {
			return len(ids) == 2 && slices.Contains(ids, "1-0") && slices.Contains(ids, "2-0")
		})).Return(nil)

		processed, err := w.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, processed)

		stream.AssertExpectations(t)
		processor.AssertExpectations(t)
	})

	t.Run("malformed messages are acked and skipped", func(t *testing.T) {
		stream := &MockStreamRepository{}
		processor := &MockBoardProcessor{}
		w := newWorker(stream, processor)

		stream.On("ConsumeBatch", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything, int64(5)).
			Return([]domain.StreamMessage{
				{ID: "1-0", Data: "{not json"},
				{ID: "2-0"},
				message(t, "3-0", domain.DepartureRequestEvent{RequestID: uuid.New()}),
			}, nil)
		stream.On("AckMessage", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything).Return(nil)

		processed, err := w.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, processed)

		stream.AssertNumberOfCalls(t, "AckMessage", 3)
		processor.AssertNotCalled(t, "ProcessRequest", mock.Anything, mock.Anything)
	})

	t.Run("unpublished results are not acked", func(t *testing.T) {
		stream := &MockStreamRepository{}
		processor := &MockBoardProcessor{}
		w := newWorker(stream, processor)

		event := domain.DepartureRequestEvent{RequestID: uuid.New(), StationID: 20018235}
		done := &domain.DepartureDoneEvent{RequestID: event.RequestID, StationID: event.StationID, Status: domain.DeparturesStatusOK}

		stream.On("ConsumeBatch", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything, int64(5)).
			Return([]domain.StreamMessage{message(t, "1-0", event)}, nil)
		processor.On("ProcessRequest", ctx, mock.Anything).Return(done)
		stream.On("PublishToStream", ctx, domain.StreamDepartureDone, done).Return(errors.New("connection reset"))
		stream.On("AckMessages", ctx, domain.StreamDepartureRequest, "test-group", []string{}).Return(nil)

		processed, err := w.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		stream.AssertCalled(t, "AckMessages", ctx, domain.StreamDepartureRequest, "test-group", []string{})
	})

	t.Run("empty queue", func(t *testing.T) {
		stream := &MockStreamRepository{}
		w := newWorker(stream, &MockBoardProcessor{})

		stream.On("ConsumeBatch", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything, int64(5)).
			Return(nil, nil)

		processed, err := w.ProcessBatch(ctx)
		require.NoError(t, err)
		assert.Zero(t, processed)
	})

	t.Run("consume error", func(t *testing.T) {
		stream := &MockStreamRepository{}
		w := newWorker(stream, &MockBoardProcessor{})

		stream.On("ConsumeBatch", ctx, domain.StreamDepartureRequest, "test-group", mock.Anything, int64(5)).
			Return(nil, errors.New("LOADING"))

		_, err := w.ProcessBatch(ctx)
		require.Error(t, err)
	})
}
