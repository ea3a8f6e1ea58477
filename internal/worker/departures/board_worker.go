package departures

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/domain/repository"
	"github.com/efa-transit/internal/worker"
)

const (
	defaultBatchSize = 10
	emptyQueueSleep  = 100 * time.Millisecond // пауза если очередь пуста
	errorSleep       = time.Second
)

// BoardProcessor - получение табло по событию с повторами
type BoardProcessor interface {
	ProcessRequest(ctx context.Context, event *domain.DepartureRequestEvent) *domain.DepartureDoneEvent
}

// Config - параметры воркера
type Config struct {
	ConsumerGroup string
	RequestStream string
	ResultStream  string
	BatchSize     int64
	// Concurrency - сколько табло из одного batch запрашивать одновременно
	Concurrency int
}

// BoardWorker обрабатывает запросы табло из Redis Stream
type BoardWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	processor    BoardProcessor
	cfg          Config
	consumerName string
}

// NewBoardWorker создает новый BoardWorker
func NewBoardWorker(
	streamRepo repository.StreamRepository,
	processor BoardProcessor,
	cfg Config,
	logger *zap.Logger,
) *BoardWorker {
	hostname, _ := os.Hostname()

	if cfg.RequestStream == "" {
		cfg.RequestStream = domain.StreamDepartureRequest
	}
	if cfg.ResultStream == "" {
		cfg.ResultStream = domain.StreamDepartureDone
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	return &BoardWorker{
		BaseWorker:   worker.NewBaseWorker("departure-board", cfg.ConsumerGroup, logger),
		streamRepo:   streamRepo,
		processor:    processor,
		cfg:          cfg,
		consumerName: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
	}
}

// Start запускает воркер и блокируется до остановки
func (w *BoardWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting BoardWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.String("request_stream", w.cfg.RequestStream),
		zap.Int64("batch_size", w.cfg.BatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, w.cfg.RequestStream, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()
		default:
		}

		processed, err := w.ProcessBatch(ctx)
		pause := time.Duration(0)
		switch {
		case err != nil:
			logger.Error("Failed to process batch", zap.Error(err))
			pause = errorSleep
		case processed == 0:
			pause = emptyQueueSleep
		}

		if pause > 0 {
			w.Pause(ctx, pause)
		}
	}
}

// ProcessBatch читает и обрабатывает один batch.
// Возвращает количество прочитанных сообщений.
func (w *BoardWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, w.cfg.RequestStream, w.ConsumerGroup(), w.consumerName, w.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	logger.Debug("Processing batch", zap.Int("message_count", len(messages)))

	type job struct {
		messageID string
		event     *domain.DepartureRequestEvent
	}

	jobs := make([]job, 0, len(messages))
	for _, msg := range messages {
		event, err := parseMessage(msg)
		if err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK битое сообщение чтобы не застревало
			_ = w.streamRepo.AckMessage(ctx, w.cfg.RequestStream, w.ConsumerGroup(), msg.ID)
			continue
		}
		jobs = append(jobs, job{messageID: msg.ID, event: event})
	}

	if len(jobs) == 0 {
		return len(messages), nil
	}

	p := pool.NewWithResults[string]().WithMaxGoroutines(w.cfg.Concurrency)
	for _, j := range jobs {
		j := j
		p.Go(func() string {
			done := w.processor.ProcessRequest(ctx, j.event)
			if err := w.streamRepo.PublishToStream(ctx, w.cfg.ResultStream, done); err != nil {
				logger.Error("Failed to publish done event",
					zap.String("request_id", j.event.RequestID.String()),
					zap.Error(err))
				// без ACK сообщение останется в pending
				return ""
			}
			if done.Failed() {
				logger.Warn("Departure board request failed",
					zap.String("request_id", j.event.RequestID.String()),
					zap.Int("station_id", j.event.StationID),
					zap.String("error", done.Error))
			}
			return j.messageID
		})
	}

	ackIDs := make([]string, 0, len(jobs))
	for _, id := range p.Wait() {
		if id != "" {
			ackIDs = append(ackIDs, id)
		}
	}

	if err := w.streamRepo.AckMessages(ctx, w.cfg.RequestStream, w.ConsumerGroup(), ackIDs); err != nil {
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	logger.Info("Batch processed",
		zap.Int("received", len(messages)),
		zap.Int("processed", len(jobs)),
		zap.Int("acked", len(ackIDs)))

	return len(messages), nil
}

// parseMessage парсит сообщение из стрима в DepartureRequestEvent
func parseMessage(msg domain.StreamMessage) (*domain.DepartureRequestEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("missing or invalid 'data' field")
	}

	var event domain.DepartureRequestEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
