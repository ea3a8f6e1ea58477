package usecase

import (
	"context"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/domain/repository"
	"github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/usecase/dto"
)

const (
	defaultBoardStations = 3
	defaultRetryInterval = 500 * time.Millisecond
)

// BoardConfig - параметры выборки табло
type BoardConfig struct {
	// Timeout - таймаут одного табло, 0 - без ограничения
	Timeout     time.Duration
	Concurrency int
	// MaxRetries - повторы табло для событий из стрима
	MaxRetries    int
	RetryInterval time.Duration
}

// BoardUseCase - табло станций для HTTP API и воркера стрима
type BoardUseCase struct {
	transitRepo repository.TransitRepository
	logger      *zap.Logger
	cfg         BoardConfig
}

// NewBoardUseCase - создание нового BoardUseCase
func NewBoardUseCase(
	transitRepo repository.TransitRepository,
	logger *zap.Logger,
	cfg BoardConfig,
) *BoardUseCase {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultRetryInterval
	}
	return &BoardUseCase{
		transitRepo: transitRepo,
		logger:      logger,
		cfg:         cfg,
	}
}

// NearbyDepartures - сначала поиск остановок, затем параллельный запрос их табло.
// Ошибка одного табло не прерывает остальные и попадает в его запись.
func (uc *BoardUseCase) NearbyDepartures(ctx context.Context, req dto.NearbyDeparturesRequest) (*dto.NearbyDeparturesResponse, error) {
	nearbyReq := req.Nearby()
	if nearbyReq.MaxStations == 0 {
		nearbyReq.MaxStations = defaultBoardStations
	}

	origin, err := nearbyOrigin(nearbyReq)
	if err != nil {
		return nil, err
	}

	nearby, err := uc.transitRepo.QueryNearbyStations(ctx, origin, nearbyReq.MaxDistance, nearbyReq.MaxStations)
	if err != nil {
		uc.logger.Error("Failed to query nearby stations", zap.Stringer("location", origin), zap.Error(err))
		return nil, errors.FromEngine(err)
	}

	resp := &dto.NearbyDeparturesResponse{
		Status: nearby.Status,
		Boards: []dto.StationBoard{},
	}
	if nearby.Status != domain.NearbyStatusOK {
		return resp, nil
	}

	stations := withDistances(origin, nearby.Stations)
	if len(stations) > nearbyReq.MaxStations {
		stations = stations[:nearbyReq.MaxStations]
	}

	p := pool.NewWithResults[dto.StationBoard]().WithMaxGoroutines(uc.cfg.Concurrency)
	for i, station := range stations {
		i, station := i, station
		p.Go(func() dto.StationBoard {
			return uc.board(ctx, i, station, req.Limit, req.Equivs)
		})
	}

	boards := p.Wait()
	slices.SortFunc(boards, func(a, b dto.StationBoard) int {
		return a.Index - b.Index
	})
	resp.Boards = boards

	return resp, nil
}

func (uc *BoardUseCase) board(ctx context.Context, index int, station dto.StationWithDistance, limit int, equivs bool) dto.StationBoard {
	board := dto.StationBoard{
		Index:   index,
		Station: station,
	}

	if !station.HasID() {
		board.ErrorCode = errors.ErrStationNotFound.Code
		board.Error = errors.ErrStationNotFound.Message
		return board
	}

	if uc.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.cfg.Timeout)
		defer cancel()
	}

	result, err := uc.transitRepo.QueryDepartures(ctx, station.ID, limit, equivs)
	if err != nil {
		appErr := errors.FromEngine(err)
		uc.logger.Warn("Failed to query station board",
			zap.Int("station_id", station.ID),
			zap.String("code", appErr.Code),
			zap.Error(err))
		board.ErrorCode = appErr.Code
		board.Error = appErr.Message
		return board
	}

	board.Status = result.Status
	board.StationDepartures = result.StationDepartures
	return board
}

// ProcessRequest - табло по событию из стрима. Сетевые ошибки и HTML-страницы
// сервера повторяются с экспоненциальной паузой, остальные ошибки сразу
// попадают в событие результата.
func (uc *BoardUseCase) ProcessRequest(ctx context.Context, event *domain.DepartureRequestEvent) *domain.DepartureDoneEvent {
	done := &domain.DepartureDoneEvent{
		RequestID: event.RequestID,
		StationID: event.StationID,
	}

	attempt := 0
	operation := func() (*domain.QueryDeparturesResult, error) {
		attempt++
		result, err := uc.transitRepo.QueryDepartures(ctx, event.StationID, event.MaxDepartures, event.Equivs)
		if err != nil && !errors.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = uc.cfg.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(uc.cfg.MaxRetries, 0))), ctx)

	result, err := backoff.RetryNotifyWithData(operation, policy, func(err error, wait time.Duration) {
		uc.logger.Warn("Retrying station board",
			zap.Int("station_id", event.StationID),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	})
	if err != nil {
		done.Error = err.Error()
		done.Retryable = errors.IsRetryable(err)
		return done
	}

	done.Status = result.Status
	done.StationDepartures = result.StationDepartures
	return done
}
