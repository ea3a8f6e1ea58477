package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/efa-transit/internal/domain"
	"github.com/efa-transit/internal/domain/repository"
	"github.com/efa-transit/internal/pkg/errors"
	"github.com/efa-transit/internal/pkg/utils"
	"github.com/efa-transit/internal/usecase/dto"
)

// TransitUseCase - use case для запросов к серверу EFA
type TransitUseCase struct {
	transitRepo repository.TransitRepository
	cacheRepo   repository.CacheRepository
	logger      *zap.Logger
	provider    string
	suggestTTL  time.Duration
	contextTTL  time.Duration
	now         func() time.Time
}

// NewTransitUseCase - создание нового TransitUseCase.
// provider входит в ключ кеша подсказок.
func NewTransitUseCase(
	transitRepo repository.TransitRepository,
	cacheRepo repository.CacheRepository,
	logger *zap.Logger,
	provider string,
	suggestTTL time.Duration,
	contextTTL time.Duration,
) *TransitUseCase {
	return &TransitUseCase{
		transitRepo: transitRepo,
		cacheRepo:   cacheRepo,
		logger:      logger,
		provider:    provider,
		suggestTTL:  suggestTTL,
		contextTTL:  contextTTL,
		now:         time.Now,
	}
}

// Suggest - автодополнение с кешем в Redis
func (uc *TransitUseCase) Suggest(ctx context.Context, req dto.SuggestRequest) (*dto.SuggestResponse, error) {
	cached, err := uc.cacheRepo.GetSuggestions(ctx, uc.provider, req.Query)
	if err != nil {
		// кеш недоступен - идем на сервер
		uc.logger.Warn("Suggest cache lookup failed", zap.Error(err))
	}
	if cached != nil {
		return &dto.SuggestResponse{
			Status:    cached.Status,
			Locations: nonNilLocations(cached.Locations),
			Cached:    true,
		}, nil
	}

	result, err := uc.transitRepo.AutocompleteStations(ctx, req.Query)
	if err != nil {
		uc.logger.Error("Failed to autocomplete stations", zap.String("query", req.Query), zap.Error(err))
		return nil, errors.FromEngine(err)
	}

	if result.Status == domain.NearbyStatusOK && uc.suggestTTL > 0 {
		if err := uc.cacheRepo.SetSuggestions(ctx, uc.provider, req.Query, result, uc.suggestTTL); err != nil {
			uc.logger.Warn("Failed to cache suggestions", zap.Error(err))
		}
	}

	return &dto.SuggestResponse{
		Status:    result.Status,
		Locations: nonNilLocations(result.Locations),
	}, nil
}

// NearbyStations - ближайшие остановки к станции или координате
func (uc *TransitUseCase) NearbyStations(ctx context.Context, req dto.NearbyStationsRequest) (*dto.NearbyStationsResponse, error) {
	origin, err := nearbyOrigin(req)
	if err != nil {
		return nil, err
	}

	result, err := uc.transitRepo.QueryNearbyStations(ctx, origin, req.MaxDistance, req.MaxStations)
	if err != nil {
		uc.logger.Error("Failed to query nearby stations",
			zap.Stringer("location", origin),
			zap.Error(err))
		return nil, errors.FromEngine(err)
	}

	return &dto.NearbyStationsResponse{
		Header:   result.Header,
		Status:   result.Status,
		Stations: withDistances(origin, result.Stations),
	}, nil
}

// Departures - табло станции
func (uc *TransitUseCase) Departures(ctx context.Context, req dto.DeparturesRequest) (*dto.DeparturesResponse, error) {
	result, err := uc.transitRepo.QueryDepartures(ctx, req.StationID, req.Limit, req.Equivs)
	if err != nil {
		uc.logger.Error("Failed to query departures",
			zap.Int("station_id", req.StationID),
			zap.Error(err))
		return nil, errors.FromEngine(err)
	}

	departures := result.StationDepartures
	if departures == nil {
		departures = []domain.StationDepartures{}
	}

	return &dto.DeparturesResponse{
		Header:            result.Header,
		Status:            result.Status,
		StationDepartures: departures,
	}, nil
}

// Connections - поиск маршрута
func (uc *TransitUseCase) Connections(ctx context.Context, req dto.ConnectionsRequest) (*dto.ConnectionsResponse, error) {
	q, err := uc.connectionsQuery(req)
	if err != nil {
		return nil, err
	}

	result, err := uc.transitRepo.QueryConnections(ctx, q)
	if err != nil {
		uc.logger.Error("Failed to query connections",
			zap.Stringer("from", q.From),
			zap.Stringer("to", q.To),
			zap.Error(err))
		return nil, errors.FromEngine(err)
	}

	return dto.NewConnectionsResponse(result), nil
}

// MoreConnections - продолжение поиска. Токен принимается только один раз,
// использованные токены учитываются в Redis.
func (uc *TransitUseCase) MoreConnections(ctx context.Context, req dto.MoreConnectionsRequest) (*dto.ConnectionsResponse, error) {
	queryContext, err := domain.ParseContext(req.Context)
	if err != nil {
		return nil, errors.ErrInvalidContext.WithMessage(err.Error())
	}

	fresh, err := uc.cacheRepo.MarkContextConsumed(ctx, req.Context, uc.contextTTL)
	if err != nil {
		uc.logger.Error("Failed to record consumed context", zap.Error(err))
		return nil, errors.ErrCacheError
	}
	if !fresh {
		uc.logger.Info("Rejected reused continuation context")
		return nil, errors.ErrSessionExpired
	}

	result, err := uc.transitRepo.QueryMoreConnections(ctx, queryContext, req.Later)
	if err != nil {
		if errors.IsSessionExpired(err) {
			uc.logger.Info("Server session expired", zap.Bool("later", req.Later))
		} else {
			uc.logger.Error("Failed to query more connections", zap.Bool("later", req.Later), zap.Error(err))
		}
		return nil, errors.FromEngine(err)
	}

	return dto.NewConnectionsResponse(result), nil
}

func (uc *TransitUseCase) connectionsQuery(req dto.ConnectionsRequest) (domain.ConnectionsQuery, error) {
	q := domain.ConnectionsQuery{
		From:           req.From.ToDomain(),
		To:             req.To.ToDomain(),
		Departing:      !req.Arrival,
		WalkSpeed:      domain.WalkSpeed(req.WalkSpeed),
		Accessibility:  domain.Accessibility(req.Accessibility),
		NumConnections: req.NumConnections,
	}

	if err := q.From.Validate(); err != nil {
		return q, errors.ErrInvalidLocation.WithDetails(map[string]interface{}{"from": err.Error()})
	}
	if err := q.To.Validate(); err != nil {
		return q, errors.ErrInvalidLocation.WithDetails(map[string]interface{}{"to": err.Error()})
	}
	if req.Via != nil {
		via := req.Via.ToDomain()
		if err := via.Validate(); err != nil {
			return q, errors.ErrInvalidLocation.WithDetails(map[string]interface{}{"via": err.Error()})
		}
		q.Via = &via
	}

	if req.Time != nil {
		q.Time = *req.Time
	} else {
		q.Time = uc.now()
	}

	if req.Products != nil {
		q.Products = make([]domain.Product, 0, len(req.Products))
		for _, s := range req.Products {
			p, ok := domain.ParseProduct(s)
			if !ok {
				return q, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"products": s})
			}
			q.Products = append(q.Products, p)
		}
	}

	for _, o := range req.Options {
		q.Options = append(q.Options, domain.TripOption(o))
	}

	return q, nil
}

// nearbyOrigin - станция по id или координата запроса
func nearbyOrigin(req dto.NearbyStationsRequest) (domain.Location, error) {
	if req.ID > 0 {
		return domain.NewStation(req.ID, "", "", utils.ToMicroDegrees(req.Lat), utils.ToMicroDegrees(req.Lon)), nil
	}
	if req.Lat == 0 && req.Lon == 0 {
		return domain.Location{}, errors.ErrInvalidLocation
	}
	if !utils.ValidateCoordinates(req.Lat, req.Lon) {
		return domain.Location{}, errors.ErrInvalidCoordinates
	}
	return domain.NewCoordinate(utils.ToMicroDegrees(req.Lat), utils.ToMicroDegrees(req.Lon)), nil
}

func withDistances(origin domain.Location, stations []domain.Location) []dto.StationWithDistance {
	out := make([]dto.StationWithDistance, 0, len(stations))
	for _, s := range stations {
		item := dto.StationWithDistance{Location: s}
		if origin.HasLocation() && s.HasLocation() {
			d := utils.HaversineMeters(origin.Lat, origin.Lon, s.Lat, s.Lon)
			item.Distance = &d
		}
		out = append(out, item)
	}
	return out
}

func nonNilLocations(locations []domain.Location) []domain.Location {
	if locations == nil {
		return []domain.Location{}
	}
	return locations
}
