package flights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/Domenick1991/airport/internal/metrics"
	"github.com/Domenick1991/airport/internal/repository"
)

type FlightUseCase interface {
	List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input FlightInput) (*domain.Flight, error)
	Update(ctx context.Context, id int64, patch FlightPatch) (*domain.Flight, error)
	CompleteArrived(ctx context.Context, now time.Time) (int, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

// FlightInput is a complete flight definition. Times are wall-clock values
// local to the route's source and destination airports.
type FlightInput struct {
	Name          string
	RouteID       int64
	AirplaneID    int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	CrewIDs       []int64
}

// Patch turns a full definition into a patch that replaces every field.
func (in FlightInput) Patch() FlightPatch {
	crew := in.CrewIDs
	if crew == nil {
		crew = []int64{}
	}
	return FlightPatch{
		Name:          &in.Name,
		RouteID:       &in.RouteID,
		AirplaneID:    &in.AirplaneID,
		DepartureTime: &in.DepartureTime,
		ArrivalTime:   &in.ArrivalTime,
		CrewIDs:       &crew,
	}
}

// FlightPatch holds the fields to change; nil fields are kept.
type FlightPatch struct {
	Name          *string
	RouteID       *int64
	AirplaneID    *int64
	DepartureTime *time.Time
	ArrivalTime   *time.Time
	CrewIDs       *[]int64
	IsCompleted   *bool
}

type FlightService struct {
	repo     repository.FlightRepository
	cache    FlightCache
	cacheTTL time.Duration
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache, cacheTTL time.Duration) *FlightService {
	return &FlightService{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// List serves the unfiltered list from cache when it can. Filtered lists
// always hit the database.
func (s *FlightService) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	useCache := s.cache != nil && filter.IsEmpty()
	if useCache {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := s.cache.SetFlights(ctx, flights); err != nil {
			logger.WithContext(ctx).Warn("failed to cache flights", "error", err)
		}
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) Create(ctx context.Context, input FlightInput) (*domain.Flight, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}

	route, err := s.repo.GetRoute(ctx, input.RouteID)
	if err != nil {
		return nil, err
	}
	airplane, err := s.repo.GetAirplane(ctx, input.AirplaneID)
	if err != nil {
		return nil, err
	}
	if err := airplane.Layout().Validate(); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		Name:          input.Name,
		RouteID:       route.ID,
		AirplaneID:    airplane.ID,
		Route:         *route,
		Airplane:      *airplane,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		CrewIDs:       input.CrewIDs,
	}
	if err := flight.ResolveUTC(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	logger.WithContext(ctx).Info("flight created", "flight_id", flight.ID, "departure_utc", flight.DepartureTimeUTC)
	return s.repo.GetByID(ctx, flight.ID)
}

// Update applies patch to the stored flight and recomputes its UTC times
// before saving, whichever fields changed.
func (s *FlightService) Update(ctx context.Context, id int64, patch FlightPatch) (*domain.Flight, error) {
	flight, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
		}
		flight.Name = *patch.Name
	}
	if patch.RouteID != nil && *patch.RouteID != flight.RouteID {
		route, err := s.repo.GetRoute(ctx, *patch.RouteID)
		if err != nil {
			return nil, err
		}
		flight.RouteID = route.ID
		flight.Route = *route
	}
	if patch.AirplaneID != nil && *patch.AirplaneID != flight.AirplaneID {
		airplane, err := s.repo.GetAirplane(ctx, *patch.AirplaneID)
		if err != nil {
			return nil, err
		}
		if err := airplane.Layout().Validate(); err != nil {
			return nil, err
		}
		flight.AirplaneID = airplane.ID
		flight.Airplane = *airplane
	}
	if patch.DepartureTime != nil {
		flight.DepartureTime = *patch.DepartureTime
	}
	if patch.ArrivalTime != nil {
		flight.ArrivalTime = *patch.ArrivalTime
	}
	if patch.CrewIDs != nil {
		flight.CrewIDs = *patch.CrewIDs
	}
	if patch.IsCompleted != nil {
		flight.IsCompleted = *patch.IsCompleted
	}

	if err := flight.ResolveUTC(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return s.repo.GetByID(ctx, flight.ID)
}

// CompleteArrived marks flights that landed at or before now as completed.
func (s *FlightService) CompleteArrived(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.MarkCompletedBefore(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(ids) > 0 {
		s.invalidate(ctx)
		metrics.FlightsCompleted.Add(float64(len(ids)))
		logger.WithContext(ctx).Info("flights completed", "count", len(ids), "ids", ids)
	}
	return len(ids), nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateFlights(ctx); err != nil {
		logger.WithContext(ctx).Warn("failed to invalidate flights cache", "error", err)
	}
}

var _ FlightUseCase = (*FlightService)(nil)
