package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Flight, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[int64]*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Route), args.Error(1)
}

func (m *MockFlightRepository) GetAirplane(ctx context.Context, id int64) (*domain.Airplane, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Airplane), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) MarkCompletedBefore(ctx context.Context, deadline time.Time) ([]int64, error) {
	args := m.Called(ctx, deadline)
	return args.Get(0).([]int64), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func ezeToMad() *domain.Route {
	return &domain.Route{
		ID:          2,
		Source:      domain.Airport{ID: 1, Code: "EZE", Name: "Ministro Pistarini", City: "Buenos Aires", TimeZone: "America/Argentina/Buenos_Aires"},
		Destination: domain.Airport{ID: 2, Code: "MAD", Name: "Barajas", City: "Madrid", TimeZone: "Europe/Madrid"},
	}
}

func sampleFlights() []domain.Flight {
	return []domain.Flight{{ID: 4, Name: "AR1133", RouteID: 2, AirplaneID: 3}}
}

func TestFlightService_List_CacheMiss(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	flights := sampleFlights()

	// Кэш пустой
	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx, domain.FlightFilter{}).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(nil).Once()

	result, err := service.List(ctx, domain.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestFlightService_List_CacheHit(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx).Return(flights, nil).Once()

	result, err := service.List(ctx, domain.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything)
}

// Ошибка записи в кэш не ломает выдачу
func TestFlightService_List_CacheWriteFails(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	flights := sampleFlights()

	mockCache.On("GetFlights", ctx).Return(([]domain.Flight)(nil), nil).Once()
	mockRepo.On("List", ctx, domain.FlightFilter{}).Return(flights, nil).Once()
	mockCache.On("SetFlights", ctx, flights).Return(errors.New("redis down")).Once()

	result, err := service.List(ctx, domain.FlightFilter{})

	assert.NoError(t, err)
	assert.Equal(t, flights, result)
	mockCache.AssertExpectations(t)
}

// Отфильтрованный список всегда идёт в базу
func TestFlightService_List_FilteredBypassesCache(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	filter := domain.FlightFilter{AirlineCompanyIDs: []int64{1, 3}}

	mockRepo.On("List", ctx, filter).Return(sampleFlights(), nil).Once()

	_, err := service.List(ctx, filter)

	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "GetFlights", mock.Anything)
	mockCache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything)
}

func TestFlightService_List_RepositoryError(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	expectedErr := errors.New("database error")
	mockRepo.On("List", ctx, domain.FlightFilter{}).Return([]domain.Flight{}, expectedErr).Once()

	result, err := service.List(ctx, domain.FlightFilter{})

	assert.Nil(t, result)
	assert.Equal(t, expectedErr, err)
}

func TestFlightService_GetByID_NotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(999)).Return(nil, domain.ErrFlightNotFound).Once()

	result, err := service.GetByID(ctx, 999)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFlightService_Create_ResolvesUTC(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()

	input := FlightInput{
		Name:          "AR1133",
		RouteID:       2,
		AirplaneID:    3,
		DepartureTime: time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
		CrewIDs:       []int64{1, 2},
	}

	mockRepo.On("GetRoute", ctx, int64(2)).Return(ezeToMad(), nil).Once()
	mockRepo.On("GetAirplane", ctx, int64(3)).Return(&domain.Airplane{ID: 3, Rows: 30, SeatsInRow: 6}, nil).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.DepartureTimeUTC != nil && f.ArrivalTimeUTC != nil &&
			f.DepartureTimeUTC.Equal(time.Date(2024, 1, 15, 23, 55, 0, 0, time.UTC)) &&
			f.ArrivalTimeUTC.Equal(time.Date(2024, 1, 16, 18, 45, 0, 0, time.UTC))
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Flight).ID = 40
	}).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	stored := &domain.Flight{ID: 40}
	mockRepo.On("GetByID", ctx, int64(40)).Return(stored, nil).Once()

	result, err := service.Create(ctx, input)

	require.NoError(t, err)
	assert.Same(t, stored, result)
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Create_UnknownZone(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	route := ezeToMad()
	route.Destination.TimeZone = "Mars/Olympus_Mons"
	mockRepo.On("GetRoute", ctx, int64(2)).Return(route, nil).Once()
	mockRepo.On("GetAirplane", ctx, int64(3)).Return(&domain.Airplane{ID: 3, Rows: 30, SeatsInRow: 6}, nil).Once()

	_, err := service.Create(ctx, FlightInput{
		Name:          "AR1133",
		RouteID:       2,
		AirplaneID:    3,
		DepartureTime: time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
	})

	assert.ErrorIs(t, err, domain.ErrUnknownTimeZone)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// Самолёт без мест не может выполнять рейс
func TestFlightService_Create_InvalidAirplaneLayout(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	mockRepo.On("GetRoute", ctx, int64(2)).Return(ezeToMad(), nil).Once()
	mockRepo.On("GetAirplane", ctx, int64(3)).Return(&domain.Airplane{ID: 3, Rows: 30, SeatsInRow: 0}, nil).Once()

	_, err := service.Create(ctx, FlightInput{
		Name:          "AR1133",
		RouteID:       2,
		AirplaneID:    3,
		DepartureTime: time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
	})

	assert.ErrorIs(t, err, domain.ErrInvalidAirplane)
	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestFlightService_Update_InvalidAirplaneLayout(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, int64(4)).Return(&domain.Flight{ID: 4, Name: "AR1133", RouteID: 2, AirplaneID: 3, Route: *ezeToMad()}, nil).Once()
	mockRepo.On("GetAirplane", ctx, int64(5)).Return(&domain.Airplane{ID: 5, Rows: 0, SeatsInRow: 6}, nil).Once()

	airplaneID := int64(5)
	_, err := service.Update(ctx, 4, FlightPatch{AirplaneID: &airplaneID})

	assert.ErrorIs(t, err, domain.ErrInvalidAirplane)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFlightService_Create_Validation(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)

	_, err := service.Create(context.Background(), FlightInput{Name: "  "})

	assert.ErrorIs(t, err, domain.ErrValidation)
	mockRepo.AssertNotCalled(t, "GetRoute", mock.Anything, mock.Anything)
}

func TestFlightService_Create_RouteNotFound(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	mockRepo.On("GetRoute", ctx, int64(77)).Return(nil, domain.ErrRouteNotFound).Once()

	_, err := service.Create(ctx, FlightInput{Name: "X1", RouteID: 77})
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
}

// Частичное обновление: меняется только время прилёта, UTC пересчитывается
func TestFlightService_Update_PartialRecomputesUTC(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()

	oldDep := time.Date(2024, 1, 15, 23, 55, 0, 0, time.UTC)
	oldArr := time.Date(2024, 1, 16, 18, 45, 0, 0, time.UTC)
	existing := &domain.Flight{
		ID:               40,
		Name:             "AR1133",
		RouteID:          2,
		AirplaneID:       3,
		Route:            *ezeToMad(),
		DepartureTime:    time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:      time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
		DepartureTimeUTC: &oldDep,
		ArrivalTimeUTC:   &oldArr,
	}
	newArrival := time.Date(2024, 1, 16, 21, 0, 0, 0, time.UTC)

	mockRepo.On("GetByID", ctx, int64(40)).Return(existing, nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.Name == "AR1133" && f.ArrivalTimeUTC.Equal(time.Date(2024, 1, 16, 20, 0, 0, 0, time.UTC))
	})).Return(nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()
	mockRepo.On("GetByID", ctx, int64(40)).Return(existing, nil).Once()

	result, err := service.Update(ctx, 40, FlightPatch{ArrivalTime: &newArrival})

	require.NoError(t, err)
	assert.Equal(t, "20h 5m", result.DurationString())
	mockRepo.AssertExpectations(t)
	mockCache.AssertExpectations(t)
}

func TestFlightService_Update_ArrivalBeforeDeparture(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	existing := &domain.Flight{
		ID:            40,
		Name:          "AR1133",
		RouteID:       2,
		Route:         *ezeToMad(),
		DepartureTime: time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
	}
	early := time.Date(2024, 1, 15, 21, 0, 0, 0, time.UTC)
	mockRepo.On("GetByID", ctx, int64(40)).Return(existing, nil).Once()

	_, err := service.Update(ctx, 40, FlightPatch{ArrivalTime: &early})

	assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestFlightService_Update_ChangesRoute(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	service := NewFlightService(mockRepo, nil, time.Minute)
	ctx := context.Background()

	existing := &domain.Flight{
		ID:            40,
		Name:          "AR1133",
		RouteID:       1,
		Route:         domain.Route{ID: 1, Source: domain.Airport{TimeZone: "UTC"}, Destination: domain.Airport{TimeZone: "UTC"}},
		DepartureTime: time.Date(2024, 1, 15, 20, 55, 0, 0, time.UTC),
		ArrivalTime:   time.Date(2024, 1, 16, 19, 45, 0, 0, time.UTC),
	}
	input := FlightInput{
		Name:          "AR1133",
		RouteID:       2,
		AirplaneID:    0,
		DepartureTime: existing.DepartureTime,
		ArrivalTime:   existing.ArrivalTime,
	}

	mockRepo.On("GetByID", ctx, int64(40)).Return(existing, nil).Twice()
	mockRepo.On("GetRoute", ctx, int64(2)).Return(ezeToMad(), nil).Once()
	mockRepo.On("Update", ctx, mock.MatchedBy(func(f *domain.Flight) bool {
		return f.RouteID == 2 && f.DepartureTimeUTC.Equal(time.Date(2024, 1, 15, 23, 55, 0, 0, time.UTC)) && len(f.CrewIDs) == 0
	})).Return(nil).Once()

	_, err := service.Update(ctx, 40, input.Patch())

	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "GetAirplane", mock.Anything, mock.Anything)
}

func TestFlightService_CompleteArrived(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	now := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)

	mockRepo.On("MarkCompletedBefore", ctx, now).Return([]int64{40, 41}, nil).Once()
	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	count, err := service.CompleteArrived(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	mockCache.AssertExpectations(t)
}

func TestFlightService_CompleteArrived_Nothing(t *testing.T) {
	mockRepo := &MockFlightRepository{}
	mockCache := &MockCache{}
	service := NewFlightService(mockRepo, mockCache, time.Minute)
	ctx := context.Background()
	now := time.Now()

	mockRepo.On("MarkCompletedBefore", ctx, now).Return([]int64(nil), nil).Once()

	count, err := service.CompleteArrived(ctx, now)

	require.NoError(t, err)
	assert.Equal(t, 0, count)
	mockCache.AssertNotCalled(t, "InvalidateFlights", mock.Anything)
}
