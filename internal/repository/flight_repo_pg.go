package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type FlightRepository interface {
	List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Flight, error)
	GetRoute(ctx context.Context, id int64) (*domain.Route, error)
	GetAirplane(ctx context.Context, id int64) (*domain.Airplane, error)
	Create(ctx context.Context, flight *domain.Flight) error
	Update(ctx context.Context, flight *domain.Flight) error
	MarkCompletedBefore(ctx context.Context, deadline time.Time) ([]int64, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightSelect = `
SELECT f.id, f.name, f.route_id, f.airplane_id,
       f.departure_time, f.arrival_time, f.departure_time_utc, f.arrival_time_utc,
       f.is_completed, f.created_at, f.updated_at,
       r.distance,
       sa.id, sa.cod_iata, sa.name, sc.name, COALESCE(stz.name, ''),
       da.id, da.cod_iata, da.name, dc.name, COALESCE(dtz.name, ''),
       a.name, a.rows, a.seats_in_row, a.airline_company_id, ac.name,
       ARRAY(SELECT c.id FROM flight_crews fc JOIN crews c ON c.id = fc.crew_id
             WHERE fc.flight_id = f.id ORDER BY c.id),
       ARRAY(SELECT c.first_name || ' ' || c.last_name FROM flight_crews fc JOIN crews c ON c.id = fc.crew_id
             WHERE fc.flight_id = f.id ORDER BY c.id)
FROM flights f
JOIN routes r ON r.id = f.route_id
JOIN airports sa ON sa.id = r.source_id
JOIN cities sc ON sc.id = sa.closest_big_city_id
LEFT JOIN airport_time_zones stz ON stz.id = sa.time_zone_id
JOIN airports da ON da.id = r.destination_id
JOIN cities dc ON dc.id = da.closest_big_city_id
LEFT JOIN airport_time_zones dtz ON dtz.id = da.time_zone_id
JOIN airplanes a ON a.id = f.airplane_id
JOIN airline_companies ac ON ac.id = a.airline_company_id`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	err := row.Scan(
		&f.ID, &f.Name, &f.RouteID, &f.AirplaneID,
		&f.DepartureTime, &f.ArrivalTime, &f.DepartureTimeUTC, &f.ArrivalTimeUTC,
		&f.IsCompleted, &f.CreatedAt, &f.UpdatedAt,
		&f.Route.Distance,
		&f.Route.Source.ID, &f.Route.Source.Code, &f.Route.Source.Name, &f.Route.Source.City, &f.Route.Source.TimeZone,
		&f.Route.Destination.ID, &f.Route.Destination.Code, &f.Route.Destination.Name, &f.Route.Destination.City, &f.Route.Destination.TimeZone,
		&f.Airplane.Name, &f.Airplane.Rows, &f.Airplane.SeatsInRow, &f.Airplane.AirlineCompanyID, &f.Airplane.AirlineCompany,
		&f.CrewIDs, &f.CrewMembers,
	)
	if err != nil {
		return nil, err
	}
	f.Route.ID = f.RouteID
	f.Airplane.ID = f.AirplaneID
	return &f, nil
}

func (r *PGFlightRepository) List(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	query := flightSelect
	var args []any
	if !filter.IsEmpty() {
		query += ` WHERE a.airline_company_id = ANY($1)`
		args = append(args, filter.AirlineCompanyIDs)
	}
	query += ` ORDER BY f.departure_time, f.id`

	rows, err := conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(conn(ctx, r.db).QueryRow(ctx, flightSelect+` WHERE f.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrFlightNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetByIDs loads several flights at once. Missing ids are absent from the map.
func (r *PGFlightRepository) GetByIDs(ctx context.Context, ids []int64) (map[int64]*domain.Flight, error) {
	out := make(map[int64]*domain.Flight, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.db).Query(ctx, flightSelect+` WHERE f.id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		out[f.ID] = f
	}
	return out, rows.Err()
}

func (r *PGFlightRepository) GetRoute(ctx context.Context, id int64) (*domain.Route, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
SELECT r.id, r.distance,
       sa.id, sa.cod_iata, sa.name, sc.name, COALESCE(stz.name, ''),
       da.id, da.cod_iata, da.name, dc.name, COALESCE(dtz.name, '')
FROM routes r
JOIN airports sa ON sa.id = r.source_id
JOIN cities sc ON sc.id = sa.closest_big_city_id
LEFT JOIN airport_time_zones stz ON stz.id = sa.time_zone_id
JOIN airports da ON da.id = r.destination_id
JOIN cities dc ON dc.id = da.closest_big_city_id
LEFT JOIN airport_time_zones dtz ON dtz.id = da.time_zone_id
WHERE r.id = $1`, id)

	var rt domain.Route
	err := row.Scan(&rt.ID, &rt.Distance,
		&rt.Source.ID, &rt.Source.Code, &rt.Source.Name, &rt.Source.City, &rt.Source.TimeZone,
		&rt.Destination.ID, &rt.Destination.Code, &rt.Destination.Name, &rt.Destination.City, &rt.Destination.TimeZone,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrRouteNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (r *PGFlightRepository) GetAirplane(ctx context.Context, id int64) (*domain.Airplane, error) {
	row := conn(ctx, r.db).QueryRow(ctx, `
SELECT a.id, a.name, a.rows, a.seats_in_row, a.airline_company_id, ac.name
FROM airplanes a
JOIN airline_companies ac ON ac.id = a.airline_company_id
WHERE a.id = $1`, id)

	var a domain.Airplane
	err := row.Scan(&a.ID, &a.Name, &a.Rows, &a.SeatsInRow, &a.AirlineCompanyID, &a.AirlineCompany)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrAirplaneNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create stores the flight with its crew. UTC times must already be resolved.
func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		err := conn(ctx, r.db).QueryRow(ctx, `
INSERT INTO flights (name, route_id, airplane_id, departure_time, arrival_time, departure_time_utc, arrival_time_utc, is_completed)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, created_at, updated_at`,
			flight.Name, flight.RouteID, flight.AirplaneID,
			flight.DepartureTime, flight.ArrivalTime, flight.DepartureTimeUTC, flight.ArrivalTimeUTC,
			flight.IsCompleted,
		).Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
		if err != nil {
			return mapFlightWriteError(err)
		}
		return r.replaceCrew(ctx, flight.ID, flight.CrewIDs)
	})
}

func (r *PGFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	return withTx(ctx, r.db, func(ctx context.Context) error {
		err := conn(ctx, r.db).QueryRow(ctx, `
UPDATE flights
SET name = $2, route_id = $3, airplane_id = $4,
    departure_time = $5, arrival_time = $6, departure_time_utc = $7, arrival_time_utc = $8,
    is_completed = $9, updated_at = now()
WHERE id = $1
RETURNING created_at, updated_at`,
			flight.ID, flight.Name, flight.RouteID, flight.AirplaneID,
			flight.DepartureTime, flight.ArrivalTime, flight.DepartureTimeUTC, flight.ArrivalTimeUTC,
			flight.IsCompleted,
		).Scan(&flight.CreatedAt, &flight.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: id %d", domain.ErrFlightNotFound, flight.ID)
		}
		if err != nil {
			return mapFlightWriteError(err)
		}
		return r.replaceCrew(ctx, flight.ID, flight.CrewIDs)
	})
}

func (r *PGFlightRepository) replaceCrew(ctx context.Context, flightID int64, crewIDs []int64) error {
	q := conn(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM flight_crews WHERE flight_id = $1`, flightID); err != nil {
		return err
	}
	if len(crewIDs) == 0 {
		return nil
	}
	_, err := q.Exec(ctx, `
INSERT INTO flight_crews (flight_id, crew_id)
SELECT $1, c FROM unnest($2::bigint[]) AS c
ON CONFLICT DO NOTHING`, flightID, crewIDs)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("crew member %w", domain.ErrNotFound)
	}
	return err
}

func mapFlightWriteError(err error) error {
	if !isForeignKeyViolation(err) {
		return err
	}
	name := constraintName(err)
	switch {
	case strings.Contains(name, "route"):
		return domain.ErrRouteNotFound
	case strings.Contains(name, "airplane"):
		return domain.ErrAirplaneNotFound
	default:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
	}
}

// MarkCompletedBefore flags every open flight that landed at or before
// deadline and returns their ids.
func (r *PGFlightRepository) MarkCompletedBefore(ctx context.Context, deadline time.Time) ([]int64, error) {
	rows, err := conn(ctx, r.db).Query(ctx, `
UPDATE flights SET is_completed = TRUE, updated_at = now()
WHERE NOT is_completed AND arrival_time_utc IS NOT NULL AND arrival_time_utc <= $1
RETURNING id`, deadline.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ FlightRepository = (*PGFlightRepository)(nil)
