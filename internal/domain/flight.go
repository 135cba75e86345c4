package domain

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const DurationNotAvailable = "not available"

type Airport struct {
	ID       int64  `json:"id"`
	Code     string `json:"cod_iata"`
	Name     string `json:"name"`
	City     string `json:"city"`
	TimeZone string `json:"time_zone"`
}

type Route struct {
	ID          int64   `json:"id"`
	Source      Airport `json:"source"`
	Destination Airport `json:"destination"`
	Distance    *int    `json:"distance,omitempty"`
}

// Flight departure/arrival times are naive wall-clock values local to the
// source and destination airports. The UTC fields are derived on every write.
type Flight struct {
	ID               int64
	Name             string
	RouteID          int64
	AirplaneID       int64
	Route            Route
	Airplane         Airplane
	DepartureTime    time.Time
	ArrivalTime      time.Time
	DepartureTimeUTC *time.Time
	ArrivalTimeUTC   *time.Time
	IsCompleted      bool
	CrewIDs          []int64
	CrewMembers      []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResolveUTC interprets localDeparture as wall-clock time in sourceZone and
// localArrival as wall-clock time in destZone, and returns both as UTC.
func ResolveUTC(localDeparture time.Time, sourceZone string, localArrival time.Time, destZone string) (time.Time, time.Time, error) {
	dep, err := toUTC(localDeparture, sourceZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	arr, err := toUTC(localArrival, destZone)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dep, arr, nil
}

func toUTC(local time.Time, zone string) (time.Time, error) {
	// time.LoadLocation maps "" to UTC; an airport without a zone is a data error.
	if zone == "" {
		return time.Time{}, fmt.Errorf("%w: empty identifier", ErrUnknownTimeZone)
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownTimeZone, zone)
	}
	y, mo, d := local.Date()
	h, mi, s := local.Clock()
	return time.Date(y, mo, d, h, mi, s, local.Nanosecond(), loc).UTC(), nil
}

// ResolveUTC recomputes and stores the flight's UTC times from its local
// times and route endpoint zones.
func (f *Flight) ResolveUTC() error {
	dep, arr, err := ResolveUTC(f.DepartureTime, f.Route.Source.TimeZone, f.ArrivalTime, f.Route.Destination.TimeZone)
	if err != nil {
		return err
	}
	if !arr.After(dep) {
		return fmt.Errorf("%w: departure %s, arrival %s (UTC)", ErrInvalidSchedule, dep.Format(time.RFC3339), arr.Format(time.RFC3339))
	}
	f.DepartureTimeUTC = &dep
	f.ArrivalTimeUTC = &arr
	return nil
}

// Duration reports arrival minus departure in UTC. ok is false when either
// UTC time is unset.
func (f Flight) Duration() (d time.Duration, ok bool) {
	if f.DepartureTimeUTC == nil || f.ArrivalTimeUTC == nil {
		return 0, false
	}
	return f.ArrivalTimeUTC.Sub(*f.DepartureTimeUTC), true
}

func (f Flight) DurationString() string {
	d, ok := f.Duration()
	if !ok {
		return DurationNotAvailable
	}
	return FormatDuration(d)
}

// FormatDuration floors d to whole minutes and renders it as "{h}h {m}m".
func FormatDuration(d time.Duration) string {
	minutes := int64(d / time.Minute)
	if d < 0 && d%time.Minute != 0 {
		minutes--
	}
	hours := minutes / 60
	rest := minutes % 60
	if rest < 0 {
		hours--
		rest += 60
	}
	return fmt.Sprintf("%dh %dm", hours, rest)
}

type FlightFilter struct {
	AirlineCompanyIDs []int64
}

func (f FlightFilter) IsEmpty() bool {
	return len(f.AirlineCompanyIDs) == 0
}
