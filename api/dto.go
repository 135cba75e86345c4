package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
)

// LocalTimeLayout is the wire format of naive airport-local times.
const LocalTimeLayout = "2006-01-02T15:04:05"

var localTimeLayouts = []string{LocalTimeLayout, "2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04"}

// localTime is a wall-clock time without zone information.
type localTime struct {
	time.Time
}

func (t *localTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("%w: time must not be null", domain.ErrValidation)
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: time must be a string", domain.ErrValidation)
	}
	for _, layout := range localTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a local time in %s format", domain.ErrValidation, s, LocalTimeLayout)
}

type flightRequest struct {
	Name          *string    `json:"name"`
	Route         *int64     `json:"route"`
	Airplane      *int64     `json:"airplane"`
	DepartureTime *localTime `json:"departure_time"`
	ArrivalTime   *localTime `json:"arrival_time"`
	Crew          *[]int64   `json:"crew"`
	IsCompleted   *bool      `json:"is_completed"`
}

type airplaneResponse struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Rows           int    `json:"rows"`
	SeatsInRow     int    `json:"seats_in_row"`
	Capacity       int    `json:"capacity"`
	AirlineCompany string `json:"airline_company"`
}

type flightResponse struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Route            domain.Route     `json:"route"`
	Source           string           `json:"source"`
	Destination      string           `json:"destination"`
	Airplane         airplaneResponse `json:"airplane"`
	AirplaneName     string           `json:"airplane_name"`
	DepartureTime    string           `json:"departure_time"`
	ArrivalTime      string           `json:"arrival_time"`
	DepartureTimeUTC *time.Time       `json:"departure_time_utc"`
	ArrivalTimeUTC   *time.Time       `json:"arrival_time_utc"`
	Duration         string           `json:"duration"`
	IsCompleted      bool             `json:"is_completed"`
	Crew             []int64          `json:"crew"`
	CrewMembers      []string         `json:"crew_members"`
}

func newFlightResponse(f *domain.Flight) flightResponse {
	crew := f.CrewIDs
	if crew == nil {
		crew = []int64{}
	}
	members := f.CrewMembers
	if members == nil {
		members = []string{}
	}
	return flightResponse{
		ID:          f.ID,
		Name:        f.Name,
		Route:       f.Route,
		Source:      f.Route.Source.City,
		Destination: f.Route.Destination.City,
		Airplane: airplaneResponse{
			ID:             f.Airplane.ID,
			Name:           f.Airplane.Name,
			Rows:           f.Airplane.Rows,
			SeatsInRow:     f.Airplane.SeatsInRow,
			Capacity:       f.Airplane.Capacity(),
			AirlineCompany: f.Airplane.AirlineCompany,
		},
		AirplaneName:     f.Airplane.Name,
		DepartureTime:    f.DepartureTime.Format(LocalTimeLayout),
		ArrivalTime:      f.ArrivalTime.Format(LocalTimeLayout),
		DepartureTimeUTC: f.DepartureTimeUTC,
		ArrivalTimeUTC:   f.ArrivalTimeUTC,
		Duration:         f.DurationString(),
		IsCompleted:      f.IsCompleted,
		Crew:             crew,
		CrewMembers:      members,
	}
}

type createOrderRequest struct {
	Tickets []domain.TicketRequest `json:"tickets"`
}

type ticketResponse struct {
	ID     int64  `json:"id"`
	Row    int    `json:"row"`
	Seat   string `json:"seat"`
	Flight int64  `json:"flight"`
}

type ticketDetailResponse struct {
	ID     int64           `json:"id"`
	Row    int             `json:"row"`
	Seat   string          `json:"seat"`
	Flight *flightResponse `json:"flight"`
}

type orderResponse struct {
	ID        int64            `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Tickets   []ticketResponse `json:"tickets"`
}

type orderDetailResponse struct {
	ID        int64                  `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	Tickets   []ticketDetailResponse `json:"tickets"`
}

type orderListResponse struct {
	Count   int             `json:"count"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
	Results []orderResponse `json:"results"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	tickets := make([]ticketResponse, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		tickets = append(tickets, ticketResponse{ID: t.ID, Row: t.Row, Seat: t.Seat, Flight: t.FlightID})
	}
	return orderResponse{ID: o.ID, CreatedAt: o.CreatedAt, Tickets: tickets}
}

func newOrderDetailResponse(o *domain.Order) orderDetailResponse {
	tickets := make([]ticketDetailResponse, 0, len(o.Tickets))
	for _, t := range o.Tickets {
		item := ticketDetailResponse{ID: t.ID, Row: t.Row, Seat: t.Seat}
		if t.Flight != nil {
			f := newFlightResponse(t.Flight)
			item.Flight = &f
		}
		tickets = append(tickets, item)
	}
	return orderDetailResponse{ID: o.ID, CreatedAt: o.CreatedAt, Tickets: tickets}
}
