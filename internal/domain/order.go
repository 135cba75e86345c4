package domain

import (
	"sort"
	"strings"
	"time"
)

type Order struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
	Tickets   []Ticket
}

type Ticket struct {
	ID       int64
	Row      int
	Seat     string
	FlightID int64
	OrderID  int64
	Flight   *Flight
}

type TicketRequest struct {
	Row      int    `json:"row"`
	Seat     string `json:"seat"`
	FlightID int64  `json:"flight"`
}

// SortTickets orders tickets by (row, seat) ascending.
func SortTickets(tickets []Ticket) {
	sort.SliceStable(tickets, func(i, j int) bool {
		if tickets[i].Row != tickets[j].Row {
			return tickets[i].Row < tickets[j].Row
		}
		return strings.Compare(tickets[i].Seat, tickets[j].Seat) < 0
	})
}

type Page struct {
	Limit  int
	Offset int
}

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
