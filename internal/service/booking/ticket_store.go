package booking

import (
	"context"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/repository"
)

// TicketStore validates a seat against the flight's airplane and persists
// the ticket. Seat uniqueness is left to the storage constraint.
type TicketStore struct {
	orders   repository.OrderRepository
	alphabet string
}

func NewTicketStore(orders repository.OrderRepository) *TicketStore {
	return &TicketStore{orders: orders, alphabet: domain.SeatAlphabet}
}

func (s *TicketStore) CreateTicket(ctx context.Context, flight *domain.Flight, orderID int64, row int, seat string) (*domain.Ticket, error) {
	if err := domain.ValidateSeat(s.alphabet, row, seat, flight.Airplane.Layout()); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Row:      row,
		Seat:     seat,
		FlightID: flight.ID,
		OrderID:  orderID,
	}
	if err := s.orders.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}
	return ticket, nil
}
