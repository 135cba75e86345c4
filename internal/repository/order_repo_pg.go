package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ticketSeatConstraint = "tickets_flight_seat_key"

type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Order, int, error)
	GetForUser(ctx context.Context, id, userID int64) (*domain.Order, error)
	DeleteForUser(ctx context.Context, id, userID int64) error
}

type PGOrderRepository struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &PGOrderRepository{db: db}
}

func (r *PGOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO orders (user_id) VALUES ($1) RETURNING id, created_at`, order.UserID).
		Scan(&order.ID, &order.CreatedAt)
}

// CreateTicket inserts one ticket. The (flight, row, seat) unique constraint
// is the only guard against double booking.
func (r *PGOrderRepository) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	err := conn(ctx, r.db).QueryRow(ctx,
		`INSERT INTO tickets (seat_row, seat_letter, flight_id, order_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		ticket.Row, ticket.Seat, ticket.FlightID, ticket.OrderID).
		Scan(&ticket.ID)
	if err != nil {
		return mapTicketInsertError(err, ticket)
	}
	return nil
}

func mapTicketInsertError(err error, ticket *domain.Ticket) error {
	switch {
	case isUniqueViolation(err) && constraintName(err) == ticketSeatConstraint:
		return &domain.SeatTakenError{FlightID: ticket.FlightID, Row: ticket.Row, Seat: ticket.Seat}
	case isForeignKeyViolation(err) && constraintName(err) == "tickets_flight_id_fkey":
		return fmt.Errorf("%w: id %d", domain.ErrFlightNotFound, ticket.FlightID)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, ticket.OrderID)
	}
	return err
}

func (r *PGOrderRepository) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Order, int, error) {
	page = page.Normalize()
	q := conn(ctx, r.db)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := q.Query(ctx, `
SELECT id, user_id, created_at FROM orders
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	orders := make([]domain.Order, 0, page.Limit)
	ids := make([]int64, 0, page.Limit)
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.UserID, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	tickets, err := r.ticketsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range orders {
		orders[i].Tickets = tickets[orders[i].ID]
	}
	return orders, total, nil
}

func (r *PGOrderRepository) GetForUser(ctx context.Context, id, userID int64) (*domain.Order, error) {
	var o domain.Order
	err := conn(ctx, r.db).QueryRow(ctx,
		`SELECT id, user_id, created_at FROM orders WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&o.ID, &o.UserID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	tickets, err := r.ticketsFor(ctx, []int64{o.ID})
	if err != nil {
		return nil, err
	}
	o.Tickets = tickets[o.ID]
	return &o, nil
}

// ticketsFor returns tickets grouped by order id, each group sorted by (row, seat).
func (r *PGOrderRepository) ticketsFor(ctx context.Context, orderIDs []int64) (map[int64][]domain.Ticket, error) {
	out := make(map[int64][]domain.Ticket, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := conn(ctx, r.db).Query(ctx, `
SELECT id, seat_row, seat_letter, flight_id, order_id FROM tickets
WHERE order_id = ANY($1)
ORDER BY order_id, seat_row, seat_letter`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Row, &t.Seat, &t.FlightID, &t.OrderID); err != nil {
			return nil, err
		}
		out[t.OrderID] = append(out[t.OrderID], t)
	}
	return out, rows.Err()
}

// DeleteForUser removes the order; tickets go with it through ON DELETE CASCADE.
func (r *PGOrderRepository) DeleteForUser(ctx context.Context, id, userID int64) error {
	res, err := conn(ctx, r.db).Exec(ctx, `DELETE FROM orders WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
	}
	return nil
}

var _ OrderRepository = (*PGOrderRepository)(nil)
