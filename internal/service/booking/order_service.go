package booking

import (
	"context"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/kafka"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/Domenick1991/airport/internal/metrics"
	"github.com/Domenick1991/airport/internal/repository"
)

type OrderUseCase interface {
	CreateOrder(ctx context.Context, userID int64, tickets []domain.TicketRequest) (*domain.Order, error)
	ListOrders(ctx context.Context, userID int64, page domain.Page) ([]domain.Order, int, error)
	GetOrder(ctx context.Context, userID, id int64) (*domain.Order, error)
	DeleteOrder(ctx context.Context, userID, id int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type OrderService struct {
	tx                 repository.Transactor
	orders             repository.OrderRepository
	flights            repository.FlightRepository
	tickets            *TicketStore
	producer           Producer
	ordersTopic        string
	notificationsTopic string
}

type OrderServiceOption func(*OrderService)

func WithProducer(producer Producer, ordersTopic, notificationsTopic string) OrderServiceOption {
	return func(s *OrderService) {
		s.producer = producer
		s.ordersTopic = ordersTopic
		s.notificationsTopic = notificationsTopic
	}
}

func NewOrderService(
	tx repository.Transactor,
	orders repository.OrderRepository,
	flights repository.FlightRepository,
	opts ...OrderServiceOption,
) *OrderService {
	service := &OrderService{
		tx:      tx,
		orders:  orders,
		flights: flights,
		tickets: NewTicketStore(orders),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// CreateOrder stores an order and all of its tickets atomically. Tickets are
// created in request order and the first failure aborts the whole order.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, requests []domain.TicketRequest) (*domain.Order, error) {
	log := logger.WithContext(ctx)

	if len(requests) == 0 {
		metrics.OrdersRejected.WithLabelValues(metrics.Reason(domain.ErrEmptyOrder)).Inc()
		return nil, domain.ErrEmptyOrder
	}

	order := &domain.Order{UserID: userID}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}

		flights := make(map[int64]*domain.Flight)
		order.Tickets = make([]domain.Ticket, 0, len(requests))
		for i, req := range requests {
			flight, ok := flights[req.FlightID]
			if !ok {
				f, err := s.flights.GetByID(ctx, req.FlightID)
				if err != nil {
					return &domain.TicketError{Index: i, Err: err}
				}
				flights[req.FlightID] = f
				flight = f
			}

			ticket, err := s.tickets.CreateTicket(ctx, flight, order.ID, req.Row, req.Seat)
			if err != nil {
				return &domain.TicketError{Index: i, Err: err}
			}
			order.Tickets = append(order.Tickets, *ticket)
		}
		return nil
	})
	if err != nil {
		metrics.OrdersRejected.WithLabelValues(metrics.Reason(err)).Inc()
		log.Warn("order rejected", "tickets", len(requests), "error", err)
		return nil, err
	}

	domain.SortTickets(order.Tickets)
	metrics.OrdersCreated.Inc()
	metrics.TicketsSold.Add(float64(len(order.Tickets)))
	log.Info("order created", "order_id", order.ID, "tickets", len(order.Tickets))

	s.publish(ctx, kafka.EventOrderCreated, order)
	return order, nil
}

// ListOrders returns the user's orders newest first with the total count.
func (s *OrderService) ListOrders(ctx context.Context, userID int64, page domain.Page) ([]domain.Order, int, error) {
	return s.orders.ListByUser(ctx, userID, page.Normalize())
}

// GetOrder returns one of the user's orders with full flight detail on every ticket.
func (s *OrderService) GetOrder(ctx context.Context, userID, id int64) (*domain.Order, error) {
	order, err := s.orders.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(order.Tickets))
	seen := make(map[int64]bool, len(order.Tickets))
	for _, t := range order.Tickets {
		if !seen[t.FlightID] {
			seen[t.FlightID] = true
			ids = append(ids, t.FlightID)
		}
	}
	flights, err := s.flights.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range order.Tickets {
		order.Tickets[i].Flight = flights[order.Tickets[i].FlightID]
	}
	domain.SortTickets(order.Tickets)
	return order, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, userID, id int64) error {
	var deleted *domain.Order
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetForUser(ctx, id, userID)
		if err != nil {
			return err
		}
		if err := s.orders.DeleteForUser(ctx, id, userID); err != nil {
			return err
		}
		deleted = order
		return nil
	})
	if err != nil {
		return err
	}

	logger.WithContext(ctx).Info("order deleted", "order_id", id, "tickets", len(deleted.Tickets))
	s.publish(ctx, kafka.EventOrderDeleted, deleted)
	return nil
}

// publish runs after commit; a failed publish never undoes the order.
func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	if s.producer == nil || s.ordersTopic == "" {
		return
	}
	event := kafka.NewOrderEvent(eventType, order)
	if err := s.producer.Publish(ctx, s.ordersTopic, event.Key(), event); err != nil {
		logger.WithContext(ctx).Warn("failed to publish order event", "type", eventType, "order_id", order.ID, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.Key(), event); err != nil {
			logger.WithContext(ctx).Warn("failed to publish notification", "type", eventType, "order_id", order.ID, "error", err)
		}
	}
}

var _ OrderUseCase = (*OrderService)(nil)
