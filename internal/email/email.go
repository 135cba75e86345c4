package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/airport/internal/kafka"
	"github.com/Domenick1991/airport/internal/logger"
)

// Sender delivers order notifications. Delivery is a log line for now;
// the mail provider lives outside this service.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.OrderEvent) error {
	logger.WithContext(ctx).Info("send notification",
		"user_id", event.UserID,
		"order_id", event.OrderID,
		"event", event.Type,
		"body", Body(event),
	)
	return nil
}

// Body renders the human readable notification text for an event.
func Body(event kafka.OrderEvent) string {
	switch event.Type {
	case kafka.EventOrderCreated:
		seats := make([]string, 0, len(event.Tickets))
		for _, t := range event.Tickets {
			seats = append(seats, fmt.Sprintf("flight %d seat %d%s", t.FlightID, t.Row, t.Seat))
		}
		return fmt.Sprintf("Order #%d confirmed: %s", event.OrderID, strings.Join(seats, ", "))
	case kafka.EventOrderDeleted:
		return fmt.Sprintf("Order #%d cancelled", event.OrderID)
	default:
		return fmt.Sprintf("Order #%d: %s", event.OrderID, event.Type)
	}
}
