package metrics

import (
	"errors"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airport_orders_created_total",
		Help: "The total number of committed orders",
	})
	TicketsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airport_tickets_sold_total",
		Help: "The total number of tickets committed as part of an order",
	})
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "airport_orders_rejected_total",
		Help: "Order submissions rolled back, by reason",
	}, []string{"reason"})
	FlightsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "airport_flights_completed_total",
		Help: "Flights marked completed by the worker sweep",
	})
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "airport_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Reason classifies an error for the rejected-orders counter.
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
