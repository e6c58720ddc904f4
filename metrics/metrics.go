package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yeremiapane/newrestaurant/events"
)

var (
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_http_requests_total",
		Help: "Total number of HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "restaurant_http_request_duration_seconds",
		Help:    "Latency of HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// Domain events seen on the hub, by event type.
	DomainEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "restaurant_domain_events_total",
		Help: "Total number of domain events published",
	}, []string{"event"})

	ReservationConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "restaurant_reservation_conflicts_total",
		Help: "Reservation requests rejected because the table was already booked",
	})
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequests,
			HTTPLatency,
			DomainEvents,
			ReservationConflicts,
		)
	})
}

// CountEvents subscribes to every event on hub.
func CountEvents(hub *events.Hub) (unsubscribe func()) {
	return hub.Subscribe(func(m events.Message) {
		DomainEvents.WithLabelValues(m.Event).Inc()
	})
}
