package booking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking status transitions by outcome.",
	}, []string{"from", "to", "result"})

	bookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_created_total",
		Help: "Bookings created by booking type.",
	}, []string{"booking_type"})
)
