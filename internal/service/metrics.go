package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Coupon validation outcomes.
const (
	couponResultValid         = "valid"
	couponResultNotFound      = "not_found"
	couponResultNotValid      = "not_valid"
	couponResultUsageExceeded = "usage_exceeded"
)

var (
	ordersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created at checkout",
		},
	)

	orderStatusTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_transitions_total",
			Help: "Total number of order status changes by source and target status",
		},
		[]string{"from", "to"},
	)

	couponValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_validations_total",
			Help: "Total number of coupon validations by result",
		},
		[]string{"result"},
	)
)
