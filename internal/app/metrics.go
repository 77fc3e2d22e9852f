package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// bookingMetricsRecorder exports workflow outcomes through the global OTel meter.
type bookingMetricsRecorder struct {
	created   metric.Int64Counter
	amount    metric.Float64Histogram
	verified  metric.Int64Counter
	cancelled metric.Int64Counter
}

func newBookingMetricsRecorder() *bookingMetricsRecorder {
	meter := otel.Meter("booking")
	created, _ := meter.Int64Counter("bookings_created_total",
		metric.WithDescription("Booking create attempts by result"))
	amount, _ := meter.Float64Histogram("booking_amount",
		metric.WithDescription("Total amount of created bookings"))
	verified, _ := meter.Int64Counter("payments_verified_total",
		metric.WithDescription("Payment verifications by result"))
	cancelled, _ := meter.Int64Counter("bookings_cancelled_total",
		metric.WithDescription("Cancellation attempts by result and refund"))
	return &bookingMetricsRecorder{created: created, amount: amount, verified: verified, cancelled: cancelled}
}

func (r *bookingMetricsRecorder) RecordBookingCreated(ctx context.Context, amount float64, result string) {
	attrs := metric.WithAttributes(attribute.String("result", result))
	if r.created != nil {
		r.created.Add(ctx, 1, attrs)
	}
	if r.amount != nil && result == "success" {
		r.amount.Record(ctx, amount)
	}
}

func (r *bookingMetricsRecorder) RecordPaymentVerified(ctx context.Context, result string) {
	if r.verified == nil {
		return
	}
	r.verified.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (r *bookingMetricsRecorder) RecordBookingCancelled(ctx context.Context, refunded bool, result string) {
	if r.cancelled == nil {
		return
	}
	r.cancelled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
		attribute.Bool("refunded", refunded),
	))
}
