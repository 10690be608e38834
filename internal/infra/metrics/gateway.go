package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"p24-gateway/internal/domain"
	"p24-gateway/internal/infra/adapters/payment/p24"
)

func init() {
	register(
		gatewayRequestsTotal,
		gatewayRequestDuration,
	)
}

var (
	// result: ok|validation|decode|gateway|transport
	gatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "p24_requests_total",
			Help: "Calls to the Przelewy24 API by operation and result.",
		},
		[]string{"operation", "result"},
	)

	gatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "p24_request_duration_seconds",
			Help:    "Duration of Przelewy24 API calls in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

var _ p24.Observer = GatewayObserver{}

// GatewayObserver feeds client dispatches into the p24_* collectors.
type GatewayObserver struct{}

func (GatewayObserver) ObserveCall(operation string, elapsed time.Duration, err error) {
	op := norm(operation)
	gatewayRequestsTotal.WithLabelValues(op, CallResult(err)).Inc()
	gatewayRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// CallResult buckets a dispatch error into a bounded label value.
func CallResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrDecode):
		return "decode"
	case errors.Is(err, domain.ErrGateway):
		return "gateway"
	default:
		return "transport"
	}
}
