package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(notificationsTotal) }

// Notification results.
const (
	NotificationVerified    = "verified"
	NotificationBadSign     = "bad_sign"
	NotificationBadJSON     = "bad_json"
	NotificationMismatch    = "mismatch"
	NotificationDuplicate   = "duplicate"
	NotificationVerifyError = "verify_error"
)

var notificationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "p24_notifications_total",
		Help: "Inbound gateway notifications by handling result.",
	},
	[]string{"result"},
)

func IncNotification(result string) {
	notificationsTotal.WithLabelValues(norm(result)).Inc()
}
