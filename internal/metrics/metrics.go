package metrics

import (
	"fmt"
	"net/http"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
)

// WebhookResult counts one webhook outcome, e.g. "valid", "stale_timestamp".
func WebhookResult(result string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`fygaro_webhook_total{result=%q}`, result)).Inc()
}

// PayLinkResult counts one pay-link issuance outcome.
func PayLinkResult(result string) {
	vm.GetOrCreateCounter(fmt.Sprintf(`fygaro_paylink_total{result=%q}`, result)).Inc()
}

// OrderServiceCall records one outbound Order Service call.
func OrderServiceCall(op string, err error, started time.Time) {
	result := "success"
	if err != nil {
		result = "error"
	}
	vm.GetOrCreateCounter(fmt.Sprintf(`order_service_requests_total{op=%q,result=%q}`, op, result)).Inc()
	vm.GetOrCreateHistogram(fmt.Sprintf(`order_service_request_duration_seconds{op=%q}`, op)).UpdateDuration(started)
}

// Handler exposes every registered metric in Prometheus text format.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vm.WritePrometheus(w, false)
	})
}
