package chat

import "github.com/prometheus/client_golang/prometheus"

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_turns_total",
			Help: "Chat turns answered, by the rule that produced the reply.",
		},
		[]string{"tier"},
	)
	turnErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatbot_turn_errors_total",
			Help: "Chat turns rejected or failed, by error code.",
		},
		[]string{"code"},
	)
	analyticsFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_analytics_failures_total",
			Help: "Analytics writes that failed after a committed turn.",
		},
	)
	eventPublishFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbot_event_publish_failures_total",
			Help: "Turn events that could not be published.",
		},
	)
)

func init() {
	prometheus.MustRegister(turnsTotal, turnErrors, analyticsFailures, eventPublishFailures)
}
