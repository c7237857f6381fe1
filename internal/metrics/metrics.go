package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ModelCalls       prometheus.Counter
	ActionExecutions *prometheus.CounterVec
	RespondRequests  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ModelCalls: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fathom_model_calls_total",
				Help: "Total number of model completions requested",
			},
		),
		ActionExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fathom_action_executions_total",
				Help: "Total number of action executions by action name and status",
			},
			[]string{"action", "status"},
		),
		RespondRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fathom_respond_requests_total",
				Help: "Total number of /respond requests by status",
			},
			[]string{"status"},
		),
	}
	reg.MustRegister(m.ModelCalls, m.ActionExecutions, m.RespondRequests)
	return m
}
