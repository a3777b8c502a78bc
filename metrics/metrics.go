package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "boules_registrations_total", Help: "Total event registrations created"},
	)
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "boules_generations_total", Help: "Total team and bracket generations, by trigger"},
		[]string{"trigger"},
	)
	ResultSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "boules_result_submissions_total", Help: "Total score submissions, by outcome"},
		[]string{"outcome"},
	)
)

func Register() {
	prometheus.MustRegister(Registrations, Generations, ResultSubmissions)
}
