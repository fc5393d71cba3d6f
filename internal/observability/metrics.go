package observability

import (
	"net/http"

	"github.com/GoSim-25-26J-441/netgen/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BatchMetrics exposes batch progress as Prometheus metrics. A nil
// *BatchMetrics is valid and records nothing.
type BatchMetrics struct {
	scenarios        *prometheus.CounterVec
	scenarioDuration prometheus.Histogram
	inFlight         prometheus.Gauge
	flows            prometheus.Counter
	qosSatisfied     prometheus.Counter
	packets          *prometheus.CounterVec
	events           prometheus.Counter
}

// NewBatchMetrics registers the batch metrics on reg
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	factory := promauto.With(reg)
	return &BatchMetrics{
		scenarios: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netgen_scenarios_total",
			Help: "Scenarios finished, by status and error kind",
		}, []string{"status", "error_kind"}),

		scenarioDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "netgen_scenario_duration_seconds",
			Help:    "Wall-clock time to generate, simulate and write one scenario",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "netgen_scenarios_in_flight",
			Help: "Scenarios currently being processed",
		}),

		flows: factory.NewCounter(prometheus.CounterOpts{
			Name: "netgen_flows_total",
			Help: "Flows labeled across all succeeded scenarios",
		}),

		qosSatisfied: factory.NewCounter(prometheus.CounterOpts{
			Name: "netgen_flows_qos_satisfied_total",
			Help: "Flows that met every QoS threshold",
		}),

		packets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "netgen_packets_total",
			Help: "Simulated packets by outcome",
		}, []string{"outcome"}),

		events: factory.NewCounter(prometheus.CounterOpts{
			Name: "netgen_simulation_events_total",
			Help: "Discrete events processed by the simulation engine",
		}),
	}
}

// ScenarioStarted marks one scenario as in flight
func (m *BatchMetrics) ScenarioStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// ScenarioFinished records the outcome of one scenario; out is nil for failures
func (m *BatchMetrics) ScenarioFinished(o models.ScenarioOutcome, out *models.ScenarioOutput) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.scenarios.WithLabelValues(string(o.Status), string(o.ErrorKind)).Inc()
	m.scenarioDuration.Observe(o.Elapsed.Seconds())
	if out == nil {
		return
	}

	m.flows.Add(float64(len(out.Flows)))
	m.qosSatisfied.Add(float64(out.QoSSatisfiedCount()))
	m.events.Add(float64(out.Events))

	var delivered int64
	lost := make(map[models.LossReason]int)
	for _, f := range out.Flows {
		delivered += f.DeliveredPackets
		for reason, n := range f.LossByReason {
			lost[reason] += n
		}
	}
	m.packets.WithLabelValues("delivered").Add(float64(delivered))
	for reason, n := range lost {
		m.packets.WithLabelValues(string(reason)).Add(float64(n))
	}
}

// MetricsHandler serves the metrics gathered by g
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
