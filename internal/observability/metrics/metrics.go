package metrics

import "github.com/prometheus/client_golang/prometheus"

// EngineMetrics exposes counters/histograms for the decision engine.
type EngineMetrics struct {
	turnsTotal   *prometheus.CounterVec
	scamsTotal   *prometheus.CounterVec
	blocksTotal  *prometheus.CounterVec
	riskScore    prometheus.Histogram
	turnLatency  *prometheus.HistogramVec
	reportsTotal *prometheus.CounterVec
}

func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "engine",
			Name:      "turns_total",
			Help:      "Total processed conversation turns",
		}, []string{"result"}),
		scamsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "engine",
			Name:      "scams_detected_total",
			Help:      "Total turns with a confirmed scam detection",
		}, []string{"scam_type"}),
		blocksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "engine",
			Name:      "blocks_total",
			Help:      "Total conversations blocked, by rule",
		}, []string{"rule"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "honeypot",
			Subsystem: "engine",
			Name:      "risk_score",
			Help:      "Distribution of per-turn risk scores",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "honeypot",
			Subsystem: "engine",
			Name:      "turn_latency_seconds",
			Help:      "Latency of turn processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"result"}),
		reportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "honeypot",
			Subsystem: "report",
			Name:      "published_total",
			Help:      "Total blocked-conversation reports published",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.scamsTotal, m.blocksTotal, m.riskScore, m.turnLatency, m.reportsTotal)
	return m
}

func (m *EngineMetrics) ObserveTurn(result string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(result).Inc()
	m.turnLatency.WithLabelValues(result).Observe(seconds)
}

func (m *EngineMetrics) ObserveScamDetected(scamType string) {
	if m == nil {
		return
	}
	m.scamsTotal.WithLabelValues(scamType).Inc()
}

func (m *EngineMetrics) ObserveBlock(rule string) {
	if m == nil {
		return
	}
	m.blocksTotal.WithLabelValues(rule).Inc()
}

func (m *EngineMetrics) ObserveRiskScore(score int) {
	if m == nil {
		return
	}
	m.riskScore.Observe(float64(score))
}

func (m *EngineMetrics) ObserveReportPublished(status string) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(status).Inc()
}
