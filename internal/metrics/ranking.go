package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/prodsearch/internal/domain/search/mode"
	"github.com/kailas-cloud/prodsearch/internal/usecase/ranking"
)

// Compile-time check: RankingMetrics implements ranking.Observer.
var _ ranking.Observer = (*RankingMetrics)(nil)

// RankingMetrics exports ranking engine statistics.
type RankingMetrics struct {
	candidates *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	results    *prometheus.HistogramVec
}

// NewRankingMetrics creates ranking metrics and registers them with reg.
func NewRankingMetrics(reg prometheus.Registerer) *RankingMetrics {
	m := &RankingMetrics{
		candidates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "ranking_candidates_total",
				Help:      "Candidates seen by each ranking stage",
			},
			[]string{"stage"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "ranking_duration_seconds",
				Help:      "Time spent scoring and ordering candidates",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
			[]string{"mode"},
		),
		results: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "ranking_results",
				Help:      "Number of ranked results returned",
				Buckets:   []float64{0, 1, 3, 5, 10, 20},
			},
			[]string{"mode"},
		),
	}
	reg.MustRegister(m.candidates, m.duration, m.results)
	return m
}

// ObserveRanking implements ranking.Observer.
func (m *RankingMetrics) ObserveRanking(md mode.Mode, s ranking.Stats, elapsed time.Duration) {
	m.candidates.WithLabelValues("input").Add(float64(s.Input))
	m.candidates.WithLabelValues("filtered").Add(float64(s.Filtered))
	m.candidates.WithLabelValues("skipped").Add(float64(s.Skipped))
	m.candidates.WithLabelValues("relevant").Add(float64(s.Relevant))
	m.candidates.WithLabelValues("returned").Add(float64(s.Returned))
	m.duration.WithLabelValues(string(md)).Observe(elapsed.Seconds())
	m.results.WithLabelValues(string(md)).Observe(float64(s.Returned))
}
