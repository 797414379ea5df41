package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "headlines"

// Metrics содержит метрики Prometheus сценария получения заголовков.
//
//   - headlines_flow_runs_total{outcome}: завершенные прогоны по исходу
//   - headlines_region_source_total{source}: регион определен (derived) или взят по умолчанию (default)
//   - headlines_fetch_duration_seconds{outcome}: длительность запроса заголовков
//   - headlines_published_articles: число статей в последнем опубликованном списке
//   - headlines_refresh_triggers_total{source}: запросы на обновление (http, signal, startup)
type Metrics struct {
	FlowRuns          *prometheus.CounterVec
	RegionSource      *prometheus.CounterVec
	FetchDuration     *prometheus.HistogramVec
	PublishedArticles prometheus.Gauge
	RefreshTriggers   *prometheus.CounterVec
}

// New создает метрики и регистрирует их в reg.
// Тесты передают собственный prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FlowRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flow_runs_total",
			Help:      "Total number of completed headline flow runs by outcome.",
		}, []string{"outcome"}),
		RegionSource: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_source_total",
			Help:      "Total number of flow runs by region source (derived or default).",
		}, []string{"source"}),
		FetchDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of top headlines requests.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"outcome"}),
		PublishedArticles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_articles",
			Help:      "Number of articles in the currently displayed list.",
		}),
		RefreshTriggers: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_triggers_total",
			Help:      "Total number of refresh triggers by source.",
		}, []string{"source"}),
	}
}

// FetchCompleted записывает длительность запроса; успешная публикация
// обновляет число отображаемых статей.
func (m *Metrics) FetchCompleted(outcome string, articles int, elapsed time.Duration) {
	m.FetchDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if outcome == "published" {
		m.PublishedArticles.Set(float64(articles))
	}
}

func (m *Metrics) FlowCompleted(outcome string, derived bool) {
	m.FlowRuns.WithLabelValues(outcome).Inc()
	source := "default"
	if derived {
		source = "derived"
	}
	m.RegionSource.WithLabelValues(source).Inc()
}

func (m *Metrics) RefreshTriggered(source string) {
	m.RefreshTriggers.WithLabelValues(source).Inc()
}
