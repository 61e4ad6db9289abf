package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration    *prom.HistogramVec
	buildDuration    prom.Histogram
	renderResults    *prom.CounterVec
	buildOutcome     *prom.CounterVec
	pagesGenerated   prom.Gauge
	versionsSelected prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "draftsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "draftsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		renderResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "draftsite",
			Name:      "render_results_total",
			Help:      "Converter invocations by draft and outcome",
		}, []string{"draft", "result"}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "draftsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		pagesGenerated: prom.NewGauge(prom.GaugeOpts{
			Namespace: "draftsite",
			Name:      "last_build_pages_generated",
			Help:      "Pages generated in the most recent build",
		}),
		versionsSelected: prom.NewGauge(prom.GaugeOpts{
			Namespace: "draftsite",
			Name:      "last_build_versions_selected",
			Help:      "Draft versions selected in the most recent build",
		}),
	}

	reg.MustRegister(
		pr.stageDuration,
		pr.buildDuration,
		pr.renderResults,
		pr.buildOutcome,
		pr.pagesGenerated,
		pr.versionsSelected,
	)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderResult(draft string, result RenderResult) {
	p.renderResults.WithLabelValues(draft, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPagesGenerated(n int) {
	p.pagesGenerated.Set(float64(n))
}

func (p *PrometheusRecorder) SetVersionsSelected(n int) {
	p.versionsSelected.Set(float64(n))
}

// Handler returns an http.Handler serving Prometheus metrics for the registry.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
