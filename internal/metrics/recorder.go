package metrics

import "time"

// RenderResult enumerates render outcome categories for counters.
type RenderResult string

const (
	RenderSuccess RenderResult = "success"
	RenderCached  RenderResult = "cached"
	RenderFailed  RenderResult = "failed"
)

// Recorder defines observability hooks for build and render metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. The
// NoopRecorder default allows optional injection without nil checks.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncRenderResult(draft string, result RenderResult)
	IncBuildOutcome(outcome string) // outcome: success|failed
	SetPagesGenerated(n int)
	SetVersionsSelected(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncRenderResult(string, RenderResult)       {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetPagesGenerated(int)                      {}
func (NoopRecorder) SetVersionsSelected(int)                    {}
