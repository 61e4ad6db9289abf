// Package metrics provides observability hooks for build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, which implements the interface with methods that inline to
// nothing. Swapping in NewPrometheusRecorder activates real collection
// without code changes; the preview server exposes the registry via Handler.
package metrics
