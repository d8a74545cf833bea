// Package metrics records run statistics and writes them in the
// Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the collectors of a single run.
type Recorder struct {
	registry *prometheus.Registry

	Regions           *prometheus.CounterVec
	DownloadAttempts  *prometheus.CounterVec
	DownloadBytes     prometheus.Counter
	FeaturesWritten   prometheus.Counter
	OutputBytes       prometheus.Counter
	RegionDurationSec prometheus.Histogram
	LastRun           prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Regions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placebounds_regions_total",
			Help: "Regions processed, by status",
		}, []string{"status"}),
		DownloadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "placebounds_download_attempts_total",
			Help: "Archive download attempts, by outcome",
		}, []string{"outcome"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "placebounds_download_bytes_total",
			Help: "Bytes of archives downloaded",
		}),
		FeaturesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "placebounds_features_written_total",
			Help: "Features written to boundary files",
		}),
		OutputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "placebounds_output_bytes_total",
			Help: "Bytes of boundary files written",
		}),
		RegionDurationSec: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "placebounds_region_duration_seconds",
			Help:    "Time spent processing one region",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300},
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "placebounds_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}

	r.registry.MustRegister(
		r.Regions,
		r.DownloadAttempts,
		r.DownloadBytes,
		r.FeaturesWritten,
		r.OutputBytes,
		r.RegionDurationSec,
		r.LastRun,
	)
	return r
}

// Region records the outcome of one region.
func (r *Recorder) Region(status string, d time.Duration) {
	r.Regions.WithLabelValues(status).Inc()
	r.RegionDurationSec.Observe(d.Seconds())
}

// AttemptFailed records a failed download attempt.
func (r *Recorder) AttemptFailed() {
	r.DownloadAttempts.WithLabelValues("failure").Inc()
}

// Downloaded records a successful download of size bytes.
func (r *Recorder) Downloaded(size int64) {
	r.DownloadAttempts.WithLabelValues("success").Inc()
	r.DownloadBytes.Add(float64(size))
}

// Written records an output file.
func (r *Recorder) Written(features int, size int64) {
	r.FeaturesWritten.Add(float64(features))
	r.OutputBytes.Add(float64(size))
}

// WriteFile stamps the finish time and writes all metrics to path.
func (r *Recorder) WriteFile(path string) error {
	r.LastRun.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, r.registry)
}
