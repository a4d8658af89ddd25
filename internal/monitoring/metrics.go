package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the conversion counters. Each Metrics owns its registry so
// tests and batch runs do not share global state.
type Metrics struct {
	Registry *prometheus.Registry

	JobsTotal       *prometheus.CounterVec
	FramesRendered  prometheus.Counter
	BytesRead       prometheus.Counter
	RenderDuration  prometheus.Histogram
	TableBuild      prometheus.Histogram
	TablePixels     *prometheus.GaugeVec
	JobsInFlight    prometheus.Gauge
	ConvertDuration prometheus.Histogram
}

// NewMetrics registers the conversion metrics on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		JobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aris2video_jobs_total",
			Help: "Conversion jobs by final status",
		}, []string{"status", "reason"}),
		FramesRendered: f.NewCounter(prometheus.CounterOpts{
			Name: "aris2video_frames_rendered_total",
			Help: "Frames rendered and handed to a video sink",
		}),
		BytesRead: f.NewCounter(prometheus.CounterOpts{
			Name: "aris2video_payload_bytes_read_total",
			Help: "Frame payload bytes read from recordings",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aris2video_frame_render_seconds",
			Help:    "Time to render one frame",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		TableBuild: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aris2video_table_build_seconds",
			Help:    "Time to build a scan conversion table",
			Buckets: prometheus.DefBuckets,
		}),
		TablePixels: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aris2video_table_pixels",
			Help: "Pixels in the most recent scan conversion table",
		}, []string{"region"}),
		JobsInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "aris2video_jobs_in_flight",
			Help: "Conversion jobs currently running",
		}),
		ConvertDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "aris2video_job_duration_seconds",
			Help:    "Wall time of a conversion job",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600},
		}),
	}
}

// RecordJob counts a finished job. reason is empty on success.
func (m *Metrics) RecordJob(status, reason string, d time.Duration) {
	if m == nil {
		return
	}
	m.JobsTotal.WithLabelValues(status, reason).Inc()
	m.ConvertDuration.Observe(d.Seconds())
}

// RecordFrame counts one rendered frame.
func (m *Metrics) RecordFrame(payloadBytes int, d time.Duration) {
	if m == nil {
		return
	}
	m.FramesRendered.Inc()
	m.BytesRead.Add(float64(payloadBytes))
	m.RenderDuration.Observe(d.Seconds())
}

// RecordTable records a table build.
func (m *Metrics) RecordTable(valid, outside int, d time.Duration) {
	if m == nil {
		return
	}
	m.TableBuild.Observe(d.Seconds())
	m.TablePixels.WithLabelValues("fan").Set(float64(valid))
	m.TablePixels.WithLabelValues("outside").Set(float64(outside))
}

// JobStarted and JobDone track in-flight jobs.
func (m *Metrics) JobStarted() {
	if m != nil {
		m.JobsInFlight.Inc()
	}
}

func (m *Metrics) JobDone() {
	if m != nil {
		m.JobsInFlight.Dec()
	}
}

// WriteTextfile writes the registry in the text exposition format for the
// node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
