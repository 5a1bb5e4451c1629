// Package metrics exports pipeline measurements to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/skywatch/internal/core/domain"
	"github.com/custodia-labs/skywatch/internal/core/ports/driven"
)

// Ensure Prometheus implements the interface.
var _ driven.Metrics = (*Prometheus)(nil)

const namespace = "skywatch"

// Prometheus implements driven.Metrics with client_golang collectors.
type Prometheus struct {
	gatherer prometheus.Gatherer

	frames        prometheus.Counter
	commits       *prometheus.CounterVec
	blockFailures prometheus.Counter
	dropped       prometheus.Counter
	writes        *prometheus.CounterVec
	lastSeq       prometheus.Gauge
	recomputes    *prometheus.CounterVec
	recomputeTime prometheus.Histogram
	filesScanned  *prometheus.CounterVec
	identities    prometheus.Gauge
	scoreFailures prometheus.Counter
}

// NewPrometheus creates the collectors and registers them with a fresh
// registry that also carries the Go and process collectors.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewPrometheusWith(reg, reg)
}

// NewPrometheusWith registers the collectors with reg. gatherer backs Handler.
func NewPrometheusWith(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Prometheus {
	p := &Prometheus{
		gatherer: gatherer,
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firehose_frames_total",
			Help:      "Frames received from the firehose.",
		}),
		commits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firehose_commits_total",
			Help:      "Commits handled, by outcome.",
		}, []string{"outcome"}),
		blockFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firehose_block_failures_total",
			Help:      "Blocks that could not be decoded.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firehose_blocks_dropped_total",
			Help:      "Decoded blocks rejected by the record filter.",
		}),
		writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_written_total",
			Help:      "Record writes, by type and status.",
		}, []string{"type", "status"}),
		lastSeq: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "firehose_last_seq",
			Help:      "Sequence number of the last commit handled.",
		}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reputation_recomputes_total",
			Help:      "Reputation recompute passes, by outcome.",
		}, []string{"outcome"}),
		recomputeTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reputation_recompute_seconds",
			Help:      "Duration of reputation recompute passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		filesScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reputation_files_total",
			Help:      "Record files folded by recompute passes, by status.",
		}, []string{"status"}),
		identities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reputation_identities",
			Help:      "Identities in the reputation store after the last pass.",
		}),
		scoreFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reputation_score_failures_total",
			Help:      "Identities whose score fell back to zero.",
		}),
	}

	reg.MustRegister(
		p.frames, p.commits, p.blockFailures, p.dropped, p.writes, p.lastSeq,
		p.recomputes, p.recomputeTime, p.filesScanned, p.identities, p.scoreFailures,
	)
	return p
}

// FrameReceived implements driven.Metrics.
func (p *Prometheus) FrameReceived() {
	p.frames.Inc()
}

// CommitProcessed implements driven.Metrics.
func (p *Prometheus) CommitProcessed(result domain.CommitResult) {
	p.lastSeq.Set(float64(result.Seq))
	if result.Skipped {
		p.commits.WithLabelValues("skipped").Inc()
		return
	}
	p.commits.WithLabelValues("processed").Inc()
	p.blockFailures.Add(float64(len(result.BlockFailures)))
	p.dropped.Add(float64(result.Dropped))
	for _, w := range result.Writes {
		p.writes.WithLabelValues(w.Type, w.Status.String()).Inc()
	}
}

// RecomputeFinished implements driven.Metrics.
func (p *Prometheus) RecomputeFinished(result domain.ScanResult, elapsed time.Duration, err error) {
	p.recomputeTime.Observe(elapsed.Seconds())
	if err != nil {
		p.recomputes.WithLabelValues("failed").Inc()
		return
	}
	p.recomputes.WithLabelValues("ok").Inc()
	p.filesScanned.WithLabelValues("applied").Add(float64(result.Applied()))
	p.filesScanned.WithLabelValues("skipped").Add(float64(result.Skipped()))
	p.identities.Set(float64(result.Identities))
	p.scoreFailures.Add(float64(len(result.ScoreFailures)))
}

// Handler serves the registry in the Prometheus exposition format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
