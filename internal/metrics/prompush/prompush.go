// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang CounterVec and SummaryVec collectors.
//   - Mapping the pipeline labels (job, stage, status, source, kind,
//     issue_type) onto Prometheus labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which suits a batch job that exits
//     when the reconciliation run is done.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends (e.g. Datadog, StatsD) without changes to the core
// pipeline.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/shiv0924/jjm-platform/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Stage-level metrics
	stageCounter  *prometheus.CounterVec // "jjm_stage_total"
	stageDuration *prometheus.SummaryVec // "jjm_stage_duration_seconds"

	// Row- and anomaly-level metrics
	rowCounter     *prometheus.CounterVec // "jjm_rows_total"
	anomalyCounter *prometheus.CounterVec // "jjm_anomalies_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "jjm"
	}

	reg := prometheus.NewRegistry()

	// The job label is the Pushgateway grouping key, so the collectors only
	// carry the remaining dynamic labels.
	stageCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jjm_stage_total",
			Help: "Total number of pipeline stage executions, partitioned by stage and status.",
		},
		[]string{"stage", "status"},
	)
	stageDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "jjm_stage_duration_seconds",
			Help:       "Duration of pipeline stages in seconds, partitioned by stage and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"stage", "status"},
	)

	// ROW metrics: source (imis, zp, gsda, ...) and kind (parsed, skipped, ...).
	rowCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jjm_rows_total",
			Help: "Row-level counts per source and kind (parsed, skipped, persisted, etc.).",
		},
		[]string{"source", "kind"},
	)

	// ANOMALY metrics: issue_type matches the Issue_Type column of the anomaly table.
	anomalyCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jjm_anomalies_total",
			Help: "Total number of detected anomalies, partitioned by issue type.",
		},
		[]string{"issue_type"},
	)

	if err := reg.Register(stageCounter); err != nil {
		return nil, fmt.Errorf("prompush: register stage counter: %w", err)
	}
	if err := reg.Register(stageDuration); err != nil {
		return nil, fmt.Errorf("prompush: register stage summary: %w", err)
	}
	if err := reg.Register(rowCounter); err != nil {
		return nil, fmt.Errorf("prompush: register row counter: %w", err)
	}
	if err := reg.Register(anomalyCounter); err != nil {
		return nil, fmt.Errorf("prompush: register anomaly counter: %w", err)
	}

	return &Backend{
		gatewayURL:     gatewayURL,
		jobName:        jobName,
		reg:            reg,
		stageCounter:   stageCounter,
		stageDuration:  stageDuration,
		rowCounter:     rowCounter,
		anomalyCounter: anomalyCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "jjm_stage_total":
		if b.stageCounter == nil {
			return
		}
		stage := labels["stage"]
		status := labels["status"]
		b.stageCounter.WithLabelValues(stage, status).Add(delta)

	case "jjm_rows_total":
		if b.rowCounter == nil {
			return
		}
		source := labels["source"]
		kind := labels["kind"]
		b.rowCounter.WithLabelValues(source, kind).Add(delta)

	case "jjm_anomalies_total":
		if b.anomalyCounter == nil {
			return
		}
		issueType := labels["issue_type"]
		b.anomalyCounter.WithLabelValues(issueType).Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "jjm_stage_duration_seconds" || b.stageDuration == nil {
		return
	}
	stage := labels["stage"]
	status := labels["status"]
	b.stageDuration.WithLabelValues(stage, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
