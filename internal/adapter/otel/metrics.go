package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "ledger"

// Metrics holds all ledger metric instruments.
type Metrics struct {
	AuditsStarted   metric.Int64Counter
	AuditsCompleted metric.Int64Counter
	AuditScore      metric.Float64Histogram
	ExportsRecorded metric.Int64Counter
	SweepDeleted    metric.Int64Counter
	ContextReads    metric.Int64Counter
	ArtifactHits    metric.Int64Counter
	ArtifactMisses  metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.AuditsStarted, err = meter.Int64Counter("ledger.audits.started",
		metric.WithDescription("Number of audit runs started"))
	if err != nil {
		return nil, err
	}

	m.AuditsCompleted, err = meter.Int64Counter("ledger.audits.completed",
		metric.WithDescription("Number of audit runs completed"))
	if err != nil {
		return nil, err
	}

	m.AuditScore, err = meter.Float64Histogram("ledger.audit.overall_score",
		metric.WithDescription("Overall score of completed audit runs"))
	if err != nil {
		return nil, err
	}

	m.ExportsRecorded, err = meter.Int64Counter("ledger.exports.recorded",
		metric.WithDescription("Number of export attempts recorded"))
	if err != nil {
		return nil, err
	}

	m.SweepDeleted, err = meter.Int64Counter("ledger.sweep.deleted",
		metric.WithDescription("Number of context entries removed by retention sweeps"))
	if err != nil {
		return nil, err
	}

	m.ContextReads, err = meter.Int64Counter("ledger.context.reads",
		metric.WithDescription("Number of context entry reads"))
	if err != nil {
		return nil, err
	}

	m.ArtifactHits, err = meter.Int64Counter("ledger.artifact.cache_hits",
		metric.WithDescription("Artifact resolutions served from cache"))
	if err != nil {
		return nil, err
	}

	m.ArtifactMisses, err = meter.Int64Counter("ledger.artifact.cache_misses",
		metric.WithDescription("Artifact resolutions that fell through to the store"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
