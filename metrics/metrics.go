// Package metrics exposes Prometheus counters and histograms over the
// core pipeline: watcher events, loader reads and race-discards, IndexDb
// writes, and query latency. It is wired into the rich filedexd binary
// only — the core packages hold an optional *Metrics and call it, and a
// nil *Metrics (the zero value) is always safe to record against.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics records counters and histograms for a running filedex
// instance via OpenTelemetry, exported in Prometheus exposition format.
type Metrics struct {
	watcherEvents   metric.Int64Counter
	loaderReads     metric.Int64Counter
	loaderDiscards  metric.Int64Counter
	indexDbWrites   metric.Int64Counter
	queryDuration   metric.Float64Histogram
	queryCallsTotal metric.Int64Counter
}

// New creates a Metrics backed by a fresh OTel MeterProvider with a
// Prometheus reader attached. The reader registers with the default
// Prometheus registry; the caller serves scrapes of it through Handler.
func New() (*Metrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("filedex")

	watcherEvents, err := meter.Int64Counter(
		"filedex_watcher_events_total",
		metric.WithDescription("Filesystem events observed by the watcher, by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating watcher events counter: %w", err)
	}

	loaderReads, err := meter.Int64Counter(
		"filedex_loader_reads_total",
		metric.WithDescription("Files successfully read and emitted by the loader"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loader reads counter: %w", err)
	}

	loaderDiscards, err := meter.Int64Counter(
		"filedex_loader_discards_total",
		metric.WithDescription("Reads discarded by the loader due to a concurrent write race, invalid encoding, or a vanished file"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating loader discards counter: %w", err)
	}

	indexDbWrites, err := meter.Int64Counter(
		"filedex_indexdb_writes_total",
		metric.WithDescription("Writes applied to the IndexDb, by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating indexdb writes counter: %w", err)
	}

	queryDuration, err := meter.Float64Histogram(
		"filedex_query_duration_seconds",
		metric.WithDescription("IndexDb query latency in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating query duration histogram: %w", err)
	}

	queryCallsTotal, err := meter.Int64Counter(
		"filedex_query_calls_total",
		metric.WithDescription("Total IndexDb queries served"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating query calls counter: %w", err)
	}

	return &Metrics{
		watcherEvents:   watcherEvents,
		loaderReads:     loaderReads,
		loaderDiscards:  loaderDiscards,
		indexDbWrites:   indexDbWrites,
		queryDuration:   queryDuration,
		queryCallsTotal: queryCallsTotal,
	}, nil
}

// Handler returns the HTTP handler that serves the Prometheus
// exposition format over whatever registry the otel exporter attached
// to — the package default, since New doesn't configure a custom one.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordWatcherEvent records one filesystem event of the given kind
// (the Indexer passes model.EventKind.String(): "Created", "Modified",
// "Deleted").
func (m *Metrics) RecordWatcherEvent(ctx context.Context, kind string) {
	if m == nil || m.watcherEvents == nil {
		return
	}
	m.watcherEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// RecordLoaderRead records a successful read-and-emit, or a discard
// with the given reason ("race", "encoding", "vanished").
func (m *Metrics) RecordLoaderRead(ctx context.Context, discardReason string) {
	if m == nil {
		return
	}
	if discardReason == "" {
		if m.loaderReads != nil {
			m.loaderReads.Add(ctx, 1)
		}
		return
	}
	if m.loaderDiscards != nil {
		m.loaderDiscards.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", discardReason)))
	}
}

// RecordIndexDbWrite records a write applied to the IndexDb, by
// operation ("create", "modify", "delete").
func (m *Metrics) RecordIndexDbWrite(ctx context.Context, operation string) {
	if m == nil || m.indexDbWrites == nil {
		return
	}
	m.indexDbWrites.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordQuery records the latency of a single IndexDb.Query call.
func (m *Metrics) RecordQuery(ctx context.Context, duration time.Duration) {
	if m == nil || m.queryDuration == nil || m.queryCallsTotal == nil {
		return
	}
	m.queryDuration.Record(ctx, duration.Seconds())
	m.queryCallsTotal.Add(ctx, 1)
}
