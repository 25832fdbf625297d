package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names for page analysis.
const (
	PageAnalysisMeterName             = "pagestatic/analysis"
	FilesAnalyzedCounterName          = "pagestatic_files_analyzed_total"
	CacheLookupCounterName            = "pagestatic_cache_lookups_total"
	ReportsPublishedCounterName       = "pagestatic_reports_published_total"
	FileAnalysisDurationHistogramName = "pagestatic_file_analysis_duration_seconds"
)

// Attribute keys used on page analysis metrics.
const (
	AttrLanguage = "language"
	AttrResult   = "result"
)

// Result attribute values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultHit     = "hit"
	ResultMiss    = "miss"
)

func getFileAnalysisLatencyBuckets() []float64 {
	return []float64{
		0.0005, // 500us
		0.001,  // 1ms
		0.005,  // 5ms
		0.01,   // 10ms
		0.025,  // 25ms
		0.05,   // 50ms
		0.1,    // 100ms
		0.5,    // 500ms
		1.0,    // 1s
	}
}

// instrumentCreator creates metric instruments with consistent options.
type instrumentCreator struct {
	meter metric.Meter
}

func newInstrumentCreator(meter metric.Meter) *instrumentCreator {
	return &instrumentCreator{meter: meter}
}

// createFloat64Histogram creates a histogram in seconds with explicit bucket boundaries.
func (ic *instrumentCreator) createFloat64Histogram(
	name, description string,
	buckets []float64,
) (metric.Float64Histogram, error) {
	return ic.meter.Float64Histogram(
		name,
		metric.WithDescription(description),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(buckets...),
	)
}

func (ic *instrumentCreator) createInt64Counter(name, description, unit string) (metric.Int64Counter, error) {
	return ic.meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
}

// PageAnalysisMetrics records OpenTelemetry metrics for page analysis.
type PageAnalysisMetrics struct {
	filesAnalyzed    metric.Int64Counter
	cacheLookups     metric.Int64Counter
	reportsPublished metric.Int64Counter
	analysisDuration metric.Float64Histogram
}

// NewPageAnalysisMetrics creates metrics on the global meter provider.
func NewPageAnalysisMetrics() (*PageAnalysisMetrics, error) {
	return NewPageAnalysisMetricsWithProvider(otel.GetMeterProvider())
}

// NewPageAnalysisMetricsWithProvider creates metrics on provider.
func NewPageAnalysisMetricsWithProvider(provider metric.MeterProvider) (*PageAnalysisMetrics, error) {
	ic := newInstrumentCreator(provider.Meter(PageAnalysisMeterName))

	filesAnalyzed, err := ic.createInt64Counter(
		FilesAnalyzedCounterName,
		"Number of page files analyzed",
		"1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", FilesAnalyzedCounterName, err)
	}

	cacheLookups, err := ic.createInt64Counter(
		CacheLookupCounterName,
		"Number of analysis cache lookups",
		"1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", CacheLookupCounterName, err)
	}

	reportsPublished, err := ic.createInt64Counter(
		ReportsPublishedCounterName,
		"Number of page reports handed to the publisher",
		"1",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", ReportsPublishedCounterName, err)
	}

	analysisDuration, err := ic.createFloat64Histogram(
		FileAnalysisDurationHistogramName,
		"Duration of single page file analysis in seconds",
		getFileAnalysisLatencyBuckets(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", FileAnalysisDurationHistogramName, err)
	}

	return &PageAnalysisMetrics{
		filesAnalyzed:    filesAnalyzed,
		cacheLookups:     cacheLookups,
		reportsPublished: reportsPublished,
		analysisDuration: analysisDuration,
	}, nil
}

// RecordFileAnalyzed records the outcome and duration of one file.
func (m *PageAnalysisMetrics) RecordFileAnalyzed(ctx context.Context, language string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(AttrLanguage, language),
		attribute.String(AttrResult, resultValue(success, ResultSuccess, ResultFailure)),
	)
	m.filesAnalyzed.Add(ctx, 1, attrs)
	m.analysisDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCacheLookup records a cache hit or miss.
func (m *PageAnalysisMetrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrResult, resultValue(hit, ResultHit, ResultMiss)),
	))
}

// RecordPublish records a publish attempt.
func (m *PageAnalysisMetrics) RecordPublish(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.reportsPublished.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrResult, resultValue(success, ResultSuccess, ResultFailure)),
	))
}

func resultValue(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
