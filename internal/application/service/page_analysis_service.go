package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/errors/domain"
	"pagestatic/internal/domain/valueobject"
	"pagestatic/internal/port/outbound"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const defaultAnalysisConcurrency = 4

// ProgressFunc is called after each file of a scan completes.
type ProgressFunc func(done, total int)

// PageAnalysisOptions tunes a PageAnalysisService.
type PageAnalysisOptions struct {
	Concurrency int
	FailFast    bool
	MaxFileSize int64 // zero disables the limit
}

// PageAnalysisService analyzes page files into export reports.
//
// The cache and publisher are optional. Cache failures degrade to a fresh
// analysis and publish failures are logged; neither fails a file.
type PageAnalysisService struct {
	parser    outbound.SourceParser
	extractor outbound.ExportExtractor
	cache     outbound.AnalysisCache
	publisher outbound.ReportPublisher
	metrics   *PageAnalysisMetrics
	progress  ProgressFunc
	opts      PageAnalysisOptions
}

// PageAnalysisOption configures optional collaborators.
type PageAnalysisOption func(*PageAnalysisService)

// WithCache enables result caching.
func WithCache(cache outbound.AnalysisCache) PageAnalysisOption {
	return func(s *PageAnalysisService) { s.cache = cache }
}

// WithPublisher publishes every successful report.
func WithPublisher(publisher outbound.ReportPublisher) PageAnalysisOption {
	return func(s *PageAnalysisService) { s.publisher = publisher }
}

// WithMetrics records OpenTelemetry metrics.
func WithMetrics(metrics *PageAnalysisMetrics) PageAnalysisOption {
	return func(s *PageAnalysisService) { s.metrics = metrics }
}

// WithProgress reports scan progress.
func WithProgress(fn ProgressFunc) PageAnalysisOption {
	return func(s *PageAnalysisService) { s.progress = fn }
}

// NewPageAnalysisService creates a new page analysis service.
func NewPageAnalysisService(
	parser outbound.SourceParser,
	extractor outbound.ExportExtractor,
	opts PageAnalysisOptions,
	options ...PageAnalysisOption,
) *PageAnalysisService {
	if opts.Concurrency < 1 {
		opts.Concurrency = defaultAnalysisConcurrency
	}

	s := &PageAnalysisService{
		parser:    parser,
		extractor: extractor,
		opts:      opts,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Scan analyzes files concurrently and returns one report per file in input order.
//
// A file that cannot be analyzed yields a failed report. With FailFast the
// first such failure aborts the scan and is returned instead.
func (s *PageAnalysisService) Scan(ctx context.Context, files []string) (*entity.ScanReport, error) {
	start := time.Now()
	ctx = logging.EnsureCorrelationID(ctx)

	reports := make([]*entity.PageReport, len(files))

	var (
		progressMu sync.Mutex
		done       int
	)
	markDone := func() {
		if s.progress == nil {
			return
		}
		progressMu.Lock()
		defer progressMu.Unlock()
		done++
		s.progress(done, len(files))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)

	for i, path := range files {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			report, err := s.AnalyzeFile(gctx, path)
			if err != nil {
				if s.opts.FailFast || gctx.Err() != nil {
					return fmt.Errorf("analysis of %s failed: %w", path, err)
				}
				report = entity.NewFailedPageReport(path, err)
			}
			reports[i] = report
			markDone()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scan := &entity.ScanReport{Pages: reports}
	scan.Summarize(time.Since(start))

	slogger.LogPerformance(ctx, "scan", time.Since(start), slogger.Fields{
		"files":      scan.Summary.Total,
		"failed":     scan.Summary.Failed,
		"cache_hits": scan.Summary.CacheHits,
	})
	return scan, nil
}

// AnalyzeFile reads and analyzes the page at path.
func (s *PageAnalysisService) AnalyzeFile(ctx context.Context, path string) (*entity.PageReport, error) {
	language, err := valueobject.LanguageFromPath(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, info.Size(), s.opts.MaxFileSize)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return s.AnalyzeSource(ctx, path, language, source)
}

// AnalyzeSource analyzes in-memory source as the page at path.
func (s *PageAnalysisService) AnalyzeSource(
	ctx context.Context,
	path string,
	language valueobject.Language,
	source []byte,
) (*entity.PageReport, error) {
	start := time.Now()
	key := valueobject.NewContentKey(language, source)

	report, err := s.analyze(ctx, path, language, key, source)
	s.metrics.RecordFileAnalyzed(ctx, language.Name(), err == nil, time.Since(start))
	if err != nil {
		slogger.Warn(ctx, "Page analysis failed", slogger.Fields{
			"path":  path,
			"error": err.Error(),
		})
		return nil, err
	}

	s.publish(ctx, report)
	return report, nil
}

func (s *PageAnalysisService) analyze(
	ctx context.Context,
	path string,
	language valueobject.Language,
	key valueobject.ContentKey,
	source []byte,
) (*entity.PageReport, error) {
	if cached, ok := s.lookup(ctx, key); ok {
		return entity.NewPageReport(path, language.Name(), key.Hash(), cached, true), nil
	}

	// An empty module has no exports and nothing to parse.
	if len(source) == 0 {
		info := entity.NewExportInfo()
		s.store(ctx, key, info)
		return entity.NewPageReport(path, language.Name(), key.Hash(), info, false), nil
	}

	tree, err := s.parser.ParseSource(ctx, language, source)
	if err != nil {
		return nil, err
	}

	info, err := s.extractor.Collect(ctx, tree)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, info)

	report := entity.NewPageReport(path, language.Name(), key.Hash(), info, false)
	report.SyntaxErrors = tree.HasSyntaxErrors()
	if report.SyntaxErrors {
		slogger.Debug(ctx, "Page parsed with syntax errors", slogger.Fields{"path": path})
	}
	return report, nil
}

func (s *PageAnalysisService) lookup(ctx context.Context, key valueobject.ContentKey) (*entity.ExportInfo, bool) {
	if s.cache == nil {
		return nil, false
	}

	info, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			slogger.Warn(ctx, "Cache lookup failed, analyzing from source", slogger.Fields{
				"key":   key.String(),
				"error": err.Error(),
			})
		}
		s.metrics.RecordCacheLookup(ctx, false)
		return nil, false
	}

	s.metrics.RecordCacheLookup(ctx, true)
	return info, true
}

func (s *PageAnalysisService) store(ctx context.Context, key valueobject.ContentKey, info *entity.ExportInfo) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, key, info); err != nil {
		slogger.Warn(ctx, "Failed to cache export info", slogger.Fields{
			"key":   key.String(),
			"error": err.Error(),
		})
	}
}

func (s *PageAnalysisService) publish(ctx context.Context, report *entity.PageReport) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishPageReport(ctx, report)
	s.metrics.RecordPublish(ctx, err == nil)
	if err != nil {
		slogger.Warn(ctx, "Failed to publish page report", slogger.Fields{
			"path":  report.Path,
			"error": err.Error(),
		})
	}
}
