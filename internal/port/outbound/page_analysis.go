package outbound

import (
	"context"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/domain/valueobject"
)

// SourceParser turns page module source into a syntax tree.
type SourceParser interface {
	ParseSource(ctx context.Context, language valueobject.Language, source []byte) (*valueobject.ParseTree, error)
}

// ExportExtractor derives static export metadata from a parsed page module.
type ExportExtractor interface {
	Collect(ctx context.Context, tree *valueobject.ParseTree) (*entity.ExportInfo, error)
}

// AnalysisCache stores ExportInfo by content key.
//
// Get returns domain.ErrCacheMiss when no entry exists. Implementations must
// be safe for concurrent use and must hand out copies, never shared records.
type AnalysisCache interface {
	Get(ctx context.Context, key valueobject.ContentKey) (*entity.ExportInfo, error)
	Put(ctx context.Context, key valueobject.ContentKey, info *entity.ExportInfo) error
	Close() error
}

// ReportPublisher ships page reports to downstream consumers.
type ReportPublisher interface {
	PublishPageReport(ctx context.Context, report *entity.PageReport) error
}

// PageWalker expands files and directories into the page files to analyze.
type PageWalker interface {
	Walk(ctx context.Context, roots []string) ([]string, error)
}
