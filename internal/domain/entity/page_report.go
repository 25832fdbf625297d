package entity

import "time"

// PageReport is the analysis outcome for one page file.
//
// Exports is nil when the file could not be analyzed; Error then holds the reason.
type PageReport struct {
	Path                string      `json:"path"                            yaml:"path"`
	Language            string      `json:"language,omitempty"              yaml:"language,omitempty"`
	ContentHash         string      `json:"content_hash,omitempty"          yaml:"content_hash,omitempty"`
	Exports             *ExportInfo `json:"exports,omitempty"               yaml:"exports,omitempty"`
	DataFetchingExports []string    `json:"data_fetching_exports,omitempty" yaml:"data_fetching_exports,omitempty"`
	SyntaxErrors        bool        `json:"syntax_errors,omitempty"         yaml:"syntax_errors,omitempty"`
	Cached              bool        `json:"cached"                          yaml:"cached"`
	Error               string      `json:"error,omitempty"                 yaml:"error,omitempty"`
	AnalyzedAt          time.Time   `json:"analyzed_at"                     yaml:"analyzed_at"`
}

// NewPageReport builds a successful report, deriving the data-fetching exports from info.
func NewPageReport(path, language, contentHash string, info *ExportInfo, cached bool) *PageReport {
	return &PageReport{
		Path:                path,
		Language:            language,
		ContentHash:         contentHash,
		Exports:             info,
		DataFetchingExports: info.DataFetchingExports(),
		Cached:              cached,
		AnalyzedAt:          time.Now().UTC(),
	}
}

// NewFailedPageReport builds a report for a file that could not be analyzed.
func NewFailedPageReport(path string, err error) *PageReport {
	return &PageReport{
		Path:       path,
		Error:      err.Error(),
		AnalyzedAt: time.Now().UTC(),
	}
}

// Failed reports whether the file could not be analyzed.
func (r *PageReport) Failed() bool {
	return r.Error != ""
}

// ScanSummary aggregates the reports of one scan.
type ScanSummary struct {
	Total       int           `json:"total"        yaml:"total"`
	Analyzed    int           `json:"analyzed"     yaml:"analyzed"`
	Failed      int           `json:"failed"       yaml:"failed"`
	CacheHits   int           `json:"cache_hits"   yaml:"cache_hits"`
	Duration    time.Duration `json:"duration_ns"  yaml:"duration"`
	CompletedAt time.Time     `json:"completed_at" yaml:"completed_at"`
}

// ReportGenerator identifies the build that produced a scan report.
//
// BuiltAt is nil when the build time was not injected or cannot be parsed.
type ReportGenerator struct {
	Name        string     `json:"name"               yaml:"name"`
	Version     string     `json:"version"            yaml:"version"`
	Commit      string     `json:"commit"             yaml:"commit"`
	Development bool       `json:"development"        yaml:"development"`
	BuiltAt     *time.Time `json:"built_at,omitempty" yaml:"built_at,omitempty"`
}

// ScanReport is the document printed by the scan command.
type ScanReport struct {
	Generator *ReportGenerator `json:"generator,omitempty" yaml:"generator,omitempty"`
	Pages     []*PageReport    `json:"pages"               yaml:"pages"`
	Summary   ScanSummary      `json:"summary"             yaml:"summary"`
}

// Summarize fills Summary from Pages.
func (r *ScanReport) Summarize(duration time.Duration) {
	summary := ScanSummary{
		Total:       len(r.Pages),
		Duration:    duration,
		CompletedAt: time.Now().UTC(),
	}
	for _, page := range r.Pages {
		switch {
		case page.Failed():
			summary.Failed++
		case page.Cached:
			summary.Analyzed++
			summary.CacheHits++
		default:
			summary.Analyzed++
		}
	}
	r.Summary = summary
}
