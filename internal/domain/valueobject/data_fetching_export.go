package valueobject

import "slices"

// Export names with special build-time meaning for page classification.
const (
	ExportGetStaticProps        = "getStaticProps"
	ExportGetServerSideProps    = "getServerSideProps"
	ExportGenerateImageMetadata = "generateImageMetadata"
	ExportGenerateSitemaps      = "generateSitemaps"
	ExportGenerateStaticParams  = "generateStaticParams"
)

// Export names read by the collector itself rather than reported as extra properties.
const (
	ExportRuntime         = "runtime"
	ExportPreferredRegion = "preferredRegion"
)

//nolint:gochecknoglobals // Immutable recognized-name set shared with downstream classifiers.
var dataFetchingExports = map[string]struct{}{
	ExportGetStaticProps:        {},
	ExportGetServerSideProps:    {},
	ExportGenerateImageMetadata: {},
	ExportGenerateSitemaps:      {},
	ExportGenerateStaticParams:  {},
}

// IsDataFetchingExport reports whether name is one of the recognized data-fetching exports.
func IsDataFetchingExport(name string) bool {
	_, ok := dataFetchingExports[name]
	return ok
}

// DataFetchingExports returns the recognized data-fetching export names, sorted.
func DataFetchingExports() []string {
	names := make([]string, 0, len(dataFetchingExports))
	for name := range dataFetchingExports {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
