package cmd

import (
	"encoding/json"
	"os"
	"pagestatic/internal/domain/entity"
	"pagestatic/internal/version"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const edgePage = `'use client'
export const runtime = 'edge'
export const preferredRegion = ['iad1', 'sfo1']
export const getServerSideProps = async () => ({ props: {} })
export function Page() { return null }
`

func writePages(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

func decodeReport(t *testing.T, data string) entity.ScanReport {
	t.Helper()
	var report entity.ScanReport
	require.NoError(t, json.Unmarshal([]byte(data), &report))
	return report
}

func TestScanCommand_JSON(t *testing.T) {
	dir := writePages(t, map[string]string{
		"pages/index.tsx":           edgePage,
		"pages/about.js":            "export const revalidate = 60\n",
		"pages/notes.md":            "# not a page\n",
		"node_modules/lib/index.js": "export const runtime = 'nodejs'\n",
	})

	out, err := execute(t, dir, "scan", "--no-cache", dir)
	require.NoError(t, err)

	report := decodeReport(t, out)
	require.Len(t, report.Pages, 2)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Analyzed)
	assert.Zero(t, report.Summary.Failed)

	require.NotNil(t, report.Generator)
	assert.Equal(t, version.ApplicationName, report.Generator.Name)
	assert.Equal(t, version.DefaultVersion, report.Generator.Version)
	assert.True(t, report.Generator.Development)
	assert.Nil(t, report.Generator.BuiltAt)

	about, index := report.Pages[0], report.Pages[1]
	assert.Equal(t, filepath.Join(dir, "pages", "about.js"), about.Path)
	assert.Equal(t, []string{"revalidate"}, about.Exports.ExtraProperties.Sorted())
	assert.Nil(t, about.Exports.Runtime)

	require.NotNil(t, index.Exports)
	runtime, ok := index.Exports.RuntimeValue()
	require.True(t, ok)
	assert.Equal(t, "edge", runtime)
	assert.Equal(t, []string{"iad1", "sfo1"}, index.Exports.PreferredRegion)
	assert.Equal(t, []string{"client"}, index.Exports.Directives.Sorted())
	assert.Equal(t, []string{"getServerSideProps"}, index.DataFetchingExports)
}

func TestNewReportGenerator(t *testing.T) {
	released := time.Date(2025, 6, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		info        *version.VersionInfo
		development bool
		builtAt     *time.Time
	}{
		{
			name:        "development build",
			info:        &version.VersionInfo{Version: version.DefaultVersion, Commit: version.DefaultCommit, BuildTime: version.DefaultBuildTime},
			development: true,
		},
		{
			name:    "release build is normalized to UTC",
			info:    &version.VersionInfo{Version: "v1.2.0", Commit: "9f8e7d6", BuildTime: "2025-06-20T14:00:00+02:00"},
			builtAt: &released,
		},
		{
			name: "unparseable build time is omitted",
			info: &version.VersionInfo{Version: "v1.2.0", Commit: "9f8e7d6", BuildTime: "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newReportGenerator(tt.info)
			assert.Equal(t, version.ApplicationName, got.Name)
			assert.Equal(t, tt.info.Version, got.Version)
			assert.Equal(t, tt.info.Commit, got.Commit)
			assert.Equal(t, tt.development, got.Development)
			if tt.builtAt == nil {
				assert.Nil(t, got.BuiltAt)
				return
			}
			require.NotNil(t, got.BuiltAt)
			assert.True(t, tt.builtAt.Equal(*got.BuiltAt))
			assert.Equal(t, time.UTC, got.BuiltAt.Location())
		})
	}
}

func TestScanCommand_YAMLToFile(t *testing.T) {
	dir := writePages(t, map[string]string{"app/page.ts": edgePage})
	outFile := filepath.Join(t.TempDir(), "report.yaml")

	out, err := execute(t, dir, "scan", "--format", "yaml", "-o", outFile, dir)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var doc struct {
		Pages []struct {
			Path    string `yaml:"path"`
			Exports struct {
				Runtime         string   `yaml:"runtime"`
				PreferredRegion []string `yaml:"preferred_region"`
			} `yaml:"exports"`
		} `yaml:"pages"`
		Summary struct {
			Total int `yaml:"total"`
		} `yaml:"summary"`
	}
	require.NoError(t, yaml.Unmarshal(data, &doc))
	require.Len(t, doc.Pages, 1)
	assert.Equal(t, "edge", doc.Pages[0].Exports.Runtime)
	assert.Equal(t, []string{"iad1", "sfo1"}, doc.Pages[0].Exports.PreferredRegion)
	assert.Equal(t, 1, doc.Summary.Total)
}

func TestScanCommand_FailedPages(t *testing.T) {
	dir := writePages(t, map[string]string{
		"pages/small.js": "export const a = 1\n",
		"pages/large.js": "export const data = '" + strings.Repeat("x", 256) + "'\n",
	})

	out, err := execute(t, dir, "scan", "--no-cache", "--max-file-size", "64", dir)
	require.ErrorIs(t, err, ErrPagesFailed)

	report := decodeReport(t, out)
	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Analyzed)
	for _, page := range report.Pages {
		if strings.HasSuffix(page.Path, "large.js") {
			assert.True(t, page.Failed())
			assert.Nil(t, page.Exports)
		}
	}
}

func TestScanCommand_EnvironmentOverridesDefaults(t *testing.T) {
	dir := writePages(t, map[string]string{
		"pages/index.js": edgePage,
		"pages/skip.js":  "export const runtime = 'nodejs'\n",
	})
	t.Setenv("PAGESTATIC_SCAN_EXCLUDE", "**/skip.js")

	out, err := execute(t, dir, "scan", "--no-cache", dir)
	require.NoError(t, err)

	report := decodeReport(t, out)
	require.Len(t, report.Pages, 1)
	assert.True(t, strings.HasSuffix(report.Pages[0].Path, "index.js"))
}

func TestScanCommand_DotEnvFile(t *testing.T) {
	dir := writePages(t, map[string]string{
		"pages/index.js": edgePage,
		".env":           "PAGESTATIC_OUTPUT_FORMAT=yaml\n",
	})
	t.Cleanup(func() { _ = os.Unsetenv("PAGESTATIC_OUTPUT_FORMAT") })

	out, err := execute(t, dir, "scan", "--no-cache", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pages:"), out)
}

func TestScanCommand_PersistentCache(t *testing.T) {
	dir := writePages(t, map[string]string{"pages/index.js": edgePage})
	cachePath := filepath.Join(t.TempDir(), "cache.db")

	_, err := execute(t, dir, "scan", "--cache-path", cachePath, dir)
	require.NoError(t, err)

	out, err := execute(t, dir, "scan", "--cache-path", cachePath, dir)
	require.NoError(t, err)

	report := decodeReport(t, out)
	require.Len(t, report.Pages, 1)
	assert.True(t, report.Pages[0].Cached)
	assert.Equal(t, 1, report.Summary.CacheHits)
}

func TestScanCommand_InvalidPattern(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "scan", "--include", "[", dir)
	require.Error(t, err)
}

func TestASTCommand(t *testing.T) {
	dir := writePages(t, map[string]string{"page.js": "'use server'\n"})

	t.Run("tree", func(t *testing.T) {
		out, err := execute(t, dir, "ast", filepath.Join(dir, "page.js"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "program: "), out)
		assert.Contains(t, out, "  expression_statement: ")
		assert.Contains(t, out, `"'use server'"`)
		assert.Regexp(t, `(?m)^# JavaScript: \d+ nodes, depth \d+, 0 errors, parsed in `, out)
	})

	t.Run("sexp", func(t *testing.T) {
		out, err := execute(t, dir, "ast", "--sexp", filepath.Join(dir, "page.js"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "(program"), out)
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, err := execute(t, dir, "ast", "--lang", "COBOL", filepath.Join(dir, "page.js"))
		require.Error(t, err)
	})
}
