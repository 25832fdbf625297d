// Package version holds the build information of pagestatic.
//
// The variables are injected at build time:
//
//	-ldflags "-X pagestatic/internal/version.version=v1.0.0 -X pagestatic/internal/version.commit=abc123 -X pagestatic/internal/version.buildTime=2025-01-01T00:00:00Z"
package version

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// These variables are set via ldflags during build.
// They should not be modified directly in code.
//
//nolint:gochecknoglobals // Required for build-time injection via ldflags.
var (
	// version holds the application version (e.g., "v1.0.0").
	version string
	// commit holds the git commit hash (e.g., "abc123def456").
	commit string
	// buildTime holds the build timestamp in RFC3339 format.
	buildTime string
)

// ApplicationName is the name of the application displayed in version output.
const ApplicationName = "pagestatic"

// Default values used when version information is not available.
const (
	DefaultVersion   = "dev"
	DefaultCommit    = "unknown"
	DefaultBuildTime = "unknown"
)

// Format constants for different output styles.
const (
	LabelVersion   = "Version"
	LabelCommit    = "Commit"
	LabelBuilt     = "Built"
	fieldSeparator = ": "
	lineSeparator  = "\n"
)

// VersionInfo encapsulates all version-related information with proper defaults.
type VersionInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// NewVersionInfo reads the build-time variables, substituting defaults for empty ones.
func NewVersionInfo() *VersionInfo {
	return &VersionInfo{
		Version:   withDefault(version, DefaultVersion),
		Commit:    withDefault(commit, DefaultCommit),
		BuildTime: withDefault(buildTime, DefaultBuildTime),
	}
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// FormatShort returns only the version number.
func (vi *VersionInfo) FormatShort() string {
	return vi.Version
}

// FormatFull returns the application name followed by one labeled line per field.
func (vi *VersionInfo) FormatFull() string {
	var builder strings.Builder

	builder.WriteString(ApplicationName)
	builder.WriteString(lineSeparator)
	for _, field := range [][2]string{
		{LabelVersion, vi.Version},
		{LabelCommit, vi.Commit},
		{LabelBuilt, vi.BuildTime},
	} {
		builder.WriteString(field[0])
		builder.WriteString(fieldSeparator)
		builder.WriteString(field[1])
		builder.WriteString(lineSeparator)
	}

	return builder.String()
}

// WriteShort writes the short format (version only) to the provided writer.
func (vi *VersionInfo) WriteShort(w io.Writer) error {
	_, err := fmt.Fprintln(w, vi.FormatShort())
	return err
}

// WriteFull writes the full format to the provided writer.
func (vi *VersionInfo) WriteFull(w io.Writer) error {
	_, err := fmt.Fprint(w, vi.FormatFull())
	return err
}

// Write writes the short or full format.
func (vi *VersionInfo) Write(w io.Writer, short bool) error {
	if short {
		return vi.WriteShort(w)
	}
	return vi.WriteFull(w)
}

// GetVersion returns the current version information.
func GetVersion() *VersionInfo {
	return NewVersionInfo()
}

// IsDevelopment returns true if the version indicates a development build.
func (vi *VersionInfo) IsDevelopment() bool {
	return vi.Version == DefaultVersion
}

// GetBuildTime attempts to parse the build time as a timestamp.
// Returns a zero time if the build time cannot be parsed.
func (vi *VersionInfo) GetBuildTime() time.Time {
	if vi.BuildTime == DefaultBuildTime {
		return time.Time{}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if parsed, err := time.Parse(layout, vi.BuildTime); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
