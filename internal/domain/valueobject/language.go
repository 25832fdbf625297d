package valueobject

import (
	"errors"
	"fmt"
	"pagestatic/internal/domain/errors/domain"
	"path/filepath"
	"slices"
	"strings"
)

// Page module languages understood by the export collector.
const (
	LanguageJavaScript = "JavaScript"
	LanguageTypeScript = "TypeScript"
	LanguageTSX        = "TSX"
	LanguageUnknown    = "Unknown"
)

// Language identifies the grammar a page module is parsed with.
type Language struct {
	name       string
	grammar    string
	extensions []string
}

//nolint:gochecknoglobals // Immutable language registry.
var supportedLanguages = map[string]Language{
	LanguageJavaScript: {
		name:       LanguageJavaScript,
		grammar:    "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
	},
	LanguageTypeScript: {
		name:       LanguageTypeScript,
		grammar:    "typescript",
		extensions: []string{".ts", ".mts", ".cts"},
	},
	LanguageTSX: {
		name:       LanguageTSX,
		grammar:    "tsx",
		extensions: []string{".tsx"},
	},
}

// NewLanguage returns the supported language with the given name.
func NewLanguage(name string) (Language, error) {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return Language{}, errors.New("language name cannot be empty")
	}

	for key, lang := range supportedLanguages {
		if strings.EqualFold(key, normalized) || strings.EqualFold(lang.grammar, normalized) {
			return lang, nil
		}
	}

	return Language{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedLanguage, normalized)
}

// SupportedLanguages returns every supported language ordered by name.
func SupportedLanguages() []Language {
	langs := make([]Language, 0, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		langs = append(langs, lang)
	}
	slices.SortFunc(langs, func(a, b Language) int {
		return strings.Compare(a.name, b.name)
	})
	return langs
}

// LanguageFromPath picks the language from a file's extension.
// Declaration files (.d.ts) are not page modules and are rejected.
func LanguageFromPath(path string) (Language, error) {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, ".d.ts") || strings.HasSuffix(base, ".d.mts") || strings.HasSuffix(base, ".d.cts") {
		return Language{}, fmt.Errorf("%w: declaration file %s", domain.ErrUnsupportedLanguage, path)
	}

	ext := filepath.Ext(base)
	for _, lang := range supportedLanguages {
		if slices.Contains(lang.extensions, ext) {
			return lang, nil
		}
	}

	return Language{}, fmt.Errorf("%w: extension %q", domain.ErrUnsupportedLanguage, ext)
}

// Name returns the display name of the language.
func (l Language) Name() string {
	if l.name == "" {
		return LanguageUnknown
	}
	return l.name
}

// Grammar returns the tree-sitter grammar name used to parse the language.
func (l Language) Grammar() string {
	return l.grammar
}

// Extensions returns the file extensions mapped to the language.
func (l Language) Extensions() []string {
	return slices.Clone(l.extensions)
}

// IsZero reports whether the language is unset.
func (l Language) IsZero() bool {
	return l.name == ""
}

// Equal reports whether two languages are the same.
func (l Language) Equal(other Language) bool {
	return l.name == other.name
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return l.Name()
}

// MarshalText encodes the language by name.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.Name()), nil
}

// UnmarshalText decodes a language name produced by MarshalText.
func (l *Language) UnmarshalText(text []byte) error {
	lang, err := NewLanguage(string(text))
	if err != nil {
		return err
	}
	*l = lang
	return nil
}
