package filefilter

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// GitignoreMatcher matches gitignore patterns by translating them into
// doublestar globs. Translations are cached per pattern.
type GitignoreMatcher struct {
	mu    sync.RWMutex
	globs map[string]compiledGlob
}

type compiledGlob struct {
	glob    string
	dirOnly bool
}

// NewGitignoreMatcher creates a new gitignore matcher.
func NewGitignoreMatcher() *GitignoreMatcher {
	return &GitignoreMatcher{globs: make(map[string]compiledGlob)}
}

// MatchPattern reports whether path, relative to the .gitignore directory,
// is matched by pattern. Descendants of a matched directory also match.
// pattern is taken literally: negation is already split off by the parser.
func (m *GitignoreMatcher) MatchPattern(pattern, path string, isDir bool) bool {
	path = strings.TrimPrefix(filepath.ToSlash(path), "./")
	if pattern == "" || path == "" {
		return false
	}

	compiled := m.compile(pattern)

	if !compiled.dirOnly || isDir {
		if ok, err := doublestar.Match(compiled.glob, path); err == nil && ok {
			return true
		}
	}
	ok, err := doublestar.Match(compiled.glob+"/**", path)
	return err == nil && ok
}

// Ignored applies patterns in order; the last matching pattern decides.
func (m *GitignoreMatcher) Ignored(patterns []GitignorePattern, path string, isDir bool) bool {
	ignored := false
	for _, p := range patterns {
		if m.MatchPattern(p.Pattern, path, isDir) {
			ignored = !p.IsNegation
		}
	}
	return ignored
}

// GetCacheSize returns the number of cached translations.
func (m *GitignoreMatcher) GetCacheSize() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.globs)
}

func (m *GitignoreMatcher) compile(pattern string) compiledGlob {
	m.mu.RLock()
	compiled, ok := m.globs[pattern]
	m.mu.RUnlock()
	if ok {
		return compiled
	}

	compiled = gitignoreToGlob(pattern)

	m.mu.Lock()
	m.globs[pattern] = compiled
	m.mu.Unlock()
	return compiled
}

// gitignoreToGlob converts a gitignore pattern into a doublestar glob.
// A pattern with a leading or inner slash is anchored to the .gitignore
// directory; any other pattern matches at every depth.
func gitignoreToGlob(pattern string) compiledGlob {
	dirOnly := strings.HasSuffix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	anchored := strings.Contains(pattern, "/")
	pattern = strings.TrimPrefix(pattern, "/")

	if !anchored {
		pattern = "**/" + pattern
	}
	return compiledGlob{glob: pattern, dirOnly: dirOnly}
}
