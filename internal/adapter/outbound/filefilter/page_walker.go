package filefilter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"pagestatic/internal/application/common/logging"
	"pagestatic/internal/application/common/slogger"
	"pagestatic/internal/domain/errors/domain"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// WalkerOptions configures a PageWalker.
type WalkerOptions struct {
	Include          []string
	Exclude          []string
	RespectGitignore bool
}

// PageWalker expands directories into the page files below them.
//
// Patterns are doublestar globs matched against slash-separated paths
// relative to the directory being walked. Files named explicitly are
// returned as given and bypass the patterns.
type PageWalker struct {
	include          []string
	exclude          []string
	respectGitignore bool
	gitignoreParser  *GitignoreParser
	matcher          *GitignoreMatcher
	logger           logging.ApplicationLogger
}

// NewPageWalker validates the patterns in opts and returns a walker.
func NewPageWalker(opts WalkerOptions) (*PageWalker, error) {
	include := opts.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}

	for _, pattern := range slices.Concat(include, opts.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: bad glob pattern %q", domain.ErrInvalidInput, pattern)
		}
	}

	return &PageWalker{
		include:          include,
		exclude:          opts.Exclude,
		respectGitignore: opts.RespectGitignore,
		gitignoreParser:  NewGitignoreParser(),
		matcher:          NewGitignoreMatcher(),
		logger:           slogger.WithComponent("page-walker"),
	}, nil
}

// Walk returns the sorted, de-duplicated page files found under roots.
func (w *PageWalker) Walk(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", root, err)
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		found, err := w.walkDir(ctx, root)
		if err != nil {
			return nil, err
		}
		for _, path := range found {
			add(path)
		}
	}

	slices.Sort(files)

	w.logger.Debug(ctx, "Expanded scan roots", slogger.Fields{
		"roots": len(roots),
		"files": len(files),
	})
	return files, nil
}

func (w *PageWalker) walkDir(ctx context.Context, root string) ([]string, error) {
	var ignore []GitignorePattern
	if w.respectGitignore {
		patterns, err := w.gitignoreParser.LoadPatterns(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("failed to load .gitignore in %s: %w", root, err)
		}
		ignore = patterns
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) && path != root {
				w.logger.Warn(ctx, "Skipping unreadable path", slogger.Fields{"path": path})
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if w.matchesAny(w.exclude, rel) || w.matchesAny(w.exclude, rel+"/") ||
				w.matcher.Ignored(ignore, rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if w.matchesAny(w.include, rel) && !w.matchesAny(w.exclude, rel) &&
			!w.matcher.Ignored(ignore, rel, false) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	return files, nil
}

func (w *PageWalker) matchesAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
