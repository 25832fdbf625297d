package filefilter

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// GitignorePattern is one rule line of a .gitignore file.
type GitignorePattern struct {
	Pattern     string
	IsNegation  bool
	IsDirectory bool
	SourceFile  string
	LineNumber  int
}

// GitignoreParser handles parsing of .gitignore files.
type GitignoreParser struct{}

// NewGitignoreParser creates a new gitignore parser instance.
func NewGitignoreParser() *GitignoreParser {
	return &GitignoreParser{}
}

// LoadPatterns loads the patterns of the .gitignore at the root of dir.
// A missing file yields no patterns.
func (p *GitignoreParser) LoadPatterns(_ context.Context, dir string) ([]GitignorePattern, error) {
	patterns, err := p.parseGitignoreFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return patterns, nil
}

func (p *GitignoreParser) parseGitignoreFile(filePath string) ([]GitignorePattern, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var patterns []GitignorePattern
	scanner := bufio.NewScanner(file)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		patterns = append(patterns, p.parsePattern(line, filePath, lineNumber))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}

func (p *GitignoreParser) parsePattern(line, sourceFile string, lineNumber int) GitignorePattern {
	pattern := GitignorePattern{
		SourceFile: sourceFile,
		LineNumber: lineNumber,
	}

	if strings.HasPrefix(line, "!") {
		pattern.IsNegation = true
		pattern.Pattern = line[1:]
	} else {
		pattern.Pattern = strings.TrimPrefix(line, `\`)
	}

	if strings.HasSuffix(pattern.Pattern, "/") {
		pattern.IsDirectory = true
	}

	return pattern
}
