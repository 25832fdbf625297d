// Package domain provides domain-specific error definitions and utilities.
package domain

import "errors"

// Source and parsing errors.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrEmptySource         = errors.New("source code cannot be empty")
	ErrParseFailed         = errors.New("failed to parse source")
	ErrNilParseTree        = errors.New("parse tree cannot be nil")
	ErrFileTooLarge        = errors.New("file exceeds the maximum analyzable size")
)

// Cache errors.
var (
	ErrCacheMiss      = errors.New("cache miss")
	ErrCacheCorrupted = errors.New("cached export info is corrupted")
)

// Publishing errors.
var (
	ErrPublishFailed = errors.New("failed to publish page report")
)

// General domain errors.
var (
	ErrInvalidInput = errors.New("invalid input")
)
