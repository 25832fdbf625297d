package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrors_Messages(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedMsg string
	}{
		{name: "unsupported language", err: ErrUnsupportedLanguage, expectedMsg: "unsupported language"},
		{name: "empty source", err: ErrEmptySource, expectedMsg: "source code cannot be empty"},
		{name: "parse failed", err: ErrParseFailed, expectedMsg: "failed to parse source"},
		{name: "nil parse tree", err: ErrNilParseTree, expectedMsg: "parse tree cannot be nil"},
		{name: "file too large", err: ErrFileTooLarge, expectedMsg: "file exceeds the maximum analyzable size"},
		{name: "cache miss", err: ErrCacheMiss, expectedMsg: "cache miss"},
		{name: "cache corrupted", err: ErrCacheCorrupted, expectedMsg: "cached export info is corrupted"},
		{name: "publish failed", err: ErrPublishFailed, expectedMsg: "failed to publish page report"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.expectedMsg)
		})
	}
}

func TestDomainErrors_WrappingPreservesIdentity(t *testing.T) {
	wrapped := fmt.Errorf("reading app/page.tsx: %w", ErrParseFailed)

	assert.ErrorIs(t, wrapped, ErrParseFailed)
	assert.NotErrorIs(t, wrapped, ErrEmptySource)
	assert.True(t, errors.Is(fmt.Errorf("outer: %w", wrapped), ErrParseFailed))
}
