package promo

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Source opens a named promo list for reading.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FileSource reads promo lists from the local file system. Names are
// resolved against Dir when it is set.
type FileSource struct {
	Dir string
}

// Open opens the named file.
func (s FileSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	path := name
	if s.Dir != "" {
		path = filepath.Join(s.Dir, name)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open promo file %s: %w", path, err)
	}
	return f, nil
}

// FallbackSource tries primary under prefix first and falls back to
// secondary with the bare name.
type FallbackSource struct {
	primary   Source
	secondary Source
	prefix    string
	logger    zerolog.Logger
}

// NewFallbackSource creates a fallback source. A nil primary always uses secondary.
func NewFallbackSource(primary, secondary Source, prefix string, logger zerolog.Logger) *FallbackSource {
	return &FallbackSource{
		primary:   primary,
		secondary: secondary,
		prefix:    prefix,
		logger:    logger.With().Str("component", "promo-fallback-source").Logger(),
	}
}

// Open tries the primary source, then the secondary.
func (s *FallbackSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.primary != nil {
		key := s.prefix + name
		rc, err := s.primary.Open(ctx, key)
		if err == nil {
			return rc, nil
		}
		s.logger.Warn().Err(err).Str("key", key).Msg("primary promo source failed, falling back")
	}

	return s.secondary.Open(ctx, name)
}
