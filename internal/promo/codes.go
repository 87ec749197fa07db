// Package promo validates checkout promo codes against gzipped code lists.
package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"strings"
)

// Codes is a set of promo codes from one list.
type Codes map[string]struct{}

// Contains reports whether code is in the list.
func (c Codes) Contains(code string) bool {
	_, ok := c[code]
	return ok
}

// Len returns the number of distinct codes.
func (c Codes) Len() int {
	return len(c)
}

// ReadCodes parses a gzipped stream holding one code per line. Blank lines
// are skipped and surrounding whitespace trimmed.
func ReadCodes(ctx context.Context, r io.Reader) (Codes, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip stream: %w", err)
	}
	defer gz.Close()

	codes := make(Codes)
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		lines++
		if lines%100_000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if code := strings.TrimSpace(scanner.Text()); code != "" {
			codes[code] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read promo codes: %w", err)
	}

	return codes, nil
}
