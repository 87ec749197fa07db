//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// Writes three gzipped promo lists for local development. A code is
// accepted at checkout when it appears in at least two of them:
//
//	accepted: HAPPYHRS, FIFTYOFF, ALLTHREE1, SUMMER2026, WINTER2026
//	rejected: ONLYONE111, ONLYTWO222, ONLYTHREE3, SPRING2026
//
// Run with: go run scripts/generate_sample_promos.go [dir]
func main() {
	dataDir := "data/promos"
	if len(os.Args) > 1 {
		dataDir = os.Args[1]
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	lists := map[string][]string{
		"promobase1.gz": {"HAPPYHRS", "FIFTYOFF", "ALLTHREE1", "ONLYONE111", "SUMMER2026"},
		"promobase2.gz": {"HAPPYHRS", "FIFTYOFF", "ALLTHREE1", "ONLYTWO222", "WINTER2026"},
		"promobase3.gz": {"WINTER2026", "SUMMER2026", "ALLTHREE1", "ONLYTHREE3", "SPRING2026"},
	}

	names := make([]string, 0, len(lists))
	for name := range lists {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(dataDir, name)
		if err := writePromoFile(path, lists[name]); err != nil {
			log.Fatalf("Failed to create %s: %v", name, err)
		}
		fmt.Printf("Created %s with %d codes\n", path, len(lists[name]))
	}

	fmt.Printf("\nSet PROMO_DIR=%s PROMO_FILES=promobase1.gz,promobase2.gz,promobase3.gz\n", dataDir)
}

func writePromoFile(path string, codes []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gz := gzip.NewWriter(file)
	for _, code := range codes {
		if _, err := fmt.Fprintln(gz, code); err != nil {
			gz.Close()
			return fmt.Errorf("failed to write code: %w", err)
		}
	}
	return gz.Close()
}
