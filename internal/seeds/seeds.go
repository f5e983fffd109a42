// Package seeds reads the tabular seed input consumed by the crawl command.
package seeds

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

// Seed is one row of the input: a target URL plus the start point for the
// exploratory crawl that should locate it.
type Seed struct {
	URL        string
	Start      string
	StartDepth int
}

// Load reads seeds from a CSV file on the given filesystem.
func Load(fs afero.Fs, path string) ([]Seed, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seeds file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read parses a CSV stream with a required `url` column and optional
// `start` (default: scheme+host of url) and `start_depth` (default: 0)
// columns.
func Read(r io.Reader) ([]Seed, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read seeds header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	urlCol, ok := cols["url"]
	if !ok {
		return nil, fmt.Errorf("seeds file has no url column")
	}
	startCol, hasStart := cols["start"]
	depthCol, hasDepth := cols["start_depth"]

	var out []Seed
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read seeds row: %w", err)
		}

		seed, err := buildSeed(record, urlCol, startCol, hasStart, depthCol, hasDepth)
		if err != nil {
			return nil, fmt.Errorf("seeds line %d: %w", line, err)
		}
		out = append(out, seed)
	}
	return out, nil
}

func buildSeed(record []string, urlCol, startCol int, hasStart bool, depthCol int, hasDepth bool) (Seed, error) {
	if urlCol >= len(record) || strings.TrimSpace(record[urlCol]) == "" {
		return Seed{}, fmt.Errorf("missing url")
	}
	url := frontier.AddScheme(strings.TrimSpace(record[urlCol]))

	start := ""
	if hasStart && startCol < len(record) {
		start = strings.TrimSpace(record[startCol])
	}
	if start == "" {
		var err error
		start, err = frontier.DefaultStart(url)
		if err != nil {
			return Seed{}, err
		}
	} else {
		start = frontier.AddScheme(start)
	}

	depth := 0
	if hasDepth && depthCol < len(record) && strings.TrimSpace(record[depthCol]) != "" {
		var err error
		depth, err = strconv.Atoi(strings.TrimSpace(record[depthCol]))
		if err != nil {
			return Seed{}, fmt.Errorf("bad start_depth: %w", err)
		}
	}

	return Seed{URL: url, Start: start, StartDepth: depth}, nil
}
