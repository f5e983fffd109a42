// Package feed appends the crawl's result records: one JSONL line per
// ground-truth URL located, carrying the depth and referrer it was found at.
// Unlike the decision log, the feed records outcomes, not scheduling intent.
package feed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

// Writer appends found-target records to a plain JSONL file.
type Writer struct {
	file afero.File
}

// New opens the feed at path for appending.
func New(fs afero.Fs, path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create feed dir: %w", err)
		}
	}
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	return &Writer{file: f}, nil
}

// Write appends one found-target record.
func (w *Writer) Write(info *frontier.RequestInfo) error {
	if info == nil {
		return nil
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode feed record: %w", err)
	}
	if _, err := w.file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("append feed record: %w", err)
	}
	return nil
}

// Close closes the feed file.
func (w *Writer) Close() error {
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close feed: %w", err)
	}
	return nil
}
