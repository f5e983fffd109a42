// Package decisionlog appends one record per accepted scheduling decision
// to a gzip-compressed JSONL file. The log reflects scheduling intent, not
// fetch order: records are written when a request is accepted into the
// frontier, never at dequeue time.
package decisionlog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

// Writer implements frontier.DecisionSink over a compressed append-only
// file. It is driven from the single scheduler goroutine and carries no
// locks.
type Writer struct {
	file afero.File
	gz   *gzip.Writer
}

// New opens the log at path for appending. Appended gzip members
// concatenate into one valid stream across process runs.
func New(fs afero.Fs, path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create decision log dir: %w", err)
		}
	}
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open decision log: %w", err)
	}
	gz, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("gzip decision log: %w", err)
	}
	return &Writer{file: f, gz: gz}, nil
}

// Log appends one record. A nil info is a no-op.
func (w *Writer) Log(info *frontier.RequestInfo) error {
	if info == nil {
		return nil
	}
	payload, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode decision: %w", err)
	}
	if _, err := w.gz.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	if err := w.gz.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("flush decision log: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close decision log: %w", err)
	}
	return nil
}
