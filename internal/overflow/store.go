// Package overflow implements the persistent LIFO byte queue that backs
// disk-spilled frontier partitions. Entries are framed as payload bytes
// followed by a 4-byte big-endian length trailer, so the newest entry can be
// popped by reading the tail and truncating. Stores survive process restart
// for offline inspection; the live scheduler never resumes from them.
package overflow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"
)

// ErrEmpty is returned by Pop when the store holds no entries.
var ErrEmpty = errors.New("overflow store is empty")

const trailerSize = 4

// Store is a file-backed LIFO byte queue.
type Store struct {
	fs    afero.Fs
	file  afero.File
	path  string
	end   int64
	count int
}

// Open creates or reopens the store at path. Reopening an existing file
// recovers the entry count by walking the length trailers from the tail.
func Open(fs afero.Fs, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create overflow dir: %w", err)
		}
	}
	f, err := fs.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open overflow store: %w", err)
	}
	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat overflow store: %w", err)
	}
	count, err := countEntries(f, stat.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("recover overflow store %s: %w", path, err)
	}
	return &Store{
		fs:    fs,
		file:  f,
		path:  path,
		end:   stat.Size(),
		count: count,
	}, nil
}

// Push appends one entry.
func (s *Store) Push(p []byte) error {
	if len(p) > math.MaxUint32 {
		return fmt.Errorf("overflow entry too large: %d bytes", len(p))
	}
	buf := make([]byte, len(p)+trailerSize)
	copy(buf, p)
	binary.BigEndian.PutUint32(buf[len(p):], uint32(len(p)))
	if _, err := s.file.WriteAt(buf, s.end); err != nil {
		return fmt.Errorf("overflow write: %w", err)
	}
	s.end += int64(len(buf))
	s.count++
	return nil
}

// Pop removes and returns the most recently pushed entry.
func (s *Store) Pop() ([]byte, error) {
	if s.count == 0 {
		return nil, ErrEmpty
	}
	payload, prev, err := readTail(s.file, s.end)
	if err != nil {
		return nil, err
	}
	if err := s.file.Truncate(prev); err != nil {
		return nil, fmt.Errorf("overflow truncate: %w", err)
	}
	s.end = prev
	s.count--
	return payload, nil
}

// Len reports the number of entries in the store.
func (s *Store) Len() int {
	return s.count
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the backing file.
func (s *Store) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("close overflow store: %w", err)
	}
	return nil
}

// ids suffixes every opened factory store so partitions handed the same base
// path never collide on one file.
var ids atomic.Uint64

// NewFactory returns a factory opening uniquely-suffixed stores under dir,
// one per (slot, priority) request.
func NewFactory(fs afero.Fs, dir string) func(slot string, priority int) (*Store, error) {
	return func(slot string, priority int) (*Store, error) {
		n := ids.Add(1)
		name := fmt.Sprintf("%s-p%d-%d.queue", sanitizeSlot(slot), priority, n)
		return Open(fs, filepath.Join(dir, name))
	}
}

// Scan walks the store at path without mutating it, invoking fn for every
// entry from newest to oldest, and returns the number of well-framed entries
// seen. A corrupt length trailer ends the walk with an error; entries
// already delivered remain counted.
func Scan(fs afero.Fs, path string, fn func(payload []byte)) (int, error) {
	f, err := fs.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open overflow store: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat overflow store: %w", err)
	}

	count := 0
	offset := stat.Size()
	for offset > 0 {
		payload, prev, err := readTail(f, offset)
		if err != nil {
			return count, err
		}
		if fn != nil {
			fn(payload)
		}
		offset = prev
		count++
	}
	return count, nil
}

func countEntries(f afero.File, size int64) (int, error) {
	count := 0
	offset := size
	for offset > 0 {
		_, prev, err := readTail(f, offset)
		if err != nil {
			return count, err
		}
		offset = prev
		count++
	}
	return count, nil
}

// readTail decodes the entry ending at offset, returning its payload and
// the offset of the previous entry's end.
func readTail(f afero.File, offset int64) ([]byte, int64, error) {
	if offset < trailerSize {
		return nil, 0, fmt.Errorf("malformed overflow entry: %d trailing bytes", offset)
	}
	trailer := make([]byte, trailerSize)
	if _, err := f.ReadAt(trailer, offset-trailerSize); err != nil {
		return nil, 0, fmt.Errorf("read overflow trailer: %w", err)
	}
	n := int64(binary.BigEndian.Uint32(trailer))
	if n > offset-trailerSize {
		return nil, 0, fmt.Errorf("malformed overflow entry: length %d exceeds %d available bytes", n, offset-trailerSize)
	}
	payload := make([]byte, n)
	if _, err := f.ReadAt(payload, offset-trailerSize-n); err != nil {
		return nil, 0, fmt.Errorf("read overflow payload: %w", err)
	}
	return payload, offset - trailerSize - n, nil
}

func sanitizeSlot(slot string) string {
	if slot == "" {
		return "default"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, slot)
}
