package overflow

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// TestStorePushPop verifies the LIFO contract and the empty sentinel.
func TestStorePushPop(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s, err := Open(fs, "q/a.queue")
	require.NoError(t, err)

	require.NoError(t, s.Push([]byte("first")))
	require.NoError(t, s.Push([]byte("second")))
	require.Equal(t, 2, s.Len())

	p, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, "second", string(p))
	p, err = s.Pop()
	require.NoError(t, err)
	require.Equal(t, "first", string(p))

	_, err = s.Pop()
	require.True(t, errors.Is(err, ErrEmpty))
	require.NoError(t, s.Close())
}

func TestStoreEmptyPayload(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s, err := Open(fs, "a.queue")
	require.NoError(t, err)
	require.NoError(t, s.Push(nil))
	p, err := s.Pop()
	require.NoError(t, err)
	require.Empty(t, p)
}

// TestStoreReopen verifies a reopened store recovers its entry count and
// keeps serving in LIFO order.
func TestStoreReopen(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s, err := Open(fs, "a.queue")
	require.NoError(t, err)
	require.NoError(t, s.Push([]byte("one")))
	require.NoError(t, s.Push([]byte("two")))
	require.NoError(t, s.Close())

	s, err = Open(fs, "a.queue")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	p, err := s.Pop()
	require.NoError(t, err)
	require.Equal(t, "two", string(p))
	require.NoError(t, s.Close())
}

// TestStoreScan verifies offline inspection walks entries newest to oldest
// without mutating the file.
func TestStoreScan(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s, err := Open(fs, "a.queue")
	require.NoError(t, err)
	require.NoError(t, s.Push([]byte("one")))
	require.NoError(t, s.Push([]byte("two")))
	require.NoError(t, s.Close())

	var seen []string
	n, err := Scan(fs, "a.queue", func(p []byte) {
		seen = append(seen, string(p))
	})
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, []string{"two", "one"}, seen)

	// The scan must not consume entries.
	s, err = Open(fs, "a.queue")
	require.NoError(t, err)
	require.Equal(t, 2, s.Len())
	require.NoError(t, s.Close())
}

// TestStoreScanCorrupt verifies a corrupt trailer stops the walk with an
// error while earlier (newer) entries stay counted.
func TestStoreScanCorrupt(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	// Three stray bytes can't frame an entry.
	require.NoError(t, afero.WriteFile(fs, "bad.queue", []byte{1, 2, 3}, 0o640))
	n, err := Scan(fs, "bad.queue", nil)
	require.Error(t, err)
	require.Equal(t, 0, n)

	// A valid entry followed by garbage: the entry counts, then the error.
	s, err := Open(fs, "tail.queue")
	require.NoError(t, err)
	require.NoError(t, s.Push([]byte("garbage-prefix")))
	require.NoError(t, s.Close())
	raw, err := afero.ReadFile(fs, "tail.queue")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, "tail.queue", append([]byte{9, 9, 9}, raw...), 0o640))

	n, err = Scan(fs, "tail.queue", nil)
	require.Error(t, err)
	require.Equal(t, 1, n)
}

// TestStoreOpenCorrupt verifies a store with a broken tail refuses to open
// rather than silently serving garbage.
func TestStoreOpenCorrupt(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "bad.queue", []byte{0xff, 0xff, 0xff, 0xff}, 0o640))
	_, err := Open(fs, "bad.queue")
	require.Error(t, err)
}

// TestFactoryUniquePaths verifies the factory never hands two partitions
// the same backing file.
func TestFactoryUniquePaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	open := NewFactory(fs, "spool")

	a, err := open("a.com", 100)
	require.NoError(t, err)
	b, err := open("a.com", 100)
	require.NoError(t, err)
	require.NotEqual(t, a.Path(), b.Path())
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func TestSanitizeSlot(t *testing.T) {
	t.Parallel()

	require.Equal(t, "shop.example.com_8080", sanitizeSlot("shop.example.com:8080"))
	require.Equal(t, "default", sanitizeSlot(""))
}
