package decisionlog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/linkdepth/linkdepth/internal/frontier"
)

func readBack(t *testing.T, fs afero.Fs, path string) []frontier.RequestInfo {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)

	var out []frontier.RequestInfo
	sc := bufio.NewScanner(gz)
	for sc.Scan() {
		var info frontier.RequestInfo
		require.NoError(t, json.Unmarshal(sc.Bytes(), &info))
		out = append(out, info)
	}
	require.NoError(t, sc.Err())
	return out
}

// TestWriterRoundTrip verifies records come back intact from the compressed
// JSONL file.
func TestWriterRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w, err := New(fs, "logs/decisions.jsonl.gz")
	require.NoError(t, err)

	first := &frontier.RequestInfo{
		URL:         "http://a.com/item",
		GroundTruth: true,
		FoundAt:     "http://a.com/list",
		SentAt:      1724572800.5,
		Crawl:       "crawl-1",
		Depth:       2,
		Priority:    frontier.PriorityLink,
	}
	second := &frontier.RequestInfo{URL: "http://a.com/other", Crawl: "crawl-1"}
	require.NoError(t, w.Log(first))
	require.NoError(t, w.Log(second))
	require.NoError(t, w.Close())

	records := readBack(t, fs, "logs/decisions.jsonl.gz")
	require.Len(t, records, 2)
	require.Equal(t, *first, records[0])
	require.Equal(t, *second, records[1])
}

// TestWriterAppendAcrossRuns verifies a reopened log concatenates into one
// readable gzip stream.
func TestWriterAppendAcrossRuns(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w, err := New(fs, "decisions.jsonl.gz")
	require.NoError(t, err)
	require.NoError(t, w.Log(&frontier.RequestInfo{URL: "http://a.com/1"}))
	require.NoError(t, w.Close())

	w, err = New(fs, "decisions.jsonl.gz")
	require.NoError(t, err)
	require.NoError(t, w.Log(&frontier.RequestInfo{URL: "http://a.com/2"}))
	require.NoError(t, w.Close())

	records := readBack(t, fs, "decisions.jsonl.gz")
	require.Len(t, records, 2)
	require.Equal(t, "http://a.com/1", records[0].URL)
	require.Equal(t, "http://a.com/2", records[1].URL)
}

func TestWriterNilInfo(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w, err := New(fs, "decisions.jsonl.gz")
	require.NoError(t, err)
	require.NoError(t, w.Log(nil))
	require.NoError(t, w.Close())

	require.Empty(t, readBack(t, fs, "decisions.jsonl.gz"))
}
