package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/attractions"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
)

func newTestFetcher(baseURL, outputDir string) *Fetcher {
	f := New(config.MetadataConfig{
		BaseURL:   baseURL + "/",
		OutputDir: outputDir,
		Timeout:   5 * time.Second,
	}, nil)
	f.sleep = func(time.Duration) {}
	return f
}

func TestFetchAllDownloadsPerID(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		id := strings.TrimPrefix(r.URL.Path, "/")
		w.Write([]byte(`{"id": "` + id + `"}`))
	}))
	defer srv.Close()

	outputDir := filepath.Join(t.TempDir(), "attractions")
	f := newTestFetcher(srv.URL, outputDir)

	recs := []attractions.Record{
		{ID: "C1_100", Name: "A"},
		{ID: "C1_200", Name: "B"},
	}
	report, err := f.FetchAll(context.Background(), recs)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Downloaded)
	data, err := os.ReadFile(filepath.Join(outputDir, "C1_100.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "C1_100")
}

func TestFetchAllSkipsExistingFiles(t *testing.T) {
	var requests int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "C1_100.json"), []byte(`{}`), 0644))

	f := newTestFetcher(srv.URL, outputDir)
	report, err := f.FetchAll(context.Background(), []attractions.Record{{ID: "C1_100", Name: "A"}})
	require.NoError(t, err)

	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
	assert.Equal(t, 1, report.Skipped)
}

func TestFetchAllCountsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "bad") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newTestFetcher(srv.URL, t.TempDir())
	recs := []attractions.Record{
		{ID: "good", Name: "A"},
		{ID: "bad", Name: "B"},
	}
	report, err := f.FetchAll(context.Background(), recs)
	require.NoError(t, err, "a failed download must not abort the run")

	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 1, report.Failed)
}
