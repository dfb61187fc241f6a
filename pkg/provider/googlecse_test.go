package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/treeleaves30760/tw-dataset-generation/pkg/config"
	"github.com/treeleaves30760/tw-dataset-generation/pkg/logger"
)

// fakeCSE serves custom search image pages with synthetic links
type fakeCSE struct {
	server   *httptest.Server
	requests int32
	total    int
	linkFor  func(n int) string
}

func newFakeCSE(total int) *fakeCSE {
	f := &fakeCSE{
		total: total,
		linkFor: func(n int) string {
			return fmt.Sprintf("https://img.example.com/photo%d.jpg", n)
		},
	}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.requests, 1)

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		num, _ := strconv.Atoi(r.URL.Query().Get("num"))

		var items []map[string]string
		for i := 0; i < num; i++ {
			n := start + i
			if n > f.total {
				break
			}
			items = append(items, map[string]string{"link": f.linkFor(n)})
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"searchInformation": map[string]string{
				"totalResults": strconv.Itoa(f.total),
			},
			"items": items,
		})
	}))
	return f
}

func newTestCSE(baseURL string) *GoogleCSE {
	cfg := config.GoogleCSEConfig{
		PerPage:   10,
		MaxStart:  91,
		PageDelay: time.Second,
		Timeout:   5 * time.Second,
	}
	g := NewGoogleCSE("test-key", "test-cx", cfg, logger.GetLogger())
	g.baseURL = baseURL
	g.sleep = func(time.Duration) {}
	return g
}

func TestGoogleCSEGathersAcrossPages(t *testing.T) {
	fake := newFakeCSE(1000)
	defer fake.server.Close()

	g := newTestCSE(fake.server.URL)
	candidates, err := g.Search(context.Background(), "Taipei 101", 25)
	require.NoError(t, err)

	assert.Len(t, candidates, 25)
	assert.Equal(t, int32(3), atomic.LoadInt32(&fake.requests))
	assert.Equal(t, "https://img.example.com/photo1.jpg", candidates[0].Ref)
	assert.Equal(t, KindGoogleCSE, candidates[0].Provider)
}

func TestGoogleCSERespectsStartCeiling(t *testing.T) {
	fake := newFakeCSE(1000)
	defer fake.server.Close()

	g := newTestCSE(fake.server.URL)
	candidates, err := g.Search(context.Background(), "Sun Moon Lake", 500)
	require.NoError(t, err)

	// the API caps results at 100: starts 1,11,...,91
	assert.Len(t, candidates, 100)
	assert.Equal(t, int32(10), atomic.LoadInt32(&fake.requests))
}

func TestGoogleCSEFiltersNonImageLinks(t *testing.T) {
	fake := newFakeCSE(10)
	fake.linkFor = func(n int) string {
		if n%2 == 0 {
			return fmt.Sprintf("https://img.example.com/page%d.html", n)
		}
		return fmt.Sprintf("https://img.example.com/photo%d.png?width=800", n)
	}
	defer fake.server.Close()

	g := newTestCSE(fake.server.URL)
	candidates, err := g.Search(context.Background(), "Alishan", 10)
	require.NoError(t, err)

	require.Len(t, candidates, 5)
	for _, c := range candidates {
		assert.Contains(t, c.Ref, ".png")
	}
}

func TestGoogleCSEStopsOnShortPage(t *testing.T) {
	fake := newFakeCSE(7)
	defer fake.server.Close()

	g := newTestCSE(fake.server.URL)
	candidates, err := g.Search(context.Background(), "Jiufen", 50)
	require.NoError(t, err)

	assert.Len(t, candidates, 7)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fake.requests))
}

func TestGoogleCSENoQuerySuffixByDefault(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []map[string]string{}})
	}))
	defer srv.Close()

	g := newTestCSE(srv.URL)
	_, err := g.Search(context.Background(), "Taroko Gorge", 5)
	require.NoError(t, err)
	assert.Equal(t, "Taroko Gorge", gotQuery)
}

func TestGoogleCSESendsLocaleParameters(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{
			"cr":      r.URL.Query().Get("cr"),
			"gl":      r.URL.Query().Get("gl"),
			"imgSize": r.URL.Query().Get("imgSize"),
			"imgType": r.URL.Query().Get("imgType"),
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"items": []map[string]string{}})
	}))
	defer srv.Close()

	g := newTestCSE(srv.URL)
	_, err := g.Search(context.Background(), "Kenting", 5)
	require.NoError(t, err)

	assert.Equal(t, "countryTW", got["cr"])
	assert.Equal(t, "tw", got["gl"])
	assert.Equal(t, "large", got["imgSize"])
	assert.Equal(t, "photo", got["imgType"])
}
