package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueduck/internal/aggregator"
	"blueduck/internal/config"
	"blueduck/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeFeed struct {
	calls atomic.Int32
	opts  aggregator.Options
	mu    sync.Mutex
	items []models.NewsItem
}

func (f *fakeFeed) FetchAllWithReport(_ context.Context, opts aggregator.Options) ([]models.NewsItem, aggregator.Report) {
	f.calls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.opts = opts

	return f.items, aggregator.Report{
		RunID: "run-1",
		Sources: []aggregator.SourceReport{
			{Name: models.SourceRegulations, Skipped: true, Reason: aggregator.SkipMissingRegulationsKey},
		},
		Total: len(f.items),
	}
}

func feedItems() []models.NewsItem {
	return []models.NewsItem{
		{ID: "courtlistener:1", Title: "Smith v. EPA", Category: "Courts", Source: models.SourceCourtListener, Link: "https://cl/1", Tags: []string{"litigation"}},
		{ID: "federalregister:1", Title: "Wetland rule", Category: "Wetlands", Source: models.SourceFederalRegister, Link: "https://fr/1", Tags: []string{}},
		{ID: "federalregister:2", Title: "Duck season", Category: "Waterfowl", Source: models.SourceFederalRegister, Link: "https://fr/2", Tags: []string{}},
	}
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestServer(feed Feed, revalidateSec int, clk *clock) *Server {
	cfg := config.ServerConfig{Addr: ":0", RevalidateSec: revalidateSec}
	return newServer(feed, aggregator.Options{OpenStatesAPIKey: "os"}, cfg, nil, clk.Now)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	s.Handler().ServeHTTP(w, req)

	return w
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeFeed{}, 60, &clock{})

	w := get(t, s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestConservationNews(t *testing.T) {
	feed := &fakeFeed{items: feedItems()}
	s := newTestServer(feed, 3600, &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})

	w := get(t, s, "/api/conservation-news")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s-maxage=3600, stale-while-revalidate", w.Header().Get("Cache-Control"))

	var resp NewsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Len(t, resp.Items, 3)
	assert.Equal(t, "run-1", resp.Report.RunID)
	assert.Equal(t, []string{models.SourceRegulations}, resp.Report.Skipped())
	assert.Equal(t, "os", feed.opts.OpenStatesAPIKey)
	assert.True(t, resp.GeneratedAt.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestConservationNews_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		ids   []string
	}{
		{name: "category", query: "?category=wetlands", ids: []string{"federalregister:1"}},
		{name: "source", query: "?source=Federal%20Register", ids: []string{"federalregister:1", "federalregister:2"}},
		{name: "limit", query: "?limit=2", ids: []string{"courtlistener:1", "federalregister:1"}},
		{name: "combined", query: "?source=federal%20register&limit=1", ids: []string{"federalregister:1"}},
		{name: "tag", query: "?tag=litigation", ids: []string{"courtlistener:1"}},
		{name: "no match", query: "?category=Fisheries", ids: []string{}},
	}

	s := newTestServer(&fakeFeed{items: feedItems()}, 3600, &clock{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, s, "/api/conservation-news"+tt.query)
			require.Equal(t, http.StatusOK, w.Code)

			var resp NewsResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

			ids := make([]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				ids = append(ids, item.ID)
			}

			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestConservationNews_InvalidLimit(t *testing.T) {
	feed := &fakeFeed{items: feedItems()}
	s := newTestServer(feed, 3600, &clock{})

	for _, q := range []string{"?limit=0", "?limit=-3", "?limit=ten"} {
		w := get(t, s, "/api/conservation-news"+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), "INVALID_LIMIT")
	}

	assert.Equal(t, int32(0), feed.calls.Load(), "bad requests must not trigger a fetch")
}

func TestConservationNews_Revalidation(t *testing.T) {
	feed := &fakeFeed{items: feedItems()}
	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newTestServer(feed, 3600, clk)

	get(t, s, "/api/conservation-news")
	get(t, s, "/api/conservation-news?category=Courts")
	assert.Equal(t, int32(1), feed.calls.Load())

	clk.Advance(59 * time.Minute)
	get(t, s, "/api/conservation-news")
	assert.Equal(t, int32(1), feed.calls.Load())

	clk.Advance(time.Minute)
	get(t, s, "/api/conservation-news")
	assert.Equal(t, int32(2), feed.calls.Load())
}

func TestConservationNews_ZeroRevalidateAlwaysRegenerates(t *testing.T) {
	feed := &fakeFeed{items: feedItems()}
	s := newTestServer(feed, 0, &clock{})

	w := get(t, s, "/api/conservation-news")
	get(t, s, "/api/conservation-news")

	assert.Equal(t, int32(2), feed.calls.Load())
	assert.Empty(t, w.Header().Get("Cache-Control"))
}

func TestFeedCache_ConcurrentCallersShareOneRun(t *testing.T) {
	for _, ttl := range []time.Duration{0, time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			var calls atomic.Int32

			release := make(chan struct{})

			cache := newFeedCache(func(context.Context) snapshot {
				calls.Add(1)
				<-release

				return snapshot{items: feedItems()}
			}, ttl, time.Now)

			var wg sync.WaitGroup

			for i := 0; i < 8; i++ {
				wg.Add(1)

				go func() {
					defer wg.Done()
					assert.Len(t, cache.get(context.Background()).items, 3)
				}()
			}

			time.Sleep(50 * time.Millisecond)
			close(release)
			wg.Wait()

			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestFeedCache_EmptyFeedIsNotKept(t *testing.T) {
	var calls atomic.Int32

	cache := newFeedCache(func(context.Context) snapshot {
		if calls.Add(1) == 1 {
			return snapshot{}
		}

		return snapshot{items: feedItems()}
	}, time.Hour, time.Now)

	assert.Empty(t, cache.get(context.Background()).items)
	assert.Len(t, cache.get(context.Background()).items, 3)
	assert.Len(t, cache.get(context.Background()).items, 3)
	assert.Equal(t, int32(2), calls.Load())
}

func TestConservationNews_CancelledRequestDoesNotPoisonCache(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/documents.json":
			_, _ = w.Write([]byte(`{"results": [
				{"title": "Wetland rule", "publication_date": "2024-04-01", "html_url": "https://www.federalregister.gov/d/1", "document_number": "1"},
				{"title": "Duck season", "publication_date": "2024-03-01", "html_url": "https://www.federalregister.gov/d/2", "document_number": "2"}
			]}`))
		default:
			_, _ = w.Write([]byte(`{"results": []}`))
		}
	}))
	defer upstream.Close()

	cfg := config.DefaultConfig()
	cfg.Sources.FederalRegister.BaseURL = upstream.URL
	cfg.Sources.CourtListener.BaseURL = upstream.URL

	clk := &clock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newServer(aggregator.New(cfg, nil), aggregator.Options{}, config.ServerConfig{Addr: ":0", RevalidateSec: 3600}, nil, clk.Now)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gone := httptest.NewRecorder()
	s.Handler().ServeHTTP(gone, httptest.NewRequest(http.MethodGet, "/api/conservation-news", nil).WithContext(ctx))

	clk.Advance(time.Minute)

	w := get(t, s, "/api/conservation-news")
	require.Equal(t, http.StatusOK, w.Code)

	var resp NewsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(&fakeFeed{}, aggregator.Options{}, config.ServerConfig{Addr: "127.0.0.1:0"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
