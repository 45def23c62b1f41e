package aggregator

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blueduck/internal/config"
	"blueduck/internal/logger"
	"blueduck/internal/models"
	"blueduck/internal/normalizer"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeFederalRegister struct{ docs []models.FederalRegisterDocument }

func (f fakeFederalRegister) Documents(context.Context, string, int) []models.FederalRegisterDocument {
	return f.docs
}

type fakeCourtListener struct {
	cases   []models.CourtListenerResult
	explode bool
}

func (f fakeCourtListener) Cases(context.Context, string, int) []models.CourtListenerResult {
	if f.explode {
		panic("decoder exploded")
	}

	return f.cases
}

type fakeRegulations struct {
	calls  *atomic.Int32
	apiKey *string
	docs   []models.RegulationsDocument
}

func (f fakeRegulations) Documents(_ context.Context, _ string, apiKey string, _ int) []models.RegulationsDocument {
	f.calls.Add(1)
	*f.apiKey = apiKey

	return f.docs
}

type fakeOpenStates struct {
	calls *atomic.Int32
	bills []models.OpenStatesBill
}

func (f fakeOpenStates) Bills(context.Context, string, string, int) []models.OpenStatesBill {
	f.calls.Add(1)
	return f.bills
}

func frDocs(n int, date string) []models.FederalRegisterDocument {
	docs := make([]models.FederalRegisterDocument, 0, n)
	for i := 0; i < n; i++ {
		docs = append(docs, models.FederalRegisterDocument{
			Title:           fmt.Sprintf("FR %d", i),
			PublicationDate: date,
			HTMLURL:         fmt.Sprintf("https://www.federalregister.gov/d/%d", i),
			DocumentNumber:  fmt.Sprintf("2024-%d", i),
		})
	}

	return docs
}

func clCases(n int) []models.CourtListenerResult {
	cases := make([]models.CourtListenerResult, 0, n)
	for i := 0; i < n; i++ {
		cases = append(cases, models.CourtListenerResult{
			CaseName:    fmt.Sprintf("Case %d", i),
			DateFiled:   "2024-01-15",
			AbsoluteURL: fmt.Sprintf("/opinion/%d/case/", i),
			ID:          models.FlexibleID(fmt.Sprint(i)),
		})
	}

	return cases
}

func newTestAggregator(src Sources) *Aggregator {
	tr := normalizer.NewTransformerWithClock(func() time.Time { return now })
	agg := NewWithSources(src, config.DefaultConfig().Sources, tr, logger.Discard())
	agg.newRunID = func() string { return "run-1" }

	return agg
}

func countBySource(items []models.NewsItem) map[string]int {
	counts := map[string]int{}
	for _, item := range items {
		counts[item.Source]++
	}

	return counts
}

func TestFetchAll_OptionalSourcesNeedKeys(t *testing.T) {
	var regCalls, osCalls atomic.Int32

	var seenKey string

	src := Sources{
		FederalRegister: fakeFederalRegister{docs: frDocs(2, "2024-02-01")},
		CourtListener:   fakeCourtListener{cases: clCases(1)},
		Regulations: fakeRegulations{calls: &regCalls, apiKey: &seenKey, docs: []models.RegulationsDocument{
			{ID: "EPA-HQ-OW-2024-0001", Attributes: models.RegulationsAttributes{Title: "Waters of the United States"}},
		}},
		OpenStates: fakeOpenStates{calls: &osCalls, bills: []models.OpenStatesBill{
			{ID: "ocd-bill/1", Identifier: "HB 1", Title: "Relating to duck stamps"},
		}},
	}

	items, report := newTestAggregator(src).FetchAllWithReport(context.Background(), Options{})

	assert.Equal(t, int32(0), regCalls.Load())
	assert.Equal(t, int32(0), osCalls.Load())
	assert.Len(t, items, 3)
	assert.Equal(t, map[string]int{models.SourceFederalRegister: 2, models.SourceCourtListener: 1}, countBySource(items))
	assert.Equal(t, []string{models.SourceRegulations, models.SourceOpenStates}, report.Skipped())
	assert.Equal(t, SkipMissingRegulationsKey, report.Sources[2].Reason)
	assert.Equal(t, "run-1", report.RunID)

	items, report = newTestAggregator(src).FetchAllWithReport(context.Background(), Options{
		RegulationsAPIKey: "reg-key",
		OpenStatesAPIKey:  "os-key",
	})

	assert.Equal(t, int32(1), regCalls.Load())
	assert.Equal(t, int32(1), osCalls.Load())
	assert.Equal(t, "reg-key", seenKey)
	assert.Len(t, items, 5)
	assert.Empty(t, report.Skipped())
	assert.Equal(t, 5, report.Total)
}

func TestFetchAll_TakeLimits(t *testing.T) {
	src := Sources{
		FederalRegister: fakeFederalRegister{docs: frDocs(25, "2024-02-01")},
		CourtListener:   fakeCourtListener{cases: clCases(20)},
	}

	items, report := newTestAggregator(src).FetchAllWithReport(context.Background(), Options{})

	counts := countBySource(items)
	assert.Equal(t, 12, counts[models.SourceFederalRegister])
	assert.Equal(t, 8, counts[models.SourceCourtListener])

	assert.Equal(t, 25, report.Sources[0].Fetched)
	assert.Equal(t, 12, report.Sources[0].Used)
	assert.Equal(t, 20, report.Sources[1].Fetched)
	assert.Equal(t, 8, report.Sources[1].Used)

	// The limit keeps the first records in source order.
	for _, item := range items {
		if item.Source == models.SourceFederalRegister {
			assert.NotEqual(t, "federalregister:2024-12", item.ID)
		}
	}
}

func TestFetchAll_PanickingSourceIsIsolated(t *testing.T) {
	var regCalls, osCalls atomic.Int32

	var seenKey string

	src := Sources{
		FederalRegister: fakeFederalRegister{docs: frDocs(3, "2024-02-01")},
		CourtListener:   fakeCourtListener{cases: clCases(4), explode: true},
		Regulations: fakeRegulations{calls: &regCalls, apiKey: &seenKey, docs: []models.RegulationsDocument{
			{ID: "FWS-R9-ES-2024-0001", Attributes: models.RegulationsAttributes{Title: "Piping plover habitat"}},
			{ID: "EPA-HQ-OW-2024-0002", Attributes: models.RegulationsAttributes{Title: "Wetland permits"}},
		}},
		OpenStates: fakeOpenStates{calls: &osCalls, bills: []models.OpenStatesBill{
			{ID: "ocd-bill/1", Identifier: "HB 1", Title: "Relating to duck stamps"},
		}},
	}

	items, report := newTestAggregator(src).FetchAllWithReport(context.Background(), Options{
		RegulationsAPIKey: "reg-key",
		OpenStatesAPIKey:  "os-key",
	})

	assert.Len(t, items, 3+2+1)
	assert.Equal(t, map[string]int{
		models.SourceFederalRegister: 3,
		models.SourceRegulations:     2,
		models.SourceOpenStates:      1,
	}, countBySource(items))
	assert.Equal(t, 0, report.Sources[1].Used)
	assert.Equal(t, int32(1), regCalls.Load())
	assert.Equal(t, int32(1), osCalls.Load())
}

func TestFetchAll_SortedNewestFirstAndStable(t *testing.T) {
	src := Sources{
		FederalRegister: fakeFederalRegister{docs: []models.FederalRegisterDocument{
			{Title: "January", PublicationDate: "2024-01-01", HTMLURL: "https://fr/1"},
			{Title: "March", PublicationDate: "2024-03-01", HTMLURL: "https://fr/3"},
			{Title: "February", PublicationDate: "2024-02-01", HTMLURL: "https://fr/2"},
		}},
		CourtListener: fakeCourtListener{cases: []models.CourtListenerResult{
			{CaseName: "Same day as February", DateFiled: "2024-02-01", AbsoluteURL: "/opinion/1/x/"},
			{CaseName: "Undated", AbsoluteURL: "/opinion/2/y/"},
		}},
	}

	items := newTestAggregator(src).FetchAll(context.Background(), Options{})

	titles := make([]string, 0, len(items))
	for _, item := range items {
		titles = append(titles, item.Title)
	}

	assert.Equal(t, []string{"Undated", "March", "February", "Same day as February", "January"}, titles)

	for i := 1; i < len(items); i++ {
		assert.False(t, items[i].Date.After(items[i-1].Date))
	}
}

func TestFetchAll_DropsEmptyLinks(t *testing.T) {
	var calls atomic.Int32

	var key string

	src := Sources{
		FederalRegister: fakeFederalRegister{docs: []models.FederalRegisterDocument{
			{Title: "No links at all", PublicationDate: "2024-01-01"},
		}},
		Regulations: fakeRegulations{calls: &calls, apiKey: &key, docs: []models.RegulationsDocument{
			{Attributes: models.RegulationsAttributes{Title: "Missing id"}},
			{ID: "FWS-1", Attributes: models.RegulationsAttributes{Title: "Has id"}},
		}},
	}

	items, report := newTestAggregator(src).FetchAllWithReport(context.Background(), Options{RegulationsAPIKey: "k"})

	require.Len(t, items, 1)
	assert.Equal(t, "regulationsgov:FWS-1", items[0].ID)
	assert.Equal(t, 2, report.Sources[2].Used)
	assert.Equal(t, 1, report.Total)
}

func TestFetchAll_AllSourcesEmpty(t *testing.T) {
	items := newTestAggregator(Sources{}).FetchAll(context.Background(), Options{RegulationsAPIKey: "k", OpenStatesAPIKey: "k"})

	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestNew_LiveAdaptersAgainstFailingUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/documents.json" {
			_, _ = w.Write([]byte(`{"results": [{"title": "Wetland Conservation", "publication_date": "2024-04-01", "html_url": "https://www.federalregister.gov/d/1", "document_number": "1"}]}`))
			return
		}

		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Sources.FederalRegister.BaseURL = srv.URL
	cfg.Sources.CourtListener.BaseURL = srv.URL
	cfg.Sources.Regulations.BaseURL = srv.URL
	cfg.Sources.OpenStates.BaseURL = srv.URL

	items, report := New(cfg, nil).FetchAllWithReport(context.Background(), Options{OpenStatesAPIKey: "k"})

	require.Len(t, items, 1)
	assert.Equal(t, normalizer.CategoryWetlands, items[0].Category)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []string{models.SourceRegulations}, report.Skipped())
	assert.Equal(t, 0, report.Sources[3].Fetched)
}

func TestOptionsFromCredentials(t *testing.T) {
	opts := OptionsFromCredentials(config.Credentials{RegulationsAPIKey: "r", OpenStatesAPIKey: "o", SMTPPass: "p"})
	assert.Equal(t, Options{RegulationsAPIKey: "r", OpenStatesAPIKey: "o"}, opts)
}
