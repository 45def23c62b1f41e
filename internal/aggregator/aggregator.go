// Package aggregator runs every enabled source, normalizes the results and
// returns a single feed ordered newest first.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"blueduck/internal/config"
	"blueduck/internal/crawler"
	"blueduck/internal/crawler/sources"
	"blueduck/internal/logger"
	"blueduck/internal/models"
	"blueduck/internal/normalizer"
)

// Skip reasons reported for sources that did not run.
const (
	SkipMissingRegulationsKey = "missing " + config.EnvRegulationsAPIKey
	SkipMissingOpenStatesKey  = "missing " + config.EnvOpenStatesAPIKey
)

// FederalRegisterSource searches Federal Register documents.
type FederalRegisterSource interface {
	Documents(ctx context.Context, term string, perPage int) []models.FederalRegisterDocument
}

// CourtListenerSource searches court opinions.
type CourtListenerSource interface {
	Cases(ctx context.Context, query string, pageSize int) []models.CourtListenerResult
}

// RegulationsSource searches Regulations.gov documents.
type RegulationsSource interface {
	Documents(ctx context.Context, term, apiKey string, pageSize int) []models.RegulationsDocument
}

// OpenStatesSource searches state bills.
type OpenStatesSource interface {
	Bills(ctx context.Context, query, apiKey string, pageSize int) []models.OpenStatesBill
}

// Sources bundles one adapter per upstream API.
type Sources struct {
	FederalRegister FederalRegisterSource
	CourtListener   CourtListenerSource
	Regulations     RegulationsSource
	OpenStates      OpenStatesSource
}

// Options carries per-call credentials. An empty key disables its source.
type Options struct {
	RegulationsAPIKey string
	OpenStatesAPIKey  string
}

// OptionsFromCredentials picks the source keys out of the environment credentials.
func OptionsFromCredentials(creds config.Credentials) Options {
	return Options{
		RegulationsAPIKey: creds.RegulationsAPIKey,
		OpenStatesAPIKey:  creds.OpenStatesAPIKey,
	}
}

// SourceReport describes what one source contributed to a run.
type SourceReport struct {
	Name    string `json:"name"`
	Fetched int    `json:"fetched"`
	Used    int    `json:"used"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Report summarizes one aggregation run.
type Report struct {
	RunID     string         `json:"runId"`
	StartedAt time.Time      `json:"startedAt"`
	Duration  time.Duration  `json:"durationNs"`
	Sources   []SourceReport `json:"sources"`
	Total     int            `json:"total"`
}

// Skipped returns the names of sources that did not run.
func (r Report) Skipped() []string {
	var names []string

	for _, s := range r.Sources {
		if s.Skipped {
			names = append(names, s.Name)
		}
	}

	return names
}

// Aggregator combines the sources into one feed.
type Aggregator struct {
	sources     Sources
	cfg         config.SourcesConfig
	transformer *normalizer.Transformer
	processor   *normalizer.Processor
	logger      *logger.Logger
	newRunID    func() string
}

// New creates an aggregator backed by the live HTTP adapters.
func New(cfg *config.Config, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Discard()
	}

	fetcher := crawler.NewFetcherWithConfig(nil, cfg.HTTP.UserAgent, cfg.HTTP.MaxBodyKb)

	src := Sources{
		FederalRegister: sources.NewFederalRegister(fetcher, cfg.Sources.FederalRegister, log),
		CourtListener:   sources.NewCourtListener(fetcher, cfg.Sources.CourtListener, log),
		Regulations:     sources.NewRegulations(fetcher, cfg.Sources.Regulations, log),
		OpenStates:      sources.NewOpenStates(fetcher, cfg.Sources.OpenStates, log),
	}

	transformer := normalizer.NewTransformer().WithJurisdiction(cfg.Sources.OpenStates.Jurisdiction)

	return NewWithSources(src, cfg.Sources, transformer, log)
}

// NewWithSources creates an aggregator over the given adapters. A nil
// adapter behaves like a source that returned nothing.
func NewWithSources(src Sources, cfg config.SourcesConfig, transformer *normalizer.Transformer, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Discard()
	}

	if transformer == nil {
		transformer = normalizer.NewTransformer()
	}

	return &Aggregator{
		sources:     src,
		cfg:         cfg,
		transformer: transformer,
		processor:   normalizer.NewProcessor(log),
		logger:      log,
		newRunID:    uuid.NewString,
	}
}

// FetchAll returns the combined feed. It never fails: a source that errors
// or panics contributes nothing.
func (a *Aggregator) FetchAll(ctx context.Context, opts Options) []models.NewsItem {
	items, _ := a.FetchAllWithReport(ctx, opts)
	return items
}

// job is one source run. Each job writes only its own slot.
type job struct {
	name   string
	reason string
	run    func(ctx context.Context) (fetched int, items []models.NewsItem)
}

type slot struct {
	fetched int
	items   []models.NewsItem
}

// FetchAllWithReport returns the combined feed together with a per-source report.
func (a *Aggregator) FetchAllWithReport(ctx context.Context, opts Options) ([]models.NewsItem, Report) {
	report := Report{
		RunID:     a.newRunID(),
		StartedAt: time.Now().UTC(),
	}
	log := a.logger.With("run_id", report.RunID)

	jobs := a.jobs(opts)
	slots := make([]slot, len(jobs))

	log.Info("aggregation started", "sources", len(jobs))

	var wg sync.WaitGroup

	for i, j := range jobs {
		if j.run == nil {
			continue
		}

		wg.Add(1)

		go func(i int, j job) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Error("source panicked", "source", j.name, "panic", fmt.Sprint(r))
					slots[i] = slot{}
				}
			}()

			fetched, items := j.run(ctx)
			slots[i] = slot{fetched: fetched, items: items}
		}(i, j)
	}

	wg.Wait()

	var combined []models.NewsItem

	for i, j := range jobs {
		sr := SourceReport{Name: j.name}

		if j.run == nil {
			sr.Skipped = true
			sr.Reason = j.reason
			log.Warn("optional source skipped", "source", j.name, "reason", j.reason)
		} else {
			sr.Fetched = slots[i].fetched
			sr.Used = len(slots[i].items)
			combined = append(combined, slots[i].items...)
		}

		report.Sources = append(report.Sources, sr)
	}

	items := a.processor.Process(combined)

	report.Total = len(items)
	report.Duration = time.Since(report.StartedAt)

	log.Info("aggregation finished", "items", report.Total, "duration", report.Duration)

	return items, report
}

// jobs lists the sources in feed concatenation order. Sources whose
// credential is missing get a nil run and a skip reason.
func (a *Aggregator) jobs(opts Options) []job {
	fr := a.cfg.FederalRegister
	cl := a.cfg.CourtListener
	rg := a.cfg.Regulations
	st := a.cfg.OpenStates

	jobs := []job{
		{
			name: models.SourceFederalRegister,
			run: func(ctx context.Context) (int, []models.NewsItem) {
				if a.sources.FederalRegister == nil {
					return 0, nil
				}

				docs := a.sources.FederalRegister.Documents(ctx, fr.Query, fr.PageSize)

				return len(docs), a.transformer.FederalRegister(take(docs, fr.Take))
			},
		},
		{
			name: models.SourceCourtListener,
			run: func(ctx context.Context) (int, []models.NewsItem) {
				if a.sources.CourtListener == nil {
					return 0, nil
				}

				cases := a.sources.CourtListener.Cases(ctx, cl.Query, cl.PageSize)

				return len(cases), a.transformer.CourtListener(take(cases, cl.Take))
			},
		},
		{name: models.SourceRegulations, reason: SkipMissingRegulationsKey},
		{name: models.SourceOpenStates, reason: SkipMissingOpenStatesKey},
	}

	if opts.RegulationsAPIKey != "" {
		jobs[2].run = func(ctx context.Context) (int, []models.NewsItem) {
			if a.sources.Regulations == nil {
				return 0, nil
			}

			docs := a.sources.Regulations.Documents(ctx, rg.Query, opts.RegulationsAPIKey, rg.PageSize)

			return len(docs), a.transformer.Regulations(take(docs, rg.Take))
		}
	}

	if opts.OpenStatesAPIKey != "" {
		jobs[3].run = func(ctx context.Context) (int, []models.NewsItem) {
			if a.sources.OpenStates == nil {
				return 0, nil
			}

			bills := a.sources.OpenStates.Bills(ctx, st.Query, opts.OpenStatesAPIKey, st.PageSize)

			return len(bills), a.transformer.OpenStates(take(bills, st.Take))
		}
	}

	return jobs
}

// take returns the first n records in source order.
func take[T any](records []T, n int) []T {
	if n >= 0 && len(records) > n {
		return records[:n]
	}

	return records
}
