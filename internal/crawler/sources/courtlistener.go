package sources

import (
	"context"
	"net/url"
	"strconv"

	"blueduck/internal/config"
	"blueduck/internal/crawler"
	"blueduck/internal/logger"
	"blueduck/internal/models"
	"blueduck/pkg/utils"
)

// CourtListener queries the CourtListener opinion search. The API is free but
// rate-limited; courtesy is a descriptive User-Agent, not throttling.
type CourtListener struct {
	adapter
	userAgent string
}

// NewCourtListener creates the adapter from its source config.
func NewCourtListener(f *crawler.Fetcher, cfg config.SourceConfig, log *logger.Logger) *CourtListener {
	ua := cfg.UserAgent
	if ua == "" {
		ua = utils.DefaultUserAgent
	}

	return &CourtListener{
		adapter:   newAdapter(models.SourceCourtListener, f, cfg, log),
		userAgent: ua,
	}
}

// Cases returns opinions matching query, newest filing first, or an empty list on any failure.
func (s *CourtListener) Cases(ctx context.Context, query string, pageSize int) []models.CourtListenerResult {
	params := url.Values{}
	params.Set("q", query)
	params.Set("order_by", "dateFiled desc")
	params.Set("type", "o")
	params.Set("page_size", strconv.Itoa(pageSize))

	headers := map[string]string{"User-Agent": s.userAgent}

	resp, ok := fetch[models.CourtListenerResponse](ctx, s.adapter, s.baseURL+"/api/rest/v3/search/", params, headers)
	if !ok {
		return []models.CourtListenerResult{}
	}

	return resp.Cases()
}
