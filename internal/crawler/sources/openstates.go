package sources

import (
	"context"
	"net/url"
	"strconv"

	"blueduck/internal/config"
	"blueduck/internal/crawler"
	"blueduck/internal/logger"
	"blueduck/internal/models"
)

// DefaultJurisdiction scopes bill searches when the config does not.
const DefaultJurisdiction = "Texas"

// OpenStates queries the OpenStates v3 bill search for one jurisdiction.
type OpenStates struct {
	adapter
	jurisdiction string
}

// NewOpenStates creates the adapter from its source config.
func NewOpenStates(f *crawler.Fetcher, cfg config.SourceConfig, log *logger.Logger) *OpenStates {
	jurisdiction := cfg.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = DefaultJurisdiction
	}

	return &OpenStates{
		adapter:      newAdapter(models.SourceOpenStates, f, cfg, log),
		jurisdiction: jurisdiction,
	}
}

// Bills returns bills matching query, or an empty list on any failure.
// The key travels in the X-API-KEY header.
func (s *OpenStates) Bills(ctx context.Context, query, apiKey string, pageSize int) []models.OpenStatesBill {
	params := url.Values{}
	params.Set("jurisdiction", s.jurisdiction)
	params.Set("q", query)
	params.Set("per_page", strconv.Itoa(pageSize))

	headers := map[string]string{"X-API-KEY": apiKey}

	resp, ok := fetch[models.OpenStatesResponse](ctx, s.adapter, s.baseURL+"/bills", params, headers)
	if !ok {
		return []models.OpenStatesBill{}
	}

	return resp.Bills()
}
