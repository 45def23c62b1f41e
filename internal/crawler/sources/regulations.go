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

// Regulations queries the Regulations.gov v4 document search.
type Regulations struct {
	adapter
}

// NewRegulations creates the adapter from its source config.
func NewRegulations(f *crawler.Fetcher, cfg config.SourceConfig, log *logger.Logger) *Regulations {
	return &Regulations{adapter: newAdapter(models.SourceRegulations, f, cfg, log)}
}

// Documents returns documents matching term, or an empty list on any failure.
// The key travels as the api_key query parameter.
func (s *Regulations) Documents(ctx context.Context, term, apiKey string, pageSize int) []models.RegulationsDocument {
	params := url.Values{}
	params.Set("filter[searchTerm]", term)
	params.Set("page[size]", strconv.Itoa(pageSize))
	params.Set("api_key", apiKey)

	resp, ok := fetch[models.RegulationsResponse](ctx, s.adapter, s.baseURL+"/documents", params, nil)
	if !ok {
		return []models.RegulationsDocument{}
	}

	return resp.Documents()
}
