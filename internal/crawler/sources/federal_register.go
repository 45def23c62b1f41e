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

// federalRegisterFields restricts the response to what normalization reads.
var federalRegisterFields = []string{
	"title",
	"publication_date",
	"html_url",
	"pdf_url",
	"agencies",
	"abstract",
	"document_number",
}

// FederalRegister queries the Federal Register documents API. No key is required.
type FederalRegister struct {
	adapter
}

// NewFederalRegister creates the adapter from its source config.
func NewFederalRegister(f *crawler.Fetcher, cfg config.SourceConfig, log *logger.Logger) *FederalRegister {
	return &FederalRegister{adapter: newAdapter(models.SourceFederalRegister, f, cfg, log)}
}

// Documents returns the newest documents matching term, or an empty list on any failure.
func (s *FederalRegister) Documents(ctx context.Context, term string, perPage int) []models.FederalRegisterDocument {
	params := url.Values{}
	params.Set("conditions[term]", term)
	params.Set("order", "newest")
	params.Set("per_page", strconv.Itoa(perPage))

	for _, field := range federalRegisterFields {
		params.Add("fields[]", field)
	}

	resp, ok := fetch[models.FederalRegisterResponse](ctx, s.adapter, s.baseURL+"/documents.json", params, nil)
	if !ok {
		return []models.FederalRegisterDocument{}
	}

	return resp.Documents()
}
