// Package sources holds one adapter per upstream API. Adapters never return
// errors: any failure is logged here and turned into an empty result so one
// failing source cannot hold back the others.
package sources

import (
	"context"
	"net/url"
	"strings"
	"time"

	"blueduck/internal/config"
	"blueduck/internal/crawler"
	"blueduck/internal/logger"
)

// adapter carries what every source needs.
type adapter struct {
	fetcher *crawler.Fetcher
	logger  *logger.Logger
	name    string
	baseURL string
	timeout time.Duration
}

func newAdapter(name string, f *crawler.Fetcher, cfg config.SourceConfig, log *logger.Logger) adapter {
	if f == nil {
		f = crawler.NewFetcher()
	}

	if log == nil {
		log = logger.Discard()
	}

	return adapter{
		fetcher: f,
		logger:  log.With("source", name),
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout(),
	}
}

// Name returns the human-readable source name.
func (a adapter) Name() string {
	return a.name
}

// fetch runs one request through a and decodes it into T. Failures are logged
// without the query string, which may carry an API key.
func fetch[T any](ctx context.Context, a adapter, endpoint string, params url.Values, headers map[string]string) (T, bool) {
	full := endpoint + "?" + params.Encode()
	start := time.Now()

	out, err := crawler.FetchJSON[T](ctx, a.fetcher, full, crawler.Options{Timeout: a.timeout, Headers: headers})
	if err != nil {
		a.logger.Error("source fetch failed",
			"endpoint", endpoint,
			"duration", time.Since(start),
			"error", redact(err.Error(), params),
		)

		return out, false
	}

	a.logger.Debug("source fetched", "endpoint", endpoint, "duration", time.Since(start))

	return out, true
}

// redact removes the api_key value from an error message.
func redact(msg string, params url.Values) string {
	key := params.Get("api_key")
	if key == "" {
		return msg
	}

	msg = strings.ReplaceAll(msg, url.QueryEscape(key), "REDACTED")

	return strings.ReplaceAll(msg, key, "REDACTED")
}
