// Package utils provides common utility functions.
package utils

import "net/http"

// DefaultUserAgent identifies the Conservation Watch fetcher to upstream APIs.
const DefaultUserAgent = "BlueDuckFoundation/1.0 (contact: admin@theblueduck.org)"

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper. An empty userAgent selects DefaultUserAgent.
func NewHTTPHelper(userAgent string) *HTTPHelper {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &HTTPHelper{userAgent: userAgent}
}

// BuildHeaders creates JSON request headers with defaults.
// Custom headers replace defaults of the same name.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "application/json")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}
