package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"siteapi/internal/models"
)

// DefaultContentType is assumed when the upstream omits a Content-Type.
const DefaultContentType = "image/jpeg"

// acceptHeader mirrors what a browser sends for an <img> fetch; some origins
// refuse hotlinked requests without it.
const acceptHeader = "image/avif,image/webp,image/apng,image/*,*/*;q=0.8"

// Result is one upstream fetch outcome. The caller owns Body and must close
// it. A non-2xx StatusCode is not an error at this layer; the endpoint
// decides how to surface it.
type Result struct {
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
}

// Fetcher retrieves images from allowlisted upstream hosts. Redirects are
// never followed: a redirect could land on a non-allowlisted host, so a 3xx
// is surfaced to the caller like any other non-success status. Responses are
// not cached at this layer.
type Fetcher struct {
	client    *http.Client
	referer   string
	userAgent string
}

// NewFetcher creates a fetcher using the proxy configuration's hotlink
// headers and fetch timeout. The timeout bounds the entire exchange,
// including reading the body.
func NewFetcher(cfg models.ProxyConfig) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.FetchTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		referer:   cfg.Referer,
		userAgent: cfg.UserAgent,
	}
}

// Fetch retrieves the target URL. The context cancels the fetch when the
// caller disconnects.
func (f *Fetcher) Fetch(ctx context.Context, target *url.URL) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	req.Header.Set("Referer", f.referer)
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream fetch: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = DefaultContentType
	}

	return &Result{
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        resp.Body,
	}, nil
}
