package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"jobportal-engine/internal/scrape/types"
)

// Request describes one JSON GET against a platform API.
type Request struct {
	Source    string
	Company   string
	URL       string
	UserAgent string
}

// GetJSON performs the GET and decodes the body into v. Every failure comes
// back as a *types.FetchError.
func GetJSON(ctx context.Context, hc *http.Client, limiter *HostLimiter, r Request, v any) error {
	fail := func(status int, cause error) error {
		return &types.FetchError{Source: r.Source, Company: r.Company, Status: status, Cause: cause}
	}

	if err := limiter.Wait(ctx, r.URL); err != nil {
		return fail(0, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fail(0, err)
	}
	ua := r.UserAgent
	if ua == "" {
		ua = types.DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	res, err := hc.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("get: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		if len(b) > 0 {
			return fail(res.StatusCode, fmt.Errorf("body %q", string(b)))
		}
		return fail(res.StatusCode, nil)
	}

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fail(res.StatusCode, fmt.Errorf("%w: %v", types.ErrParse, err))
	}
	return nil
}
