// internal/adapters/sirius/client.go
package sirius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"sirius_reviews/internal/adapters/observability"
	"sirius_reviews/internal/domain"
)

const (
	tokenPath   = "/api/token/new"
	reviewsPath = "/api/reviews/getAllReviewsWithoutPaging"
	dateLayout  = "2006-01-02"
	userAgent   = "sirius-reviews/1.0"
)

type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter
}

// BaseURL turns the configured hostname into the API root. A hostname that
// already carries a scheme is used as is.
func BaseURL(hostname string) string {
	if strings.Contains(hostname, "://") {
		return strings.TrimRight(hostname, "/")
	}
	return "https://" + hostname
}

func New(base string, rps int, timeout time.Duration) (*Client, error) {
	if base == "" {
		return nil, fmt.Errorf("API base URL is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Login exchanges credentials for a bearer token. One attempt, no retry.
func (c *Client) Login(ctx context.Context, username, password string) (domain.Token, error) {
	form := url.Values{}
	form.Set("email", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Token{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(ctx, "token", req)
	if err != nil {
		return domain.Token{}, err
	}
	if status != http.StatusOK {
		return domain.Token{}, fmt.Errorf("%w: token endpoint returned %d", domain.ErrAuthentication, status)
	}

	var raw map[string]any
	if err := decode(body, &raw); err != nil {
		return domain.Token{}, fmt.Errorf("%w: decode token: %v", domain.ErrAuthentication, err)
	}
	access, ok := raw["access"].(string)
	if !ok {
		return domain.Token{}, fmt.Errorf("%w: token response has no access field", domain.ErrAuthentication)
	}
	return domain.Token{Access: access, Raw: raw}, nil
}

// GetAllReviews loads the complete, unpaged review set for the given applications.
func (c *Client) GetAllReviews(ctx context.Context, token domain.Token, applications []string, dateFrom time.Time) ([]domain.RawReview, error) {
	q := url.Values{}
	for _, a := range applications {
		q.Add("application", a)
	}
	q.Set("dateFrom", dateFrom.Format(dateLayout))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+reviewsPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Bearer "+token.Access)
	req.Header.Set("User-Agent", userAgent)

	body, status, err := c.do(ctx, "reviews", req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &StatusError{Status: status, Body: snippet(body), err: domain.ErrFetch}
	}

	var payload struct {
		Results json.RawMessage `json:"results"`
	}
	if err := decode(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode reviews: %v", domain.ErrFetch, err)
	}
	if len(payload.Results) == 0 || string(payload.Results) == "null" {
		return nil, fmt.Errorf("%w: response has no results: %s", domain.ErrFetch, snippet(body))
	}
	var out []domain.RawReview
	if err := decode(payload.Results, &out); err != nil {
		return nil, fmt.Errorf("%w: results is not a list of objects: %v", domain.ErrFetch, err)
	}
	return out, nil
}

// StatusError carries the body of a rejected call for diagnostics.
type StatusError struct {
	Status int
	Body   string
	err    error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: remote %d: %s", e.err, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return e.err }

// ---- Internals ----

// do sends req once, observing latency and status, and returns the full body.
func (c *Client) do(ctx context.Context, endpoint string, req *http.Request) ([]byte, int, error) {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("sirius", endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, 0, ctx.Err()
		}
		return nil, 0, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	observability.ObserveExternal("sirius", endpoint, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s body: %w", endpoint, err)
	}
	return b, resp.StatusCode, nil
}

// decode keeps numbers as json.Number so they pass through unchanged.
func decode(b []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	return dec.Decode(out)
}

func snippet(b []byte) string {
	if len(b) > 4096 {
		b = b[:4096]
	}
	return strings.TrimSpace(string(b))
}
