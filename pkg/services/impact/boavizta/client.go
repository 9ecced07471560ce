package boavizta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	DefaultBaseURL    = "https://api.boavizta.org"
	DefaultTimeout    = 30 * time.Second
	DefaultAllocation = "LINEAR"

	countryCodePath = "/v1/utils/country_code"
	componentPath   = "/v1/component/"

	// errBodyLimit caps how much of a failed response ends up in the error message.
	errBodyLimit = 512
)

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the Boavizta estimation API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: hc,
	}
}

// ComponentRequest describes a single component impact query.
type ComponentRequest struct {
	Component  string
	Verbose    bool
	Allocation string
	Payload    map[string]interface{}
	Token      string
}

// SupportedLocations returns the sorted, de-duplicated set of location codes the service accepts.
func (c *Client) SupportedLocations(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+countryCodePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build country code request: %w", err)
	}

	var countries map[string]interface{}
	if err := c.do(ctx, req, &countries); err != nil {
		return nil, fmt.Errorf("failed to list supported locations: %w", err)
	}

	seen := make(map[string]struct{}, len(countries))
	locations := make([]string, 0, len(countries))
	for _, v := range countries {
		code := fmt.Sprint(v)
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		locations = append(locations, code)
	}
	sort.Strings(locations)
	return locations, nil
}

// Component posts the payload to the component endpoint and returns the decoded response body.
func (c *Client) Component(ctx context.Context, r ComponentRequest) (map[string]interface{}, error) {
	allocation := r.Allocation
	if allocation == "" {
		allocation = DefaultAllocation
	}

	query := url.Values{}
	query.Set("verbose", strconv.FormatBool(r.Verbose))
	query.Set("allocation", allocation)
	endpoint := c.baseURL + componentPath + url.PathEscape(r.Component) + "?" + query.Encode()

	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", r.Component, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", r.Component, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	var out map[string]interface{}
	if err := c.do(ctx, req, &out); err != nil {
		return nil, fmt.Errorf("%s impact request failed: %w", r.Component, err)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, req *http.Request, out interface{}) error {
	logger := zerolog.Ctx(ctx)
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close response body")
		}
	}()

	logger.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("estimation api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(excerpt)))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
