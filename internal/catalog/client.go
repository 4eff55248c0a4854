package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/time/rate"

	"proptag/internal/platform"
)

const (
	userAgent = "proptag/0.1"

	rateLimitRequests = 5
	rateLimitDuration = time.Second

	entryPageSize = 100
)

// Client is a JSON-over-HTTP catalog source.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	rateLimiter *rate.Limiter
}

// NewClient creates a catalog client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		userAgent:   userAgent,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitDuration/time.Duration(rateLimitRequests)), rateLimitRequests),
	}
}

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

type envelope struct {
	Result string          `json:"result"`
	Data   json.RawMessage `json:"data"`
	Total  int             `json:"total"`
	Errors []apiError      `json:"errors,omitempty"`
}

// doJSON executes a GET request, decodes the response envelope, then decodes
// its data into out. Returns the envelope total for paged collections.
func (c *Client) doJSON(ctx context.Context, endpoint string, params url.Values, out any) (int, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limit: %w", err)
	}

	fullURL := c.baseURL + endpoint
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read body: %v", ErrSourceUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		if json.Unmarshal(b, &env) == nil && len(env.Errors) > 0 {
			return 0, fmt.Errorf("%w: %s (%d): %s", ErrSourceUnavailable, env.Errors[0].Title, resp.StatusCode, env.Errors[0].Detail)
		}
		return 0, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return 0, fmt.Errorf("%w: decode envelope: %v", ErrSourceUnavailable, err)
	}
	if env.Result == "error" {
		if len(env.Errors) > 0 {
			return 0, fmt.Errorf("%w: %s: %s", ErrSourceUnavailable, env.Errors[0].Title, env.Errors[0].Detail)
		}
		return 0, fmt.Errorf("%w: result=error with no details", ErrSourceUnavailable)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return 0, fmt.Errorf("%w: decode data: %v", ErrSourceUnavailable, err)
		}
	}
	return env.Total, nil
}

// Search queries the catalog for properties matching query. Results are
// re-ranked client-side so the closest property names list first. An empty
// query returns no results.
func (c *Client) Search(ctx context.Context, query string) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("query", query)

	var items []Item
	if _, err := c.doJSON(ctx, "/properties", params, &items); err != nil {
		return nil, err
	}
	return rankItems(query, items), nil
}

// rankItems orders items by fuzzy closeness to query, keeping items the
// matcher rejects at the end in their original order.
func rankItems(query string, items []Item) []Item {
	if len(items) < 2 {
		return items
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(query, names)
	sort.Sort(ranks)

	out := make([]Item, 0, len(items))
	taken := make(map[int]struct{}, len(ranks))
	for _, r := range ranks {
		out = append(out, items[r.OriginalIndex])
		taken[r.OriginalIndex] = struct{}{}
	}
	for i, it := range items {
		if _, ok := taken[i]; !ok {
			out = append(out, it)
		}
	}
	return out
}

type wireEntry struct {
	Names     []string `json:"names"`
	Platforms []string `json:"platforms"`
	URL       string   `json:"url"`
}

// Candidates fetches every entry associated with a property, paging through
// the collection. progress is called after each page with the running count.
func (c *Client) Candidates(ctx context.Context, item Item, progress func(fetched, total int)) ([]Candidate, error) {
	var out []Candidate
	offset := 0
	for {
		params := url.Values{}
		params.Set("limit", fmt.Sprint(entryPageSize))
		params.Set("offset", fmt.Sprint(offset))

		var page []wireEntry
		total, err := c.doJSON(ctx, "/properties/"+url.PathEscape(item.ID)+"/entries", params, &page)
		if err != nil {
			return nil, err
		}

		for _, e := range page {
			if len(e.Names) == 0 {
				continue
			}
			out = append(out, Candidate{
				Names:     e.Names,
				Platforms: platform.NormalizeAll(e.Platforms),
				SourceURL: e.URL,
			})
		}

		offset += len(page)
		if progress != nil {
			progress(offset, total)
		}
		if len(page) < entryPageSize || offset >= total {
			break
		}
	}
	return out, nil
}
