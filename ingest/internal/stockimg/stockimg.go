// Package stockimg fills image deficits from a stock-photo search service,
// falling back to deterministic placeholder URLs when the service is
// unconfigured or unavailable. The returned slice always has exactly the
// requested number of entries so callers never re-check the arithmetic.
package stockimg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/venuery/venuery/safeurl"
)

// Config configures the stock image provider.
type Config struct {
	AccessKey string        // search-service credential; empty → placeholders only
	BaseURL   string        // search endpoint base. Default: https://stock.example-api.com.
	Timeout   time.Duration // per-call HTTP timeout. Default: 10s.
	City      string        // locale city appended to queries. Default: "Istanbul".
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://stock.example-api.com"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.City == "" {
		c.City = "Istanbul"
	}
}

// Provider searches stock photos for a venue term.
type Provider struct {
	config Config
	client *http.Client
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Provider {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Search returns exactly deficit image URLs for term. Live results come
// first; any shortfall is topped up with deterministic placeholders.
// deficit ≤ 0 returns nil.
func (p *Provider) Search(ctx context.Context, term string, deficit int) []string {
	if deficit <= 0 {
		return nil
	}

	var urls []string
	if p.config.AccessKey != "" {
		live, err := p.search(ctx, term, deficit)
		if err != nil {
			p.logger.Warn("stockimg: search failed, using placeholders",
				"term", term, "error", err)
		} else {
			urls = live
		}
	}

	for i := len(urls); i < deficit; i++ {
		urls = append(urls, Placeholder(term, i))
	}
	return urls[:deficit]
}

func (p *Provider) search(ctx context.Context, term string, count int) ([]string, error) {
	q := url.Values{}
	q.Set("query", term+" "+p.config.City)
	q.Set("per_page", strconv.Itoa(count))
	q.Set("client_id", p.config.AccessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.config.BaseURL+"/search/photos?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := safeurl.LimitedReadAll(resp.Body, 1<<20)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var parsed struct {
		Results []struct {
			URLs struct {
				Regular string `json:"regular"`
			} `json:"urls"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	var urls []string
	for _, r := range parsed.Results {
		if r.URLs.Regular == "" {
			continue
		}
		urls = append(urls, r.URLs.Regular)
		if len(urls) >= count {
			break
		}
	}
	return urls, nil
}

const placeholderHost = "placeholder.example-images.com"

// Placeholder returns the deterministic placeholder URL for a term at a
// given index. The seed is stable across runs so re-ingesting the same term
// reproduces the same placeholder list.
func Placeholder(term string, index int) string {
	return fmt.Sprintf("https://%s/seed/%s-%d/800/600",
		placeholderHost, slug(term), index)
}

// IsPlaceholder reports whether a URL came from the placeholder fallback.
func IsPlaceholder(u string) bool {
	return strings.Contains(u, placeholderHost)
}

// slug lowercases term and collapses non-alphanumeric runs into hyphens.
func slug(term string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(term) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
