// Package enrich crawls a venue's official website to supplement structured
// data: extra images, bullet highlights, tips and cultural context, and a
// markdown rendition of the main content.
//
// Every attempted crawl consumes exactly one credit, success or not; a call
// that is never attempted (no URL, no credential) consumes zero.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/venuery/venuery/extract"
	"github.com/venuery/venuery/safeurl"
)

// Result is the outcome of one enrichment attempt.
type Result struct {
	Success          bool     `json:"success"`
	CreditsUsed      int      `json:"credits_used"`
	AdditionalImages []string `json:"additional_images"`
	Highlights       []string `json:"highlights"`
	Tips             []string `json:"tips"`
	CulturalContext  []string `json:"cultural_context"`
	EnrichedContent  string   `json:"enriched_content"` // markdown, capped
}

// Config configures the enricher.
type Config struct {
	Credential    string        // crawl-service credential; empty disables enrichment
	Timeout       time.Duration // per-call HTTP timeout. Default: 20s.
	MaxBytes      int64         // response body cap. Default: safeurl.MaxResponseBody.
	UserAgent     string        // default: "venuery-enrich/1.0"
	MaxContentLen int           // enriched markdown cap in runes. Default: 4000.
	// URLValidator guards outbound fetches. Default: safeurl.ValidateOutbound.
	URLValidator func(string) error
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = safeurl.MaxResponseBody
	}
	if c.UserAgent == "" {
		c.UserAgent = "venuery-enrich/1.0"
	}
	if c.MaxContentLen <= 0 {
		c.MaxContentLen = 4000
	}
	if c.URLValidator == nil {
		c.URLValidator = safeurl.ValidateOutbound
	}
}

// Enricher crawls venue websites.
type Enricher struct {
	config     Config
	client     *http.Client
	logger     *slog.Logger
	strategies []ImageStrategy
	sanitizer  *bluemonday.Policy
	md         *converter.Converter
}

// New creates an Enricher with the default image strategies.
func New(cfg Config, logger *slog.Logger) *Enricher {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				return cfg.URLValidator(req.URL.String())
			},
		},
		logger:     logger,
		strategies: DefaultStrategies(),
		sanitizer:  bluemonday.UGCPolicy(),
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Available reports whether a crawl credential is configured.
func (e *Enricher) Available() bool {
	return e.config.Credential != ""
}

// Enrich crawls siteURL and extracts supplementary content. When siteURL is
// empty or no credential is configured it is a zero-cost no-op. A failed
// attempt still returns a Result so the caller can account the credit.
func (e *Enricher) Enrich(ctx context.Context, siteURL string) (*Result, error) {
	if siteURL == "" || !e.Available() {
		return &Result{Success: false, CreditsUsed: 0}, nil
	}

	// The attempt starts here: one credit regardless of outcome.
	res := &Result{CreditsUsed: 1}

	if err := e.config.URLValidator(siteURL); err != nil {
		return res, fmt.Errorf("crawl blocked: %w", err)
	}

	body, err := e.fetch(ctx, siteURL)
	if err != nil {
		return res, fmt.Errorf("crawl %s: %w", siteURL, err)
	}

	markup := string(body)
	res.AdditionalImages = ExtractImages(markup, siteURL, e.strategies...)

	content, err := extract.Extract(body, extract.Options{})
	if err != nil {
		e.logger.Warn("enrich: content extraction failed", "url", siteURL, "error", err)
		// Images alone still count as a successful enrichment.
		res.Success = len(res.AdditionalImages) > 0
		return res, nil
	}

	text := extract.CleanText(content.Text)
	res.Highlights = extractHighlights(text)
	res.Tips = matchSentences(tipRe, text, 5)
	res.CulturalContext = matchSentences(culturalRe, text, 5)
	res.EnrichedContent = e.toMarkdown(content.HTML, siteURL)
	res.Success = true

	e.logger.Debug("enrich: crawled",
		"url", siteURL,
		"images", len(res.AdditionalImages),
		"highlights", len(res.Highlights),
		"content_len", len(res.EnrichedContent))

	return res, nil
}

func (e *Enricher) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}
	return safeurl.LimitedReadAll(resp.Body, e.config.MaxBytes)
}

// toMarkdown sanitizes the main-content markup and converts it to markdown,
// capped at MaxContentLen runes.
func (e *Enricher) toMarkdown(contentHTML, siteURL string) string {
	if contentHTML == "" {
		return ""
	}
	clean := e.sanitizer.Sanitize(contentHTML)
	md, err := e.md.ConvertString(clean, converter.WithDomain(siteURL))
	if err != nil {
		return ""
	}
	md = strings.TrimSpace(md)
	if r := []rune(md); len(r) > e.config.MaxContentLen {
		md = string(r[:e.config.MaxContentLen])
	}
	return md
}

// bulletRe matches lines that start with a bullet or dash marker.
var bulletRe = regexp.MustCompile(`^[\s]*[•\-–*]\s+(.+)$`)

// extractHighlights collects bullet-style lines from the page text.
func extractHighlights(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		m := bulletRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		h := strings.TrimSpace(m[1])
		if len(h) < 5 || len(h) > 200 {
			continue
		}
		out = append(out, h)
		if len(out) >= 10 {
			break
		}
	}
	return out
}

// Keyword-anchored sentence patterns for loosely structured advice.
var (
	tipRe      = regexp.MustCompile(`(?i)[^.!?\n]*\b(?:tip|advice|recommended|best time|avoid|arrive early|book ahead)\b[^.!?\n]*[.!?]`)
	culturalRe = regexp.MustCompile(`(?i)[^.!?\n]*\b(?:tradition|cultural|custom|etiquette|respectful|dress code|history of)\b[^.!?\n]*[.!?]`)
)

func matchSentences(re *regexp.Regexp, text string, max int) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range re.FindAllString(text, -1) {
		s := strings.TrimSpace(m)
		if len(s) < 15 || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) >= max {
			break
		}
	}
	return out
}
