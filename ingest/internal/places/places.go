// Package places resolves a free-text search term to a canonical venue
// record from a structured lookup source.
//
// With an API key configured the lookup is two-step: search-by-text to get
// a place identifier, then a details fetch for the full record. Without a
// key, Lookup serves deterministic local fixtures so the rest of the
// pipeline stays exercisable offline.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/venuery/venuery/safeurl"
)

// maxPhotos caps how many photo references are mapped into URLs.
const maxPhotos = 5

// Record is the normalized structured-source output for one venue.
type Record struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Rating         float64  `json:"rating"`
	ReviewCount    int      `json:"review_count"`
	PriceRange     string   `json:"price_range"`
	Duration       string   `json:"duration"`
	Location       string   `json:"location"`
	Address        string   `json:"address"`
	Lat            float64  `json:"lat"`
	Lng            float64  `json:"lng"`
	OpeningHours   string   `json:"opening_hours"`
	Types          []string `json:"types"`
	Website        string   `json:"website"`
	Photos         []string `json:"photos"`
	ConfidenceSeed int      `json:"confidence_seed"`
	Sources        []string `json:"sources"`
}

// Config configures the structured-source client.
type Config struct {
	APIKey  string        // empty → fixture mode
	BaseURL string        // lookup endpoint root; default set by defaults()
	Timeout time.Duration // per-call HTTP timeout. Default: 15s.
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://places.example-api.com/v1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
}

// Client performs structured venue lookups.
type Client struct {
	config Config
	client *http.Client
}

// New creates a Client. With no API key, Lookup serves fixtures.
func New(cfg Config) *Client {
	cfg.defaults()
	return &Client{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Live reports whether a structured-source credential is configured.
func (c *Client) Live() bool {
	return c.config.APIKey != ""
}

// Lookup resolves a search term to a canonical record. Returns (nil, nil)
// when the source has no match — callers must treat that as "no structured
// data" and fail the term.
func (c *Client) Lookup(ctx context.Context, term, category string) (*Record, error) {
	if !c.Live() {
		return Fixture(term), nil
	}

	id, err := c.searchByText(ctx, term, category)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return c.fetchDetails(ctx, id)
}

// searchResponse is the wire shape of the text-search step.
type searchResponse struct {
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
}

func (c *Client) searchByText(ctx context.Context, term, category string) (string, error) {
	q := url.Values{}
	q.Set("query", term)
	if category != "" {
		q.Set("type", category)
	}
	q.Set("key", c.config.APIKey)

	var resp searchResponse
	if err := c.getJSON(ctx, c.config.BaseURL+"/search?"+q.Encode(), &resp); err != nil {
		return "", fmt.Errorf("text search: %w", err)
	}
	if len(resp.Results) == 0 {
		return "", nil
	}
	return resp.Results[0].PlaceID, nil
}

// detailsResponse is the wire shape of the details step.
type detailsResponse struct {
	Result struct {
		Name        string  `json:"name"`
		Summary     string  `json:"editorial_summary"`
		Rating      float64 `json:"rating"`
		Reviews     int     `json:"user_ratings_total"`
		PriceLevel  int     `json:"price_level"`
		Vicinity    string  `json:"vicinity"`
		Address     string  `json:"formatted_address"`
		Website     string  `json:"website"`
		Geometry    struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		OpeningHours struct {
			WeekdayText []string `json:"weekday_text"`
		} `json:"opening_hours"`
		Types  []string `json:"types"`
		Photos []struct {
			Ref string `json:"photo_reference"`
		} `json:"photos"`
	} `json:"result"`
}

func (c *Client) fetchDetails(ctx context.Context, id string) (*Record, error) {
	q := url.Values{}
	q.Set("place_id", id)
	q.Set("key", c.config.APIKey)

	var resp detailsResponse
	if err := c.getJSON(ctx, c.config.BaseURL+"/details?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("details: %w", err)
	}
	r := resp.Result
	if r.Name == "" {
		return nil, nil
	}

	rec := &Record{
		Title:       r.Name,
		Description: r.Summary,
		Rating:      r.Rating,
		ReviewCount: r.Reviews,
		PriceRange:  priceRange(r.PriceLevel),
		Location:    r.Vicinity,
		Address:     r.Address,
		Lat:         r.Geometry.Location.Lat,
		Lng:         r.Geometry.Location.Lng,
		Website:     r.Website,
		Types:       r.Types,
		Sources:     []string{"structured"},
	}
	if len(r.OpeningHours.WeekdayText) > 0 {
		rec.OpeningHours = r.OpeningHours.WeekdayText[0]
	}
	for i, p := range r.Photos {
		if i >= maxPhotos {
			break
		}
		rec.Photos = append(rec.Photos, c.photoURL(p.Ref))
	}
	rec.ConfidenceSeed = Seed(rec)
	return rec, nil
}

// photoURL maps an opaque photo reference into a resolvable URL.
func (c *Client) photoURL(ref string) string {
	q := url.Values{}
	q.Set("ref", ref)
	q.Set("maxwidth", "800")
	q.Set("key", c.config.APIKey)
	return c.config.BaseURL + "/photo?" + q.Encode()
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d", resp.StatusCode)
	}
	body, err := safeurl.LimitedReadAll(resp.Body, 1<<20)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func priceRange(level int) string {
	switch {
	case level <= 0:
		return ""
	case level >= 4:
		return "$$$$"
	default:
		return "$$$$"[:level]
	}
}

// Seed computes the confidence seed for a structured record:
// base 60, +15 if rating > 4.0, +10 if review_count > 1000, +10 if a
// website is present, +5 if at least one photo is present, clamped to 100.
func Seed(r *Record) int {
	score := 60
	if r.Rating > 4.0 {
		score += 15
	}
	if r.ReviewCount > 1000 {
		score += 10
	}
	if r.Website != "" {
		score += 10
	}
	if len(r.Photos) > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}
