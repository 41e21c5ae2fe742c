// Package ingest turns free-text venue search terms into vetted, deduplicated
// staging records awaiting human review. It orchestrates the structured
// lookup, crawl enrichment, stock-image fallback, validation, scoring and
// duplicate suppression for each term, and exposes the review-queue
// operations and HTTP surface on top of the staging store.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/venuery/venuery/idgen"
	"github.com/venuery/venuery/ingest/internal/enrich"
	"github.com/venuery/venuery/ingest/internal/places"
	"github.com/venuery/venuery/ingest/internal/stockimg"
	"github.com/venuery/venuery/ingest/internal/store"
	"github.com/venuery/venuery/safeurl"
)

// Job kinds.
const (
	KindHybrid    = "hybrid"     // structured lookup + optional enrichment
	KindCrawlOnly = "crawl-only" // enrichment mandatory, merged-source scoring
)

// StructuredSource resolves a term to a canonical venue record, (nil, nil)
// when the source has no match.
type StructuredSource interface {
	Lookup(ctx context.Context, term, category string) (*places.Record, error)
	Live() bool
}

// Enricher crawls a venue website for supplementary content.
type Enricher interface {
	Enrich(ctx context.Context, siteURL string) (*enrich.Result, error)
	Available() bool
}

// ImageFallback fills an image deficit with stock or placeholder URLs.
type ImageFallback interface {
	Search(ctx context.Context, term string, deficit int) []string
}

// Service is the ingestion and review-queue service.
type Service struct {
	config *Config
	store  *store.Store
	source StructuredSource
	enrich Enricher
	stock  ImageFallback
	logger *slog.Logger

	newItemID idgen.Generator
	newJobID  idgen.Generator

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService wires the default adapters from config. Missing credentials
// switch each adapter into its offline mode.
func NewService(cfg *Config, db *sql.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		config: cfg,
		store:  store.New(db),
		source: places.New(places.Config{
			APIKey:  cfg.Sources.PlacesAPIKey,
			BaseURL: cfg.Sources.PlacesBaseURL,
		}),
		enrich: enrich.New(enrich.Config{
			Credential:    cfg.Sources.CrawlCredential,
			MaxContentLen: cfg.Pipeline.MaxContentLen,
		}, logger),
		stock: stockimg.New(stockimg.Config{
			AccessKey: cfg.Sources.StockAccessKey,
			BaseURL:   cfg.Sources.StockBaseURL,
			City:      cfg.Locale.City,
		}, logger),
		logger:    logger.With("component", "ingest"),
		newItemID: idgen.Item,
		newJobID:  idgen.Job,
		inflight:  make(map[string]struct{}),
	}
}

// ApplySchema creates or migrates the staging tables on db.
func ApplySchema(db *sql.DB) error {
	return store.ApplySchema(db)
}

// JobRequest is one ingestion run over a batch of search terms.
type JobRequest struct {
	SearchTerms   []string `json:"search_terms"`
	Category      string   `json:"category"`
	ImagesPerItem int      `json:"images_per_item"`
	MaxResults    int      `json:"max_results"`
	Kind          string   `json:"kind"`
}

// ItemResult is the per-term slice of a job response for successful inserts.
type ItemResult struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ConfidenceScore int      `json:"confidence_score"`
	ImagesCount     int      `json:"images_count"`
	SourcesUsed     []string `json:"sources_used"`
}

// Summary is the final accounting of one job.
type Summary struct {
	TotalTerms  int      `json:"total_terms"`
	Processed   int      `json:"processed"`
	Successful  int      `json:"successful"`
	Failed      int      `json:"failed"`
	CreditsUsed int      `json:"credits_used"`
	Errors      []string `json:"errors"`
}

// JobResult is the response of a completed (or precondition-failed) job.
type JobResult struct {
	JobID   string       `json:"job_id"`
	Results []ItemResult `json:"results"`
	Summary Summary      `json:"summary"`
}

// RunJob processes every term sequentially. Per-term failures are recorded
// in the job's error log and never abort the batch; progress is persisted
// after each term. An empty term list fails before any job row is created.
func (s *Service) RunJob(ctx context.Context, req JobRequest) (*JobResult, error) {
	terms := normalizeTerms(req.SearchTerms)
	if len(terms) == 0 {
		return nil, ErrNoSearchTerms
	}
	if req.ImagesPerItem <= 0 {
		req.ImagesPerItem = s.config.Pipeline.ImagesPerItem
	}
	if req.Kind == "" {
		req.Kind = KindHybrid
	}
	// Terms beyond the result cap are never attempted.
	if req.MaxResults > 0 && len(terms) > req.MaxResults {
		terms = terms[:req.MaxResults]
	}

	job := &store.IngestionJob{
		ID:            s.newJobID(),
		Kind:          req.Kind,
		Category:      req.Category,
		Terms:         terms,
		ImagesPerItem: req.ImagesPerItem,
		MaxResults:    req.MaxResults,
		TotalItems:    len(terms),
	}
	if err := s.store.InsertJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	logger := s.logger.With("job_id", job.ID, "kind", job.Kind)

	if req.Kind == KindCrawlOnly && !s.enrich.Available() {
		s.finishJob(ctx, job, store.JobFailed)
		logger.Error("job precondition failed", "error", ErrCrawlUnavailable)
		return &JobResult{JobID: job.ID, Summary: summarize(job)},
			fmt.Errorf("job %s: %w", job.ID, ErrCrawlUnavailable)
	}

	var results []ItemResult
	for _, term := range terms {
		item, credits, termErr := s.processTerm(ctx, job, term)
		job.ProcessedItems++
		job.CreditsUsed += credits

		if termErr != nil {
			job.FailedItems++
			kind := errorKind(termErr)
			switch kind {
			case "validation":
				job.ValidationFailures++
			case "duplicate":
				job.DuplicateItems++
			case "persistence":
				job.DatabaseFailures++
			}
			job.ErrorLog = append(job.ErrorLog, store.JobError{
				Term: term, Kind: kind, Message: termErr.Error(),
			})
			logger.Warn("term failed", "term", term, "kind", kind, "error", termErr)
		} else {
			job.SuccessfulItems++
			results = append(results, ItemResult{
				ID:              item.ID,
				Title:           item.Title,
				ConfidenceScore: item.ConfidenceScore,
				ImagesCount:     item.ImageCount,
				SourcesUsed:     sourcesUsed(item.RawContent.Sources),
			})
			logger.Info("term ingested", "term", term,
				"item_id", item.ID, "score", item.ConfidenceScore)
		}

		// One progress write per term bounds data loss on crash.
		if err := s.store.UpdateJobProgress(ctx, job); err != nil {
			logger.Error("progress write failed", "error", err)
		}
	}

	s.finishJob(ctx, job, store.JobCompleted)
	logger.Info("job done",
		"successful", job.SuccessfulItems,
		"failed", job.FailedItems,
		"credits", job.CreditsUsed)

	return &JobResult{JobID: job.ID, Results: results, Summary: summarize(job)}, nil
}

// processTerm runs the full per-term pipeline: structured lookup, validation,
// duplicate-guarded insert, crawl enrichment, stock fallback. Returns the
// inserted item or a classified error, plus credits consumed either way.
func (s *Service) processTerm(ctx context.Context, job *store.IngestionJob, term string) (*store.StagingItem, int, error) {
	rec, err := s.source.Lookup(ctx, term, job.Category)
	if err != nil {
		return nil, 0, fmt.Errorf("structured lookup: %w", err)
	}
	if rec == nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrNoStructuredData, term)
	}

	if err := validateRecord(term, rec, s.config.Locale); err != nil {
		return nil, 0, err
	}

	credits := 0
	var enriched *enrich.Result
	if rec.Website != "" && s.enrich.Available() {
		// Fixed pacing before every outbound crawl.
		if err := s.crawlDelay(ctx); err != nil {
			return nil, credits, err
		}
		res, err := s.enrich.Enrich(ctx, rec.Website)
		if res != nil {
			credits = res.CreditsUsed
		}
		if err != nil {
			// Enrichment is non-fatal: degrade to structured-only.
			s.logger.Warn("enrichment failed", "term", term, "error", err)
		} else if res.Success {
			enriched = res
		}
	}

	item := s.buildItem(job, rec, enriched)
	if deficit := job.ImagesPerItem - len(item.Images); deficit > 0 {
		fill := s.stock.Search(ctx, term, deficit)
		item.Images = append(item.Images, fill...)
		item.RawContent.Sources.Stock = len(fill) > 0
		for _, u := range fill {
			if stockimg.IsPlaceholder(u) {
				item.RawContent.Sources.Placeholders = true
				break
			}
		}
	}
	item.ImageCount = len(item.Images)

	if err := s.store.InsertItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrDuplicateTitle) {
			return nil, credits, fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return nil, credits, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return item, credits, nil
}

// buildItem folds the structured record and optional enrichment into a new
// staging item and scores it per the job kind.
func (s *Service) buildItem(job *store.IngestionJob, rec *places.Record, enriched *enrich.Result) *store.StagingItem {
	raw := store.RawContent{
		Description:  rec.Description,
		Rating:       rec.Rating,
		ReviewCount:  rec.ReviewCount,
		PriceRange:   rec.PriceRange,
		Duration:     rec.Duration,
		Location:     rec.Location,
		Address:      rec.Address,
		OpeningHours: rec.OpeningHours,
		Sources:      store.SourceFlags{Structured: true},
	}

	images := append([]string(nil), rec.Photos...)
	var sourceURLs []string
	if rec.Website != "" {
		sourceURLs = append(sourceURLs, rec.Website)
	}

	if enriched != nil {
		raw.Sources.Enriched = true
		raw.Highlights = enriched.Highlights
		raw.Tips = enriched.Tips
		raw.CulturalContext = strings.Join(enriched.CulturalContext, " ")
		raw.EnrichedContent = enriched.EnrichedContent
		for _, img := range enriched.AdditionalImages {
			if !containsURL(images, img) {
				images = append(images, img)
			}
		}
	}

	score := rec.ConfidenceSeed
	if job.Kind == KindCrawlOnly {
		sources := len(rec.Sources)
		if sources == 0 {
			sources = 1
		}
		combined := rec.Description + " " + raw.EnrichedContent + " " +
			strings.Join(raw.Highlights, " ")
		if enriched != nil {
			sources++
		}
		score = scoreMergedSources(sources, combined, s.config.Locale)
	}

	return &store.StagingItem{
		ID:              s.newItemID(),
		Title:           rec.Title,
		Category:        job.Category,
		Images:          images,
		RawContent:      raw,
		ConfidenceScore: score,
		SourceURLs:      sourceURLs,
		ScrapingJobID:   job.ID,
	}
}

// Reingest refreshes one staging item from fresh source data: raw_content,
// images and score are replaced, rescrape_count is incremented and exactly
// one version record is appended. Status is never touched. An optional term
// override replaces the item's title as the lookup term.
func (s *Service) Reingest(ctx context.Context, id, termOverride string) (string, error) {
	if err := s.lockItem(id); err != nil {
		return "", err
	}
	defer s.unlockItem(id)

	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return "", err
	}
	if item == nil {
		return "", fmt.Errorf("%w: staging item %s", store.ErrNotFound, id)
	}

	term := termOverride
	if term == "" {
		term = item.Title
	}

	rec, err := s.source.Lookup(ctx, term, item.Category)
	if err != nil {
		return "", fmt.Errorf("structured lookup: %w", err)
	}
	if rec == nil {
		return "", fmt.Errorf("%w: %q", ErrNoStructuredData, term)
	}

	var enriched *enrich.Result
	if rec.Website != "" && s.enrich.Available() {
		if err := s.crawlDelay(ctx); err != nil {
			return "", err
		}
		if res, err := s.enrich.Enrich(ctx, rec.Website); err == nil && res.Success {
			enriched = res
		}
	}

	shadow := &store.IngestionJob{
		ID:            item.ScrapingJobID,
		Kind:          KindHybrid,
		Category:      item.Category,
		ImagesPerItem: s.config.Pipeline.ImagesPerItem,
	}
	fresh := s.buildItem(shadow, rec, enriched)
	if deficit := shadow.ImagesPerItem - len(fresh.Images); deficit > 0 {
		fill := s.stock.Search(ctx, term, deficit)
		fresh.Images = append(fresh.Images, fill...)
		fresh.RawContent.Sources.Stock = len(fill) > 0
		for _, u := range fill {
			if stockimg.IsPlaceholder(u) {
				fresh.RawContent.Sources.Placeholders = true
				break
			}
		}
	}

	note := fmt.Sprintf("reingested %q: %d images, score %d",
		term, len(fresh.Images), fresh.ConfidenceScore)
	rec2, err := s.store.ApplyRescrape(ctx, id, fresh, note)
	if err != nil {
		return "", err
	}

	summary := fmt.Sprintf("version %d: %d images (was %d), score %d (was %d)",
		rec2.Version, rec2.ImageCount, item.ImageCount,
		rec2.ConfidenceScore, item.ConfidenceScore)
	s.logger.Info("item reingested", "item_id", id, "version", rec2.Version)
	return summary, nil
}

// Approve transitions items to approved. Re-approving is an idempotent no-op.
func (s *Service) Approve(ctx context.Context, ids []string) error {
	return s.transitionAll(ctx, ids, store.StatusApproved)
}

// Reject transitions items to rejected. Re-rejecting is an idempotent no-op.
func (s *Service) Reject(ctx context.Context, ids []string) error {
	return s.transitionAll(ctx, ids, store.StatusRejected)
}

func (s *Service) transitionAll(ctx context.Context, ids []string, to store.Status) error {
	for _, id := range ids {
		if err := s.lockItem(id); err != nil {
			return err
		}
		_, err := s.store.Transition(ctx, id, to)
		s.unlockItem(id)
		if err != nil {
			return err
		}
	}
	return nil
}

// UpdateField applies an operator override without touching status.
// Supported fields: primary_image (URL syntax + membership validated) and
// thumbnail_reason.
func (s *Service) UpdateField(ctx context.Context, id, field, value string) (*store.StagingItem, error) {
	if err := s.lockItem(id); err != nil {
		return nil, err
	}
	defer s.unlockItem(id)

	switch field {
	case "primary_image":
		if err := safeurl.ValidateSyntax(value); err != nil {
			return nil, fmt.Errorf("primary_image: %w", err)
		}
		if err := s.store.SetPrimaryImage(ctx, id, value); err != nil {
			return nil, err
		}
	case "thumbnail_reason":
		if err := s.store.SetThumbnailReason(ctx, id, value); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported field %q", field)
	}
	return s.store.GetItem(ctx, id)
}

// RemoveImage drops one URL from an item's image list. A removed primary is
// replaced by the next image in list order.
func (s *Service) RemoveImage(ctx context.Context, id, url string) (*store.StagingItem, error) {
	if err := s.lockItem(id); err != nil {
		return nil, err
	}
	defer s.unlockItem(id)

	if err := s.store.RemoveImage(ctx, id, url); err != nil {
		return nil, err
	}
	return s.store.GetItem(ctx, id)
}

// lockItem claims the per-item mutation guard: at most one in-flight
// mutation per item id.
func (s *Service) lockItem(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return fmt.Errorf("%w: %s", ErrMutationInFlight, id)
	}
	s.inflight[id] = struct{}{}
	return nil
}

func (s *Service) unlockItem(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

func (s *Service) finishJob(ctx context.Context, job *store.IngestionJob, status store.JobStatus) {
	job.Status = status
	now := time.Now().UnixMilli()
	job.CompletedAt = &now
	if err := s.store.UpdateJobProgress(ctx, job); err != nil {
		s.logger.Error("final progress write failed", "job_id", job.ID, "error", err)
	}
}

func (s *Service) crawlDelay(ctx context.Context) error {
	d := time.Duration(s.config.Pipeline.CrawlDelayMS) * time.Millisecond
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func summarize(job *store.IngestionJob) Summary {
	errs := make([]string, 0, len(job.ErrorLog))
	for _, e := range job.ErrorLog {
		errs = append(errs, fmt.Sprintf("%s: %s", e.Term, e.Message))
	}
	return Summary{
		TotalTerms:  job.TotalItems,
		Processed:   job.ProcessedItems,
		Successful:  job.SuccessfulItems,
		Failed:      job.FailedItems,
		CreditsUsed: job.CreditsUsed,
		Errors:      errs,
	}
}

func sourcesUsed(f store.SourceFlags) []string {
	var out []string
	if f.Structured {
		out = append(out, "structured")
	}
	if f.Enriched {
		out = append(out, "enriched")
	}
	if f.Stock {
		out = append(out, "stock")
	}
	if f.Placeholders {
		out = append(out, "placeholders")
	}
	return out
}

func normalizeTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func containsURL(list []string, u string) bool {
	for _, v := range list {
		if v == u {
			return true
		}
	}
	return false
}
