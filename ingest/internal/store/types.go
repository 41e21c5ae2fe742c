package store

// StagingItem is a not-yet-published venue record awaiting human review.
type StagingItem struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	PrimaryImage    string     `json:"primary_image"`
	Images          []string   `json:"images"`
	ImageCount      int        `json:"image_count"`
	RawContent      RawContent `json:"raw_content"`
	ConfidenceScore int        `json:"confidence_score"`
	SourceURLs      []string   `json:"source_urls"`
	Status          Status     `json:"status"`
	ScrapingJobID   string     `json:"scraping_job_id"`
	RescrapeCount   int        `json:"rescrape_count"`
	ThumbnailReason string     `json:"thumbnail_reason,omitempty"`
	CreatedAt       int64      `json:"created_at"`
	UpdatedAt       int64      `json:"updated_at"`
}

// RawContent is the fused structured+enriched payload of a staging item.
type RawContent struct {
	Description     string      `json:"description"`
	Rating          float64     `json:"rating,omitempty"`
	ReviewCount     int         `json:"review_count,omitempty"`
	PriceRange      string      `json:"price_range,omitempty"`
	Duration        string      `json:"duration,omitempty"`
	Location        string      `json:"location,omitempty"`
	Address         string      `json:"address,omitempty"`
	OpeningHours    string      `json:"opening_hours,omitempty"`
	Highlights      []string    `json:"highlights,omitempty"`
	PracticalInfo   string      `json:"practical_info,omitempty"`
	Tips            []string    `json:"tips,omitempty"`
	CulturalContext string      `json:"cultural_context,omitempty"`
	EnrichedContent string      `json:"enriched_content,omitempty"`
	Sources         SourceFlags `json:"sources"`
}

// SourceFlags records which providers contributed to an item.
type SourceFlags struct {
	Structured   bool `json:"structured"`
	Enriched     bool `json:"enriched"`
	Stock        bool `json:"stock"`
	Placeholders bool `json:"placeholders"`
}

// VersionRecord is one append-only entry in an item's re-ingestion history.
type VersionRecord struct {
	ItemID          string `json:"item_id"`
	Version         int    `json:"version"`
	ScrapedAt       int64  `json:"scraped_at"`
	ImageCount      int    `json:"image_count"`
	ConfidenceScore int    `json:"confidence_score"`
	Note            string `json:"note"`
}

// IngestionJob tracks one ingestion run over a batch of search terms.
type IngestionJob struct {
	ID                 string     `json:"id"`
	Kind               string     `json:"kind"` // "hybrid" | "crawl-only"
	Category           string     `json:"category"`
	Terms              []string   `json:"terms"`
	ImagesPerItem      int        `json:"images_per_item"`
	MaxResults         int        `json:"max_results,omitempty"`
	Status             JobStatus  `json:"status"`
	TotalItems         int        `json:"total_items"`
	ProcessedItems     int        `json:"processed_items"`
	SuccessfulItems    int        `json:"successful_items"`
	FailedItems        int        `json:"failed_items"`
	DuplicateItems     int        `json:"duplicate_items"`
	ValidationFailures int        `json:"validation_failures"`
	DatabaseFailures   int        `json:"database_failures"`
	CreditsUsed        int        `json:"credits_used"`
	ErrorLog           []JobError `json:"error_log"`
	StartedAt          int64      `json:"started_at"`
	CompletedAt        *int64     `json:"completed_at,omitempty"`
}

// JobError is one per-term failure recorded in a job's error log.
type JobError struct {
	Term    string `json:"term"`
	Kind    string `json:"kind"` // source_fetch | validation | duplicate | persistence
	Message string `json:"message"`
}

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

// Job lifecycle states.
const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// QueueStats summarizes the staging queue for the review UI.
type QueueStats struct {
	Total              int `json:"total"`
	Successful         int `json:"successful"`
	Failed             int `json:"failed"`
	Pending            int `json:"pending"`
	Approved           int `json:"approved"`
	Rejected           int `json:"rejected"`
	Published          int `json:"published"`
	UsingPlaceholders  int `json:"using_placeholders"`
	ValidationFailures int `json:"validation_failures"`
	DatabaseFailures   int `json:"database_failures"`
}
