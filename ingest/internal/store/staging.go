package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/venuery/venuery/dbopen"
)

// duplicatePrefixLen is the number of title characters compared by the
// duplicate heuristic. The exact length is a product contract: review-queue
// behavior depends on it, so do not tighten it without a product decision.
const duplicatePrefixLen = 20

// InsertItem persists a new staging item in pending state. The duplicate
// title check runs first; a hit returns ErrDuplicateTitle and nothing is
// written. PrimaryImage defaults to the first image when unset.
func (s *Store) InsertItem(ctx context.Context, item *StagingItem) error {
	dup, err := s.FindDuplicateTitle(ctx, item.Title, item.Category)
	if err != nil {
		return err
	}
	if dup != "" {
		return fmt.Errorf("%w: %q matches existing %q", ErrDuplicateTitle, item.Title, dup)
	}

	now := time.Now().UnixMilli()
	if item.CreatedAt == 0 {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	item.Status = StatusPending
	item.ImageCount = len(item.Images)
	if item.PrimaryImage == "" && len(item.Images) > 0 {
		item.PrimaryImage = item.Images[0]
	}

	images, rawContent, sourceURLs, err := marshalItemJSON(item)
	if err != nil {
		return err
	}

	placeholders := 0
	if item.RawContent.Sources.Placeholders {
		placeholders = 1
	}

	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO staging_items (id, title, category, primary_image, images,
		image_count, raw_content, confidence_score, source_urls, status,
		scraping_job_id, rescrape_count, thumbnail_reason, used_placeholders,
		created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Category, item.PrimaryImage, images,
		item.ImageCount, rawContent, item.ConfidenceScore, sourceURLs,
		item.Status, item.ScrapingJobID, item.RescrapeCount,
		item.ThumbnailReason, placeholders, item.CreatedAt, item.UpdatedAt,
	)
	return err
}

// FindDuplicateTitle returns the existing title whose case-insensitive
// 20-character prefix matches the candidate within the same category, or ""
// when there is no match. This heuristic both over-matches (shared prefixes)
// and under-matches (rephrased titles); the behavior is intentional.
func (s *Store) FindDuplicateTitle(ctx context.Context, title, category string) (string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT title FROM staging_items WHERE category = ?`, category)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	want := titlePrefix(title)
	for rows.Next() {
		var existing string
		if err := rows.Scan(&existing); err != nil {
			return "", err
		}
		if titlePrefix(existing) == want {
			return existing, nil
		}
	}
	return "", rows.Err()
}

func titlePrefix(title string) string {
	r := []rune(strings.ToLower(strings.TrimSpace(title)))
	if len(r) > duplicatePrefixLen {
		r = r[:duplicatePrefixLen]
	}
	return string(r)
}

// GetItem retrieves a staging item by ID, or (nil, nil) when absent.
func (s *Store) GetItem(ctx context.Context, id string) (*StagingItem, error) {
	row := s.DB.QueryRowContext(ctx, selectItem+` WHERE id = ?`, id)
	return scanItem(row.Scan)
}

// ListItems returns staging items, newest first. An empty or "all" status
// returns everything.
func (s *Store) ListItems(ctx context.Context, status Status) ([]*StagingItem, error) {
	query := selectItem
	var args []any
	if status != "" && status != "all" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*StagingItem
	for rows.Next() {
		item, err := scanItem(rows.Scan)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Transition moves an item to a new status. A self-transition is an
// idempotent no-op (changed=false, nil error). An illegal move returns a
// *TransitionError. Missing items return ErrNotFound.
func (s *Store) Transition(ctx context.Context, id string, to Status) (bool, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return false, err
	}
	if item == nil {
		return false, fmt.Errorf("%w: staging item %s", ErrNotFound, id)
	}
	if item.Status == to {
		return false, nil
	}
	if !CanTransition(item.Status, to) {
		return false, &TransitionError{ItemID: id, From: item.Status, To: to}
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE staging_items SET status=?, updated_at=? WHERE id=?`,
		to, time.Now().UnixMilli(), id)
	if err != nil {
		return false, err
	}
	return true, nil
}

// SetPrimaryImage sets the primary image. The URL must already be a member
// of the item's image list; syntax validation is the caller's concern.
func (s *Store) SetPrimaryImage(ctx context.Context, id, url string) error {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return fmt.Errorf("%w: staging item %s", ErrNotFound, id)
	}
	if !contains(item.Images, url) {
		return fmt.Errorf("%w: %s", ErrNotInImages, url)
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE staging_items SET primary_image=?, updated_at=? WHERE id=?`,
		url, time.Now().UnixMilli(), id)
	return err
}

// SetThumbnailReason records an operator note about the thumbnail choice.
func (s *Store) SetThumbnailReason(ctx context.Context, id, reason string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE staging_items SET thumbnail_reason=?, updated_at=? WHERE id=?`,
		reason, time.Now().UnixMilli(), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: staging item %s", ErrNotFound, id)
	}
	return nil
}

// RemoveImage drops one URL from the item's image list and decrements
// image_count. If the removed URL was the primary image, the next image in
// list order is promoted; with no images left the primary becomes empty.
func (s *Store) RemoveImage(ctx context.Context, id, url string) error {
	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectItem+` WHERE id = ?`, id)
		item, err := scanItem(row.Scan)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: staging item %s", ErrNotFound, id)
		}

		idx := -1
		for i, img := range item.Images {
			if img == url {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrImageNotFound, url)
		}
		item.Images = append(item.Images[:idx], item.Images[idx+1:]...)
		item.ImageCount = len(item.Images)

		if item.PrimaryImage == url {
			if len(item.Images) > 0 {
				item.PrimaryImage = item.Images[0]
			} else {
				item.PrimaryImage = ""
			}
		}

		images, err := json.Marshal(item.Images)
		if err != nil {
			return fmt.Errorf("marshal images: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE staging_items SET images=?, image_count=?, primary_image=?,
			updated_at=? WHERE id=?`,
			string(images), item.ImageCount, item.PrimaryImage,
			time.Now().UnixMilli(), id)
		return err
	})
}

// ApplyRescrape refreshes an item's content after re-ingestion: raw_content,
// images, confidence and source URLs are replaced, rescrape_count is
// incremented, and exactly one version record is appended — all in one
// transaction. Status and id are never touched; prior versions are never
// mutated.
func (s *Store) ApplyRescrape(ctx context.Context, id string, fresh *StagingItem, note string) (*VersionRecord, error) {
	var rec *VersionRecord
	err := dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, selectItem+` WHERE id = ?`, id)
		item, err := scanItem(row.Scan)
		if err != nil {
			return err
		}
		if item == nil {
			return fmt.Errorf("%w: staging item %s", ErrNotFound, id)
		}

		version := item.RescrapeCount + 1
		now := time.Now().UnixMilli()

		images, rawContent, sourceURLs, err := marshalItemJSON(fresh)
		if err != nil {
			return err
		}
		primary := fresh.PrimaryImage
		if primary == "" && len(fresh.Images) > 0 {
			primary = fresh.Images[0]
		}
		placeholders := 0
		if fresh.RawContent.Sources.Placeholders {
			placeholders = 1
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE staging_items SET raw_content=?, images=?, image_count=?,
			primary_image=?, confidence_score=?, source_urls=?,
			used_placeholders=?, rescrape_count=?, updated_at=?
			WHERE id=?`,
			rawContent, images, len(fresh.Images), primary,
			fresh.ConfidenceScore, sourceURLs, placeholders, version, now, id)
		if err != nil {
			return err
		}

		rec = &VersionRecord{
			ItemID:          id,
			Version:         version,
			ScrapedAt:       now,
			ImageCount:      len(fresh.Images),
			ConfidenceScore: fresh.ConfidenceScore,
			Note:            note,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO staging_versions (item_id, version, scraped_at,
			image_count, confidence_score, note) VALUES (?, ?, ?, ?, ?, ?)`,
			rec.ItemID, rec.Version, rec.ScrapedAt, rec.ImageCount,
			rec.ConfidenceScore, rec.Note)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListVersions returns an item's version history in ascending order.
func (s *Store) ListVersions(ctx context.Context, itemID string) ([]*VersionRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT item_id, version, scraped_at, image_count, confidence_score, note
		FROM staging_versions WHERE item_id = ? ORDER BY version ASC`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*VersionRecord
	for rows.Next() {
		var r VersionRecord
		if err := rows.Scan(&r.ItemID, &r.Version, &r.ScrapedAt, &r.ImageCount,
			&r.ConfidenceScore, &r.Note); err != nil {
			return nil, err
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}

// Stats aggregates queue counters for the review UI. Per-status counts come
// from staging_items; run outcome counters are summed across all jobs.
func (s *Store) Stats(ctx context.Context) (*QueueStats, error) {
	stats := &QueueStats{}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM staging_items GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusApproved:
			stats.Approved = count
		case StatusRejected:
			stats.Rejected = count
		case StatusPublished:
			stats.Published = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM staging_items WHERE used_placeholders = 1`).
		Scan(&stats.UsingPlaceholders)
	if err != nil {
		return nil, err
	}

	err = s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(successful_items), 0), COALESCE(SUM(failed_items), 0),
		COALESCE(SUM(validation_failures), 0), COALESCE(SUM(database_failures), 0)
		FROM ingestion_jobs`).
		Scan(&stats.Successful, &stats.Failed, &stats.ValidationFailures, &stats.DatabaseFailures)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

const selectItem = `SELECT id, title, category, primary_image, images,
	image_count, raw_content, confidence_score, source_urls, status,
	scraping_job_id, rescrape_count, thumbnail_reason, created_at, updated_at
	FROM staging_items`

func scanItem(scan func(...any) error) (*StagingItem, error) {
	var item StagingItem
	var images, rawContent, sourceURLs string
	err := scan(
		&item.ID, &item.Title, &item.Category, &item.PrimaryImage, &images,
		&item.ImageCount, &rawContent, &item.ConfidenceScore, &sourceURLs,
		&item.Status, &item.ScrapingJobID, &item.RescrapeCount,
		&item.ThumbnailReason, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan staging item: %w", err)
	}
	if err := json.Unmarshal([]byte(images), &item.Images); err != nil {
		return nil, fmt.Errorf("unmarshal images: %w", err)
	}
	if err := json.Unmarshal([]byte(rawContent), &item.RawContent); err != nil {
		return nil, fmt.Errorf("unmarshal raw_content: %w", err)
	}
	if err := json.Unmarshal([]byte(sourceURLs), &item.SourceURLs); err != nil {
		return nil, fmt.Errorf("unmarshal source_urls: %w", err)
	}
	return &item, nil
}

func marshalItemJSON(item *StagingItem) (images, rawContent, sourceURLs string, err error) {
	ib, err := json.Marshal(item.Images)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal images: %w", err)
	}
	rb, err := json.Marshal(item.RawContent)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal raw_content: %w", err)
	}
	sb, err := json.Marshal(item.SourceURLs)
	if err != nil {
		return "", "", "", fmt.Errorf("marshal source_urls: %w", err)
	}
	return string(ib), string(rb), string(sb), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
