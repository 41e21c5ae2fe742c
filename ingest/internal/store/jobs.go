package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// InsertJob creates a job row. Status defaults to running and started_at to
// now; TotalItems must already be set by the caller.
func (s *Store) InsertJob(ctx context.Context, job *IngestionJob) error {
	if job.Status == "" {
		job.Status = JobRunning
	}
	if job.StartedAt == 0 {
		job.StartedAt = time.Now().UnixMilli()
	}
	terms, err := json.Marshal(job.Terms)
	if err != nil {
		return fmt.Errorf("marshal terms: %w", err)
	}
	errLog, err := marshalErrorLog(job.ErrorLog)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`INSERT INTO ingestion_jobs (id, kind, category, terms, images_per_item,
		max_results, status, total_items, processed_items, successful_items,
		failed_items, duplicate_items, validation_failures, database_failures,
		credits_used, error_log, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.Kind, job.Category, string(terms), job.ImagesPerItem,
		job.MaxResults, job.Status, job.TotalItems, job.ProcessedItems,
		job.SuccessfulItems, job.FailedItems, job.DuplicateItems,
		job.ValidationFailures, job.DatabaseFailures, job.CreditsUsed,
		errLog, job.StartedAt, job.CompletedAt,
	)
	return err
}

// UpdateJobProgress persists the mutable counters, error log, and status of
// a running job. Called once per processed term so the row reflects real
// progress even if the process dies mid-batch.
func (s *Store) UpdateJobProgress(ctx context.Context, job *IngestionJob) error {
	errLog, err := marshalErrorLog(job.ErrorLog)
	if err != nil {
		return err
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE ingestion_jobs SET status=?, processed_items=?, successful_items=?,
		failed_items=?, duplicate_items=?, validation_failures=?,
		database_failures=?, credits_used=?, error_log=?, completed_at=?
		WHERE id=?`,
		job.Status, job.ProcessedItems, job.SuccessfulItems, job.FailedItems,
		job.DuplicateItems, job.ValidationFailures, job.DatabaseFailures,
		job.CreditsUsed, errLog, job.CompletedAt, job.ID,
	)
	return err
}

// GetJob retrieves a job by ID, or (nil, nil) when absent.
func (s *Store) GetJob(ctx context.Context, id string) (*IngestionJob, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, kind, category, terms, images_per_item, max_results, status,
		total_items, processed_items, successful_items, failed_items,
		duplicate_items, validation_failures, database_failures, credits_used,
		error_log, started_at, completed_at
		FROM ingestion_jobs WHERE id = ?`, id)

	var job IngestionJob
	var terms, errLog string
	err := row.Scan(
		&job.ID, &job.Kind, &job.Category, &terms, &job.ImagesPerItem,
		&job.MaxResults, &job.Status, &job.TotalItems, &job.ProcessedItems,
		&job.SuccessfulItems, &job.FailedItems, &job.DuplicateItems,
		&job.ValidationFailures, &job.DatabaseFailures, &job.CreditsUsed,
		&errLog, &job.StartedAt, &job.CompletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	if err := json.Unmarshal([]byte(terms), &job.Terms); err != nil {
		return nil, fmt.Errorf("unmarshal terms: %w", err)
	}
	if err := json.Unmarshal([]byte(errLog), &job.ErrorLog); err != nil {
		return nil, fmt.Errorf("unmarshal error_log: %w", err)
	}
	return &job, nil
}

func marshalErrorLog(log []JobError) (string, error) {
	if log == nil {
		return "[]", nil
	}
	b, err := json.Marshal(log)
	if err != nil {
		return "", fmt.Errorf("marshal error_log: %w", err)
	}
	return string(b), nil
}
