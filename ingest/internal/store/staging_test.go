package store

import (
	"context"
	"errors"
	"testing"

	"github.com/venuery/venuery/dbopen"

	_ "modernc.org/sqlite"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	db := dbopen.OpenMemory(t)
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return New(db)
}

func testItem(id, title string) *StagingItem {
	return &StagingItem{
		ID:       id,
		Title:    title,
		Category: "attractions",
		Images:   []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"},
		RawContent: RawContent{
			Description: "A historic venue in the old city, open daily.",
			Sources:     SourceFlags{Structured: true},
		},
		ConfidenceScore: 80,
		SourceURLs:      []string{"https://example.com"},
		ScrapingJobID:   "job_test",
	}
}

func TestInsertAndGetItem(t *testing.T) {
	// WHAT: Insert an item and read it back, JSON columns intact.
	// WHY: Every pipeline result and every review action flows through here.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertItem(ctx, testItem("itm-1", "Blue Mosque")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.GetItem(ctx, "itm-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("item not found")
	}
	if got.Status != StatusPending {
		t.Errorf("status: got %s, want pending", got.Status)
	}
	if got.PrimaryImage != "https://img.example.com/1.jpg" {
		t.Errorf("primary defaulted wrong: %q", got.PrimaryImage)
	}
	if got.ImageCount != 2 {
		t.Errorf("image_count: got %d, want 2", got.ImageCount)
	}
	if got.RawContent.Description == "" || !got.RawContent.Sources.Structured {
		t.Errorf("raw_content round-trip lost data: %+v", got.RawContent)
	}
}

func TestGetItem_Missing(t *testing.T) {
	s := openTestStore(t)
	got, err := s.GetItem(context.Background(), "nope")
	if err != nil || got != nil {
		t.Fatalf("missing item: got %v, %v; want nil, nil", got, err)
	}
}

func TestFindDuplicateTitle_PrefixHeuristic(t *testing.T) {
	// WHAT: Case-insensitive 20-character prefix match within a category.
	// WHY: This exact heuristic is the product contract for duplicate
	// suppression; both its hits and its misses are intentional.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertItem(ctx, testItem("itm-1", "Hagia Sophia Grand Mosque of Istanbul")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Same 20-char prefix, different tail → duplicate.
	dup, err := s.FindDuplicateTitle(ctx, "HAGIA SOPHIA GRAND Mosque Museum", "attractions")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if dup == "" {
		t.Error("expected prefix duplicate to match")
	}

	// Same title, different category → not a duplicate.
	dup, err = s.FindDuplicateTitle(ctx, "Hagia Sophia Grand Mosque of Istanbul", "restaurants")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if dup != "" {
		t.Errorf("cross-category match: %q", dup)
	}

	// Differently phrased same venue → under-match, by contract.
	dup, err = s.FindDuplicateTitle(ctx, "The Hagia Sophia", "attractions")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if dup != "" {
		t.Errorf("rephrased title should not match: %q", dup)
	}
}

func TestInsertItem_DuplicateRejected(t *testing.T) {
	// WHAT: Inserting a prefix-duplicate returns ErrDuplicateTitle, no row.
	// WHY: The duplicate check must guard every insert path, not just the
	// orchestrator's explicit pre-check.
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.InsertItem(ctx, testItem("itm-1", "Topkapi Palace Museum and Gardens")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := s.InsertItem(ctx, testItem("itm-2", "Topkapi Palace Museum tour"))
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got: %v", err)
	}
	items, _ := s.ListItems(ctx, "all")
	if len(items) != 1 {
		t.Errorf("item count: got %d, want 1", len(items))
	}
}

func TestTransition_Lifecycle(t *testing.T) {
	// WHAT: pending→approved→published is allowed; pending→published is not.
	// WHY: The review lifecycle is an explicit state machine, not ad-hoc writes.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Galata Tower"))

	if _, err := s.Transition(ctx, "itm-1", StatusPublished); err == nil {
		t.Fatal("pending→published should be rejected")
	} else {
		var te *TransitionError
		if !errors.As(err, &te) {
			t.Fatalf("expected *TransitionError, got %T: %v", err, err)
		}
		if te.From != StatusPending || te.To != StatusPublished {
			t.Errorf("transition error fields: %+v", te)
		}
	}

	changed, err := s.Transition(ctx, "itm-1", StatusApproved)
	if err != nil || !changed {
		t.Fatalf("approve: changed=%v err=%v", changed, err)
	}
	changed, err = s.Transition(ctx, "itm-1", StatusPublished)
	if err != nil || !changed {
		t.Fatalf("publish: changed=%v err=%v", changed, err)
	}
}

func TestTransition_Idempotent(t *testing.T) {
	// WHAT: Re-approving an approved item is a no-op success.
	// WHY: The review UI retries; retries must not error or duplicate history.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Basilica Cistern"))

	if _, err := s.Transition(ctx, "itm-1", StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	changed, err := s.Transition(ctx, "itm-1", StatusApproved)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if changed {
		t.Error("re-approve should be a no-op")
	}
}

func TestTransition_RejectedCanBeApproved(t *testing.T) {
	// WHAT: rejected → approved is allowed.
	// WHY: Rejection is reversible after a re-ingestion refresh; a reviewer
	// re-initiates approval on the same item id.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Dolmabahce Palace"))

	if _, err := s.Transition(ctx, "itm-1", StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := s.Transition(ctx, "itm-1", StatusApproved); err != nil {
		t.Fatalf("approve after reject: %v", err)
	}
}

func TestSetPrimaryImage(t *testing.T) {
	// WHAT: Primary must be a member of images; round-trips on read.
	// WHY: A dangling primary image breaks every consumer of the queue.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Grand Bazaar"))

	if err := s.SetPrimaryImage(ctx, "itm-1", "https://img.example.com/2.jpg"); err != nil {
		t.Fatalf("set primary: %v", err)
	}
	got, _ := s.GetItem(ctx, "itm-1")
	if got.PrimaryImage != "https://img.example.com/2.jpg" {
		t.Errorf("primary: got %q", got.PrimaryImage)
	}

	err := s.SetPrimaryImage(ctx, "itm-1", "https://img.example.com/not-there.jpg")
	if !errors.Is(err, ErrNotInImages) {
		t.Fatalf("expected ErrNotInImages, got: %v", err)
	}
}

func TestRemoveImage_PromotesNextInOrder(t *testing.T) {
	// WHAT: Removing the current primary promotes the next image in list
	// order; removing the last image clears the primary.
	// WHY: The upstream contract left auto-promotion undefined; list-order
	// promotion is the documented policy here and must stay covered.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Spice Bazaar"))

	if err := s.RemoveImage(ctx, "itm-1", "https://img.example.com/1.jpg"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	got, _ := s.GetItem(ctx, "itm-1")
	if got.ImageCount != 1 {
		t.Errorf("image_count: got %d, want 1", got.ImageCount)
	}
	if got.PrimaryImage != "https://img.example.com/2.jpg" {
		t.Errorf("promoted primary: got %q", got.PrimaryImage)
	}

	if err := s.RemoveImage(ctx, "itm-1", "https://img.example.com/2.jpg"); err != nil {
		t.Fatalf("remove last: %v", err)
	}
	got, _ = s.GetItem(ctx, "itm-1")
	if got.PrimaryImage != "" || got.ImageCount != 0 {
		t.Errorf("after last removal: primary=%q count=%d", got.PrimaryImage, got.ImageCount)
	}

	if err := s.RemoveImage(ctx, "itm-1", "gone"); !errors.Is(err, ErrImageNotFound) {
		t.Fatalf("expected ErrImageNotFound, got: %v", err)
	}
}

func TestApplyRescrape_AppendsOneVersion(t *testing.T) {
	// WHAT: Re-ingestion bumps rescrape_count by one, appends exactly one
	// version record, and leaves prior versions and status untouched.
	// WHY: Versioning is append-only history; overwriting it would destroy
	// the audit trail reviewers depend on.
	s := openTestStore(t)
	ctx := context.Background()
	s.InsertItem(ctx, testItem("itm-1", "Chora Church"))
	s.Transition(ctx, "itm-1", StatusRejected)

	fresh := testItem("itm-1", "Chora Church")
	fresh.Images = append(fresh.Images, "https://img.example.com/3.jpg")
	fresh.ConfidenceScore = 90

	rec, err := s.ApplyRescrape(ctx, "itm-1", fresh, "refreshed from structured source")
	if err != nil {
		t.Fatalf("rescrape: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("first version: got %d, want 1", rec.Version)
	}

	got, _ := s.GetItem(ctx, "itm-1")
	if got.RescrapeCount != 1 {
		t.Errorf("rescrape_count: got %d, want 1", got.RescrapeCount)
	}
	if got.Status != StatusRejected {
		t.Errorf("status must not change on rescrape: got %s", got.Status)
	}
	if got.ImageCount != 3 || got.ConfidenceScore != 90 {
		t.Errorf("content not refreshed: count=%d score=%d", got.ImageCount, got.ConfidenceScore)
	}

	// Second rescrape appends, never mutates.
	if _, err := s.ApplyRescrape(ctx, "itm-1", fresh, "second pass"); err != nil {
		t.Fatalf("second rescrape: %v", err)
	}
	versions, err := s.ListVersions(ctx, "itm-1")
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 2 {
		t.Fatalf("version count: got %d, want 2", len(versions))
	}
	if versions[0].Version != 1 || versions[0].Note != "refreshed from structured source" {
		t.Errorf("prior version mutated: %+v", versions[0])
	}
	if versions[1].Version != 2 {
		t.Errorf("appended version: got %d, want 2", versions[1].Version)
	}
}

func TestStats(t *testing.T) {
	// WHAT: Stats aggregates per-status counts, placeholder usage, and
	// job outcome sums.
	// WHY: The review UI's header numbers come straight from here.
	s := openTestStore(t)
	ctx := context.Background()

	a := testItem("itm-1", "Maiden's Tower")
	s.InsertItem(ctx, a)
	b := testItem("itm-2", "Rumeli Fortress")
	b.RawContent.Sources.Placeholders = true
	s.InsertItem(ctx, b)
	s.Transition(ctx, "itm-2", StatusApproved)

	s.InsertJob(ctx, &IngestionJob{
		ID: "job-1", Kind: "hybrid", Terms: []string{"a", "b", "c"},
		TotalItems: 3, ProcessedItems: 3, SuccessfulItems: 2, FailedItems: 1,
		ValidationFailures: 1, Status: JobCompleted,
	})

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 || stats.Pending != 1 || stats.Approved != 1 {
		t.Errorf("status counts: %+v", stats)
	}
	if stats.UsingPlaceholders != 1 {
		t.Errorf("using_placeholders: got %d, want 1", stats.UsingPlaceholders)
	}
	if stats.Successful != 2 || stats.Failed != 1 || stats.ValidationFailures != 1 {
		t.Errorf("job sums: %+v", stats)
	}
}

func TestJobRoundTrip(t *testing.T) {
	// WHAT: Insert a job, update progress, read it back.
	// WHY: Per-term progress writes bound data loss on crash; they must
	// persist exactly what the orchestrator accumulated.
	s := openTestStore(t)
	ctx := context.Background()

	job := &IngestionJob{
		ID: "job-1", Kind: "hybrid", Category: "attractions",
		Terms: []string{"blue mosque", "hagia sophia"},
		ImagesPerItem: 12, TotalItems: 2,
	}
	if err := s.InsertJob(ctx, job); err != nil {
		t.Fatalf("insert job: %v", err)
	}

	job.ProcessedItems = 1
	job.FailedItems = 1
	job.ErrorLog = append(job.ErrorLog, JobError{Term: "blue mosque", Kind: "validation", Message: "no valid structured data"})
	if err := s.UpdateJobProgress(ctx, job); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	got, err := s.GetJob(ctx, "job-1")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobRunning {
		t.Errorf("status: got %s", got.Status)
	}
	if got.ProcessedItems != 1 || got.FailedItems != 1 {
		t.Errorf("counters: %+v", got)
	}
	if len(got.ErrorLog) != 1 || got.ErrorLog[0].Kind != "validation" {
		t.Errorf("error log: %+v", got.ErrorLog)
	}
	if len(got.Terms) != 2 {
		t.Errorf("terms: %+v", got.Terms)
	}
}
