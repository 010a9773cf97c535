package queue_test

import (
	"context"
	"fmt"
	"testing"

	"shrinkray/internal/queue"
	"shrinkray/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job, err := store.NewJob(ctx, "/media/song.mp3", "audio", "")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("new job status: %s", job.Status)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourcePath != "/media/song.mp3" || fetched.Kind != "audio" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}

	found, err := store.FindBySourcePath(ctx, "/media/song.mp3")
	if err != nil {
		t.Fatalf("FindBySourcePath failed: %v", err)
	}
	if found == nil || found.ID != job.ID {
		t.Fatalf("expected to find inserted job, got %#v", found)
	}
}

func TestGetByIDMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	job, err := store.GetByID(context.Background(), 12345)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job != nil {
		t.Fatalf("expected nil job, got %#v", job)
	}
}

func TestUpdatePersistsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := testsupport.NewJob(t, store, "/media/clip.mp4", "video")

	job.Status = queue.StatusProbed
	job.ProbeJSON = `{"bitrate_kbps":128}`
	job.OriginalBytes = 2048
	job.SetProgress("Probing", "probed", 100)
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != queue.StatusProbed {
		t.Fatalf("status: %s", fetched.Status)
	}
	if fetched.ProbeJSON != `{"bitrate_kbps":128}` {
		t.Fatalf("probe json: %q", fetched.ProbeJSON)
	}
	if fetched.OriginalBytes != 2048 {
		t.Fatalf("original bytes: %d", fetched.OriginalBytes)
	}
	if fetched.ProgressStage != "Probing" || fetched.ProgressPercent != 100 {
		t.Fatalf("progress: %s %.0f", fetched.ProgressStage, fetched.ProgressPercent)
	}
}

func TestNextForStatusesOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := testsupport.NewJob(t, store, "/media/a.mp3", "audio")
	testsupport.NewJob(t, store, "/media/b.mp3", "audio")

	next, err := store.NextForStatuses(ctx, queue.StatusPending)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if next == nil || next.ID != first.ID {
		t.Fatalf("expected oldest pending job, got %#v", next)
	}

	none, err := store.NextForStatuses(ctx, queue.StatusEncoding)
	if err != nil {
		t.Fatalf("NextForStatuses failed: %v", err)
	}
	if none != nil {
		t.Fatalf("expected no encoding job, got %#v", none)
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		name          string
		initialStatus queue.Status
		expected      queue.Status
	}{
		{"probing", queue.StatusProbing, queue.StatusPending},
		{"resolving", queue.StatusResolving, queue.StatusProbed},
		{"encoding", queue.StatusEncoding, queue.StatusResolved},
	}
	var ids []int64
	for i, tc := range cases {
		job := testsupport.NewJob(t, store, fmt.Sprintf("/media/stuck-%d.mp3", i), "audio")
		job.Status = tc.initialStatus
		if err := store.Update(ctx, job); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	reset, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if reset != int64(len(cases)) {
		t.Fatalf("reset count: %d", reset)
	}
	for i, tc := range cases {
		job, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if job.Status != tc.expected {
			t.Fatalf("%s: status %s, want %s", tc.name, job.Status, tc.expected)
		}
	}
}

func TestRetryFailed(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	failed := testsupport.NewJob(t, store, "/media/failed.mp3", "audio")
	failed.SetFailed("encode failed")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	completed := testsupport.NewJob(t, store, "/media/done.mp3", "audio")
	completed.Status = queue.StatusCompleted
	if err := store.Update(ctx, completed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retried, err := store.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if retried != 1 {
		t.Fatalf("retried count: %d", retried)
	}

	job, err := store.GetByID(ctx, failed.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if job.Status != queue.StatusPending {
		t.Fatalf("retried job status: %s", job.Status)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("error message should be cleared: %q", job.ErrorMessage)
	}
}

func TestClearVariants(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	pending := testsupport.NewJob(t, store, "/media/pending.mp3", "audio")
	done := testsupport.NewJob(t, store, "/media/done.mp3", "audio")
	done.Status = queue.StatusCompleted
	if err := store.Update(ctx, done); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	broken := testsupport.NewJob(t, store, "/media/broken.mp3", "audio")
	broken.SetFailed("boom")
	if err := store.Update(ctx, broken); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	removed, err := store.ClearCompleted(ctx)
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("completed removed: %d", removed)
	}
	removed, err = store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("failed removed: %d", removed)
	}

	remaining, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != pending.ID {
		t.Fatalf("unexpected remaining jobs: %#v", remaining)
	}
}

func TestStatsAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	testsupport.NewJob(t, store, "/media/one.mp3", "audio")
	encoding := testsupport.NewJob(t, store, "/media/two.mp3", "audio")
	encoding.Status = queue.StatusEncoding
	if err := store.Update(ctx, encoding); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Pending != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health: %+v", health)
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := queue.ParseStatus(" Encoding "); !ok || status != queue.StatusEncoding {
		t.Fatalf("ParseStatus: %v %v", status, ok)
	}
	if _, ok := queue.ParseStatus("bogus"); ok {
		t.Fatal("bogus status should not parse")
	}
}

func TestSavedBytes(t *testing.T) {
	job := queue.Job{Outcome: queue.OutcomeKeptCompressed, OriginalBytes: 1000, FinalBytes: 400}
	if got := job.SavedBytes(); got != 600 {
		t.Fatalf("saved bytes: %d", got)
	}
	job.Outcome = queue.OutcomeKeptOriginal
	if got := job.SavedBytes(); got != 0 {
		t.Fatalf("kept original must report zero savings, got %d", got)
	}
}
