package pipeline

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lexroom/statext/internal/fetch"
)

func mustCheckpoint(t *testing.T) *fetch.Checkpoint {
	t.Helper()
	cp, err := fetch.LoadCheckpoint(filepath.Join(t.TempDir(), "checkpoint.json"))
	if err != nil {
		t.Fatal(err)
	}
	return cp
}

func TestJob_ProgressCounting(t *testing.T) {
	job := &Job{ID: "01TEST", LawID: "ABC", Status: StatusQueued}
	job.SetTotal(3)
	job.SectionDone(true, 5)
	job.SectionDone(true, 2)
	job.SectionDone(false, 0)
	job.AddError("3.0: fetch: status 404")

	snap := job.Snapshot()
	if snap.Progress.SectionsDone != 3 {
		t.Errorf("sections done = %d, want 3", snap.Progress.SectionsDone)
	}
	if snap.Progress.SectionsStored != 2 {
		t.Errorf("sections stored = %d, want 2", snap.Progress.SectionsStored)
	}
	if snap.Progress.Fragments != 7 {
		t.Errorf("fragments = %d, want 7", snap.Progress.Fragments)
	}
	if len(snap.Progress.Errors) != 1 || !strings.Contains(snap.Progress.Errors[0], "404") {
		t.Errorf("errors = %v", snap.Progress.Errors)
	}
}

func TestJob_SnapshotErrorsNeverNil(t *testing.T) {
	job := &Job{ID: "01TEST"}
	if job.Snapshot().Progress.Errors == nil {
		t.Error("snapshot errors should be an empty slice, not nil")
	}
}

func TestJobStore_PutGetCleanup(t *testing.T) {
	s := NewJobStore(10 * time.Millisecond)
	job := &Job{ID: "01TEST", UpdatedAt: time.Now()}
	s.Put(job)

	if got := s.Get("01TEST"); got != job {
		t.Fatal("job not retrievable")
	}
	if got := s.Get("missing"); got != nil {
		t.Fatal("expected nil for unknown id")
	}

	job.mu.Lock()
	job.UpdatedAt = time.Now().Add(-time.Minute)
	job.mu.Unlock()
	s.Cleanup()
	if got := s.Get("01TEST"); got != nil {
		t.Error("expired job not evicted")
	}
}

func TestGenerateULID_UniqueAndSortable(t *testing.T) {
	seen := make(map[string]bool)
	var prev string
	for i := 0; i < 1000; i++ {
		id := generateULID()
		if len(id) != 26 {
			t.Fatalf("ulid length %d: %s", len(id), id)
		}
		if seen[id] {
			t.Fatalf("duplicate ulid %s", id)
		}
		seen[id] = true
		prev = id
	}
	_ = prev

	// IDs generated a tick apart sort by time.
	a := generateULID()
	time.Sleep(2 * time.Millisecond)
	b := generateULID()
	if !(a < b) {
		t.Errorf("ulids not time-ordered: %s then %s", a, b)
	}
}

func TestBackoff_CapsAndGrows(t *testing.T) {
	if Backoff(0) < time.Second {
		t.Error("first backoff under a second")
	}
	if Backoff(10) > 45*time.Second {
		t.Error("backoff exceeds cap plus jitter")
	}
}

func TestSkipCompleted(t *testing.T) {
	// skipCompleted only needs the checkpoint, not the full worker deps.
	cp := mustCheckpoint(t)
	w := &Worker{checkpoint: cp}

	locs := []string{"1.0", "2.0", "3.0"}
	if got := w.skipCompleted("ABC", locs); len(got) != 3 {
		t.Errorf("no checkpoint: got %v", got)
	}

	if err := cp.Mark("ABC", "2.0"); err != nil {
		t.Fatal(err)
	}
	got := w.skipCompleted("ABC", locs)
	if len(got) != 1 || got[0] != "3.0" {
		t.Errorf("resume after 2.0: got %v", got)
	}

	// A checkpointed location that vanished from the listing restarts
	// the crawl.
	if err := cp.Mark("ABC", "9.9"); err != nil {
		t.Fatal(err)
	}
	if got := w.skipCompleted("ABC", locs); len(got) != 3 {
		t.Errorf("stale checkpoint: got %v", got)
	}
}
