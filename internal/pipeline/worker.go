package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexroom/statext/internal/fetch"
	"github.com/lexroom/statext/internal/hierarchy"
	"github.com/lexroom/statext/internal/interpolate"
	"github.com/lexroom/statext/internal/store"
	"github.com/lexroom/statext/internal/tokenizer"
)

// Worker crawls one law per job: fetch each section, tokenize, verify the
// round trip, store the fragments, advance the checkpoint.
type Worker struct {
	client     *fetch.Client
	store      *store.Store
	tok        *tokenizer.Tokenizer
	checkpoint *fetch.Checkpoint
	log        *slog.Logger
}

func NewWorker(client *fetch.Client, st *store.Store, checkpoint *fetch.Checkpoint, log *slog.Logger) *Worker {
	return &Worker{
		client:     client,
		store:      st,
		tok:        tokenizer.New(log),
		checkpoint: checkpoint,
		log:        log,
	}
}

// Process runs the full crawl for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "law_id", job.LawID)

	job.SetStatus(StatusRunning, "listing")
	locations := job.Locations
	if len(locations) == 0 {
		var err error
		locations, err = w.client.ListLocations(ctx, job.LawID)
		if err != nil {
			log.Error("list locations failed", "error", err)
			job.AddError(fmt.Sprintf("list: %s", err))
			job.SetStatus(StatusFailed, "listing")
			return
		}
	}

	if job.Resume {
		locations = w.skipCompleted(job.LawID, locations)
		log.Info("resuming crawl", "remaining", len(locations))
	}
	job.SetTotal(len(locations))

	for _, loc := range locations {
		select {
		case <-ctx.Done():
			job.SetStatus(StatusFailed, "canceled")
			return
		default:
		}

		// One bad section is logged against the job and skipped; the
		// batch keeps going.
		fragments, err := w.processSection(ctx, job, loc)
		if err != nil {
			log.Error("section failed", "location_id", loc, "error", err)
			job.AddError(fmt.Sprintf("%s: %s", loc, err))
			job.SectionDone(false, 0)
			continue
		}
		job.SectionDone(true, fragments)

		if err := w.checkpoint.Mark(job.LawID, loc); err != nil {
			log.Warn("checkpoint write failed", "location_id", loc, "error", err)
		}
	}

	snap := job.Snapshot()
	switch {
	case snap.Progress.SectionsStored == 0 && snap.Progress.SectionsTotal > 0:
		job.SetStatus(StatusFailed, "done")
	case job.ErrorCount() > 0:
		job.SetStatus(StatusPartial, "done")
	default:
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("crawl finished",
		"stored", snap.Progress.SectionsStored,
		"total", snap.Progress.SectionsTotal,
		"errors", job.ErrorCount())
}

// processSection handles one location end to end and returns how many
// fragment rows it stored.
func (w *Worker) processSection(ctx context.Context, job *Job, loc string) (int, error) {
	job.SetStatus(StatusRunning, "fetching")
	sec, err := w.fetchWithRetry(ctx, job.LawID, loc)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	job.SetStatus(StatusRunning, "tokenizing")
	scope := job.Scope
	if scope == "" {
		scope = job.LawID
	}
	res := w.tok.TokenizeScoped(sec.Text, scope+"."+loc)

	// The round trip is checked before anything is written: storing a
	// section whose fragments cannot reproduce it would poison reads.
	job.SetStatus(StatusRunning, "verifying")
	rebuilt, err := interpolate.ExpandFully(res.TokenizedText, res.Elements)
	if err != nil {
		return 0, fmt.Errorf("verify: %w", err)
	}
	if want := tokenizer.Normalize(sec.Text); rebuilt != want {
		return 0, fmt.Errorf("verify: reconstruction diverged (%d vs %d bytes)", len(rebuilt), len(want))
	}

	job.SetStatus(StatusRunning, "storing")
	rec := store.SectionRecord{
		LawID:         job.LawID,
		LocationID:    loc,
		Heading:       sec.Title,
		TokenizedText: res.TokenizedText,
	}
	if err := w.store.SaveSection(ctx, rec, res.Elements); err != nil {
		return 0, fmt.Errorf("store: %w", err)
	}
	return hierarchy.Count(res.Elements), nil
}

func (w *Worker) fetchWithRetry(ctx context.Context, lawID, loc string) (*fetch.Section, error) {
	var sec *fetch.Section
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		sec, lastErr = w.client.GetSection(ctx, lawID, loc)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		w.log.Warn("retryable fetch error",
			"law_id", lawID, "location_id", loc, "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(Backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return sec, lastErr
}

// skipCompleted drops every location up to and including the checkpointed
// one. If the checkpointed location is no longer listed, the crawl starts
// over rather than guessing.
func (w *Worker) skipCompleted(lawID string, locations []string) []string {
	last, ok := w.checkpoint.Last(lawID)
	if !ok {
		return locations
	}
	for i, loc := range locations {
		if loc == last {
			return locations[i+1:]
		}
	}
	return locations
}
