// Package pipeline drives the fetch -> transform -> load loop over upstream
// item ids and tracks the incremental-ingest cursor.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/maguenza/hackernews-ai-project/internal/store"
	"github.com/maguenza/hackernews-ai-project/pkg/hnclient"
	"github.com/maguenza/hackernews-ai-project/pkg/transform"
)

// State is the orchestrator's position in a run.
type State string

const (
	StateIdle          State = "idle"
	StateFetchingRange State = "fetching_range"
	StateTransforming  State = "transforming"
	StateLoading       State = "loading"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

// Client is the slice of the upstream API the pipeline needs.
type Client interface {
	FetchItem(ctx context.Context, id int64) (*hnclient.Item, error)
	FetchUser(ctx context.Context, username string) (*hnclient.User, error)
	MaxItemID(ctx context.Context) (int64, error)
	TopStories(ctx context.Context, limit int) ([]int64, error)
	JobStories(ctx context.Context, limit int) ([]int64, error)
}

// Summary reports per-run outcome counts.
type Summary struct {
	State         State          `json:"state"`
	Fetched       int            `json:"fetched"`
	Transformed   int            `json:"transformed"`
	Loaded        int            `json:"loaded"`
	Skipped       int            `json:"skipped"`
	Failed        int            `json:"failed"`
	SkipReasons   map[string]int `json:"skip_reasons,omitempty"`
	HighWaterMark int64          `json:"high_water_mark,omitempty"`
	StartedAt     time.Time      `json:"started_at"`
	FinishedAt    time.Time      `json:"finished_at"`
	Err           string         `json:"error,omitempty"`
}

func (s *Summary) skip(reason string) {
	s.Skipped++
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[string]int)
	}
	s.SkipReasons[reason]++
}

// Pipeline is a single-threaded sequential ingest driver. Multiple pipelines
// may interleave against the same store since every load is an atomic upsert.
type Pipeline struct {
	client Client
	store  store.Store
	log    *slog.Logger
	name   string // cursor name in pipeline_state
	state  State
}

// New creates a pipeline. name keys the persisted high-water-mark.
func New(client Client, st store.Store, log *slog.Logger, name string) *Pipeline {
	if name == "" {
		name = "ingest"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{client: client, store: st, log: log, name: name, state: StateIdle}
}

// State returns the orchestrator's current state.
func (p *Pipeline) State() State { return p.state }

// RunRange ingests the inclusive id range [from, to].
func (p *Pipeline) RunRange(ctx context.Context, from, to int64) (*Summary, error) {
	if from <= 0 || to < from {
		return nil, fmt.Errorf("pipeline: invalid id range [%d, %d]", from, to)
	}
	ids := make([]int64, 0, to-from+1)
	for id := from; id <= to; id++ {
		ids = append(ids, id)
	}
	return p.run(ctx, ids, true)
}

// RunIncremental ingests from the persisted high-water-mark up to the current
// max item id, capped at batchSize items.
func (p *Pipeline) RunIncremental(ctx context.Context, batchSize int) (*Summary, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	hwm, err := p.store.HighWaterMark(ctx, p.name)
	if err != nil {
		return p.fail(&Summary{StartedAt: time.Now().UTC()}, err)
	}

	maxID, err := p.client.MaxItemID(ctx)
	if err != nil {
		return p.fail(&Summary{StartedAt: time.Now().UTC()}, fmt.Errorf("fetch max item id: %w", err))
	}

	from := hwm + 1
	if hwm == 0 {
		// First run: start batchSize back from the head instead of item 1.
		from = maxID - int64(batchSize) + 1
		if from < 1 {
			from = 1
		}
	}
	to := from + int64(batchSize) - 1
	if to > maxID {
		to = maxID
	}
	if from > to {
		now := time.Now().UTC()
		p.state = StateCompleted
		return &Summary{State: StateCompleted, HighWaterMark: hwm, StartedAt: now, FinishedAt: now}, nil
	}
	return p.RunRange(ctx, from, to)
}

// RunIDs ingests an explicit id set (discovery modes). The cursor is not
// advanced since the set is unordered relative to the id sequence.
func (p *Pipeline) RunIDs(ctx context.Context, ids []int64) (*Summary, error) {
	return p.run(ctx, ids, false)
}

func (p *Pipeline) run(ctx context.Context, ids []int64, advanceCursor bool) (*Summary, error) {
	summary := &Summary{StartedAt: time.Now().UTC()}
	p.state = StateFetchingRange

	var (
		maxProcessed int64
		deferred     []transform.Comment // comments whose parent had not arrived yet
		placeholders = make(map[string]bool)
	)
	// Skips and rejections are recorded outcomes; only items the run could not
	// reach a verdict on (fetch failures) hold the cursor back.
	processed := func(id int64) {
		if id > maxProcessed {
			maxProcessed = id
		}
	}

	for _, id := range ids {
		p.state = StateFetchingRange
		raw, err := p.client.FetchItem(ctx, id)
		if err != nil {
			if errors.Is(err, hnclient.ErrNotFound) {
				summary.skip("not_found")
				processed(id)
				continue
			}
			if hnclient.IsTransient(err) || ctx.Err() != nil {
				return p.fail(summary, fmt.Errorf("fetch item %d: %w", id, err))
			}
			p.log.Warn("fetch failed", "id", id, "err", err)
			summary.Failed++
			continue
		}
		summary.Fetched++

		p.state = StateTransforming
		rec, err := transform.Transform(raw)
		if err != nil {
			var rej *transform.RejectError
			if errors.As(err, &rej) {
				p.log.Debug("item rejected", "id", id, "reason", rej.Reason)
				summary.skip(rej.Reason)
				processed(id)
				continue
			}
			return p.fail(summary, fmt.Errorf("transform item %d: %w", id, err))
		}
		summary.Transformed++

		p.state = StateLoading
		res, err := p.store.Load(ctx, rec)
		if err != nil {
			switch {
			case errors.Is(err, store.ErrParentUnresolved):
				if c, ok := rec.(transform.Comment); ok {
					deferred = append(deferred, c)
					continue
				}
				summary.skip("parent_unresolved")
				processed(id)
				continue
			case errors.Is(err, store.ErrParentStoryMismatch):
				p.log.Warn("data integrity: comment parent in another story", "id", id)
				summary.skip("parent_story_mismatch")
				processed(id)
				continue
			default:
				return p.fail(summary, fmt.Errorf("load item %d: %w", id, err))
			}
		}
		if res == store.LoadSkipped {
			summary.skip("load_skipped")
		} else {
			summary.Loaded++
			trackAuthor(placeholders, rec)
		}
		processed(id)
	}

	// Second pass for comments that arrived before their parent. Parents
	// always carry smaller ids than their children, so loading deferred
	// comments in id order makes one pass suffice.
	sort.Slice(deferred, func(i, j int) bool { return deferred[i].ID < deferred[j].ID })
	for _, c := range deferred {
		res, err := p.store.Load(ctx, c)
		switch {
		case errors.Is(err, store.ErrParentUnresolved):
			p.log.Warn("data integrity: comment parent never loaded", "id", c.ID)
			summary.skip("parent_unresolved")
			processed(c.ID)
		case errors.Is(err, store.ErrParentStoryMismatch):
			summary.skip("parent_story_mismatch")
			processed(c.ID)
		case err != nil:
			return p.fail(summary, fmt.Errorf("load deferred comment %d: %w", c.ID, err))
		default:
			if res == store.LoadSkipped {
				summary.skip("load_skipped")
			} else {
				summary.Loaded++
			}
			processed(c.ID)
		}
	}

	if err := p.backfillAuthors(ctx, placeholders); err != nil {
		return p.fail(summary, err)
	}

	if advanceCursor && maxProcessed > 0 {
		if err := p.store.SetHighWaterMark(ctx, p.name, maxProcessed); err != nil {
			return p.fail(summary, err)
		}
		summary.HighWaterMark = maxProcessed
	}

	p.state = StateCompleted
	summary.State = StateCompleted
	summary.FinishedAt = time.Now().UTC()
	p.log.Info("run complete",
		"fetched", summary.Fetched, "transformed", summary.Transformed,
		"loaded", summary.Loaded, "skipped", summary.Skipped, "failed", summary.Failed)
	return summary, nil
}

// backfillAuthors fetches full profiles for users that entered the store as
// placeholders during this run. A profile fetch failure leaves the
// placeholder in place for a later run.
func (p *Pipeline) backfillAuthors(ctx context.Context, seen map[string]bool) error {
	if len(seen) == 0 {
		return nil
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	pending, err := p.store.PlaceholderUsersIn(ctx, names)
	if err != nil {
		return err
	}

	for _, name := range pending {
		raw, err := p.client.FetchUser(ctx, name)
		if err != nil {
			if errors.Is(err, hnclient.ErrNotFound) {
				p.log.Debug("placeholder user unknown upstream", "user", name)
				continue
			}
			if hnclient.IsTransient(err) || ctx.Err() != nil {
				return fmt.Errorf("backfill user %s: %w", name, err)
			}
			p.log.Warn("backfill fetch failed", "user", name, "err", err)
			continue
		}
		u, err := transform.TransformUser(raw)
		if err != nil {
			p.log.Warn("backfill user rejected", "user", name, "err", err)
			continue
		}
		if _, err := p.store.Load(ctx, u); err != nil {
			return fmt.Errorf("backfill user %s: %w", name, err)
		}
	}
	return nil
}

func trackAuthor(placeholders map[string]bool, rec transform.Record) {
	switch r := rec.(type) {
	case transform.Story:
		placeholders[r.AuthorID] = true
	case transform.Comment:
		placeholders[r.AuthorID] = true
	case transform.Job:
		placeholders[r.AuthorID] = true
	}
}

func (p *Pipeline) fail(summary *Summary, err error) (*Summary, error) {
	p.state = StateFailed
	summary.State = StateFailed
	summary.FinishedAt = time.Now().UTC()
	summary.Err = err.Error()
	p.log.Error("run failed", "err", err)
	return summary, err
}
