// Package cycle drives one detection cycle and serializes concurrent runs.
package cycle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feedradar/article-radar/internal/dedup"
	"github.com/feedradar/article-radar/internal/detect"
	"github.com/feedradar/article-radar/internal/models"
	"github.com/feedradar/article-radar/internal/normalize"
	"github.com/feedradar/article-radar/internal/publish"
	"github.com/feedradar/article-radar/internal/scrape"
)

// Stage names where a cycle can fail.
type Stage string

const (
	StageLoad    Stage = "load"
	StageScrape  Stage = "scrape"
	StagePersist Stage = "persist"
)

// Error is a cycle failure tagged with the stage that caused it.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string { return fmt.Sprintf("cycle %s: %v", e.Stage, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// Store is the durable home of the dedup memory.
type Store interface {
	Load() (dedup.Memory, error)
	Persist(dedup.Memory) error
}

// SinkFunc receives the new articles of a completed cycle. Sink failures
// are logged, never fatal: the cycle's state is already durable by the
// time sinks run.
type SinkFunc func(ctx context.Context, cycleID string, articles []models.Article) error

type sink struct {
	name string
	fn   SinkFunc
}

// Coordinator runs detection cycles one at a time. It exclusively owns the
// dedup memory; concurrent Run calls queue on the internal mutex.
type Coordinator struct {
	mu     sync.Mutex
	mem    dedup.Memory
	loaded bool

	source    scrape.Source
	store     Store
	publisher *publish.Publisher
	k         int
	log       *slog.Logger
	sinks     []sink
}

// New creates a coordinator. k bounds the dedup memory.
func New(source scrape.Source, store Store, publisher *publish.Publisher, k int, log *slog.Logger) *Coordinator {
	if k <= 0 {
		k = 2
	}
	return &Coordinator{
		source:    source,
		store:     store,
		publisher: publisher,
		k:         k,
		log:       log,
	}
}

// AddSink registers a delivery target for new articles (archive, broker).
func (c *Coordinator) AddSink(name string, fn SinkFunc) {
	c.sinks = append(c.sinks, sink{name: name, fn: fn})
}

// Run executes one cycle: fetch, normalize, detect, persist, publish.
// On a scrape failure nothing changes; on a persist failure the computed
// memory is discarded and the next cycle reloads from durable state, so
// the comparison base never diverges from what is actually on disk.
func (c *Coordinator) Run(ctx context.Context) (models.DetectionResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		mem, err := c.store.Load()
		if err != nil {
			return models.DetectionResult{}, &Error{Stage: StageLoad, Err: err}
		}
		c.mem = mem
		c.loaded = true
	}

	candidates, err := c.source.FetchCandidates(ctx)
	if err != nil {
		return models.DetectionResult{}, &Error{Stage: StageScrape, Err: err}
	}

	now := time.Now().UTC()
	batch := make([]models.Article, 0, len(candidates))
	for _, cand := range candidates {
		art, err := normalize.Normalize(cand, now)
		if err != nil {
			c.log.Warn("dropping invalid candidate",
				slog.String("url", cand.URL),
				slog.Any("err", err),
			)
			continue
		}
		batch = append(batch, art)
	}

	fresh, next := detect.Detect(batch, c.mem, c.k)
	if fresh == nil {
		fresh = []models.Article{}
	}

	if err := c.store.Persist(next); err != nil {
		// Forget the unpersisted memory; reload from disk next time.
		c.loaded = false
		return models.DetectionResult{}, &Error{Stage: StagePersist, Err: err}
	}
	c.mem = next

	result := models.DetectionResult{
		CycleID:        uuid.NewString(),
		CycleTimestamp: now,
		NewArticles:    fresh,
		HasRun:         true,
	}
	c.publisher.Publish(result)

	for _, s := range c.sinks {
		if err := s.fn(ctx, result.CycleID, fresh); err != nil {
			c.log.Warn("sink failed",
				slog.String("sink", s.name),
				slog.String("cycle_id", result.CycleID),
				slog.Any("err", err),
			)
		}
	}

	c.log.Info("cycle completed",
		slog.String("cycle_id", result.CycleID),
		slog.Int("candidates", len(candidates)),
		slog.Int("new_articles", len(fresh)),
	)

	return result, nil
}
