// Package publish exposes the latest detection result to readers.
package publish

import (
	"sync/atomic"

	"github.com/feedradar/article-radar/internal/models"
)

// Publisher holds an immutable snapshot of the most recent successful
// detection result. Publish swaps the snapshot wholesale; Latest never
// blocks and never observes a half-written result.
type Publisher struct {
	latest atomic.Pointer[models.DetectionResult]
}

func New() *Publisher {
	return &Publisher{}
}

// Publish replaces the snapshot. The caller must not modify the result
// after handing it over.
func (p *Publisher) Publish(result models.DetectionResult) {
	result.HasRun = true
	if result.NewArticles == nil {
		result.NewArticles = []models.Article{}
	}
	p.latest.Store(&result)
}

// Latest returns the current snapshot, or a sentinel with HasRun=false
// before the first successful cycle.
func (p *Publisher) Latest() models.DetectionResult {
	if r := p.latest.Load(); r != nil {
		return *r
	}
	return models.DetectionResult{NewArticles: []models.Article{}}
}
