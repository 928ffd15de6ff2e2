// Package detect decides which scraped articles are genuinely new.
package detect

import (
	"github.com/feedradar/article-radar/internal/dedup"
	"github.com/feedradar/article-radar/internal/models"
)

// Detect classifies each batch record as new when its identity is neither
// in memory nor earlier in the same batch, preserving batch order. The full
// batch (not just the new subset) is folded into the returned memory, so an
// article that reappears in a later cycle is never re-reported; truncation
// to k only limits future lookups, never the current report. Detect is pure:
// calling it twice with the same inputs yields the same outputs.
func Detect(batch []models.Article, memory dedup.Memory, k int) ([]models.Article, dedup.Memory) {
	if len(batch) == 0 {
		return nil, memory
	}

	var fresh []models.Article
	seen := make(map[string]struct{}, len(batch))

	for _, rec := range batch {
		if _, dup := seen[rec.Identity]; dup {
			continue
		}
		seen[rec.Identity] = struct{}{}

		if memory.Contains(rec.Identity) {
			continue
		}
		fresh = append(fresh, rec)
	}

	return fresh, memory.WithUpdated(batch, k)
}
