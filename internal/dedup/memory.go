// Package dedup holds the bounded memory of recently seen articles and its
// durable file-backed store.
package dedup

import "github.com/feedradar/article-radar/internal/models"

// Memory is the ordered "latest K seen" set, most-recent-first. It is a
// value: WithUpdated returns a new Memory and never mutates the receiver.
// Entries never contain two articles with the same identity.
type Memory struct {
	Entries []models.Article
}

// Contains reports whether an identity is already known.
func (m Memory) Contains(identity string) bool {
	for _, e := range m.Entries {
		if e.Identity == identity {
			return true
		}
	}
	return false
}

// WithUpdated merges a scrape batch into the memory and returns the result
// truncated to k entries. Batch order is recency order (the first item is
// the newest), so the deduplicated batch goes ahead of surviving prior
// entries. A within-batch duplicate identity keeps the earliest position
// but the latest occurrence's fields. An empty batch returns the memory
// unchanged.
func (m Memory) WithUpdated(batch []models.Article, k int) Memory {
	if len(batch) == 0 {
		return m
	}
	if k <= 0 {
		k = 1
	}

	merged := make([]models.Article, 0, len(batch)+len(m.Entries))
	position := make(map[string]int, len(batch))

	for _, rec := range batch {
		if idx, ok := position[rec.Identity]; ok {
			merged[idx] = rec
			continue
		}
		position[rec.Identity] = len(merged)
		merged = append(merged, rec)
	}

	for _, prev := range m.Entries {
		if _, ok := position[prev.Identity]; ok {
			continue
		}
		merged = append(merged, prev)
	}

	if len(merged) > k {
		merged = merged[:k]
	}

	return Memory{Entries: merged}
}
