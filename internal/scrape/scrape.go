// Package scrape defines the boundary to the external page scraper and a
// colly-based implementation of it.
package scrape

import "context"

// Candidate is one raw scraped record before normalization.
type Candidate struct {
	Title string
	URL   string
}

// Source produces one batch of candidates per call. Implementations own
// their timeouts; the call may be slow and may fail.
type Source interface {
	FetchCandidates(ctx context.Context) ([]Candidate, error)
}
