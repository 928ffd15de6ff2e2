package models

import "time"

// Article is one candidate article after normalization. Identity is the
// deterministic key that makes two observations of the same article equal;
// it is never empty.
type Article struct {
	Identity   string    `json:"identity"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	ObservedAt time.Time `json:"observed_at"`
}

// DetectionResult is the outcome of one detection cycle. Only the latest
// result is retained; HasRun is false until the first cycle completes.
type DetectionResult struct {
	CycleID        string    `json:"cycle_id"`
	CycleTimestamp time.Time `json:"cycle_timestamp"`
	NewArticles    []Article `json:"new_articles"`
	HasRun         bool      `json:"has_run"`
}
