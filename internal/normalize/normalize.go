// Package normalize canonicalizes raw scraped candidates into articles
// with a stable identity.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/feedradar/article-radar/internal/models"
	"github.com/feedradar/article-radar/internal/scrape"
)

// ErrInvalidRecord marks a single malformed candidate. Callers drop the
// record and continue; it never aborts a cycle.
var ErrInvalidRecord = errors.New("invalid record")

// Normalize validates a candidate and derives its identity from the
// canonical URL and the title. The same candidate always yields the same
// identity regardless of when it is observed.
func Normalize(c scrape.Candidate, observedAt time.Time) (models.Article, error) {
	canonical, err := canonicalURL(c.URL)
	if err != nil {
		return models.Article{}, err
	}

	title := strings.TrimSpace(c.Title)

	return models.Article{
		Identity:   identity(canonical, title),
		Title:      title,
		URL:        canonical,
		ObservedAt: observedAt.UTC(),
	}, nil
}

func canonicalURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidRecord)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: parse url %q: %v", ErrInvalidRecord, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRecord, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidRecord, raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	return u.String(), nil
}

func identity(canonical, title string) string {
	s := sha1.Sum([]byte(canonical + "|" + title))
	return hex.EncodeToString(s[:])
}
