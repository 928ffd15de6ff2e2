package scrape

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

// FeedSource scrapes a single feed page with CSS selectors. ItemSelector
// matches one element per article; within each item, TitleSelector and
// LinkSelector locate the display title and the href. An empty LinkSelector
// means the item element itself carries the href.
type FeedSource struct {
	URL           string
	ItemSelector  string
	TitleSelector string
	LinkSelector  string
	UserAgent     string
	Timeout       time.Duration
}

// FetchCandidates renders the feed page and extracts candidates in page
// order (top of the page first). Page order is recency order downstream.
func (s *FeedSource) FetchCandidates(ctx context.Context) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []colly.CollectorOption{colly.MaxDepth(1)}
	if s.UserAgent != "" {
		opts = append(opts, colly.UserAgent(s.UserAgent))
	}

	// A fresh collector per fetch: colly remembers visited URLs, and every
	// cycle must re-visit the same page.
	c := colly.NewCollector(opts...)
	if s.Timeout > 0 {
		c.SetRequestTimeout(s.Timeout)
	}

	var (
		out      []Candidate
		fetchErr error
	)

	c.OnHTML(s.ItemSelector, func(e *colly.HTMLElement) {
		href := s.extractLink(e)
		if href == "" {
			return
		}
		out = append(out, Candidate{
			Title: s.extractTitle(e),
			URL:   e.Request.AbsoluteURL(href),
		})
	})

	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(s.URL); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, err)
	}
	c.Wait()

	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", s.URL, fetchErr)
	}

	return out, nil
}

func (s *FeedSource) extractTitle(e *colly.HTMLElement) string {
	if s.TitleSelector == "" {
		return strings.TrimSpace(e.Text)
	}
	if text := e.ChildText(s.TitleSelector); text != "" {
		return strings.TrimSpace(text)
	}
	// ChildText only walks matched children; fall back to a full subtree
	// search for nested markup.
	var text string
	e.DOM.Find(s.TitleSelector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text = strings.TrimSpace(sel.Text())
		return text == ""
	})
	return text
}

func (s *FeedSource) extractLink(e *colly.HTMLElement) string {
	if s.LinkSelector == "" {
		return strings.TrimSpace(e.Attr("href"))
	}
	return strings.TrimSpace(e.ChildAttr(s.LinkSelector, "href"))
}
