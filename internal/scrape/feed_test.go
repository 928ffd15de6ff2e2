package scrape_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedradar/article-radar/internal/scrape"
)

const feedPage = `<!DOCTYPE html>
<html><body>
<div class="feed">
  <div class="post">
    <h2><span>Newest article</span></h2>
    <a class="permalink" href="/posts/3">read</a>
  </div>
  <div class="post">
    <h2>Older article</h2>
    <a class="permalink" href="https://other.example.com/posts/2">read</a>
  </div>
  <div class="post">
    <h2>No link here</h2>
  </div>
</div>
</body></html>`

func TestFetchCandidatesExtractsItemsInPageOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(feedPage))
	}))
	defer srv.Close()

	source := &scrape.FeedSource{
		URL:           srv.URL,
		ItemSelector:  "div.post",
		TitleSelector: "h2",
		LinkSelector:  "a.permalink",
		Timeout:       5 * time.Second,
	}

	got, err := source.FetchCandidates(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2, "items without a link are skipped")
	require.Equal(t, "Newest article", got[0].Title)
	require.Equal(t, srv.URL+"/posts/3", got[0].URL, "relative hrefs are resolved against the page")
	require.Equal(t, "Older article", got[1].Title)
	require.Equal(t, "https://other.example.com/posts/2", got[1].URL)
}

func TestFetchCandidatesItemIsTheLink(t *testing.T) {
	page := `<html><body>
	  <a class="headline" href="/a">First</a>
	  <a class="headline" href="/b">Second</a>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	source := &scrape.FeedSource{
		URL:          srv.URL,
		ItemSelector: "a.headline",
		Timeout:      5 * time.Second,
	}

	got, err := source.FetchCandidates(context.Background())
	require.NoError(t, err)

	require.Len(t, got, 2)
	require.Equal(t, "First", got[0].Title)
	require.Equal(t, srv.URL+"/a", got[0].URL)
}

func TestFetchCandidatesServerErrorFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	source := &scrape.FeedSource{
		URL:          srv.URL,
		ItemSelector: "div.post",
		Timeout:      5 * time.Second,
	}

	_, err := source.FetchCandidates(context.Background())
	require.Error(t, err)
}

func TestFetchCandidatesUnreachableHostFails(t *testing.T) {
	source := &scrape.FeedSource{
		URL:          "http://127.0.0.1:1",
		ItemSelector: "div.post",
		Timeout:      time.Second,
	}

	_, err := source.FetchCandidates(context.Background())
	require.Error(t, err)
}

func TestFetchCandidatesCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &scrape.FeedSource{URL: "http://example.com", ItemSelector: "a"}

	_, err := source.FetchCandidates(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestFetchCandidatesEmptyPageYieldsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>nothing today</p></body></html>"))
	}))
	defer srv.Close()

	source := &scrape.FeedSource{
		URL:          srv.URL,
		ItemSelector: "div.post",
		Timeout:      5 * time.Second,
	}

	got, err := source.FetchCandidates(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
