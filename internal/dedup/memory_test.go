package dedup_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/feedradar/article-radar/internal/dedup"
	"github.com/feedradar/article-radar/internal/models"
)

func article(id, title string) models.Article {
	return models.Article{
		Identity:   id,
		Title:      title,
		URL:        "https://example.com/" + id,
		ObservedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func identities(m dedup.Memory) []string {
	out := make([]string, 0, len(m.Entries))
	for _, e := range m.Entries {
		out = append(out, e.Identity)
	}
	return out
}

func TestMemoryContains(t *testing.T) {
	m := dedup.Memory{Entries: []models.Article{article("a", "A"), article("b", "B")}}

	require.True(t, m.Contains("a"))
	require.True(t, m.Contains("b"))
	require.False(t, m.Contains("c"))
	require.False(t, dedup.Memory{}.Contains("a"))
}

func TestWithUpdatedFillsEmptyMemoryInBatchOrder(t *testing.T) {
	next := dedup.Memory{}.WithUpdated([]models.Article{article("a", "A"), article("b", "B")}, 2)
	require.Equal(t, []string{"a", "b"}, identities(next))
}

func TestWithUpdatedEvictsOldestBeyondK(t *testing.T) {
	m := dedup.Memory{Entries: []models.Article{article("a", "A"), article("b", "B")}}

	next := m.WithUpdated([]models.Article{article("c", "C")}, 2)
	require.Equal(t, []string{"c", "a"}, identities(next))
}

func TestWithUpdatedPromotesReobservedArticle(t *testing.T) {
	m := dedup.Memory{Entries: []models.Article{article("a", "A"), article("b", "B")}}

	next := m.WithUpdated([]models.Article{article("a", "A")}, 2)
	require.Equal(t, []string{"a", "b"}, identities(next))
}

func TestWithUpdatedEmptyBatchIsNoOp(t *testing.T) {
	m := dedup.Memory{Entries: []models.Article{article("a", "A")}}

	next := m.WithUpdated(nil, 2)
	require.Equal(t, identities(m), identities(next))
}

func TestWithUpdatedLaterDuplicateWinsInPlace(t *testing.T) {
	first := article("a", "first title")
	second := article("a", "second title")

	next := dedup.Memory{}.WithUpdated([]models.Article{first, article("b", "B"), second}, 3)

	require.Equal(t, []string{"a", "b"}, identities(next))
	require.Equal(t, "second title", next.Entries[0].Title)
}

func TestWithUpdatedNeverMutatesReceiver(t *testing.T) {
	m := dedup.Memory{Entries: []models.Article{article("a", "A"), article("b", "B")}}

	_ = m.WithUpdated([]models.Article{article("c", "C"), article("d", "D")}, 2)

	require.Equal(t, []string{"a", "b"}, identities(m))
}

func TestWithUpdatedBoundedForAnyBatchSize(t *testing.T) {
	m := dedup.Memory{}
	batch := []models.Article{
		article("a", "A"), article("b", "B"), article("c", "C"),
		article("d", "D"), article("e", "E"),
	}

	for i := 0; i < 10; i++ {
		m = m.WithUpdated(batch, 2)
		require.LessOrEqual(t, len(m.Entries), 2)
	}
	require.Equal(t, []string{"a", "b"}, identities(m))
}
