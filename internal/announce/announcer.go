// Package announce produces newly detected articles to a Kafka topic, one
// message per article keyed by identity. Downstream consumers own delivery
// and retry policy.
package announce

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/feedradar/article-radar/internal/models"
)

type message struct {
	Identity   string    `json:"identity"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	ObservedAt time.Time `json:"observed_at"`
	CycleID    string    `json:"cycle_id"`
}

// Announcer wraps a kafka writer.
type Announcer struct {
	writer *kafka.Writer
}

// New creates an announcer for the given brokers and topic.
func New(brokers []string, topic string) *Announcer {
	return &Announcer{
		writer: kafka.NewWriter(kafka.WriterConfig{
			Brokers:     brokers,
			Topic:       topic,
			MaxAttempts: 3,
		}),
	}
}

// Announce publishes one message per new article. Keying by identity keeps
// all observations of an article on the same partition.
func (a *Announcer) Announce(ctx context.Context, cycleID string, articles []models.Article) error {
	if len(articles) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(articles))
	for _, art := range articles {
		payload, err := json.Marshal(message{
			Identity:   art.Identity,
			Title:      art.Title,
			URL:        art.URL,
			ObservedAt: art.ObservedAt,
			CycleID:    cycleID,
		})
		if err != nil {
			return fmt.Errorf("marshal announcement: %w", err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(art.Identity),
			Value: payload,
		})
	}

	if err := a.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write announcements: %w", err)
	}
	return nil
}

func (a *Announcer) Close() error {
	return a.writer.Close()
}
