package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains Elasticsearch parameters shared by the service and the
// retention job.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Service holds configuration for the radar service: scraper, detection
// core, HTTP API and optional collaborators. An empty ElasticsearchAddr
// disables the archive; empty KafkaBrokers disables the announcer.
type Service struct {
	Common
	BindAddr string

	FeedURL           string
	FeedItemSelector  string
	FeedTitleSelector string
	FeedLinkSelector  string
	ScrapeUserAgent   string
	ScrapeInterval    time.Duration
	ScrapeTimeout     time.Duration

	StatePath  string
	MemorySize int

	KafkaBrokers []string
	KafkaTopic   string
}

// Retention configures the archive cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// LoadService builds a Service config from environment variables.
func LoadService() (*Service, error) {
	c := &Service{
		Common: Common{
			ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", ""),
			ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
		},
		BindAddr: getEnv("API_BIND_ADDR", "0.0.0.0:8080"),

		FeedURL:           getEnv("FEED_URL", ""),
		FeedItemSelector:  getEnv("FEED_ITEM_SELECTOR", "article"),
		FeedTitleSelector: getEnv("FEED_TITLE_SELECTOR", ""),
		FeedLinkSelector:  getEnv("FEED_LINK_SELECTOR", "a"),
		ScrapeUserAgent:   getEnv("SCRAPE_USER_AGENT", "article-radar/1.0"),
		ScrapeInterval:    getDuration("SCRAPE_INTERVAL", "5m"),
		ScrapeTimeout:     getDuration("SCRAPE_TIMEOUT", "30s"),

		StatePath:  getEnv("STATE_PATH", "data/state.json"),
		MemorySize: getInt("MEMORY_SIZE", 2),

		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "articles_new"),
	}

	if c.FeedURL == "" {
		return nil, fmt.Errorf("FEED_URL must be set")
	}
	if c.FeedItemSelector == "" {
		return nil, fmt.Errorf("FEED_ITEM_SELECTOR must not be empty")
	}
	if c.MemorySize <= 0 {
		return nil, fmt.Errorf("MEMORY_SIZE must be positive")
	}
	if c.ScrapeInterval <= 0 {
		return nil, fmt.Errorf("SCRAPE_INTERVAL must be positive")
	}
	if c.ScrapeTimeout <= 0 {
		return nil, fmt.Errorf("SCRAPE_TIMEOUT must be positive")
	}
	if c.StatePath == "" {
		return nil, fmt.Errorf("STATE_PATH must not be empty")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return nil, fmt.Errorf("KAFKA_TOPIC must be set when KAFKA_BROKERS is")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common: Common{
			ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
			ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "articles"),
		},
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "720h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.ElasticsearchAddr == "" {
		return nil, fmt.Errorf("ELASTICSEARCH_ADDR must be set")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
