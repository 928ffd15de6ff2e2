package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/feedradar/article-radar/internal/announce"
	"github.com/feedradar/article-radar/internal/archive"
	"github.com/feedradar/article-radar/internal/config"
	"github.com/feedradar/article-radar/internal/cycle"
	"github.com/feedradar/article-radar/internal/dedup"
	"github.com/feedradar/article-radar/internal/logger"
	"github.com/feedradar/article-radar/internal/publish"
	"github.com/feedradar/article-radar/internal/scrape"
)

func main() {
	_ = godotenv.Load()

	log := logger.New("service")
	cfg, err := config.LoadService()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.StatePath), 0o755); err != nil {
		log.Error("create state dir", slog.Any("err", err))
		os.Exit(1)
	}

	source := &scrape.FeedSource{
		URL:           cfg.FeedURL,
		ItemSelector:  cfg.FeedItemSelector,
		TitleSelector: cfg.FeedTitleSelector,
		LinkSelector:  cfg.FeedLinkSelector,
		UserAgent:     cfg.ScrapeUserAgent,
		Timeout:       cfg.ScrapeTimeout,
	}

	store := dedup.NewFileStore(cfg.StatePath)
	publisher := publish.New()
	coordinator := cycle.New(source, store, publisher, cfg.MemorySize, log)

	var archiveClient *archive.Client
	if cfg.ElasticsearchAddr != "" {
		archiveClient, err = archive.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
		if err != nil {
			log.Error("init archive", slog.Any("err", err))
			os.Exit(1)
		}
		coordinator.AddSink("archive", archiveClient.ArchiveNew)
		log.Info("archive enabled", slog.String("index", cfg.ElasticsearchIndex))
	}

	if len(cfg.KafkaBrokers) > 0 {
		announcer := announce.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer announcer.Close()
		coordinator.AddSink("kafka", announcer.Announce)
		log.Info("announcer enabled", slog.String("topic", cfg.KafkaTopic))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	runOnce := func() {
		cycleCtx, cancel := context.WithTimeout(ctx, cfg.ScrapeTimeout+time.Minute)
		defer cancel()

		if _, err := coordinator.Run(cycleCtx); err != nil {
			log.Warn("cycle failed (will retry on next tick)", slog.Any("err", err))
		}
	}

	// Overlapping timer triggers are dropped while a cycle is in flight;
	// on-demand triggers queue on the coordinator itself.
	sched := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := sched.AddFunc(fmt.Sprintf("@every %s", cfg.ScrapeInterval), runOnce); err != nil {
		log.Error("schedule cycles", slog.Any("err", err))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	go runOnce()

	srv := &server{log: log, cfg: cfg, coordinator: coordinator, publisher: publisher, archive: archiveClient}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/latest", srv.handleLatest)
	r.Post("/cycle", srv.handleCycle)
	r.Get("/articles", srv.handleArticles)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.ScrapeTimeout + 2*time.Minute,
	}

	go func() {
		log.Info("service starting",
			slog.String("addr", cfg.BindAddr),
			slog.String("feed", cfg.FeedURL),
			slog.Duration("interval", cfg.ScrapeInterval),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log         *slog.Logger
	cfg         *config.Service
	coordinator *cycle.Coordinator
	publisher   *publish.Publisher
	archive     *archive.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.archive != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := s.archive.Health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleLatest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.publisher.Latest())
}

// handleCycle triggers a detection cycle on demand. The cycle is detached
// from the request context so a dropped connection cannot abort it halfway.
func (s *server) handleCycle(w http.ResponseWriter, _ *http.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ScrapeTimeout+time.Minute)
	defer cancel()

	result, err := s.coordinator.Run(ctx)
	if err != nil {
		s.log.Warn("on-demand cycle failed", slog.Any("err", err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleArticles(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "archive is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	params := archive.SearchParams{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		From:  clampInt(r.URL.Query().Get("from"), 0, 10_000),
		Size:  clampInt(r.URL.Query().Get("size"), 20, 200),
		Sort:  strings.TrimSpace(r.URL.Query().Get("sort")),
		Start: parseTime(r.URL.Query().Get("start")),
		End:   parseTime(r.URL.Query().Get("end")),
	}

	result, err := s.archive.SearchArticles(ctx, params)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func parseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return &ts
	}
	return nil
}

func clampInt(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	if value <= 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// nothing better to do
	}
}
