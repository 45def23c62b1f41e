// Package server exposes the aggregated feed over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"blueduck/internal/aggregator"
	"blueduck/internal/config"
	"blueduck/internal/logger"
	"blueduck/internal/models"
)

const shutdownTimeout = 10 * time.Second

// Feed produces the combined news feed.
type Feed interface {
	FetchAllWithReport(ctx context.Context, opts aggregator.Options) ([]models.NewsItem, aggregator.Report)
}

// NewsResponse is the body of GET /api/conservation-news.
type NewsResponse struct {
	Items       []models.NewsItem `json:"items"`
	Report      aggregator.Report `json:"report"`
	GeneratedAt time.Time         `json:"generatedAt"`
}

// Server serves the feed endpoint.
type Server struct {
	cfg    config.ServerConfig
	router *gin.Engine
	cache  *feedCache
	logger *logger.Logger
}

// New creates a server over feed. Credentials in opts are used for every regeneration.
func New(feed Feed, opts aggregator.Options, cfg config.ServerConfig, log *logger.Logger) *Server {
	return newServer(feed, opts, cfg, log, time.Now)
}

func newServer(feed Feed, opts aggregator.Options, cfg config.ServerConfig, log *logger.Logger, now func() time.Time) *Server {
	if log == nil {
		log = logger.Discard()
	}

	generate := func(ctx context.Context) snapshot {
		items, report := feed.FetchAllWithReport(ctx, opts)
		return snapshot{items: items, report: report}
	}

	s := &Server{
		cfg:    cfg,
		cache:  newFeedCache(generate, cfg.Revalidate(), now),
		logger: log,
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	api := router.Group("/api")
	{
		api.GET("/conservation-news", s.getNews)
	}

	s.router = router

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr, "revalidate", s.cfg.Revalidate())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")

	return nil
}

// getNews handles GET /api/conservation-news.
func (s *Server) getNews(c *gin.Context) {
	limit := 0

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_LIMIT",
					"message": "limit must be a positive integer",
				},
			})

			return
		}

		limit = n
	}

	snap := s.cache.get(c.Request.Context())
	items := filterItems(snap.items, itemFilter{
		category: c.Query("category"),
		source:   c.Query("source"),
		tag:      c.Query("tag"),
		limit:    limit,
	})

	if ttl := int(s.cfg.Revalidate().Seconds()); ttl > 0 {
		c.Header("Cache-Control", fmt.Sprintf("s-maxage=%d, stale-while-revalidate", ttl))
	}

	c.JSON(http.StatusOK, NewsResponse{
		Items:       items,
		Report:      snap.report,
		GeneratedAt: snap.generatedAt,
	})
}

// itemFilter holds the optional query filters. Category and source match
// case-insensitively, tag matches exactly. A zero limit means no limit.
type itemFilter struct {
	category string
	source   string
	tag      string
	limit    int
}

func filterItems(items []models.NewsItem, f itemFilter) []models.NewsItem {
	out := make([]models.NewsItem, 0, len(items))

	for _, item := range items {
		if f.category != "" && !strings.EqualFold(item.Category, f.category) {
			continue
		}

		if f.source != "" && !strings.EqualFold(item.Source, f.source) {
			continue
		}

		if f.tag != "" && !item.HasTag(f.tag) {
			continue
		}

		out = append(out, item)

		if f.limit > 0 && len(out) == f.limit {
			break
		}
	}

	return out
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
