package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
)

func NewHandler(configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	itemRepo database.ItemRepository, version string) *Handler {
	return &Handler{
		feedRepo:    feedRepo,
		itemRepo:    itemRepo,
		configCache: configCache,
		startedAt:   time.Now(),
		version:     version,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	}

	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	} else {
		slog.Error("Database error", "operation", "count_feeds", "error", err)
		health["status"] = "degraded"
	}

	if h.configCache != nil {
		health["loaded_configurations"] = h.configCache.GetConfigCount()
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	feedCount, err := h.feedRepo.GetFeedCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	itemCount, err := h.itemRepo.GetItemCount()
	if err != nil {
		slog.Error("Database error", "operation", "count_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":   feedCount,
		"items":   itemCount,
		"version": h.version,
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedRepo.ListFeeds()
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	response := make([]feedResponse, 0, len(feeds))
	for _, f := range feeds {
		info := feedResponse{
			ID:              f.ID,
			Name:            f.Name,
			URL:             f.URL,
			IntervalMinutes: f.IntervalMinutes,
		}
		if h.configCache != nil {
			if feedConfig, ok := h.configCache.Lookup(f.Name); ok {
				info.Configured = true
				info.Filters = len(feedConfig.Filters)
				info.Rewrites = len(feedConfig.Rewrites)
			}
		}
		response = append(response, info)
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds": response,
		"count": len(response),
	})
}

func (h *Handler) ListItems(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	items, err := h.itemRepo.GetLatestItems(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_latest_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": toItemResponses(items),
		"count": len(items),
	})
}

func (h *Handler) ListFeedItems(c *gin.Context) {
	feedID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feed id"})
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	f, err := h.feedRepo.GetFeed(feedID)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed_id", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	if f == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "feed not found"})
		return
	}

	items, err := h.itemRepo.GetItemsForFeed(feedID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_items_for_feed", "feed_id", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feed":  f.Name,
		"items": toItemResponses(items),
		"count": len(items),
	})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return defaultItemLimit, true
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return 0, false
	}
	if limit > maxItemLimit {
		limit = maxItemLimit
	}
	return limit, true
}

func toItemResponses(items []database.NewsItem) []itemResponse {
	response := make([]itemResponse, 0, len(items))
	for _, item := range items {
		response = append(response, itemResponse{
			ID:        item.ID,
			FeedID:    item.FeedID,
			Title:     item.Title,
			URL:       item.URL,
			Published: item.Published,
			CreatedAt: item.CreatedAt,
		})
	}
	return response
}
