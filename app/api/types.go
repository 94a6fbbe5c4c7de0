package api

import (
	"time"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
)

const (
	defaultItemLimit = 20
	maxItemLimit     = 200
)

type Handler struct {
	feedRepo    database.FeedRepository
	itemRepo    database.ItemRepository
	configCache *feed.ConfigCache
	startedAt   time.Time
	version     string
}

type feedResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	URL             string `json:"url"`
	IntervalMinutes int    `json:"interval_minutes"`
	Configured      bool   `json:"configured"`
	Filters         int    `json:"filters"`
	Rewrites        int    `json:"rewrites"`
}

type itemResponse struct {
	ID        int64     `json:"id"`
	FeedID    int64     `json:"feed_id"`
	Title     string    `json:"title"`
	URL       string    `json:"url"`
	Published string    `json:"published"`
	CreatedAt time.Time `json:"created_at"`
}
