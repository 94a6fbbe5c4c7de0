package database

import (
	"time"
)

// Feed represents a feed record in the database
type Feed struct {
	ID              int64
	Name            string
	URL             string
	IntervalMinutes int
}

// NewsItem represents an item that has been seen on a feed. The pair
// (FeedID, URL) is unique.
type NewsItem struct {
	ID        int64
	FeedID    int64
	Title     string
	URL       string
	Published string // display label, already formatted
	CreatedAt time.Time
}
