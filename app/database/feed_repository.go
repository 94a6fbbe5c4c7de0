package database

import (
	"database/sql"
	"fmt"
)

var _ FeedRepository = (*FeedRepo)(nil)

// FeedRepo handles database operations for feeds
type FeedRepo struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// UpsertFeed inserts a feed or updates the URL and interval of the feed with
// the same name. It returns the feed ID.
func (r *FeedRepo) UpsertFeed(name, url string, intervalMinutes int) (int64, error) {
	var id int64
	err := r.db.write(func() error {
		return r.db.QueryRow(`
			INSERT INTO feeds (name, url, interval_minutes)
			VALUES (?, ?, ?)
			ON CONFLICT (name) DO UPDATE SET
				url = excluded.url,
				interval_minutes = excluded.interval_minutes
			RETURNING id
		`, name, url, intervalMinutes).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to upsert feed: %w", err)
	}

	return id, nil
}

// ListFeeds returns all feeds in insertion order
func (r *FeedRepo) ListFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT id, name, url, interval_minutes
		FROM feeds
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		var feed Feed
		if err := rows.Scan(&feed.ID, &feed.Name, &feed.URL, &feed.IntervalMinutes); err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

// GetFeed retrieves a feed by ID; it returns nil when the feed does not exist
func (r *FeedRepo) GetFeed(id int64) (*Feed, error) {
	var feed Feed
	err := r.db.QueryRow(`
		SELECT id, name, url, interval_minutes
		FROM feeds
		WHERE id = ?
	`, id).Scan(&feed.ID, &feed.Name, &feed.URL, &feed.IntervalMinutes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	return &feed, nil
}

// GetFeedCount returns the total number of feeds
func (r *FeedRepo) GetFeedCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feeds").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get feed count: %w", err)
	}
	return count, nil
}
