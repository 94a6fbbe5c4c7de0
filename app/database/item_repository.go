package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ItemRepository = (*ItemRepo)(nil)

// ItemRepo handles database operations for news items
type ItemRepo struct {
	db *DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *DB) *ItemRepo {
	return &ItemRepo{db: db}
}

// InsertItemIfNew relies on the UNIQUE (feed_id, url) constraint so the
// existence check and the insert happen in one statement.
func (r *ItemRepo) InsertItemIfNew(feedID int64, title, url, published string) (bool, error) {
	var inserted bool
	err := r.db.write(func() error {
		res, err := r.db.Exec(`
			INSERT INTO news (feed_id, title, url, published, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (feed_id, url) DO NOTHING
		`, feedID, title, url, published, r.db.now().Unix())
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		inserted = affected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to insert item: %w", err)
	}

	return inserted, nil
}

// GetLatestItems returns the most recently stored items across all feeds
func (r *ItemRepo) GetLatestItems(limit int) ([]NewsItem, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_id, title, url, published, created_at
		FROM news
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItemsForFeed returns the most recently stored items of one feed
func (r *ItemRepo) GetItemsForFeed(feedID int64, limit int) ([]NewsItem, error) {
	rows, err := r.db.Query(`
		SELECT id, feed_id, title, url, published, created_at
		FROM news
		WHERE feed_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, feedID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get feed items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// GetItemCount returns the total number of stored items
func (r *ItemRepo) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM news").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func scanItems(rows *sql.Rows) ([]NewsItem, error) {
	var items []NewsItem
	for rows.Next() {
		var item NewsItem
		var createdAt int64
		err := rows.Scan(&item.ID, &item.FeedID, &item.Title, &item.URL, &item.Published, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		item.CreatedAt = time.Unix(createdAt, 0)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}
