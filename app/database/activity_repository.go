package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ ActivityRepository = (*ActivityRepo)(nil)

// ActivityRepo tracks when each channel last saw a message from someone else.
type ActivityRepo struct {
	db *DB
}

func NewActivityRepository(db *DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) RecordChannelActivity(channel string) error {
	err := r.db.write(func() error {
		_, err := r.db.Exec(`
			INSERT INTO channel_activity (channel, last_message_at, message_count)
			VALUES (?, ?, 1)
			ON CONFLICT (channel) DO UPDATE SET
				last_message_at = excluded.last_message_at,
				message_count = message_count + 1
		`, channel, r.db.now().Unix())
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to record channel activity: %w", err)
	}
	return nil
}

// ChannelActivityCount returns how many messages were recorded for channel
// since the last reset.
func (r *ActivityRepo) ChannelActivityCount(channel string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT message_count FROM channel_activity WHERE channel = ?`, channel).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get channel activity count: %w", err)
	}
	return count, nil
}

// IsChannelIdle reports whether channel has had no activity within the last
// minutes. A channel without any record is idle.
func (r *ActivityRepo) IsChannelIdle(channel string, minutes int) (bool, error) {
	since := r.db.now().Add(-time.Duration(minutes) * time.Minute).Unix()

	var recent int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM channel_activity
		WHERE channel = ? AND last_message_at > ?
	`, channel, since).Scan(&recent)
	if err != nil {
		return false, fmt.Errorf("failed to check channel idleness: %w", err)
	}

	return recent == 0, nil
}

// ResetActivity forgets all recorded activity.
func (r *ActivityRepo) ResetActivity() error {
	err := r.db.write(func() error {
		_, err := r.db.Exec(`DELETE FROM channel_activity`)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to reset channel activity: %w", err)
	}
	return nil
}
