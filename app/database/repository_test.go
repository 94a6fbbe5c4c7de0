package database

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)

	firstID, err := repo.UpsertFeed("Example", "http://ex/feed", 5)
	require.NoError(t, err)
	secondID, err := repo.UpsertFeed("Other", "http://other/feed", 30)
	require.NoError(t, err)
	assert.Less(t, firstID, secondID)

	// Upsert by name keeps the ID and updates the rest.
	againID, err := repo.UpsertFeed("Example", "http://ex/feed.xml", 10)
	require.NoError(t, err)
	assert.Equal(t, firstID, againID)

	feeds, err := repo.ListFeeds()
	require.NoError(t, err)
	require.Len(t, feeds, 2)
	assert.Equal(t, "Example", feeds[0].Name)
	assert.Equal(t, "http://ex/feed.xml", feeds[0].URL)
	assert.Equal(t, 10, feeds[0].IntervalMinutes)
	assert.Equal(t, "Other", feeds[1].Name)

	count, err := repo.GetFeedCount()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	feed, err := repo.GetFeed(secondID)
	require.NoError(t, err)
	require.NotNil(t, feed)
	assert.Equal(t, "http://other/feed", feed.URL)

	missing, err := repo.GetFeed(999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFeedRepositoryRejectsDuplicateURL(t *testing.T) {
	db := newTestDB(t)
	repo := NewFeedRepository(db)

	_, err := repo.UpsertFeed("Example", "http://ex/feed", 5)
	require.NoError(t, err)

	_, err = repo.UpsertFeed("Copy", "http://ex/feed", 5)
	assert.Error(t, err)
}

func TestInsertItemIfNewIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	feedID, err := NewFeedRepository(db).UpsertFeed("Example", "http://ex/feed", 5)
	require.NoError(t, err)
	items := NewItemRepository(db)

	inserted, err := items.InsertItemIfNew(feedID, "Title", "http://ex/1", "01.01.2024 10:00")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = items.InsertItemIfNew(feedID, "Title changed", "http://ex/1", "02.01.2024 10:00")
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := items.GetItemCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestInsertItemIfNewIsScopedToFeed(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	first, err := feeds.UpsertFeed("First", "http://first/feed", 5)
	require.NoError(t, err)
	second, err := feeds.UpsertFeed("Second", "http://second/feed", 5)
	require.NoError(t, err)
	items := NewItemRepository(db)

	inserted, err := items.InsertItemIfNew(first, "Shared", "http://shared/article", "no date")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = items.InsertItemIfNew(second, "Shared", "http://shared/article", "no date")
	require.NoError(t, err)
	assert.True(t, inserted, "the same URL under another feed is a distinct item")
}

func TestInsertItemIfNewConcurrent(t *testing.T) {
	db := newTestDB(t)
	feedID, err := NewFeedRepository(db).UpsertFeed("Example", "http://ex/feed", 5)
	require.NoError(t, err)
	items := NewItemRepository(db)

	const workers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	newCount := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inserted, err := items.InsertItemIfNew(feedID, "Race", "http://ex/race", "no date")
			assert.NoError(t, err)
			if inserted {
				mu.Lock()
				newCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, newCount)
	count, err := items.GetItemCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestLatestItemsOrdering(t *testing.T) {
	db := newTestDB(t)
	feeds := NewFeedRepository(db)
	first, err := feeds.UpsertFeed("First", "http://first/feed", 5)
	require.NoError(t, err)
	second, err := feeds.UpsertFeed("Second", "http://second/feed", 5)
	require.NoError(t, err)
	items := NewItemRepository(db)

	for i := 1; i <= 3; i++ {
		_, err := items.InsertItemIfNew(first, fmt.Sprintf("first %d", i), fmt.Sprintf("http://first/%d", i), "no date")
		require.NoError(t, err)
		_, err = items.InsertItemIfNew(second, fmt.Sprintf("second %d", i), fmt.Sprintf("http://second/%d", i), "no date")
		require.NoError(t, err)
	}

	latest, err := items.GetLatestItems(2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "second 3", latest[0].Title)
	assert.Equal(t, "first 3", latest[1].Title)

	scoped, err := items.GetItemsForFeed(first, 10)
	require.NoError(t, err)
	require.Len(t, scoped, 3)
	assert.Equal(t, "first 3", scoped[0].Title)
	assert.Equal(t, "first 1", scoped[2].Title)
	for _, item := range scoped {
		assert.Equal(t, first, item.FeedID)
	}
}

func TestChannelActivity(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	db.SetClock(func() time.Time { return now })
	activity := NewActivityRepository(db)

	idle, err := activity.IsChannelIdle("#news", 10)
	require.NoError(t, err)
	assert.True(t, idle, "a channel without records is idle")

	count, err := activity.ChannelActivityCount("#news")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, activity.RecordChannelActivity("#news"))
	require.NoError(t, activity.RecordChannelActivity("#news"))

	count, err = activity.ChannelActivityCount("#news")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	idle, err = activity.IsChannelIdle("#news", 10)
	require.NoError(t, err)
	assert.False(t, idle)

	idle, err = activity.IsChannelIdle("#other", 10)
	require.NoError(t, err)
	assert.True(t, idle)

	now = now.Add(11 * time.Minute)
	idle, err = activity.IsChannelIdle("#news", 10)
	require.NoError(t, err)
	assert.True(t, idle, "quiet for longer than the window")

	require.NoError(t, activity.ResetActivity())
	count, err = activity.ChannelActivityCount("#news")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
