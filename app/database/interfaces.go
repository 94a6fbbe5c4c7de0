package database

type FeedRepository interface {
	ListFeeds() ([]Feed, error)
	GetFeed(id int64) (*Feed, error)
	GetFeedCount() (int, error)

	UpsertFeed(name, url string, intervalMinutes int) (int64, error)
}

type ItemRepository interface {
	GetLatestItems(limit int) ([]NewsItem, error)
	GetItemsForFeed(feedID int64, limit int) ([]NewsItem, error)
	GetItemCount() (int, error)

	// InsertItemIfNew stores the item unless (feedID, url) is already known
	// and reports whether a row was created.
	InsertItemIfNew(feedID int64, title, url, published string) (bool, error)
}

type ActivityRepository interface {
	RecordChannelActivity(channel string) error
	ChannelActivityCount(channel string) (int, error)
	IsChannelIdle(channel string, minutes int) (bool, error)
	ResetActivity() error
}
