package tasks

import (
	"context"

	"github.com/lysyi3m/feedbot/app/feed"
	"github.com/lysyi3m/feedbot/app/linkres"
)

// Notifier receives every newly stored, unfiltered item. It is called
// synchronously, oldest item first, and must not panic.
type Notifier func(feedName, title, url, date string)

type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.RawItem, error)
}

type Gate interface {
	ShouldSuppress() (bool, error)
}

type LinkResolver interface {
	Canonical(title, link string) string
	Resolve(ctx context.Context, title, link string, opts linkres.Options) linkres.Result
}

var (
	_ Fetcher      = (*feed.Fetcher)(nil)
	_ LinkResolver = (*linkres.Resolver)(nil)
)
