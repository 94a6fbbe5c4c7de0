package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
	"github.com/lysyi3m/feedbot/app/linkres"
)

// Pipeline holds the collaborators shared by every feed's poll task.
type Pipeline struct {
	Fetcher  Fetcher
	Gate     Gate
	Resolver LinkResolver
	Items    database.ItemRepository
	Filterer *feed.Filterer
	Rewriter *feed.Rewriter
	Dates    *feed.DateFormatter
	Configs  *feed.ConfigCache // optional per-feed YAML settings

	ShortenThreshold int // used when a feed sets none
}

type PollFeedTask struct {
	Task
	Feed       database.Feed
	FeedConfig *feed.Config
	pipeline   *Pipeline
	notify     Notifier
}

type pollStats struct {
	total      int
	new        int
	duplicates int
	filtered   int
	failed     int
}

func NewPollFeedTask(f database.Feed, feedConfig *feed.Config, pipeline *Pipeline, notify Notifier) *PollFeedTask {
	return &PollFeedTask{
		Task:       NewTask(TaskTypePollFeed, f.Name),
		Feed:       f,
		FeedConfig: feedConfig,
		pipeline:   pipeline,
		notify:     notify,
	}
}

// Execute runs one fetch, gate and process cycle. The fetch happens before
// the gate is consulted so a slow download cannot outlast the idle window.
func (t *PollFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.fetch(ctx)
	if err != nil {
		return err
	}

	suppress, err := t.pipeline.Gate.ShouldSuppress()
	if err != nil {
		return fmt.Errorf("failed to evaluate activity gate: %w", err)
	}
	if suppress {
		slog.Info("Task completed",
			"type", string(t.Type),
			"feed", t.FeedName,
			"duration", t.GetDuration(),
			"total", len(items),
			"suppressed", true)
		return nil
	}

	stats := pollStats{total: len(items)}

	// Feeds list newest first; announce in chronological order.
	for i := len(items) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.processItem(ctx, items[i], &stats); err != nil {
			stats.failed++
			slog.Error("Failed to process item", "feed", t.FeedName, "link", items[i].Link, "error", err)
		}
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"duration", t.GetDuration(),
		"total", stats.total,
		"duplicates", stats.duplicates,
		"filtered", stats.filtered,
		"failed", stats.failed,
		"new", stats.new)

	return nil
}

func (t *PollFeedTask) fetch(ctx context.Context) ([]feed.RawItem, error) {
	fetchCtx := ctx
	if t.FeedConfig != nil && t.FeedConfig.Settings.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, time.Duration(t.FeedConfig.Settings.Timeout)*time.Second)
		defer cancel()
	}

	items, err := t.pipeline.Fetcher.Fetch(fetchCtx, t.Feed.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return items, nil
}

func (t *PollFeedTask) processItem(ctx context.Context, item feed.RawItem, stats *pollStats) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing item: %v", r)
		}
	}()

	if item.Link == "" {
		return fmt.Errorf("item %q has no link", item.Title)
	}

	title := feed.CollapseWhitespace(item.Title)
	date := t.pipeline.Dates.Format(item)
	canonical := t.pipeline.Resolver.Canonical(title, item.Link)

	inserted, err := t.pipeline.Items.InsertItemIfNew(t.Feed.ID, title, canonical, date)
	if err != nil {
		return fmt.Errorf("failed to store item: %w", err)
	}
	if !inserted {
		stats.duplicates++
		return nil
	}

	if filtered, reason := t.pipeline.Filterer.Run(item, t.FeedConfig); filtered {
		stats.filtered++
		slog.Debug("Item filtered", "feed", t.FeedName, "title", title, "reason", reason)
		return nil
	}

	stats.new++
	if t.notify == nil {
		return nil
	}

	resolved := t.pipeline.Resolver.Resolve(ctx, title, item.Link, t.linkOptions())
	announceTitle, announceURL := t.pipeline.Rewriter.Run(title, resolved.Display, t.FeedConfig)
	t.notify(t.Feed.Name, announceTitle, announceURL, date)

	return nil
}

func (t *PollFeedTask) linkOptions() linkres.Options {
	opts := linkres.Options{Threshold: t.pipeline.ShortenThreshold}
	if t.FeedConfig != nil {
		if t.FeedConfig.Settings.ShortenThreshold > 0 {
			opts.Threshold = t.FeedConfig.Settings.ShortenThreshold
		}
		opts.Force = t.FeedConfig.Settings.ForceShorten
	}
	return opts
}
