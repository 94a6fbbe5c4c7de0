package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
)

type SyncFeedConfigTask struct {
	Task
	FeedConfig *feed.Config
	feedRepo   database.FeedRepository
}

func NewSyncFeedConfigTask(feedName string, feedConfig *feed.Config, feedRepo database.FeedRepository) *SyncFeedConfigTask {
	return &SyncFeedConfigTask{
		Task:       NewTask(TaskTypeSyncFeedConfig, feedName),
		FeedConfig: feedConfig,
		feedRepo:   feedRepo,
	}
}

func (t *SyncFeedConfigTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	id, err := t.feedRepo.UpsertFeed(t.FeedConfig.Name, t.FeedConfig.URL, t.FeedConfig.Settings.Interval)
	if err != nil {
		return fmt.Errorf("failed to sync feed config to database: %w", err)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"feed", t.FeedName,
		"id", id,
		"duration", t.GetDuration())

	return nil
}

// SyncFeedConfigs writes every enabled YAML feed into the feeds table and
// returns how many were synced. Failures are collected, not fatal.
func SyncFeedConfigs(ctx context.Context, configCache *feed.ConfigCache, feedRepo database.FeedRepository) (int, error) {
	var errs []error
	synced := 0

	for _, feedConfig := range configCache.GetEnabledConfigs() {
		task := NewSyncFeedConfigTask(feedConfig.Name, feedConfig, feedRepo)
		task.Start()
		if err := task.Execute(ctx); err != nil {
			slog.Error("Task failed", "type", string(task.Type), "feed", feedConfig.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", feedConfig.Name, err))
			continue
		}
		synced++
	}

	return synced, errors.Join(errs...)
}
