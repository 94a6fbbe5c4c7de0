package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
	"github.com/lysyi3m/feedbot/app/linkres"
)

const feedListRetryDelay = time.Minute

// Poller runs one goroutine per feed. There is no shared ticker; each feed
// sleeps its own interval between cycles.
type Poller struct {
	feedRepo   database.FeedRepository
	pipeline   *Pipeline
	sleep      func(ctx context.Context, d time.Duration) error
	retryDelay time.Duration

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPoller(feedRepo database.FeedRepository, pipeline *Pipeline) *Poller {
	return &Poller{
		feedRepo:   feedRepo,
		pipeline:   pipeline,
		sleep:      linkres.SleepContext,
		retryDelay: feedListRetryDelay,
	}
}

// SetSleep replaces the sleep used between cycles and feed-list retries.
func (p *Poller) SetSleep(sleep func(ctx context.Context, d time.Duration) error) {
	p.sleep = sleep
}

// RunOnce polls every feed exactly once, concurrently, and returns when all
// cycles have finished.
func (p *Poller) RunOnce(ctx context.Context, notify Notifier) error {
	feeds, err := p.feedRepo.ListFeeds()
	if err != nil {
		return fmt.Errorf("failed to list feeds: %w", err)
	}

	var wg sync.WaitGroup
	for _, f := range p.activeFeeds(feeds) {
		wg.Add(1)
		go func(f database.Feed) {
			defer wg.Done()
			p.runCycle(ctx, f, notify)
		}(f)
	}
	wg.Wait()

	return nil
}

// Start launches continuous polling and returns immediately.
func (p *Poller) Start(notify Notifier) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		slog.Warn("Poller already started")
		return
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		feeds, ok := p.loadFeeds(p.ctx)
		if !ok {
			return
		}

		feeds = p.activeFeeds(feeds)
		slog.Info("Poller started", "feeds", len(feeds))

		for _, f := range feeds {
			p.wg.Add(1)
			go p.loop(f, notify)
		}
	}()
}

// Stop cancels every feed loop and waits for in-flight cycles to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	p.wg.Wait()
}

func (p *Poller) loadFeeds(ctx context.Context) ([]database.Feed, bool) {
	for {
		feeds, err := p.feedRepo.ListFeeds()
		if err == nil {
			return feeds, true
		}

		slog.Error("Failed to list feeds, retrying", "delay", p.retryDelay, "error", err)
		if err := p.sleep(ctx, p.retryDelay); err != nil {
			return nil, false
		}
	}
}

func (p *Poller) loop(f database.Feed, notify Notifier) {
	defer p.wg.Done()

	interval := time.Duration(f.IntervalMinutes) * time.Minute
	if f.IntervalMinutes <= 0 {
		interval = feed.DefaultIntervalMinutes * time.Minute
	}

	for {
		p.runCycle(p.ctx, f, notify)

		if err := p.sleep(p.ctx, interval); err != nil {
			slog.Debug("Feed loop stopped", "feed", f.Name)
			return
		}
	}
}

func (p *Poller) runCycle(ctx context.Context, f database.Feed, notify Notifier) {
	task := NewPollFeedTask(f, p.feedConfig(f.Name), p.pipeline, notify)
	task.Start()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Task panicked",
				"type", string(task.GetType()),
				"id", task.GetID(),
				"feed", task.GetFeedName(),
				"duration", task.GetDuration(),
				"panic", fmt.Sprint(r))
		}
	}()

	if err := task.Execute(ctx); err != nil {
		slog.Error("Task failed",
			"type", string(task.GetType()),
			"id", task.GetID(),
			"feed", task.GetFeedName(),
			"duration", task.GetDuration(),
			"error", err)
	}
}

func (p *Poller) feedConfig(name string) *feed.Config {
	if p.pipeline.Configs == nil {
		return nil
	}
	feedConfig, ok := p.pipeline.Configs.Lookup(name)
	if !ok {
		return nil
	}
	return feedConfig
}

// activeFeeds drops feeds whose YAML file disables them. Feeds without a
// YAML file, such as seeded ones, are always polled.
func (p *Poller) activeFeeds(feeds []database.Feed) []database.Feed {
	active := make([]database.Feed, 0, len(feeds))
	for _, f := range feeds {
		if feedConfig := p.feedConfig(f.Name); feedConfig != nil && !feedConfig.Settings.Enabled {
			slog.Debug("Feed disabled, skipping", "feed", f.Name)
			continue
		}
		active = append(active, f)
	}
	return active
}
