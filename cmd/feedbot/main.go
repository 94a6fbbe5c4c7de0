package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lysyi3m/feedbot/app/activity"
	"github.com/lysyi3m/feedbot/app/api"
	"github.com/lysyi3m/feedbot/app/bot"
	"github.com/lysyi3m/feedbot/app/cfg"
	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/feed"
	"github.com/lysyi3m/feedbot/app/linkres"
	"github.com/lysyi3m/feedbot/app/logging"
	"github.com/lysyi3m/feedbot/app/shortener"
	"github.com/lysyi3m/feedbot/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	logCloser, err := logging.Setup(appCfg.Debug, appCfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	if err := run(appCfg); err != nil {
		slog.Error("Fatal error", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting feedbot", "version", appCfg.Version)

	db, err := database.Open(appCfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return err
	}
	slog.Info("Database ready", "path", db.Path(), "schema_version", version, "dirty", dirty)

	seeded, err := database.SeedFeeds(db, appCfg.SeedFile)
	if err != nil {
		return err
	}
	if seeded > 0 {
		slog.Info("Seeded feeds", "file", appCfg.SeedFile, "count", seeded)
	}

	configCache := feed.NewConfigCache(appCfg.FeedsDir)
	if err := configCache.Run(); err != nil {
		return fmt.Errorf("failed to load feed configurations: %w", err)
	}
	slog.Info("Feed configurations loaded", "dir", appCfg.FeedsDir, "count", configCache.GetConfigCount())

	feedRepo := database.NewFeedRepository(db)
	itemRepo := database.NewItemRepository(db)
	activityRepo := database.NewActivityRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if synced, err := tasks.SyncFeedConfigs(ctx, configCache, feedRepo); err != nil {
		slog.Warn("Some feed configurations were not synced", "synced", synced, "error", err)
	}

	// Per-request deadlines come from contexts; this is a backstop.
	httpClient := &http.Client{Timeout: 5 * time.Minute}

	var linkShortener linkres.Shortener
	if appCfg.ShortenerKey != "" {
		linkShortener = shortener.NewClient(appCfg.ShortenerURL, appCfg.ShortenerKey, httpClient)
	}

	pipeline := &tasks.Pipeline{
		Fetcher:  feed.NewFetcher(httpClient, feed.NewParser(), appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second),
		Resolver: linkres.NewResolver(linkShortener, linkres.DefaultRetry()),
		Gate: &activity.Gate{
			Store:               activityRepo,
			Channel:             appCfg.IRCChannel,
			WaitForFirstMessage: appCfg.WaitForFirstMsg,
			IdleMinutes:         appCfg.IdleMinutes,
		},
		Items:            itemRepo,
		Filterer:         feed.NewFilterer(),
		Rewriter:         feed.NewRewriter(),
		Dates:            feed.NewDateFormatter(appCfg.DateFormat, time.Local),
		Configs:          configCache,
		ShortenThreshold: appCfg.ShortenThreshold,
	}

	if appCfg.UpdateBeforeConnect {
		slog.Info("Recording current feed items before connecting")
		warmup := *pipeline
		warmup.Gate = activity.OpenGate{}
		if err := tasks.NewPoller(feedRepo, &warmup).RunOnce(ctx, tasks.LogNotifier); err != nil {
			slog.Error("Warm-up poll failed", "error", err)
		}
		slog.Info("Warm-up poll finished")
	}

	var apiServer *api.Server
	if appCfg.APIPort != "" {
		apiServer = api.NewServer(api.NewHandler(configCache, feedRepo, itemRepo, appCfg.Version), appCfg.APIPort, appCfg.APIAccessKey)
		apiServer.Start()
	}

	ircBot := bot.New(bot.Config{
		Host:             appCfg.IRCHost,
		Port:             appCfg.IRCPort,
		Password:         appCfg.IRCPassword,
		SSL:              appCfg.IRCSSL,
		Channel:          appCfg.IRCChannel,
		Nick:             appCfg.IRCNick,
		NickServPassword: appCfg.NickServPassword,
		ListenPrivmsg:    !appCfg.IgnorePrivmsg,
		PublicHelp:       appCfg.PublicHelp,
		Version:          "feedbot " + appCfg.Version,
	}, bot.NewCommands(feedRepo, itemRepo, appCfg.FeedLimit, appCfg.FeedOrderDesc, appCfg.UseColors), activityRepo)

	poller := tasks.NewPoller(feedRepo, pipeline)
	var startPolling sync.Once

	ircBot.OnJoin(func() {
		if appCfg.WaitForFirstMsg {
			if err := activityRepo.ResetActivity(); err != nil {
				slog.Error("Failed to reset channel activity", "error", err)
			}
		}
		startPolling.Do(func() {
			poller.Start(ircBot.Announce)
		})
	})

	if err := ircBot.Run(ctx); err != nil {
		slog.Error("IRC bot stopped", "error", err)
	}

	slog.Info("Shutting down")
	poller.Stop()

	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return nil
}
