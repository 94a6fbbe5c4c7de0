package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/girc"

	"github.com/lysyi3m/feedbot/app/database"
	"github.com/lysyi3m/feedbot/app/linkres"
)

const (
	FloodDelay     = 2 * time.Second
	reconnectDelay = 30 * time.Second
)

type Config struct {
	Host             string
	Port             int
	Password         string
	SSL              bool
	Channel          string
	Nick             string
	NickServPassword string
	ListenPrivmsg    bool
	PublicHelp       bool
	Version          string
}

type Bot struct {
	cfg      Config
	client   *girc.Client
	commands *Commands
	activity database.ActivityRepository

	send       func(target, msg string)
	nick       func() string
	sleep      func(ctx context.Context, d time.Duration) error
	floodDelay time.Duration
	// maxEventLength bounds a whole outgoing line; longer PRIVMSGs get split.
	maxEventLength func() int

	mu        sync.Mutex // serializes outgoing announcements
	onJoinFns []func()
}

func New(cfg Config, commands *Commands, activity database.ActivityRepository) *Bot {
	client := girc.New(girc.Config{
		Server:     cfg.Host,
		Port:       cfg.Port,
		Nick:       cfg.Nick,
		User:       cfg.Nick,
		Name:       cfg.Nick,
		ServerPass: cfg.Password,
		SSL:        cfg.SSL,
		Version:    cfg.Version,
		HandleNickCollide: func(oldNick string) string {
			slog.Warn("Nick in use", "nick", oldNick)
			return oldNick + "_"
		},
	})

	b := newBot(cfg, commands, activity, func(target, msg string) {
		client.Cmd.Message(target, msg)
	})
	b.client = client
	b.nick = client.GetNick
	b.maxEventLength = client.MaxEventLength

	client.Handlers.Add(girc.CONNECTED, b.onConnected)
	client.Handlers.Add(girc.JOIN, b.onJoin)
	client.Handlers.Add(girc.PRIVMSG, b.onPrivmsg)

	return b
}

func newBot(cfg Config, commands *Commands, activity database.ActivityRepository, send func(target, msg string)) *Bot {
	return &Bot{
		cfg:            cfg,
		commands:       commands,
		activity:       activity,
		send:           send,
		nick:           func() string { return cfg.Nick },
		sleep:          linkres.SleepContext,
		floodDelay:     FloodDelay,
		maxEventLength: func() int { return MaxMessageLength },
	}
}

// OnJoin registers fn to run every time the bot itself joins its channel,
// including after a reconnect.
func (b *Bot) OnJoin(fn func()) {
	b.onJoinFns = append(b.onJoinFns, fn)
}

// Run connects and keeps reconnecting until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		b.client.Close()
	}()

	for {
		slog.Info("Connecting to IRC", "host", b.cfg.Host, "port", b.cfg.Port, "ssl", b.cfg.SSL)
		err := b.client.Connect()
		if ctx.Err() != nil {
			return nil
		}

		slog.Error("IRC connection lost", "error", err, "retry_in", reconnectDelay)
		if err := b.sleep(ctx, reconnectDelay); err != nil {
			return nil
		}
	}
}

// Announce posts one item to the channel and then waits out the flood
// delay, so consecutive announcements are spaced.
func (b *Bot) Announce(feedName, title, url, date string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Failed to announce item", "feed", feedName, "title", title, "panic", fmt.Sprint(r))
		}
	}()

	b.mu.Lock()
	defer b.mu.Unlock()

	msg := b.fit(b.cfg.Channel, FormatAnnouncement(feedName, title, url))
	slog.Debug("Announcing item", "feed", feedName, "date", date, "message", msg)
	b.send(b.cfg.Channel, msg)
	_ = b.sleep(context.Background(), b.floodDelay)
}

func (b *Bot) onConnected(c *girc.Client, e girc.Event) {
	slog.Info("Connected to IRC", "host", b.cfg.Host, "nick", c.GetNick())

	if b.cfg.NickServPassword != "" {
		c.Cmd.Message("NickServ", fmt.Sprintf("IDENTIFY %s %s", b.cfg.Nick, b.cfg.NickServPassword))
	}
	c.Cmd.Join(b.cfg.Channel)
}

func (b *Bot) onJoin(c *girc.Client, e girc.Event) {
	if e.Source == nil || len(e.Params) == 0 {
		return
	}
	if e.Source.Name != c.GetNick() || !strings.EqualFold(e.Params[0], b.cfg.Channel) {
		return
	}

	slog.Info("Joined channel", "channel", b.cfg.Channel)
	for _, fn := range b.onJoinFns {
		fn()
	}
}

func (b *Bot) onPrivmsg(c *girc.Client, e girc.Event) {
	if e.Source == nil || len(e.Params) == 0 {
		return
	}
	b.handleMessage(e.Source.Name, e.Params[0], e.Last())
}

// handleMessage records channel activity and answers commands. Answers
// always go to the sender privately.
func (b *Bot) handleMessage(from, target, text string) {
	if strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&") {
		if !strings.EqualFold(target, b.cfg.Channel) {
			return
		}
		if err := b.activity.RecordChannelActivity(b.cfg.Channel); err != nil {
			slog.Error("Failed to record channel activity", "channel", b.cfg.Channel, "error", err)
		}
		if b.cfg.PublicHelp && strings.ToLower(strings.TrimSpace(text)) == "!help" {
			b.reply(from, b.commands.Handle(b.nick(), text))
		}
		return
	}

	if !b.cfg.ListenPrivmsg {
		return
	}
	b.reply(from, b.commands.Handle(b.nick(), text))
}

func (b *Bot) reply(target string, lines []string) {
	for i, line := range lines {
		if i > 0 {
			_ = b.sleep(context.Background(), b.floodDelay/4)
		}
		b.send(target, b.fit(target, CleanMessage(line)))
	}
}

// fit cuts msg so "PRIVMSG <target> :<msg>" goes out as a single line.
func (b *Bot) fit(target, msg string) string {
	return truncate(msg, b.maxEventLength()-len("PRIVMSG "+target+" :"))
}
