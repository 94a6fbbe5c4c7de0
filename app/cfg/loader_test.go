package cfg

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestLoadArgsDefaults(t *testing.T) {
	cfg, err := LoadArgs([]string{"--irc-host", "irc.example.net", "--irc-channel", "#news", "--irc-nick", "feedbot"})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.DBPath != "./feeds.db" {
		t.Errorf("Expected default db path './feeds.db', got '%s'", cfg.DBPath)
	}
	if cfg.IRCPort != 6697 {
		t.Errorf("Expected default port 6697, got %d", cfg.IRCPort)
	}
	if cfg.IdleMinutes != 10 {
		t.Errorf("Expected default idle minutes 10, got %d", cfg.IdleMinutes)
	}
	if cfg.FeedLimit != 10 {
		t.Errorf("Expected default feed limit 10, got %d", cfg.FeedLimit)
	}
	if cfg.DateFormat != "%d.%m.%Y %H:%M" {
		t.Errorf("Expected default date format, got '%s'", cfg.DateFormat)
	}
	if cfg.ShortenThreshold != 0 {
		t.Errorf("Expected shortening disabled by default, got %d", cfg.ShortenThreshold)
	}
	if cfg.WaitForFirstMsg {
		t.Error("Expected wait-for-first-msg to be off by default")
	}
	if Get() != cfg {
		t.Error("Expected Get to return the loaded configuration")
	}
}

func TestLoadArgsFromEnvironment(t *testing.T) {
	t.Setenv("IRC_HOST", "irc.libera.chat")
	t.Setenv("IRC_CHANNEL", "#feeds")
	t.Setenv("IRC_NICK", "herald")
	t.Setenv("IDLE_MINUTES", "3")
	t.Setenv("WAIT_FOR_FIRST_MSG", "true")

	cfg, err := LoadArgs(nil)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.IRCHost != "irc.libera.chat" {
		t.Errorf("Expected host from env, got '%s'", cfg.IRCHost)
	}
	if cfg.IdleMinutes != 3 {
		t.Errorf("Expected idle minutes 3, got %d", cfg.IdleMinutes)
	}
	if !cfg.WaitForFirstMsg {
		t.Error("Expected wait-for-first-msg from env")
	}
}

func TestLoadArgsReportsAllMissingOptions(t *testing.T) {
	_, err := LoadArgs(nil)
	if err == nil {
		t.Fatal("Expected error for missing required options")
	}

	for _, name := range []string{"irc-host", "irc-channel", "irc-nick"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("Expected error to mention %s, got: %v", name, err)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Cfg {
		return &Cfg{
			DBPath:       "./feeds.db",
			IRCHost:      "irc.example.net",
			IRCPort:      6697,
			IRCChannel:   "#news",
			IRCNick:      "feedbot",
			DateFormat:   "%Y-%m-%d",
			FeedLimit:    10,
			FetchTimeout: 30,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Cfg)
		wantErr string
	}{
		{"valid", func(c *Cfg) {}, ""},
		{"bad channel", func(c *Cfg) { c.IRCChannel = "news" }, "irc-channel must start"},
		{"bad port", func(c *Cfg) { c.IRCPort = 70000 }, "irc-port out of range"},
		{"negative idle", func(c *Cfg) { c.IdleMinutes = -1 }, "idle-minutes"},
		{"zero limit", func(c *Cfg) { c.FeedLimit = 0 }, "feed-limit"},
		{"shortener without key", func(c *Cfg) { c.ShortenThreshold = 40 }, "shortener-key"},
		{"shortener with key", func(c *Cfg) { c.ShortenThreshold = 40; c.ShortenerKey = "k" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing '%s', got: %v", tt.wantErr, err)
			}
		})
	}
}
