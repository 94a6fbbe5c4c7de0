package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"./feeds.db" description:"SQLite database file"`
	FeedsDir string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	SeedFile string `long:"seed-file" env:"SEED_FILE" default:"./feeds.sql" description:"SQL script with initial feed rows, applied on first run"`

	// IRC configuration
	IRCHost          string `long:"irc-host" env:"IRC_HOST" description:"IRC server host (required)"`
	IRCPort          int    `long:"irc-port" env:"IRC_PORT" default:"6697" description:"IRC server port"`
	IRCPassword      string `long:"irc-password" env:"IRC_PASSWORD" description:"IRC server password"`
	IRCSSL           bool   `long:"irc-ssl" env:"IRC_SSL" description:"Connect using TLS"`
	IRCChannel       string `long:"irc-channel" env:"IRC_CHANNEL" description:"Channel to announce news in (required)"`
	IRCNick          string `long:"irc-nick" env:"IRC_NICK" description:"Bot nickname (required)"`
	NickServPassword string `long:"nickserv-password" env:"NICKSERV_PASSWORD" description:"NickServ password used to identify"`
	IgnorePrivmsg    bool   `long:"ignore-privmsg" env:"IGNORE_PRIVMSG" description:"Do not answer commands sent as private messages"`
	PublicHelp       bool   `long:"public-help" env:"PUBLIC_HELP" description:"Answer !help written in the channel"`

	// Announcement configuration
	IdleMinutes         int    `long:"idle-minutes" env:"IDLE_MINUTES" default:"10" description:"Minutes of channel silence required before announcing"`
	WaitForFirstMsg     bool   `long:"wait-for-first-msg" env:"WAIT_FOR_FIRST_MSG" description:"Do not announce until someone has spoken in the channel after connecting"`
	DateFormat          string `long:"date-format" env:"DATE_FORMAT" default:"%d.%m.%Y %H:%M" description:"strftime format for item dates"`
	FeedLimit           int    `long:"feed-limit" env:"FEED_LIMIT" default:"10" description:"Number of items returned by query commands"`
	FeedOrderDesc       bool   `long:"feed-order-desc" env:"FEED_ORDER_DESC" description:"List newest items first in query answers"`
	UseColors           bool   `long:"use-colors" env:"USE_COLORS" description:"Use IRC colours in query answers"`
	UpdateBeforeConnect bool   `long:"update-before-connect" env:"UPDATE_BEFORE_CONNECT" description:"Record all current feed items once before connecting, without announcing them"`

	// Link shortening configuration
	ShortenThreshold int    `long:"shorten-threshold" env:"SHORTEN_THRESHOLD" default:"0" description:"Shorten links longer than this many characters (0 disables)"`
	ShortenerURL     string `long:"shortener-url" env:"SHORTENER_URL" default:"https://api-ssl.bitly.com/v3/shorten" description:"Link shortening API endpoint"`
	ShortenerKey     string `long:"shortener-key" env:"SHORTENER_KEY" description:"Link shortening API access token"`

	// HTTP configuration
	FetchTimeout int    `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"30" description:"Feed fetch timeout in seconds"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"feedbot/1.0" description:"User agent string for HTTP requests"`
	APIPort      string `long:"api-port" env:"API_PORT" description:"Port for the read-only HTTP API (disabled when empty)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Application metadata
	LogFile  string `long:"log-file" env:"LOG_FILE" description:"Write logs to this file as well, with rotation"`
	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Berlin)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load reads configuration from .env, the environment and os.Args.
func Load() (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	return LoadArgs(os.Args[1:])
}

// LoadArgs parses the given arguments together with the environment.
// It returns nil, nil when help was requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		FeedsDir:            raw.FeedsDir,
		SeedFile:            raw.SeedFile,
		IRCHost:             raw.IRCHost,
		IRCPort:             raw.IRCPort,
		IRCPassword:         raw.IRCPassword,
		IRCSSL:              raw.IRCSSL,
		IRCChannel:          raw.IRCChannel,
		IRCNick:             raw.IRCNick,
		NickServPassword:    raw.NickServPassword,
		IgnorePrivmsg:       raw.IgnorePrivmsg,
		PublicHelp:          raw.PublicHelp,
		IdleMinutes:         raw.IdleMinutes,
		WaitForFirstMsg:     raw.WaitForFirstMsg,
		DateFormat:          raw.DateFormat,
		FeedLimit:           raw.FeedLimit,
		FeedOrderDesc:       raw.FeedOrderDesc,
		UseColors:           raw.UseColors,
		UpdateBeforeConnect: raw.UpdateBeforeConnect,
		ShortenThreshold:    raw.ShortenThreshold,
		ShortenerURL:        raw.ShortenerURL,
		ShortenerKey:        raw.ShortenerKey,
		FetchTimeout:        raw.FetchTimeout,
		UserAgent:           raw.UserAgent,
		APIPort:             raw.APIPort,
		APIAccessKey:        raw.APIAccessKey,
		LogFile:             raw.LogFile,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Validate reports every problem at once so a misconfigured deployment can be
// fixed in a single pass.
func (c *Cfg) Validate() error {
	var errs []error

	required := []struct {
		name  string
		value string
	}{
		{"irc-host", c.IRCHost},
		{"irc-channel", c.IRCChannel},
		{"irc-nick", c.IRCNick},
		{"db-path", c.DBPath},
		{"date-format", c.DateFormat},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is required", r.name))
		}
	}

	if c.IRCChannel != "" && !strings.HasPrefix(c.IRCChannel, "#") && !strings.HasPrefix(c.IRCChannel, "&") {
		errs = append(errs, fmt.Errorf("irc-channel must start with '#' or '&': %s", c.IRCChannel))
	}
	if c.IRCPort <= 0 || c.IRCPort > 65535 {
		errs = append(errs, fmt.Errorf("irc-port out of range: %d", c.IRCPort))
	}
	if c.IdleMinutes < 0 {
		errs = append(errs, fmt.Errorf("idle-minutes must be non-negative"))
	}
	if c.FeedLimit < 1 {
		errs = append(errs, fmt.Errorf("feed-limit must be at least 1"))
	}
	if c.FetchTimeout < 1 {
		errs = append(errs, fmt.Errorf("fetch-timeout must be at least 1 second"))
	}
	if c.ShortenThreshold < 0 {
		errs = append(errs, fmt.Errorf("shorten-threshold must be non-negative"))
	}
	if c.ShortenThreshold > 0 && c.ShortenerKey == "" {
		errs = append(errs, fmt.Errorf("shortener-key is required when shorten-threshold is set"))
	}

	return errors.Join(errs...)
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
