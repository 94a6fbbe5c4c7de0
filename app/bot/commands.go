package bot

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lysyi3m/feedbot/app/database"
)

// Commands answers the private-message queries. Every answer is a list of
// lines, each sent as its own message.
type Commands struct {
	feeds     database.FeedRepository
	items     database.ItemRepository
	limit     int
	orderDesc bool
	colors    palette
}

func NewCommands(feeds database.FeedRepository, items database.ItemRepository, limit int, orderDesc, useColors bool) *Commands {
	return &Commands{
		feeds:     feeds,
		items:     items,
		limit:     limit,
		orderDesc: orderDesc,
		colors:    palette{enabled: useColors},
	}
}

func (c *Commands) Handle(nick, msg string) []string {
	msg = strings.ToLower(strings.TrimSpace(msg))

	var (
		lines []string
		err   error
	)

	switch {
	case msg == "!help":
		lines = c.help(nick)
	case msg == "!list":
		lines, err = c.list()
	case msg == "!stats":
		lines, err = c.stats()
	case msg == "!last":
		lines, err = c.last()
	case strings.HasPrefix(msg, "!lastfeed"):
		lines, err = c.lastFeed(msg)
	default:
		lines = []string{"Use !help for possible commands."}
	}

	if err != nil {
		slog.Error("Command failed", "command", msg, "error", err)
		return []string{c.colors.alert("Error: ") + "could not answer " + msg + ", try again later."}
	}
	return lines
}

func (c *Commands) help(nick string) []string {
	return []string{
		"Help:",
		fmt.Sprintf("  Send all commands as a private message to %s", nick),
		"  - !help               Prints this help",
		"  - !list               Prints all feeds",
		"  - !stats              Prints some statistics",
		fmt.Sprintf("  - !last               Prints the last %d entries", c.limit),
		fmt.Sprintf("  - !lastfeed <feedid>  Prints the last %d entries from a specific feed", c.limit),
	}
}

func (c *Commands) list() ([]string, error) {
	feeds, err := c.feeds.ListFeeds()
	if err != nil {
		return nil, fmt.Errorf("failed to list feeds: %w", err)
	}
	if len(feeds) == 0 {
		return []string{"No feeds configured."}, nil
	}

	lines := make([]string, 0, len(feeds))
	for _, f := range feeds {
		lines = append(lines, fmt.Sprintf("#%s: %s, %s%s%s%s",
			c.colors.number(strconv.FormatInt(f.ID, 10)),
			f.Name,
			c.colors.url(f.URL),
			c.colors.date(", updated every "),
			c.colors.number(strconv.Itoa(f.IntervalMinutes)),
			c.colors.date(" min")))
	}
	return lines, nil
}

func (c *Commands) stats() ([]string, error) {
	feedCount, err := c.feeds.GetFeedCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count feeds: %w", err)
	}
	itemCount, err := c.items.GetItemCount()
	if err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	return []string{fmt.Sprintf("Feeds: %s, News: %s",
		c.colors.number(strconv.Itoa(feedCount)),
		c.colors.number(strconv.Itoa(itemCount)))}, nil
}

func (c *Commands) last() ([]string, error) {
	items, err := c.items.GetLatestItems(c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest items: %w", err)
	}
	return c.itemLines(items), nil
}

func (c *Commands) lastFeed(msg string) ([]string, error) {
	arg := strings.TrimSpace(strings.TrimPrefix(msg, "!lastfeed"))
	feedID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return []string{c.colors.alert("Wrong command: ") + msg + ", use: !lastfeed <feedid>"}, nil
	}

	items, err := c.items.GetItemsForFeed(feedID, c.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for feed %d: %w", feedID, err)
	}
	return c.itemLines(items), nil
}

// itemLines lists items oldest first unless newest-first order is configured.
func (c *Commands) itemLines(items []database.NewsItem) []string {
	if len(items) == 0 {
		return []string{"No news yet."}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, fmt.Sprintf("#%s: %s, %s, %s",
			c.colors.number(strconv.FormatInt(item.ID, 10)),
			item.Title,
			c.colors.url(item.URL),
			c.colors.date(item.Published)))
	}

	if !c.orderDesc {
		for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
			lines[i], lines[j] = lines[j], lines[i]
		}
	}
	return lines
}
