package tasks

import "log/slog"

// LogNotifier records new items in the log instead of announcing them. It is
// used for the warm-up poll before the bot connects.
func LogNotifier(feedName, title, url, date string) {
	slog.Info("New item recorded", "feed", feedName, "title", title, "url", url, "date", date)
}
