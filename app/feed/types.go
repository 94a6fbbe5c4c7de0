package feed

import (
	"regexp"
	"time"
)

// Feed processing types

type Metadata struct {
	Title    string
	Link     string
	Language string
}

// RawItem is one entry as published by the feed, before any rewriting. It
// only lives for the duration of a poll cycle.
type RawItem struct {
	Title           string
	Link            string
	Published       string // raw published/pubDate value
	Updated         string // raw updated value
	PublishedParsed *time.Time
	UpdatedParsed   *time.Time
}

// Configuration types

type Config struct {
	Name     string          // Derived from filename (without .yml extension)
	URL      string          `yaml:"url"`
	Settings ConfigSettings  `yaml:"settings"`
	Filters  []ConfigFilter  `yaml:"filters"`
	Rewrites []ConfigRewrite `yaml:"rewrites"`
}

type ConfigSettings struct {
	Enabled          bool `yaml:"enabled"`
	Interval         int  `yaml:"interval"`          // minutes
	Timeout          int  `yaml:"timeout"`           // seconds, 0 uses the global fetch timeout
	ShortenThreshold int  `yaml:"shorten_threshold"` // 0 uses the global threshold
	ForceShorten     bool `yaml:"force_shorten"`
}

// ConfigFilter drops items from announcements. Field is "title" or "link".
type ConfigFilter struct {
	Field    string   `yaml:"field"`
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// ConfigRewrite replaces Search (a regular expression) with Replace in the
// announced title, url, or both ("*").
type ConfigRewrite struct {
	Field   string `yaml:"field"`
	Search  string `yaml:"search"`
	Replace string `yaml:"replace"`

	pattern *regexp.Regexp
}
