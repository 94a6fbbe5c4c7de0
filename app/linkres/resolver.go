package linkres

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

type Shortener interface {
	Shorten(ctx context.Context, longURL string) (string, error)
}

// VersionRule appends a version suffix found in the title to links matching
// Link. Title must have one capture group holding the suffix, e.g. "v2".
type VersionRule struct {
	Link  *regexp.Regexp
	Title *regexp.Regexp
}

// ArxivRule turns https://arxiv.org/abs/2401.01234 into
// https://arxiv.org/abs/2401.01234v2 when the title mentions arXiv:2401.01234v2.
var ArxivRule = VersionRule{
	Link:  regexp.MustCompile(`^https?://(?:www\.)?arxiv\.org/abs/\d{4}\.\d{4,5}$`),
	Title: regexp.MustCompile(`arXiv:\d{4}\.\d{4,5}(v\d+)`),
}

type Options struct {
	Threshold int  // shorten links longer than this, 0 disables
	Force     bool // always shorten
}

// Result holds the link stored as the dedup key and the link announced.
type Result struct {
	Canonical string
	Display   string
}

type Resolver struct {
	shortener Shortener
	retry     Retry
	rules     []VersionRule
}

// NewResolver builds a resolver. A nil shortener disables shortening; with
// no rules given ArxivRule is used.
func NewResolver(shortener Shortener, retry Retry, rules ...VersionRule) *Resolver {
	if len(rules) == 0 {
		rules = []VersionRule{ArxivRule}
	}
	return &Resolver{
		shortener: shortener,
		retry:     retry,
		rules:     rules,
	}
}

func (r *Resolver) Resolve(ctx context.Context, title, link string, opts Options) Result {
	canonical := r.Canonical(title, link)
	result := Result{Canonical: canonical, Display: canonical}

	if r.shortener == nil || !shouldShorten(canonical, opts) {
		return result
	}

	var short string
	err := r.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		short, err = r.shortener.Shorten(ctx, canonical)
		return err
	})
	if err != nil {
		slog.Warn("Link shortening failed, using long link", "url", canonical, "error", err)
		return result
	}

	result.Display = secureScheme(short)
	return result
}

// Canonical applies the first matching version rule.
func (r *Resolver) Canonical(title, link string) string {
	for _, rule := range r.rules {
		if !rule.Link.MatchString(link) {
			continue
		}
		if m := rule.Title.FindStringSubmatch(title); len(m) > 1 {
			return link + m[1]
		}
	}
	return link
}

func shouldShorten(link string, opts Options) bool {
	if opts.Force {
		return true
	}
	return opts.Threshold > 0 && len(link) > opts.Threshold
}

func secureScheme(link string) string {
	if strings.HasPrefix(link, "http://") {
		return "https://" + strings.TrimPrefix(link, "http://")
	}
	return link
}
