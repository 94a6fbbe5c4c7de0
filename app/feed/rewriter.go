package feed

import "strings"

type Rewriter struct{}

func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// Run applies the feed's rewrites to the announced title and url, then
// collapses line breaks and runs of whitespace in the title.
func (r *Rewriter) Run(title, url string, feedConfig *Config) (string, string) {
	if feedConfig != nil {
		for _, rewrite := range feedConfig.Rewrites {
			if rewrite.pattern == nil {
				continue
			}
			if rewrite.Field == "title" || rewrite.Field == "*" {
				title = rewrite.pattern.ReplaceAllString(title, rewrite.Replace)
			}
			if rewrite.Field == "url" || rewrite.Field == "*" {
				url = rewrite.pattern.ReplaceAllString(url, rewrite.Replace)
			}
		}
	}

	return CollapseWhitespace(title), strings.TrimSpace(url)
}

// CollapseWhitespace joins all lines of s with single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
