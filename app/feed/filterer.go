package feed

import (
	"fmt"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run reports whether item should be kept out of announcements and why.
// A nil config or one without filters never filters anything.
func (f *Filterer) Run(item RawItem, feedConfig *Config) (bool, string) {
	if feedConfig == nil || len(feedConfig.Filters) == 0 {
		return false, ""
	}
	return f.applyFilters(item, feedConfig.Filters)
}

func (f *Filterer) applyFilters(item RawItem, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := f.getFieldValue(item, filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}

func (f *Filterer) getFieldValue(item RawItem, field string) string {
	switch field {
	case "title":
		return item.Title
	case "link":
		return item.Link
	default:
		return ""
	}
}
