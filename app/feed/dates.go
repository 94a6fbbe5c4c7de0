package feed

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/ncruces/go-strftime"
)

// NoDate is stored when an item carries no usable date.
const NoDate = "no date"

type DateFormatter struct {
	layout   string
	location *time.Location
}

// NewDateFormatter takes a strftime layout such as "%d.%m.%Y %H:%M". A nil
// location keeps whatever zone the feed used.
func NewDateFormatter(layout string, location *time.Location) *DateFormatter {
	return &DateFormatter{layout: layout, location: location}
}

// Format renders the item's published date, falling back to the updated
// date and finally to NoDate.
func (df *DateFormatter) Format(item RawItem) string {
	if t, ok := df.resolve(item.Published, item.PublishedParsed); ok {
		return df.format(t)
	}
	if t, ok := df.resolve(item.Updated, item.UpdatedParsed); ok {
		return df.format(t)
	}
	return NoDate
}

func (df *DateFormatter) resolve(raw string, parsed *time.Time) (time.Time, bool) {
	if raw != "" {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t, true
		}
	}
	if parsed != nil && !parsed.IsZero() {
		return *parsed, true
	}
	return time.Time{}, false
}

func (df *DateFormatter) format(t time.Time) string {
	if df.location != nil {
		t = t.In(df.location)
	}
	return strftime.Format(df.layout, t)
}
