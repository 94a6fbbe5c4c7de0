package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lrstanley/girc"
	"golang.org/x/text/unicode/norm"
)

// MaxMessageLength is the IRC line limit without the trailing CRLF.
const MaxMessageLength = 510

// FormatAnnouncement renders "<feed> title | url" as a single IRC line.
func FormatAnnouncement(feedName, title, url string) string {
	return CleanMessage(fmt.Sprintf("<%s> %s | %s", feedName, title, url))
}

// CleanMessage NFC-normalizes msg, replaces line breaks with spaces and cuts
// it to MaxMessageLength bytes without splitting a rune.
func CleanMessage(msg string) string {
	msg = norm.NFC.String(msg)
	msg = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(msg)
	return truncate(msg, MaxMessageLength)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

type palette struct {
	enabled bool
}

func (p palette) paint(color, text string) string {
	if !p.enabled {
		return text
	}
	return girc.Fmt("{"+color+"}") + text + girc.Fmt("{r}")
}

func (p palette) number(text string) string { return p.paint("orange", text) }
func (p palette) url(text string) string    { return p.paint("blue", text) }
func (p palette) date(text string) string   { return p.paint("gray", text) }
func (p palette) alert(text string) string  { return p.paint("red", text) }
