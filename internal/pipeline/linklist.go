package pipeline

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// [title](http(s)://url) at the start of a line; title may be empty
	markdownLink = regexp.MustCompile(`^\[([^\]]*)\]\((https?://[^)\s]+)\)`)

	// Hyphen variants, en/em dash, minus and colon, padded by whitespace or NBSP
	leadingSeparator = regexp.MustCompile(`^[\s\x{00A0}]*[-–—:‑‒−‐][\s\x{00A0}]*`)
)

// LinkItem is one entry of a preview-card section. Title and Description
// are empty unless the source line supplied them.
type LinkItem struct {
	URL         string
	Title       string
	Description string
}

// ReadingItem is one entry of the reading list. Title defaults to the URL.
type ReadingItem struct {
	Title       string
	URL         string
	Description string
}

// ParseLinkList parses card lines of the forms:
//
//	https://example.com
//	https://example.com - Custom description
//	[Custom Title](https://example.com)
//	[Custom Title](https://example.com) - Custom description
//
// An optional leading bullet (-, *, +) is accepted. Other lines are dropped.
func ParseLinkList(content string) []LinkItem {
	var items []LinkItem
	for _, line := range strings.Split(content, "\n") {
		item, ok := parseListLine(line)
		if ok {
			items = append(items, item)
		}
	}
	return items
}

// ParseReadingList parses the same grammar as ParseLinkList, defaulting the
// title to the URL.
func ParseReadingList(content string) []ReadingItem {
	var items []ReadingItem
	for _, line := range strings.Split(content, "\n") {
		item, ok := parseListLine(line)
		if !ok {
			continue
		}
		title := item.Title
		if title == "" {
			title = item.URL
		}
		items = append(items, ReadingItem{Title: title, URL: item.URL, Description: item.Description})
	}
	return items
}

func parseListLine(line string) (LinkItem, bool) {
	line = stripBullet(strings.TrimSpace(line))
	if line == "" {
		return LinkItem{}, false
	}

	if m := markdownLink.FindStringSubmatchIndex(line); m != nil {
		return LinkItem{
			URL:         line[m[4]:m[5]],
			Title:       strings.TrimSpace(line[m[2]:m[3]]),
			Description: stripLeadingSeparator(line[m[1]:]),
		}, true
	}

	if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
		url, rest := line, ""
		if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
			url, rest = line[:i], line[i:]
		}
		return LinkItem{URL: url, Description: stripLeadingSeparator(rest)}, true
	}

	return LinkItem{}, false
}

// stripBullet removes one leading list marker.
func stripBullet(line string) string {
	for _, bullet := range []string{"- ", "* ", "+ ", "-\t", "*\t", "+\t"} {
		if strings.HasPrefix(line, bullet) {
			return strings.TrimSpace(line[len(bullet):])
		}
	}
	// "-https://..." with no space is still a bullet
	if len(line) > 1 && (line[0] == '-' || line[0] == '*' || line[0] == '+') && (line[1] == '[' || line[1] == 'h') {
		return strings.TrimSpace(line[1:])
	}
	return line
}

// stripLeadingSeparator consumes only the first separator, so "- AI - ML"
// yields "AI - ML".
func stripLeadingSeparator(text string) string {
	return strings.TrimSpace(leadingSeparator.ReplaceAllString(text, ""))
}
