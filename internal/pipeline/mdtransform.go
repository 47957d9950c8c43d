package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	// Line ending normalization
	crlfOrCR = regexp.MustCompile(`\r\n?`)

	// Top-level header: "# Name" (not "## Name")
	sectionHeader = regexp.MustCompile(`^#\s+(.+)$`)
)

const frontmatterDelim = "---"

// Section is one top-level "# Header" block of the document body.
type Section struct {
	Name string // lowercased header text
	Body string // trimmed text until the next top-level header
}

// Sections keeps sections in document order.
type Sections []Section

// Get returns the body of the section with the exact lowercase name.
func (s Sections) Get(name string) (string, bool) {
	for _, sec := range s {
		if sec.Name == name {
			return sec.Body, true
		}
	}
	return "", false
}

// Names returns section names in document order.
func (s Sections) Names() []string {
	names := make([]string, len(s))
	for i, sec := range s {
		names[i] = sec.Name
	}
	return names
}

// NormalizeLineEndings converts \r\n and \r to \n.
func NormalizeLineEndings(content string) string {
	return crlfOrCR.ReplaceAllString(content, "\n")
}

// ParseFrontmatter splits an optional leading "---" block into key/value
// pairs. Each line is split at its first colon, key and value trimmed;
// lines without a colon are ignored. Without a block the map is empty and
// body is content unchanged.
func ParseFrontmatter(content string) (map[string]string, string) {
	fm := make(map[string]string)

	first, rest, ok := strings.Cut(content, "\n")
	if !ok || strings.TrimRight(first, " \t") != frontmatterDelim {
		return fm, content
	}

	var block []string
	closed := false
	for {
		var line string
		line, rest, ok = strings.Cut(rest, "\n")
		if strings.TrimRight(line, " \t") == frontmatterDelim {
			closed = true
			break
		}
		block = append(block, line)
		if !ok {
			break
		}
	}
	if !closed {
		return fm, content
	}

	for _, line := range block {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fm[key] = strings.TrimSpace(value)
	}

	return fm, rest
}

// ParseSections splits body at top-level "# Header" lines. Text before the
// first header is discarded. A repeated header keeps its first position and
// takes the last body.
func ParseSections(body string) Sections {
	var (
		sections Sections
		current  = -1
		lines    []string
	)

	flush := func() {
		if current >= 0 {
			sections[current].Body = strings.TrimSpace(strings.Join(lines, "\n"))
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(body, "\n") {
		m := sectionHeader.FindStringSubmatch(line)
		if m == nil {
			lines = append(lines, line)
			continue
		}

		flush()
		name := strings.ToLower(strings.TrimSpace(m[1]))
		current = -1
		for i, sec := range sections {
			if sec.Name == name {
				current = i
				break
			}
		}
		if current < 0 {
			sections = append(sections, Section{Name: name})
			current = len(sections) - 1
		}
	}
	flush()

	return sections
}
