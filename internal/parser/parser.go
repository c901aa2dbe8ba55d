package parser

import (
	"regexp"
	"strings"

	"github.com/dgallion1/reportdoc/internal/doctree"
	"github.com/dgallion1/reportdoc/internal/markup"
)

// Options controls how report text is split into sections and reassembled.
type Options struct {
	// TitlePattern matches the leading document title line, which is removed
	// before splitting. Nil disables title stripping.
	TitlePattern *regexp.Regexp
	// DocumentTitle, when set, is written by Serialize as a level-1 heading.
	DocumentTitle string
}

var defaultTitlePattern = regexp.MustCompile(`^\s*#\s+\S`)

// DefaultOptions strips a leading level-1 heading and writes no title.
func DefaultOptions() Options {
	return Options{TitlePattern: defaultTitlePattern}
}

// Parse splits report text into its ordered top-level sections.
//
// Divider lines are the preferred boundary. Without dividers the text is split
// before every level-2 heading instead. Each chunk contributes one section
// titled by its first level-2 heading; chunks without one are dropped and do
// not consume an index. Parse never fails: text that matches nothing yields
// an empty slice.
func Parse(text string, opts Options) []doctree.Section {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines = stripTitle(lines, opts.TitlePattern)

	var sections []doctree.Section
	seen := make(map[string]int)
	for _, chunk := range splitChunks(lines) {
		title, content, ok := parseChunk(chunk)
		if !ok {
			continue
		}
		key := titleKey(title)
		sections = append(sections, doctree.Section{
			ID:      sectionID(key, seen[key]),
			Index:   len(sections),
			Title:   title,
			Content: content,
		})
		seen[key]++
	}
	return sections
}

func stripTitle(lines []string, pattern *regexp.Regexp) []string {
	if pattern == nil {
		return lines
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if pattern.MatchString(line) {
			return lines[i+1:]
		}
		return lines
	}
	return lines
}

// splitChunks groups lines by divider, falling back to level-2 headings.
func splitChunks(lines []string) [][]string {
	hasDivider := false
	for _, line := range lines {
		if markup.IsDivider(line) {
			hasDivider = true
			break
		}
	}

	var chunks [][]string
	var current []string
	for _, line := range lines {
		switch {
		case hasDivider && markup.IsDivider(line):
			chunks = append(chunks, current)
			current = nil
			continue
		case !hasDivider && isSectionHeading(line):
			if len(current) > 0 {
				chunks = append(chunks, current)
			}
			current = nil
		}
		current = append(current, line)
	}
	return append(chunks, current)
}

// parseChunk extracts the title and body of one chunk. Lines before the
// level-2 heading (residual divider fragments, stray preamble) are dropped, as
// is a level-3+ heading on the line directly after the title.
func parseChunk(chunk []string) (title, content string, ok bool) {
	start := -1
	for i, line := range chunk {
		if text, level := markup.HeadingText(line); level == 2 && text != "" {
			title = text
			start = i
			break
		}
	}
	if start < 0 {
		return "", "", false
	}

	rest := chunk[start+1:]
	if len(rest) > 0 {
		if _, level := markup.HeadingText(rest[0]); level >= 3 {
			rest = rest[1:]
		}
	}
	return title, strings.TrimSpace(strings.Join(rest, "\n")), true
}

func isSectionHeading(line string) bool {
	_, level := markup.HeadingText(line)
	return level == 2
}
