// Package parser builds a heading outline of document content for reading in
// the terminal.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+(.+?)(?:\s+#+)?\s*$`)
	fenceRegex   = regexp.MustCompile("^\\s*(```|~~~)")
)

// maxLineSize bounds a single line of document content.
const maxLineSize = 1024 * 1024

// Outline is the structure of one document's Markdown content.
type Outline struct {
	// Frontmatter metadata (from YAML)
	Frontmatter map[string]any

	// Title from frontmatter or the first h1
	Title string

	// Body is the content after frontmatter
	Body string

	Sections []Section
}

// Section is a heading and the text under it.
type Section struct {
	Level   int    // 1-6 for h1-h6
	Heading string // The heading text
	Path    string // Full path like "Setup > Install"
	Content string // Text under this heading, up to the next heading
	Start   int    // Line number of the heading
	End     int    // Last line of the section
}

// ParseOutline parses Markdown content. Malformed frontmatter is ignored.
func ParseOutline(content string) (*Outline, error) {
	o := &Outline{Frontmatter: make(map[string]any)}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	body := content
	if strings.HasPrefix(content, "---\n") {
		if end := strings.Index(content[4:], "\n---"); end >= 0 {
			if err := yaml.Unmarshal([]byte(content[4:4+end]), &o.Frontmatter); err != nil {
				o.Frontmatter = make(map[string]any)
			}
			body = strings.TrimPrefix(content[4+end+4:], "\n")
		}
	}
	o.Body = body

	sections, err := parseSections(body)
	if err != nil {
		return nil, fmt.Errorf("parse sections: %w", err)
	}
	o.Sections = sections
	o.Title = o.title()
	return o, nil
}

func (o *Outline) title() string {
	for _, key := range []string{"title", "name"} {
		if s, ok := o.Frontmatter[key].(string); ok && s != "" {
			return s
		}
	}
	for _, s := range o.Sections {
		if s.Level == 1 {
			return s.Heading
		}
	}
	return ""
}

// FrontmatterString returns a string frontmatter value.
func (o *Outline) FrontmatterString(key string) string {
	if v, ok := o.Frontmatter[key].(string); ok {
		return v
	}
	return ""
}

// FrontmatterStrings returns a list frontmatter value, keeping only strings.
func (o *Outline) FrontmatterStrings(key string) []string {
	switch v := o.Frontmatter[key].(type) {
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case []string:
		return v
	}
	return nil
}

// parseSections splits content at headings. Headings inside fenced code
// blocks are ignored.
func parseSections(content string) ([]Section, error) {
	var sections []Section

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNum := 0
	inFence := false
	var path []string
	var levels []int

	var current *Section
	var text strings.Builder

	flush := func(endLine int) {
		if current != nil {
			current.Content = strings.TrimSpace(text.String())
			current.End = endLine
			sections = append(sections, *current)
			text.Reset()
		}
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if fenceRegex.MatchString(line) {
			inFence = !inFence
		}

		match := headingRegex.FindStringSubmatch(line)
		if inFence || match == nil {
			if current != nil {
				text.WriteString(line)
				text.WriteString("\n")
			}
			continue
		}

		flush(lineNum - 1)

		level := len(match[1])
		heading := strings.TrimSpace(match[2])
		for len(levels) > 0 && levels[len(levels)-1] >= level {
			path = path[:len(path)-1]
			levels = levels[:len(levels)-1]
		}
		path = append(path, heading)
		levels = append(levels, level)

		current = &Section{
			Level:   level,
			Heading: heading,
			Path:    strings.Join(path, " > "),
			Start:   lineNum,
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush(lineNum)

	return sections, nil
}

// Write prints the outline as an indented heading tree. Top-level headings
// are not indented regardless of their level.
func (o *Outline) Write(w io.Writer) error {
	if len(o.Sections) == 0 {
		_, err := fmt.Fprintln(w, "(no headings)")
		return err
	}

	minLevel := 6
	for _, s := range o.Sections {
		minLevel = min(minLevel, s.Level)
	}
	for _, s := range o.Sections {
		indent := strings.Repeat("  ", s.Level-minLevel)
		if _, err := fmt.Fprintf(w, "%s- %s (line %d)\n", indent, s.Heading, s.Start); err != nil {
			return err
		}
	}
	return nil
}
