package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutline(t *testing.T) {
	content := `---
title: Travel Policy
tags: [finance, hr]
---
# Overview

Applies to all staff.

## Booking

### Flights
Economy only.

## Expenses
Keep receipts.
`
	o, err := ParseOutline(content)
	require.NoError(t, err)

	assert.Equal(t, "Travel Policy", o.Title)
	assert.Equal(t, "Travel Policy", o.FrontmatterString("title"))
	assert.Equal(t, []string{"finance", "hr"}, o.FrontmatterStrings("tags"))
	assert.True(t, strings.HasPrefix(o.Body, "# Overview"))

	require.Len(t, o.Sections, 4)
	tests := []struct {
		level   int
		heading string
		path    string
		content string
	}{
		{1, "Overview", "Overview", "Applies to all staff."},
		{2, "Booking", "Overview > Booking", ""},
		{3, "Flights", "Overview > Booking > Flights", "Economy only."},
		{2, "Expenses", "Overview > Expenses", "Keep receipts."},
	}
	for i, tt := range tests {
		s := o.Sections[i]
		assert.Equal(t, tt.level, s.Level, tt.heading)
		assert.Equal(t, tt.heading, s.Heading)
		assert.Equal(t, tt.path, s.Path)
		assert.Equal(t, tt.content, s.Content)
	}
	assert.Equal(t, 1, o.Sections[0].Start)
	assert.Equal(t, 4, o.Sections[0].End)
}

func TestParseOutlineTitleFromHeading(t *testing.T) {
	o, err := ParseOutline("intro text\n\n## Sub\n\n# Real Title\n")
	require.NoError(t, err)
	assert.Equal(t, "Real Title", o.Title)
	assert.Empty(t, o.Frontmatter)
}

func TestParseOutlineIgnoresHeadingsInCode(t *testing.T) {
	content := "# Script\n```bash\n# not a heading\necho hi\n```\n## After\n"
	o, err := ParseOutline(content)
	require.NoError(t, err)

	require.Len(t, o.Sections, 2)
	assert.Contains(t, o.Sections[0].Content, "# not a heading")
	assert.Equal(t, "After", o.Sections[1].Heading)
}

func TestParseOutlineBadFrontmatter(t *testing.T) {
	o, err := ParseOutline("---\n: [unclosed\n---\n# Title\n")
	require.NoError(t, err)
	assert.Empty(t, o.Frontmatter)
	assert.Equal(t, "Title", o.Title)
}

func TestParseOutlineClosingHashes(t *testing.T) {
	o, err := ParseOutline("## Setup ##\r\nbody\r\n")
	require.NoError(t, err)
	require.Len(t, o.Sections, 1)
	assert.Equal(t, "Setup", o.Sections[0].Heading)
	assert.Equal(t, "body", o.Sections[0].Content)
}

func TestOutlineWrite(t *testing.T) {
	o, err := ParseOutline("## A\n### B\n## C\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, o.Write(&buf))
	assert.Equal(t, "- A (line 1)\n  - B (line 2)\n- C (line 3)\n", buf.String())

	empty, err := ParseOutline("plain text only")
	require.NoError(t, err)
	buf.Reset()
	require.NoError(t, empty.Write(&buf))
	assert.Equal(t, "(no headings)\n", buf.String())
}
