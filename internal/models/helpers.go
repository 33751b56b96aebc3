// Package models defines the value objects exchanged with the knowledge-base backend.
package models

import (
	"strings"
	"time"
)

// Identity carries the two identifier fields the backend emits for stored
// records. Either may be missing depending on the endpoint.
type Identity struct {
	ObjectID string `json:"_id,omitempty"`
	ID       string `json:"id,omitempty"`
}

// Key returns the record identifier, preferring "id" over "_id".
func (i Identity) Key() string {
	if i.ID != "" {
		return i.ID
	}
	return i.ObjectID
}

// DateLayout is the layout used when listing documents and conversations.
const DateLayout = "Jan 2, 2006"

// FormatDate renders a timestamp for listings. Zero times render as "-".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(DateLayout)
}

// Truncate shortens s to maxLen runes, adding "..." if truncated.
func Truncate(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
