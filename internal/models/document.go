package models

import "time"

// DocumentPolicy lists the access tags allowed to see a document.
type DocumentPolicy struct {
	AllowAnyOfString []string `json:"allow_any_of_string,omitempty"`
}

// Document is an entry of the user's document library.
type Document struct {
	Identity
	Heading     string          `json:"heading"`
	SubHeading  string          `json:"subHeading,omitempty"`
	Description string          `json:"description,omitempty"`
	Content     string          `json:"content,omitempty"`
	Path        string          `json:"path,omitempty"`
	IsChunked   bool            `json:"isChunked"`
	Policy      *DocumentPolicy `json:"policy,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Tags returns the policy tags, or nil when the document has no policy.
func (d Document) Tags() []string {
	if d.Policy == nil {
		return nil
	}
	return d.Policy.AllowAnyOfString
}

// DocumentSearch is the filter body for the document search endpoint.
type DocumentSearch struct {
	Tags   []string `json:"tags,omitempty"`
	Search string   `json:"search,omitempty"`
}

// Empty reports whether the search carries no filter, in which case the plain
// list endpoint is used instead.
func (s DocumentSearch) Empty() bool {
	return len(s.Tags) == 0 && s.Search == ""
}
