package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reference points at a backend-held document cited by an assistant reply.
// URL is only set for directly downloadable artifacts.
type Reference struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Message is a single turn in a conversation history.
type Message struct {
	Identity
	Role       string      `json:"role"`
	Content    string      `json:"content"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt,omitempty"`
	References []Reference `json:"references,omitempty"`
}

// Conversation is a persisted chat session. History is chronological.
type Conversation struct {
	Identity
	UserID    string    `json:"user"`
	History   []Message `json:"history"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Title returns a short label for listings: the first user message.
func (c Conversation) Title() string {
	for _, m := range c.History {
		if m.Role == RoleUser && m.Content != "" {
			return Truncate(m.Content, 60)
		}
	}
	return "(empty conversation)"
}

// QueryRequest is the body posted to the KB query endpoint.
type QueryRequest struct {
	ConversationID string `json:"conversationId,omitempty"`
	Query          string `json:"query"`
	Model          string `json:"model"`
}

// QueryResponse is one element of the KB query response data.
type QueryResponse struct {
	ConversationID string      `json:"conversationId"`
	Query          string      `json:"query"`
	Response       string      `json:"response"`
	References     []Reference `json:"references"`
}
