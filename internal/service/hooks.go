// Package service exposes the backend resources as cached, token-gated hooks
// and the imperative operations (knowledge-base query, login, signup, logout)
// the screens call.
package service

import (
	"context"
	"time"

	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/query"
)

// DefaultStaleTime is how long documents and models are served from cache.
const DefaultStaleTime = 5 * time.Minute

// Resource names used as cache key prefixes.
const (
	ResourceDocuments     = "documents"
	ResourceDocument      = "document"
	ResourceModels        = "llm-models"
	ResourceConversations = "conversations"
	ResourceConversation  = "conversation"
)

// API is the subset of the backend client the hooks need.
// *client.Client satisfies it.
type API interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResult, error)
	Query(ctx context.Context, token string, req models.QueryRequest) ([]models.QueryResponse, error)
	GetConversation(ctx context.Context, token, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, token string) ([]models.Conversation, error)
	ListDocuments(ctx context.Context, token string) ([]models.Document, error)
	SearchDocuments(ctx context.Context, token string, search models.DocumentSearch) ([]models.Document, error)
	GetDocument(ctx context.Context, token, id string) (*models.Document, error)
	ListModels(ctx context.Context, token string) ([]models.LLMModel, error)
}

// Hooks builds cached queries over the API.
type Hooks struct {
	api       API
	cache     *query.Client
	tokens    query.TokenSource
	staleTime time.Duration
}

// NewHooks creates hooks reading tokens from tokens. A non-positive staleTime
// selects DefaultStaleTime.
func NewHooks(api API, cache *query.Client, tokens query.TokenSource, staleTime time.Duration) *Hooks {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	return &Hooks{api: api, cache: cache, tokens: tokens, staleTime: staleTime}
}

// Cache returns the underlying query cache.
func (h *Hooks) Cache() *query.Client {
	return h.cache
}

// Documents lists the user's documents. An empty search uses the plain list
// endpoint; otherwise the search endpoint receives exactly search.
func (h *Hooks) Documents(search models.DocumentSearch) *query.Query[[]models.Document] {
	var params any
	if !search.Empty() {
		params = search
	}
	return query.NewQuery(h.cache, h.tokens, query.Key(ResourceDocuments, params), h.staleTime,
		func(ctx context.Context, token string) ([]models.Document, error) {
			if search.Empty() {
				return h.api.ListDocuments(ctx, token)
			}
			return h.api.SearchDocuments(ctx, token, search)
		})
}

// Document fetches one document.
func (h *Hooks) Document(id string) *query.Query[*models.Document] {
	return query.NewQuery(h.cache, h.tokens, query.Key(ResourceDocument, id), h.staleTime,
		func(ctx context.Context, token string) (*models.Document, error) {
			return h.api.GetDocument(ctx, token, id)
		})
}

// Models lists the selectable LLM backends.
func (h *Hooks) Models() *query.Query[[]models.LLMModel] {
	return query.NewQuery(h.cache, h.tokens, query.Key(ResourceModels, nil), h.staleTime,
		func(ctx context.Context, token string) ([]models.LLMModel, error) {
			return h.api.ListModels(ctx, token)
		})
}

// Conversations lists the user's conversations. The list changes with every
// query, so it is revalidated on each load.
func (h *Hooks) Conversations() *query.Query[[]models.Conversation] {
	return query.NewQuery(h.cache, h.tokens, query.Key(ResourceConversations, nil), 0,
		func(ctx context.Context, token string) ([]models.Conversation, error) {
			return h.api.ListConversations(ctx, token)
		})
}

// Conversation fetches one conversation with its history.
func (h *Hooks) Conversation(id string) *query.Query[*models.Conversation] {
	return query.NewQuery(h.cache, h.tokens, query.Key(ResourceConversation, id), 0,
		func(ctx context.Context, token string) (*models.Conversation, error) {
			return h.api.GetConversation(ctx, token, id)
		})
}
