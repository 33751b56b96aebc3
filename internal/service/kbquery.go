package service

import (
	"context"
	"strings"
	"sync"

	"github.com/raphaelgruber/kbchat/internal/client"
	"github.com/raphaelgruber/kbchat/internal/models"
	"github.com/raphaelgruber/kbchat/internal/query"
)

// ErrEmptyQuery is returned for blank query text; nothing is sent.
var ErrEmptyQuery = &client.Error{Message: "Query cannot be empty"}

// KBState is the observable state of the last knowledge-base query.
type KBState struct {
	Data      []models.QueryResponse
	IsLoading bool
	Err       string
	IsSuccess bool
}

// KBQuery sends questions to the knowledge base.
type KBQuery struct {
	api    API
	tokens query.TokenSource
	cache  *query.Client

	mu    sync.Mutex
	state KBState
}

// NewKBQuery creates a KBQuery. cache may be nil; when set, conversation
// entries are invalidated after every successful query.
func NewKBQuery(api API, tokens query.TokenSource, cache *query.Client) *KBQuery {
	return &KBQuery{api: api, tokens: tokens, cache: cache}
}

// Query asks text in conversationID (empty starts a new conversation) using
// modelID. An empty result list is a valid answer.
func (k *KBQuery) Query(ctx context.Context, conversationID, text, modelID string) ([]models.QueryResponse, error) {
	if strings.TrimSpace(text) == "" {
		k.fail(ErrEmptyQuery)
		return nil, ErrEmptyQuery
	}

	token := k.tokens.Token()
	if token == "" {
		k.fail(client.ErrNoToken)
		return nil, client.ErrNoToken
	}

	k.mu.Lock()
	k.state.IsLoading = true
	k.state.Err = ""
	k.state.IsSuccess = false
	k.mu.Unlock()

	resp, err := k.api.Query(ctx, token, models.QueryRequest{
		ConversationID: conversationID,
		Query:          text,
		Model:          modelID,
	})
	if err != nil {
		k.fail(err)
		return nil, err
	}

	k.mu.Lock()
	k.state = KBState{Data: resp, IsSuccess: true}
	k.mu.Unlock()

	if k.cache != nil {
		k.cache.Invalidate(ResourceConversations)
		k.cache.Invalidate(ResourceConversation)
	}
	return resp, nil
}

// State returns the current query state.
func (k *KBQuery) State() KBState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.state
}

// Reset clears data and error.
func (k *KBQuery) Reset() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state = KBState{}
}

func (k *KBQuery) fail(err error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.state.IsLoading = false
	k.state.IsSuccess = false
	k.state.Err = err.Error()
}
