package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// Query sends a question to the knowledge base. The response list normally
// holds one element with the answer, the (possibly new) conversation id and
// the cited references. An empty list is a valid "nothing found" answer.
func (c *Client) Query(ctx context.Context, token string, req models.QueryRequest) ([]models.QueryResponse, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpQuery, http.MethodPost, "/admins/samples/documents/ai-search", token, req)
	if err != nil {
		return nil, err
	}
	return decodeList[models.QueryResponse](raw)
}

// GetConversation fetches one conversation with its history.
func (c *Client) GetConversation(ctx context.Context, token, id string) (*models.Conversation, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("conversation", id); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpGetConversation, http.MethodGet, "/kbs/conversations/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Conversation](raw)
}

// ListConversations fetches the signed-in user's conversations.
func (c *Client) ListConversations(ctx context.Context, token string) ([]models.Conversation, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpListConversations, http.MethodGet, "/kbs/conversations", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Conversation](raw)
}
