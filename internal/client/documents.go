package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/raphaelgruber/kbchat/internal/metrics"
	"github.com/raphaelgruber/kbchat/internal/models"
)

// ListDocuments fetches every document visible to the user.
func (c *Client) ListDocuments(ctx context.Context, token string) ([]models.Document, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpListDocuments, http.MethodGet, "/users/documents/my-documents", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Document](raw)
}

// SearchDocuments posts the filter body to the search endpoint.
func (c *Client) SearchDocuments(ctx context.Context, token string, search models.DocumentSearch) ([]models.Document, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpSearchDocuments, http.MethodPost, "/users/documents/my-documents/search", token, search)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Document](raw)
}

// GetDocument fetches one document by id.
func (c *Client) GetDocument(ctx context.Context, token, id string) (*models.Document, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}
	if err := requireID("document", id); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpGetDocument, http.MethodGet, "/users/documents/my-documents/"+url.PathEscape(id), token, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Document](raw)
}

// ListModels fetches the selectable LLM backends.
func (c *Client) ListModels(ctx context.Context, token string) ([]models.LLMModel, error) {
	if err := requireToken(token); err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, metrics.OpListModels, http.MethodGet, "/llm-models", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.LLMModel](raw)
}
