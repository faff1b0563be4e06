package remote

import (
	"context"
	"net/http"

	"github.com/vedsharma/pingforge/internal/model"
)

type environmentBody struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Variables   []model.Variable `json:"variables"`
}

func toEnvironmentBody(env model.Environment) environmentBody {
	vars := env.Variables
	if vars == nil {
		vars = []model.Variable{}
	}
	return environmentBody{Name: env.Name, Description: env.Description, Variables: vars}
}

func (c *Client) ListEnvironments(ctx context.Context) ([]model.Environment, error) {
	var out []model.Environment
	if err := c.do(ctx, http.MethodGet, "/environments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEnvironment(ctx context.Context, env model.Environment) (*model.Environment, error) {
	var out model.Environment
	if err := c.do(ctx, http.MethodPost, "/environments", toEnvironmentBody(env), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEnvironment(ctx context.Context, id string, env model.Environment) (*model.Environment, error) {
	var out model.Environment
	if err := c.do(ctx, http.MethodPut, "/environments/"+escape(id), toEnvironmentBody(env), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEnvironment(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/environments/"+escape(id), nil, nil)
}

func (c *Client) ListCollections(ctx context.Context) ([]model.Collection, error) {
	var out []model.Collection
	if err := c.do(ctx, http.MethodGet, "/collections", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCollection(ctx context.Context, id string) (*model.Collection, error) {
	var out model.Collection
	if err := c.do(ctx, http.MethodGet, "/collections/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCollection creates an empty remote collection. Requests are added
// one at a time with AddCollectionRequest.
func (c *Client) CreateCollection(ctx context.Context, col model.Collection) (*model.Collection, error) {
	in := map[string]any{"name": col.Name}
	if col.Description != "" {
		in["description"] = col.Description
	}
	if col.EnvironmentID != "" {
		in["environment_id"] = col.EnvironmentID
	}
	var out model.Collection
	if err := c.do(ctx, http.MethodPost, "/collections", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCollectionRequest(ctx context.Context, collectionID string, req model.SavedRequest) (*model.SavedRequest, error) {
	var out model.SavedRequest
	if err := c.do(ctx, http.MethodPost, "/collections/"+escape(collectionID)+"/requests", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/collections/"+escape(id), nil, nil)
}
