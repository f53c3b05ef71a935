package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/faceofmind/admin-sync/internal/model"
)

// ListUsers returns one page of users. Zero page and page size use
// model.DefaultPage and model.DefaultPageSize.
func (c *Client) ListUsers(ctx context.Context, filter model.UserFilter) (*model.UserPage, error) {
	filter = filter.WithDefaults()

	query := url.Values{}
	query.Set("page", strconv.Itoa(filter.Page))
	query.Set("page_size", strconv.Itoa(filter.PageSize))
	if filter.Query != "" {
		query.Set("query", filter.Query)
	}
	if filter.Role != "" {
		query.Set("role", filter.Role)
	}
	if filter.Status != "" {
		query.Set("status", string(filter.Status))
	}

	var page model.UserPage
	if err := c.get(ctx, "/users", query, &page); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &page, nil
}

// UpdateUserStatus sets the status of user id. Backend rejections come back
// as *APIError; use UserMessage to show them.
func (c *Client) UpdateUserStatus(ctx context.Context, id int64, status model.UserStatus) (*StatusUpdateResponse, error) {
	if _, err := model.ParseUserStatus(string(status)); err != nil {
		return nil, err
	}

	var resp StatusUpdateResponse
	req := StatusUpdateRequest{ID: id, Status: status}
	if err := c.send(ctx, http.MethodPatch, "/users/status", req, &resp); err != nil {
		return nil, fmt.Errorf("update user %d status: %w", id, err)
	}

	return &resp, nil
}
