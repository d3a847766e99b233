package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// PostsPath is the collection endpoint for posts.
const PostsPath = "/api/v1/posts"

// PostPath returns the API path of a single post.
func PostPath(id string) string {
	return PostsPath + "/" + url.PathEscape(id)
}

// CreatePost stores a new post. Requires a session.
func (c *Client) CreatePost(ctx context.Context, p Post) (*Post, error) {
	var out Post
	if err := c.sendJSON(ctx, http.MethodPost, PostsPath, p, &out); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}
	return &out, nil
}

// UpdatePost replaces post id with p. Requires a session.
func (c *Client) UpdatePost(ctx context.Context, id int, p Post) (*Post, error) {
	var out Post
	path := fmt.Sprintf("%s/%d", PostsPath, id)
	if err := c.sendJSON(ctx, http.MethodPut, path, p, &out); err != nil {
		return nil, fmt.Errorf("updating post %d: %w", id, err)
	}
	return &out, nil
}

// DeletePost removes post id. Requires a session.
func (c *Client) DeletePost(ctx context.Context, id int) error {
	path := fmt.Sprintf("%s/%d", PostsPath, id)
	if err := c.sendJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("deleting post %d: %w", id, err)
	}
	return nil
}
