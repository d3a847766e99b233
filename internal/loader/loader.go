// Package loader fetches the data a screen needs before it is shown. The
// loaders own no state; each call is one read through the injected Fetch.
package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/fragmede/postdesk/internal/api"
)

// maxConcurrent bounds EditPosts fan-out.
const maxConcurrent = 4

// ErrPostNotFound is returned by EditPost for any non-2xx answer.
var ErrPostNotFound = errors.New("post not found")

// Fetch performs a credentials-included GET. (*api.Client).Fetch is the
// production implementation.
type Fetch func(ctx context.Context, path string) (*http.Response, error)

// Params are the route parameters of the screen being loaded.
type Params map[string]string

// PostsData feeds the post list screen.
type PostsData struct {
	Posts []api.Post
}

// EditPostData feeds the post editor.
type EditPostData struct {
	Post api.Post
}

// Posts loads the post list. The status code is not checked: whatever body
// the server sends is decoded, and a body that is not a post array comes
// back as the decode error.
func Posts(ctx context.Context, fetch Fetch) (PostsData, error) {
	resp, err := fetch(ctx, api.PostsPath)
	if err != nil {
		return PostsData{}, fmt.Errorf("fetching posts: %w", err)
	}
	defer resp.Body.Close()

	var posts []api.Post
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return PostsData{}, fmt.Errorf("decoding posts: %w", err)
	}
	return PostsData{Posts: posts}, nil
}

// EditPost loads the post named by params["id"]. Any non-2xx status yields
// ErrPostNotFound; the status and body are dropped.
func EditPost(ctx context.Context, fetch Fetch, params Params) (EditPostData, error) {
	id := params["id"]
	if id == "" {
		return EditPostData{}, fmt.Errorf("empty post id: %w", ErrPostNotFound)
	}

	resp, err := fetch(ctx, api.PostPath(id))
	if err != nil {
		return EditPostData{}, fmt.Errorf("fetching post %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return EditPostData{}, fmt.Errorf("post %s: %w", id, ErrPostNotFound)
	}

	var post api.Post
	if err := json.NewDecoder(resp.Body).Decode(&post); err != nil {
		return EditPostData{}, fmt.Errorf("decoding post %s: %w", id, err)
	}
	return EditPostData{Post: post}, nil
}

// EditPosts runs EditPost for every id concurrently and returns the posts
// in the order of ids. The first failure cancels the rest.
func EditPosts(ctx context.Context, fetch Fetch, ids []string) ([]api.Post, error) {
	results := make([]api.Post, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, id := range ids {
		g.Go(func() error {
			data, err := EditPost(ctx, fetch, Params{"id": id})
			if err != nil {
				return err
			}
			results[i] = data.Post
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
