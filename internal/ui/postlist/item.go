package postlist

import (
	"fmt"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/render"
)

const excerptLen = 80

// PostItem wraps a post for the bubbles list.
type PostItem struct {
	api.Post
	Index int
}

func (p PostItem) Title() string {
	if p.Post.Title != "" {
		return p.Post.Title
	}
	return fmt.Sprintf("[untitled #%d]", p.ID)
}

func (p PostItem) Description() string {
	state := "draft"
	if p.IsPublished {
		state = "published"
	}
	desc := fmt.Sprintf("#%d | %s", p.ID, state)
	if ex := render.Excerpt(p.Body, excerptLen); ex != "" {
		desc += " | " + ex
	}
	return desc
}

func (p PostItem) FilterValue() string {
	return p.Post.Title
}
