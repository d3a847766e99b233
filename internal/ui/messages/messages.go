package messages

import (
	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/auth"
)

// View transition messages.
type (
	OpenPostMsg  struct{ ID int }
	GoBackMsg    struct{}
	OpenLoginMsg struct{}
)

// Data messages.
type (
	// SessionMsg carries a new session state from the auth store.
	SessionMsg struct {
		State auth.State
	}

	PostsLoadedMsg struct {
		Posts     []api.Post
		Err       error
		FromCache bool
		// NewCount is how many posts were not in the previous list.
		NewCount int
	}

	PostLoadedMsg struct {
		Post api.Post
		Err  error
	}

	LoginResultMsg struct {
		Result auth.Result
	}

	RegisterResultMsg struct {
		Email  string
		Result auth.Result
	}

	SaveResultMsg struct {
		Post api.Post
		Err  error
	}

	DeleteResultMsg struct {
		ID  int
		Err error
	}

	LogoutDoneMsg struct{}

	StatusMsg struct {
		Text    string
		IsError bool
	}
)
