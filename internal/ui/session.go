package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fragmede/postdesk/internal/auth"
	"github.com/fragmede/postdesk/internal/ui/messages"
)

// sessionFeed turns store notifications into messages. Only the latest
// state is kept, so a busy UI skips intermediate ones but always ends on
// the store's final state.
type sessionFeed struct {
	mu     sync.Mutex
	latest auth.State

	ready chan struct{}
	done  chan struct{}

	unsubscribe func()
	closeOnce   sync.Once
}

func newSessionFeed(store *auth.Store) *sessionFeed {
	f := &sessionFeed{
		ready: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
	f.unsubscribe = store.Subscribe(f.publish)
	return f
}

func (f *sessionFeed) publish(st auth.State) {
	f.mu.Lock()
	f.latest = st
	f.mu.Unlock()

	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// wait blocks until the state changes and delivers it as a SessionMsg.
func (f *sessionFeed) wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-f.ready:
		case <-f.done:
			return nil
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		return messages.SessionMsg{State: f.latest}
	}
}

func (f *sessionFeed) close() {
	f.closeOnce.Do(func() {
		f.unsubscribe()
		close(f.done)
	})
}
