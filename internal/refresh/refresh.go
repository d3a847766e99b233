// Package refresh keeps the post list current: it reloads through the list
// loader, stores the result in the cache and tells the UI what changed.
package refresh

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/singleflight"

	"github.com/fragmede/postdesk/internal/api"
	"github.com/fragmede/postdesk/internal/cache"
	"github.com/fragmede/postdesk/internal/loader"
	"github.com/fragmede/postdesk/internal/ui/messages"
)

// Sender receives messages from the background loop. *tea.Program
// implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Refresher loads the post list on demand and on a ticker.
type Refresher struct {
	fetch    loader.Fetch
	cache    *cache.DB
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	group singleflight.Group

	mu    sync.Mutex
	last  []api.Post
	known map[int]bool

	stopCh   chan struct{}
	stopOnce sync.Once
}

// Option configures a Refresher.
type Option func(*Refresher)

// WithCache stores every loaded list in db and serves it when a load fails.
func WithCache(db *cache.DB, ttl time.Duration) Option {
	return func(r *Refresher) {
		r.cache = db
		r.ttl = ttl
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Refresher) { r.logger = l }
}

// New creates a Refresher that reloads every interval once started.
func New(fetch loader.Fetch, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		fetch:    fetch,
		interval: interval,
		logger:   slog.Default(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type result struct {
	msg     messages.PostsLoadedMsg
	changed bool
}

// Cached returns the stored list, if any, and whether it is still fresh.
func (r *Refresher) Cached() (messages.PostsLoadedMsg, bool) {
	if r.cache == nil {
		return messages.PostsLoadedMsg{}, false
	}
	posts, fresh, err := r.cache.GetPosts(r.ttl)
	if err != nil || posts == nil {
		return messages.PostsLoadedMsg{}, false
	}
	return messages.PostsLoadedMsg{Posts: posts, FromCache: true}, fresh
}

// Load fetches the list now. Calls that overlap share one request.
func (r *Refresher) Load(ctx context.Context) messages.PostsLoadedMsg {
	return r.load(ctx).msg
}

func (r *Refresher) load(ctx context.Context) result {
	v, _, _ := r.group.Do("posts", func() (any, error) {
		return r.doLoad(ctx), nil
	})
	return v.(result)
}

func (r *Refresher) doLoad(ctx context.Context) result {
	data, err := loader.Posts(ctx, r.fetch)
	if err != nil {
		r.logger.Warn("loading posts", "error", err)
		msg, _ := r.Cached()
		msg.Err = err
		return result{msg: msg}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The first load compares against the previous run's snapshot.
	if r.known == nil {
		r.known = make(map[int]bool)
		if prev, _ := r.Cached(); prev.Posts != nil {
			r.last = prev.Posts
		}
		for _, p := range r.last {
			r.known[p.ID] = true
		}
	}

	newCount := 0
	if len(r.known) > 0 {
		for _, p := range data.Posts {
			if !r.known[p.ID] {
				newCount++
			}
		}
	}
	for _, p := range data.Posts {
		r.known[p.ID] = true
	}

	changed := !slices.Equal(r.last, data.Posts)
	r.last = data.Posts

	if r.cache != nil {
		if err := r.cache.PutPosts(data.Posts); err != nil {
			r.logger.Warn("caching posts", "error", err)
		}
	}
	r.logger.Debug("posts loaded", "count", len(data.Posts), "new", newCount, "changed", changed)

	return result{
		msg:     messages.PostsLoadedMsg{Posts: data.Posts, NewCount: newCount},
		changed: changed,
	}
}

// Start begins the background loop. Lists that differ from the last one
// loaded are sent to s.
func (r *Refresher) Start(s Sender) {
	go r.loop(s)
}

// Stop halts the background loop and cancels a load in progress.
func (r *Refresher) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

func (r *Refresher) loop(s Sender) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-r.stopCh
		cancel()
	}()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			res := r.load(ctx)
			if res.msg.Err != nil || !res.changed {
				continue
			}
			select {
			case <-r.stopCh:
				return
			default:
			}
			s.Send(res.msg)
		}
	}
}
