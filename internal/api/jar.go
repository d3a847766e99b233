package api

import (
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
)

// CookieStore persists the session cookies between runs, keyed by the
// API host (host:port) they belong to.
type CookieStore interface {
	LoadCookies(host string) ([]*http.Cookie, error)
	SaveCookies(host string, cookies []*http.Cookie) error
}

// persistentJar is a cookiejar.Jar that mirrors the API host's cookies into
// a CookieStore. cookiejar.Jar only hands back name and value, so the full
// cookies are tracked here as the server sent them.
type persistentJar struct {
	*cookiejar.Jar
	store  CookieStore
	base   *url.URL
	logger *slog.Logger

	mu      sync.Mutex
	tracked map[string]*http.Cookie
}

func newPersistentJar(jar *cookiejar.Jar, store CookieStore, base *url.URL, logger *slog.Logger) (*persistentJar, error) {
	pj := &persistentJar{
		Jar:     jar,
		store:   store,
		base:    base,
		logger:  logger,
		tracked: make(map[string]*http.Cookie),
	}

	saved, err := store.LoadCookies(base.Host)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	live := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		if !c.Expires.IsZero() && c.Expires.Before(now) {
			continue
		}
		live = append(live, c)
		pj.tracked[c.Name] = c
	}
	if len(live) > 0 {
		jar.SetCookies(base, live)
	}
	return pj, nil
}

// SetCookies implements http.CookieJar.
func (j *persistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.Jar.SetCookies(u, cookies)
	if u.Host != j.base.Host {
		return
	}

	j.mu.Lock()
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(j.tracked, c.Name)
			continue
		}
		cp := *c
		if c.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		j.tracked[c.Name] = &cp
	}
	snapshot := make([]*http.Cookie, 0, len(j.tracked))
	for _, c := range j.tracked {
		snapshot = append(snapshot, c)
	}
	j.mu.Unlock()

	if err := j.store.SaveCookies(j.base.Host, snapshot); err != nil {
		j.logger.Warn("persisting session cookies", "error", err)
	}
}
