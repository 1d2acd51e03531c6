package api

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// sessionJar is a cookie jar that can be emptied while requests are in flight
type sessionJar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
}

func newSessionJar() *sessionJar {
	j, _ := cookiejar.New(nil) // only fails with a bad PublicSuffixList
	return &sessionJar{inner: j}
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	inner := j.inner
	j.mu.Unlock()
	return inner.Cookies(u)
}

func (j *sessionJar) reset() {
	fresh, _ := cookiejar.New(nil)
	j.mu.Lock()
	j.inner = fresh
	j.mu.Unlock()
}
