package frameloop

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/banshee-data/blink/internal/monitoring"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// Resources tracks everything acquired at startup so it can be released in
// reverse order exactly once, whether the program ends normally or fails
// half way through startup.
type Resources struct {
	mu      sync.Mutex
	closers []namedCloser
	done    bool
	once    sync.Once
	err     error
}

// Add registers c under name. Resources added after CloseAll are closed
// immediately.
func (r *Resources) Add(name string, c io.Closer) {
	if c == nil {
		return
	}
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		if err := c.Close(); err != nil {
			monitoring.Logf("release %s: %v", name, err)
		}
		return
	}
	r.closers = append(r.closers, namedCloser{name: name, c: c})
	r.mu.Unlock()
}

// AddFunc registers a close function.
func (r *Resources) AddFunc(name string, fn func() error) {
	if fn == nil {
		return
	}
	r.Add(name, closerFunc(fn))
}

// Len returns the number of registered resources.
func (r *Resources) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.closers)
}

// CloseAll closes every resource, last acquired first. Later calls return
// the first call's result without closing anything again.
func (r *Resources) CloseAll() error {
	r.once.Do(func() {
		r.mu.Lock()
		closers := r.closers
		r.closers = nil
		r.done = true
		r.mu.Unlock()

		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			nc := closers[i]
			if err := nc.c.Close(); err != nil {
				monitoring.Logf("release %s: %v", nc.name, err)
				errs = append(errs, fmt.Errorf("close %s: %w", nc.name, err))
			}
		}
		r.err = errors.Join(errs...)
	})
	return r.err
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
