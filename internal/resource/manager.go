// Package resource manages a lazily loaded value shared by many holders,
// with reference counting and eviction once it has sat idle.
package resource

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("resource: manager closed")

// Loader produces the managed value.
type Loader[T any] func(ctx context.Context) (T, error)

// Options tunes a Manager.
type Options[T any] struct {
	// IdleTimeout evicts the value after it has had no holders for this
	// long. Zero keeps it until Evict or Close.
	IdleTimeout time.Duration
	// OnEvict is called outside the lock with each value that is dropped.
	OnEvict func(T)
}

// Manager owns at most one loaded value at a time. Concurrent Acquire calls
// during a load wait for it instead of loading again.
type Manager[T any] struct {
	load Loader[T]
	opts Options[T]

	mu      sync.Mutex
	value   T
	loaded  bool
	refs    int
	gen     uint64
	loads   int
	loading chan struct{}
	timer   *time.Timer
	closed  bool
}

// NewManager returns a Manager that calls load on first Acquire.
func NewManager[T any](load Loader[T], opts Options[T]) *Manager[T] {
	return &Manager[T]{load: load, opts: opts}
}

// Handle is one reference to the managed value.
type Handle[T any] struct {
	m    *Manager[T]
	v    T
	once sync.Once
}

// Value returns the shared value. It stays valid until Release.
func (h *Handle[T]) Value() T { return h.v }

// Release drops the reference. Extra calls are ignored.
func (h *Handle[T]) Release() {
	h.once.Do(h.m.release)
}

// Acquire returns a handle to the value, loading it if needed.
func (m *Manager[T]) Acquire(ctx context.Context) (*Handle[T], error) {
	for {
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return nil, ErrClosed
		}
		if m.loaded {
			h := m.takeLocked()
			m.mu.Unlock()
			return h, nil
		}
		if wait := m.loading; wait != nil {
			m.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		done := make(chan struct{})
		m.loading = done
		m.mu.Unlock()

		v, err := m.load(ctx)

		m.mu.Lock()
		m.loading = nil
		close(done)
		if err != nil {
			m.mu.Unlock()
			return nil, err
		}
		if m.closed {
			m.mu.Unlock()
			m.evicted(v)
			return nil, ErrClosed
		}
		m.value, m.loaded = v, true
		m.gen++
		m.loads++
		h := m.takeLocked()
		m.mu.Unlock()
		return h, nil
	}
}

func (m *Manager[T]) takeLocked() *Handle[T] {
	m.refs++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	return &Handle[T]{m: m, v: m.value}
}

func (m *Manager[T]) release() {
	m.mu.Lock()
	m.refs--
	if m.refs > 0 || !m.loaded {
		m.mu.Unlock()
		return
	}
	if m.closed {
		v, ok := m.dropLocked()
		m.mu.Unlock()
		if ok {
			m.evicted(v)
		}
		return
	}
	if m.opts.IdleTimeout > 0 {
		gen := m.gen
		m.timer = time.AfterFunc(m.opts.IdleTimeout, func() { m.expire(gen) })
	}
	m.mu.Unlock()
}

// expire evicts generation gen if it is still loaded and unheld.
func (m *Manager[T]) expire(gen uint64) {
	m.mu.Lock()
	if !m.loaded || m.refs > 0 || m.gen != gen {
		m.mu.Unlock()
		return
	}
	v, _ := m.dropLocked()
	m.mu.Unlock()
	m.evicted(v)
}

func (m *Manager[T]) dropLocked() (T, bool) {
	var zero T
	if !m.loaded {
		return zero, false
	}
	v := m.value
	m.value, m.loaded = zero, false
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	return v, true
}

func (m *Manager[T]) evicted(v T) {
	if m.opts.OnEvict != nil {
		m.opts.OnEvict(v)
	}
}

// Evict drops the value now if nobody holds it and reports whether it did.
func (m *Manager[T]) Evict() bool {
	m.mu.Lock()
	if m.refs > 0 {
		m.mu.Unlock()
		return false
	}
	v, ok := m.dropLocked()
	m.mu.Unlock()
	if ok {
		m.evicted(v)
	}
	return ok
}

// Close rejects further Acquire calls. The value is dropped now, or on the
// last Release if handles are still out.
func (m *Manager[T]) Close() {
	m.mu.Lock()
	m.closed = true
	var (
		v  T
		ok bool
	)
	if m.refs == 0 {
		v, ok = m.dropLocked()
	}
	m.mu.Unlock()
	if ok {
		m.evicted(v)
	}
}

// Stats reports whether a value is loaded, how many handles are out and
// how many loads have completed.
func (m *Manager[T]) Stats() (loaded bool, refs, loads int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded, m.refs, m.loads
}
