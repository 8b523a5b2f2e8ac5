package html2doc

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/renderkit/html2doc/internal/hints"
)

// Pool sizing constants.
const (
	// MinPoolSize ensures at least one browser worker is available.
	MinPoolSize = 1

	// MaxPoolSize caps browser instances to limit memory (~200MB each).
	MaxPoolSize = 8

	// cpuDivisor leaves headroom for Chromium child processes.
	cpuDivisor = 2
)

// ResolvePoolSize determines the browser pool size.
// Priority: explicit workers > GOMAXPROCS-based calculation.
func ResolvePoolSize(workers int) int {
	if workers > 0 {
		return workers
	}

	// GOMAXPROCS is adjusted by automaxprocs inside containers.
	available := runtime.GOMAXPROCS(0)
	n := available / cpuDivisor

	if n < MinPoolSize {
		return MinPoolSize
	}
	if n > MaxPoolSize {
		return MaxPoolSize
	}
	return n
}

// browserPool manages browser backend instances. Each instance owns its
// own Chromium process, enabling true parallelism. Instances are created
// lazily on first acquire to avoid startup delay.
type browserPool struct {
	size    int
	factory func() *browserBackend

	sem      chan *browserBackend
	mu       sync.Mutex
	backends []*browserBackend
	created  int
	closed   bool
}

func newBrowserPool(n int, factory func() *browserBackend) *browserPool {
	if n < 1 {
		n = 1
	}
	return &browserPool{
		size:     n,
		factory:  factory,
		backends: make([]*browserBackend, 0, n),
		sem:      make(chan *browserBackend, n),
	}
}

// acquire gets a backend from the pool, creating one if capacity allows.
// Blocks until one is released or ctx expires.
func (p *browserPool) acquire(ctx context.Context) (*browserBackend, error) {
	// Try to get an idle instance (non-blocking).
	select {
	case b := <-p.sem:
		if b == nil {
			return nil, fmt.Errorf("%w: pool closed", ErrInternal)
		}
		return b, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%w: pool closed", ErrInternal)
	}
	if p.created < p.size {
		p.created++
		p.mu.Unlock()

		// Construct outside the lock: the browser connects lazily so this
		// is cheap, but keeping lock scope tight matches the release path.
		b := p.factory()

		p.mu.Lock()
		p.backends = append(p.backends, b)
		p.mu.Unlock()
		return b, nil
	}
	p.mu.Unlock()

	// At capacity: wait for a release.
	select {
	case b := <-p.sem:
		if b == nil {
			return nil, fmt.Errorf("%w: pool closed", ErrInternal)
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// release returns a backend to the pool. A broken backend (wedged browser,
// render that outlived its deadline) is closed and its slot freed so the
// next acquire creates a fresh instance.
func (p *browserPool) release(b *browserBackend, broken bool) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if broken {
		p.created--
		for i, cur := range p.backends {
			if cur == b {
				p.backends = append(p.backends[:i], p.backends[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
		_ = b.Close()
		return
	}

	// Send under the lock: the buffer holds size slots so this never
	// blocks, and a concurrent close cannot close sem between the closed
	// check and the send.
	p.sem <- b
	p.mu.Unlock()
}

func (p *browserPool) close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.sem)
	backends := p.backends
	p.mu.Unlock()

	var errs []error
	for _, b := range backends {
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// stats reports created instance count and in-use slots for health checks.
func (p *browserPool) stats() (created, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created, len(p.sem)
}

// Lease is a held render slot. Release must be called exactly once;
// broken marks the backend unfit for reuse.
type Lease struct {
	Backend Backend

	once    sync.Once
	release func(broken bool)
}

// Release frees the slot. Safe to call multiple times; only the first
// call has effect.
func (l *Lease) Release(broken bool) {
	l.once.Do(func() { l.release(broken) })
}

// Manager owns the render capacity of a Service: a pool of browser
// instances plus a global semaphore bounding simultaneous renders across
// all backends.
type Manager struct {
	global    *semaphore.Weighted
	limit     int64
	queueWait time.Duration

	browsers *browserPool
	paged    *pagedBackend
	generic  *genericBackend

	overrides map[BackendKind]Backend
}

func newManager(cfg serviceConfig, overrides map[BackendKind]Backend) *Manager {
	poolSize := ResolvePoolSize(cfg.poolSize)
	limit := cfg.globalLimit
	if limit <= 0 {
		limit = int64(poolSize * 2)
		if limit < 4 {
			limit = 4
		}
	}
	queueWait := cfg.queueWait
	if queueWait <= 0 {
		queueWait = defaultQueueWait
	}

	return &Manager{
		global:    semaphore.NewWeighted(limit),
		limit:     limit,
		queueWait: queueWait,
		browsers: newBrowserPool(poolSize, func() *browserBackend {
			return newBrowserBackend(cfg.browserBin, cfg.renderTimeout)
		}),
		paged:     newPagedBackend(),
		generic:   newGenericBackend(),
		overrides: overrides,
	}
}

// Acquire obtains a render slot for the given backend kind, waiting at
// most the configured queue wait. Saturation maps to ErrResourceExhausted
// so callers can surface backpressure instead of queueing unboundedly.
func (m *Manager) Acquire(ctx context.Context, kind BackendKind) (*Lease, error) {
	waitCtx, cancel := context.WithTimeout(ctx, m.queueWait)
	defer cancel()

	if err := m.global.Acquire(waitCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: all %d render slots busy%s", ErrResourceExhausted, m.limit, hints.ForPoolSaturated())
	}

	if b, ok := m.overrides[kind]; ok {
		return &Lease{Backend: b, release: func(bool) { m.global.Release(1) }}, nil
	}

	switch kind {
	case BackendBrowser:
		b, err := m.browsers.acquire(waitCtx)
		if err != nil {
			m.global.Release(1)
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: all browser instances busy%s", ErrResourceExhausted, hints.ForPoolSaturated())
			}
			return nil, err
		}
		return &Lease{Backend: b, release: func(broken bool) {
			m.browsers.release(b, broken)
			m.global.Release(1)
		}}, nil

	case BackendPaged:
		return &Lease{Backend: m.paged, release: func(bool) { m.global.Release(1) }}, nil

	case BackendGeneric:
		return &Lease{Backend: m.generic, release: func(bool) { m.global.Release(1) }}, nil

	default:
		m.global.Release(1)
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
	}
}

// Close shuts down all pooled backends.
func (m *Manager) Close() error {
	var errs []error
	if err := m.browsers.close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.paged.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := m.generic.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BrowserStats reports browser pool occupancy for health endpoints.
func (m *Manager) BrowserStats() (created, idle int) {
	return m.browsers.stats()
}
