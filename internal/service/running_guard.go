package service

import (
	"context"
	"sync"
)

// ExportedRunGuard is an exported alias so _test packages can test the guard.
type ExportedRunGuard = runGuard

// ─────────────────────────────────────────────────────────────
// runGuard: prevents overlapping runs of the same name
// ─────────────────────────────────────────────────────────────

// runGuard ensures only one run of a given name is in flight. A scheduled
// tick or a catalog change that fires while a sync is running is refused
// instead of queued.
type runGuard struct {
	mu      sync.Mutex
	running map[string]struct{}
	wg      sync.WaitGroup
}

// TryLock marks name as running. It returns false if it already is.
func (g *runGuard) TryLock(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running == nil {
		g.running = make(map[string]struct{})
	}
	if _, ok := g.running[name]; ok {
		return false
	}
	g.running[name] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock must follow a successful TryLock.
func (g *runGuard) Unlock(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, name)
	g.wg.Done()
}

// Running reports whether name is currently locked.
func (g *runGuard) Running(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.running[name]
	return ok
}

// WaitAll blocks until every run completes or ctx is cancelled.
func (g *runGuard) WaitAll(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
