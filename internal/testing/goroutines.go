// Package testing provides test helpers shared by docservice packages.
//
// t.Fatal and t.FailNow must only be called from the test goroutine. The
// helpers here let worker goroutines return errors instead, and report them
// from the test goroutine once all workers are done.
package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// Goroutine Error Collection
// =============================================================================

// Group runs worker goroutines for a test and collects their errors.
//
//	g := dstesting.NewGroup(t, 5*time.Second)
//	for i := 0; i < 10; i++ {
//	    g.Go(func(ctx context.Context) error {
//	        _, err := svc.Submit(ctx, "k", sub)
//	        return err
//	    })
//	}
//	g.Wait()
type Group struct {
	t      *testing.T
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	errs []error
}

// NewGroup creates a Group whose context expires after timeout.
func NewGroup(t *testing.T, timeout time.Duration) *Group {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return &Group{t: t, ctx: ctx, cancel: cancel}
}

// Go runs fn in a new goroutine. A non-nil error is recorded.
func (g *Group) Go(fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(g.ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
}

// Errorf records a formatted failure from any goroutine.
func (g *Group) Errorf(format string, args ...any) {
	g.mu.Lock()
	g.errs = append(g.errs, fmt.Errorf(format, args...))
	g.mu.Unlock()
}

// Context returns the group's context.
func (g *Group) Context() context.Context {
	return g.ctx
}

// Wait blocks until every goroutine returns, then fails the test if any of
// them reported an error. Call it from the test goroutine.
func (g *Group) Wait() {
	g.t.Helper()
	g.wg.Wait()
	g.cancel()

	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.errs) == 0 {
		return
	}
	g.t.Errorf("%d goroutine(s) failed:", len(g.errs))
	for i, err := range g.errs {
		g.t.Errorf("  [%d] %v", i+1, err)
	}
	g.t.FailNow()
}

// =============================================================================
// Polling
// =============================================================================

// Eventually polls condition every interval until it returns true or timeout
// elapses.
func Eventually(timeout, interval time.Duration, condition func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		if condition() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("condition not met within %v", timeout)
		}
		time.Sleep(interval)
	}
}
