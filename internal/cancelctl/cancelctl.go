// Package cancelctl issues per-query cancellation tokens. At most one token
// is live: beginning a new one cancels the previous, so at most one query's
// network activity is ever in flight.
package cancelctl

import (
	"context"
	"errors"
	"sync"
)

// ErrAborted is the distinguished cancellation signal. It is not a failure:
// it unwinds the current batch/query without altering already-hydrated rows.
var ErrAborted = errors.New("query aborted")

// IsAborted reports whether err is the cancellation signal, in either its
// wrapped form or as a raw context cancellation.
func IsAborted(err error) bool {
	return errors.Is(err, ErrAborted) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

type Controller struct {
	mu     sync.Mutex
	active context.Context
	cancel context.CancelFunc
}

// Begin cancels any previous token and returns the next one. Previous
// in-flight work observes the cancellation and stops at its next checkpoint.
func (c *Controller) Begin(parent context.Context) context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	c.active = ctx
	c.cancel = cancel
	return ctx
}

// Active returns the live token, or nil when none has been issued or the
// last one was cancelled through CancelActive. Ancillary work derives from
// it so that beginning a new query unwinds that work too.
func (c *Controller) Active() context.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// CancelActive cancels the live token, if any.
func (c *Controller) CancelActive() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.active = nil
		c.cancel = nil
	}
}
