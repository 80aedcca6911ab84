// Package latest keeps only the newest of overlapping requests.
package latest

import (
	"context"
	"sync"
)

// Token identifies one request started through a Guard.
type Token uint64

// Guard hands out increasing tokens. Beginning a request cancels the one
// before it, and only the newest token may commit its result.
type Guard struct {
	mu     sync.Mutex
	seq    Token
	cancel context.CancelFunc
}

// Begin starts a new request derived from parent.
func (g *Guard) Begin(parent context.Context) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
	}
	g.seq++
	g.cancel = cancel
	return ctx, g.seq
}

// Done reports whether tok is still the newest request, and releases its
// context when it is.
func (g *Guard) Done(tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok != g.seq {
		return false
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	return true
}

// Commit runs commit only if tok is still the newest request, holding the
// guard so that no newer request can begin or commit until it returns.
// commit must not call back into the Guard.
func (g *Guard) Commit(tok Token, commit func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if tok != g.seq {
		return false
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	commit()
	return true
}

// Current returns the newest token handed out.
func (g *Guard) Current() Token {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Stop cancels the in-flight request and invalidates its token.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
}
