// Package runtime tracks paused fan-out branches by continuation token and
// resumes them when the matching callback arrives.
package runtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownToken is returned by Await for a token the registry never minted
// or has already retired.
var ErrUnknownToken = errors.New("runtime: unknown token")

// Registry maps live continuation tokens to the channels their branches
// block on. Tokens are opaque to every other component.
type Registry struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

func NewRegistry() *Registry {
	return &Registry{
		pending: make(map[string]chan json.RawMessage),
	}
}

// Mint creates a token for a new paused branch.
func (r *Registry) Mint() string {
	token := strings.ReplaceAll(uuid.NewString(), "-", "")

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[token] = make(chan json.RawMessage, 1)
	return token
}

// Await blocks until the token is resumed or the context ends. The token is
// dead after Await returns.
func (r *Registry) Await(ctx context.Context, token string) (json.RawMessage, error) {
	r.mu.Lock()
	ch, ok := r.pending[token]
	r.mu.Unlock()
	if !ok {
		return nil, ErrUnknownToken
	}

	defer func() {
		r.mu.Lock()
		delete(r.pending, token)
		r.mu.Unlock()
	}()

	select {
	case output := <-ch:
		return output, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Drop retires a token whose branch will never be awaited, so an aborted
// fan-out does not leave entries behind.
func (r *Registry) Drop(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.pending, token)
}

// Resume hands the output to the branch waiting on the token. It reports
// false for a token with no waiting branch: late redeliveries of a callback
// already consumed, or branches lost to a restart.
func (r *Registry) Resume(token string, output json.RawMessage) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch, ok := r.pending[token]
	if !ok {
		return false
	}
	select {
	case ch <- output:
		return true
	default:
		// Already resumed once; duplicate callback.
		return false
	}
}
