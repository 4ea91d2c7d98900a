package querycache

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var ErrMutationPending = errors.New("mutation already in progress")

// Pending tracks in-flight mutations so a duplicate submit on the same
// target is rejected instead of issued twice.
type Pending struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewPending() *Pending {
	return &Pending{inFlight: make(map[string]struct{})}
}

func pendingKey(ctx context.Context, mutation, target string) string {
	return strings.Join([]string{ScopeFrom(ctx), mutation, target}, ":")
}

// Begin marks mutation on target as in flight for the session bound to ctx.
// The returned func must be called when the mutation settles.
func (p *Pending) Begin(ctx context.Context, mutation, target string) (func(), error) {
	key := pendingKey(ctx, mutation, target)

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, busy := p.inFlight[key]; busy {
		return nil, ErrMutationPending
	}
	p.inFlight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.inFlight, key)
			p.mu.Unlock()
		})
	}, nil
}

func (p *Pending) IsPending(ctx context.Context, mutation, target string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, busy := p.inFlight[pendingKey(ctx, mutation, target)]
	return busy
}
