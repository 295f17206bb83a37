// Package secrets supplies runtime credentials (the generative-provider API
// key, the storage connection string) fetched by name from a vault service.
//
// The Provider owns a process-lifetime cache: the first Get for a name goes
// out to the vault, every later Get is served from memory until Refresh is
// called for that name. Cold-start fetches are serialized so concurrent
// requests cannot trigger duplicate vault round-trips for the same secret.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrSecretUnavailable is returned when a secret name is unknown or the
// backing vault cannot be reached. Callers treat it as fatal for the
// operation in progress.
var ErrSecretUnavailable = errors.New("secret unavailable")

// Source fetches a secret value by name from a backing store. Implementations
// must be safe for concurrent use.
type Source interface {
	Fetch(ctx context.Context, name string) (string, error)
}

// Provider caches secrets fetched from a Source for the life of the process.
type Provider struct {
	source Source

	mu    sync.Mutex
	cache map[string]string
}

// NewProvider constructs a Provider over the given source.
func NewProvider(source Source) *Provider {
	return &Provider{
		source: source,
		cache:  make(map[string]string),
	}
}

// Get returns the value for name, fetching it from the source on first use.
// A cached entry is valid for the life of the process unless Refresh is
// called. The fetch path holds the provider lock, so a cold start performs
// exactly one outbound fetch per name regardless of concurrency.
func (p *Provider) Get(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.cache[name]; ok {
		return v, nil
	}
	return p.fetchLocked(ctx, name)
}

// Refresh discards any cached value for name and fetches it again.
func (p *Provider) Refresh(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.cache, name)
	return p.fetchLocked(ctx, name)
}

// fetchLocked performs the outbound fetch and populates the cache.
// Callers must hold p.mu.
func (p *Provider) fetchLocked(ctx context.Context, name string) (string, error) {
	v, err := p.source.Fetch(ctx, name)
	if err != nil {
		log.Error().Str("secret", name).Err(err).Msg("secret fetch failed")
		return "", fmt.Errorf("%w: %s: %v", ErrSecretUnavailable, name, err)
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s: empty value", ErrSecretUnavailable, name)
	}
	p.cache[name] = v
	return v, nil
}
