package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNoProviderAvailable is returned when no provider passes its
// availability probe
var ErrNoProviderAvailable = errors.New("no extraction provider available")

// Selector picks an extraction provider: explicitly by name, or the first
// available one in the configured priority order.
type Selector struct {
	providers []Provider
}

// NewSelector creates a Selector. Order matters: the first available
// provider wins when no explicit name is given.
func NewSelector(providers ...Provider) *Selector {
	return &Selector{providers: providers}
}

// Select returns the provider to use. With a name, that provider must exist
// and be available; without one, providers are probed in priority order.
func (s *Selector) Select(ctx context.Context, name string) (Provider, error) {
	if name != "" {
		for _, p := range s.providers {
			if strings.EqualFold(p.Name(), name) {
				if !p.Available(ctx) {
					return nil, fmt.Errorf("provider %q is not available", name)
				}
				return p, nil
			}
		}
		return nil, fmt.Errorf("unknown provider %q", name)
	}

	for _, p := range s.providers {
		if p.Available(ctx) {
			return p, nil
		}
	}
	return nil, ErrNoProviderAvailable
}

// Providers returns the configured providers in priority order
func (s *Selector) Providers() []Provider {
	return s.providers
}

// Close closes all configured providers, returning the first error
func (s *Selector) Close() error {
	var firstErr error
	for _, p := range s.providers {
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
