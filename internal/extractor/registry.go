package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"engram/internal/domain"
)

// Extractor converts a URL into normalized content. CanHandle must never
// fail; an unparseable URL is simply not handled.
type Extractor interface {
	Name() string
	CanHandle(url string) bool
	Extract(ctx context.Context, url string) (domain.ExtractionResult, error)
}

// Registry keeps extractors in registration order. Order is the match
// priority: more specific matchers (YouTube) must be registered before the
// generic article matcher.
type Registry struct {
	extractors []Extractor
	logger     *slog.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register appends an extractor; it is consulted after all earlier ones.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
	if r.logger != nil {
		r.logger.Info("registered extractor", "name", e.Name())
	}
}

// Resolve returns the first extractor whose predicate matches, or nil.
func (r *Registry) Resolve(url string) Extractor {
	for _, e := range r.extractors {
		if e.CanHandle(url) {
			if r.logger != nil {
				r.logger.Debug("url matched extractor", "name", e.Name(), "url", url)
			}
			return e
		}
	}
	return nil
}

// Extract resolves and delegates, propagating the extractor's result or
// failure unchanged. Every call re-resolves; nothing is cached.
func (r *Registry) Extract(ctx context.Context, url string) (domain.ExtractionResult, error) {
	e := r.Resolve(url)
	if e == nil {
		return domain.ExtractionResult{}, fmt.Errorf("%w: %s", domain.ErrNoExtractor, url)
	}
	return e.Extract(ctx, url)
}
