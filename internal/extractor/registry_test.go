package extractor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"engram/internal/domain"
)

type stubExtractor struct {
	name    string
	matches func(string) bool
	result  domain.ExtractionResult
	err     error
}

func (s *stubExtractor) Name() string             { return s.name }
func (s *stubExtractor) CanHandle(url string) bool { return s.matches(url) }
func (s *stubExtractor) Extract(_ context.Context, _ string) (domain.ExtractionResult, error) {
	return s.result, s.err
}

func TestRegistryDispatchOrder(t *testing.T) {
	t.Parallel()

	specific := &stubExtractor{
		name:    "video",
		matches: func(u string) bool { return strings.Contains(u, "video.example") },
		result:  domain.ExtractionResult{Title: "from video"},
	}
	generic := &stubExtractor{
		name:    "any",
		matches: func(string) bool { return true },
		result:  domain.ExtractionResult{Title: "from generic"},
	}

	reg := NewRegistry(nil)
	reg.Register(specific)
	reg.Register(generic)

	// A URL matching both predicates must always hit the earlier-registered
	// extractor.
	for i := 0; i < 10; i++ {
		got := reg.Resolve("https://video.example/watch/1")
		if got == nil || got.Name() != "video" {
			t.Fatalf("iteration %d: expected video extractor, got %v", i, got)
		}
	}

	if got := reg.Resolve("https://blog.example/post"); got == nil || got.Name() != "any" {
		t.Fatalf("expected generic extractor, got %v", got)
	}
}

func TestRegistryExtractNoMatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	reg.Register(&stubExtractor{name: "never", matches: func(string) bool { return false }})

	_, err := reg.Extract(context.Background(), "ftp://nope")
	if !errors.Is(err, domain.ErrNoExtractor) {
		t.Fatalf("expected ErrNoExtractor, got %v", err)
	}
}

func TestRegistryExtractPropagatesFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	reg := NewRegistry(nil)
	reg.Register(&stubExtractor{name: "broken", matches: func(string) bool { return true }, err: boom})

	_, err := reg.Extract(context.Background(), "https://example.com")
	if !errors.Is(err, boom) {
		t.Fatalf("expected extractor failure to propagate, got %v", err)
	}
}
