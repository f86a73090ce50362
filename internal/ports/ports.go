package ports

import (
	"context"

	"engram/internal/domain"
)

// ContentExtractor turns a URL into normalized content. The registry's
// dispatch satisfies it.
type ContentExtractor interface {
	Extract(ctx context.Context, url string) (domain.ExtractionResult, error)
}

// LLMRouter resolves chat and summarization requests to a configured
// provider.
type LLMRouter interface {
	Chat(ctx context.Context, messages []domain.Message, temperature float64, maxTokens int) (string, error)
	Summarize(ctx context.Context, content, instruction string) (string, error)
}

// ChatProvider is a configured chat-completion backend reachable by the
// LLM router.
type ChatProvider interface {
	Name() string
	Chat(ctx context.Context, messages []domain.Message, temperature float64, maxTokens int) (string, error)
}

// Transcriber converts video audio to text when no caption track exists.
type Transcriber interface {
	Available() bool
	TranscribeVideo(ctx context.Context, videoID string) (string, error)
}

// NoteSink persists a note document and returns the written filename.
type NoteSink interface {
	SaveNote(ctx context.Context, note domain.Note) (string, error)
}

// NoteIndex records saved notes for deduplication and audit. Index failures
// never fail a save.
type NoteIndex interface {
	AlreadySaved(ctx context.Context, sourceURL string) (bool, error)
	Record(ctx context.Context, rec domain.NoteRecord) error
}
