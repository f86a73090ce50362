package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. The dialogue controller converts
// every one of these into a user-visible reply; none crash the process.
var (
	ErrNoExtractor         = errors.New("no extractor found for url")
	ErrNoTranscript        = errors.New("no transcript available and transcription is not configured")
	ErrInsufficientContent = errors.New("could not extract meaningful content")
	ErrNoProvider          = errors.New("no llm provider configured")
)

// ExtractionError wraps failures from the extraction layer.
type ExtractionError struct {
	URL string
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.URL, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// LLMError wraps failures from chat-completion providers.
type LLMError struct {
	Provider string
	Err      error
}

func (e *LLMError) Error() string {
	return fmt.Sprintf("llm %s: %v", e.Provider, e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// StorageError wraps note write failures. Git sync hiccups are deliberately
// not in this category; they are logged and suppressed by the vault.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
