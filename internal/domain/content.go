package domain

import "time"

// SourceType classifies where captured content came from.
type SourceType string

const (
	SourceYouTube SourceType = "youtube"
	SourceArticle SourceType = "article"
	SourcePDF     SourceType = "pdf"
	SourceImage   SourceType = "image"
	SourceText    SourceType = "text"
)

// ExtractionResult is the normalized output of a content extractor. It is
// consumed once to build a Session and not retained afterwards.
type ExtractionResult struct {
	Title      string
	Content    string
	SourceType SourceType
	SourceURL  string

	Author      string
	DurationSec int    // 0 when unknown (e.g. transcribed audio)
	Language    string // "zh", "en", or "" when undetected
	ExtractedAt time.Time
}

// Note is the document persisted on an explicit save.
type Note struct {
	Title      string
	SourceURL  string
	SourceType SourceType
	CreatedAt  time.Time
	Tags       []string
	Summary    string
	History    []Message
}

// NoteRecord is the audit row kept by the note index after a save.
type NoteRecord struct {
	Path       string
	Title      string
	SourceURL  string
	SourceType SourceType
	SavedAt    time.Time
}
