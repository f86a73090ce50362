package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"engram/internal/domain"
	"engram/internal/ports"
)

// URL shapes that carry an 11-character video identifier.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?v=([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([A-Za-z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([A-Za-z0-9_-]{11})`),
}

// Caption languages tried in priority order before accepting any track.
var preferredLanguages = []string{"zh-Hans", "zh-Hant", "zh", "en", "ja", "ko"}

// Extractor fetches YouTube transcripts, preferring caption tracks and
// falling back to audio transcription when none exist.
type Extractor struct {
	client      *http.Client
	transcriber ports.Transcriber
	logger      *slog.Logger

	watchBase  string
	oembedBase string
}

// NewExtractor wires an HTTP client and an optional transcription fallback.
func NewExtractor(client *http.Client, transcriber ports.Transcriber, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Extractor{
		client:      client,
		transcriber: transcriber,
		logger:      logger,
		watchBase:   "https://www.youtube.com",
		oembedBase:  "https://www.youtube.com/oembed",
	}
}

// Name identifies the extractor inside the registry.
func (e *Extractor) Name() string { return "youtube" }

// CanHandle reports whether the URL carries a recognizable video identifier.
func (e *Extractor) CanHandle(rawURL string) bool {
	_, ok := videoID(rawURL)
	return ok
}

// Extract fetches the transcript for a video. The title fetch is best-effort
// and never blocks extraction.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractionResult, error) {
	id, ok := videoID(rawURL)
	if !ok {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: rawURL, Err: fmt.Errorf("invalid youtube url")}
	}

	canonical := e.watchBase + "/watch?v=" + id
	title := e.fetchTitle(ctx, id)

	if text, lang, duration, err := e.fetchCaptions(ctx, id); err == nil {
		e.debug("extracted subtitles", "video", id, "chars", len(text), "language", lang)
		return domain.ExtractionResult{
			Title:       title,
			Content:     text,
			SourceType:  domain.SourceYouTube,
			SourceURL:   canonical,
			Language:    lang,
			DurationSec: duration,
			ExtractedAt: time.Now(),
		}, nil
	} else {
		e.debug("no caption track", "video", id, "error", err)
	}

	if e.transcriber == nil || !e.transcriber.Available() {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: rawURL, Err: domain.ErrNoTranscript}
	}

	text, err := e.transcriber.TranscribeVideo(ctx, id)
	if err != nil {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: rawURL, Err: fmt.Errorf("transcribe: %w", err)}
	}
	e.debug("transcribed audio", "video", id, "chars", len(text))

	// Duration and language stay unknown on the transcription path.
	return domain.ExtractionResult{
		Title:       title,
		Content:     text,
		SourceType:  domain.SourceYouTube,
		SourceURL:   canonical,
		ExtractedAt: time.Now(),
	}, nil
}

// videoID extracts the identifier from the supported URL shapes, falling
// back to the watch-page query parameter.
func videoID(rawURL string) (string, bool) {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.Contains(parsed.Host, "youtube.com") {
		return "", false
	}
	v := parsed.Query().Get("v")
	if len(v) != 11 {
		return "", false
	}
	return v, true
}

// fetchTitle asks the oEmbed endpoint for a human-readable title and
// synthesizes one from the identifier on any failure.
func (e *Extractor) fetchTitle(ctx context.Context, id string) string {
	fallback := "YouTube Video " + id

	endpoint := e.oembedBase + "?url=" + url.QueryEscape(e.watchBase+"/watch?v="+id) + "&format=json"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fallback
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.debug("oembed title fetch failed", "video", id, "error", err)
		return fallback
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fallback
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Title == "" {
		return fallback
	}
	return payload.Title
}

func (e *Extractor) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
