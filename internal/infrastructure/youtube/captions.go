package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
)

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

var whitespaceExpr = regexp.MustCompile(`\s+`)

// fetchCaptions pulls the caption track list from the watch page, picks a
// track by language preference, and downloads the timed text. Duration is
// derived from the final segment's timing.
func (e *Extractor) fetchCaptions(ctx context.Context, id string) (string, string, int, error) {
	page, err := e.get(ctx, e.watchBase+"/watch?v="+id)
	if err != nil {
		return "", "", 0, fmt.Errorf("watch page: %w", err)
	}

	tracks, err := parseCaptionTracks(page)
	if err != nil {
		return "", "", 0, err
	}

	track := pickTrack(tracks, preferredLanguages)

	body, err := e.get(ctx, track.BaseURL)
	if err != nil {
		return "", "", 0, fmt.Errorf("timedtext: %w", err)
	}

	segments, duration, err := parseTimedText(body)
	if err != nil {
		return "", "", 0, err
	}
	if len(segments) == 0 {
		return "", "", 0, fmt.Errorf("empty transcript for %s", id)
	}

	return combineTranscript(segments), track.LanguageCode, duration, nil
}

func (e *Extractor) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// parseCaptionTracks locates the captionTracks JSON array embedded in the
// watch-page player response.
func parseCaptionTracks(page []byte) ([]captionTrack, error) {
	const marker = `"captionTracks":`

	idx := strings.Index(string(page), marker)
	if idx < 0 {
		return nil, fmt.Errorf("no caption tracks on watch page")
	}

	raw := jsonArrayAt(string(page)[idx+len(marker):])
	if raw == "" {
		return nil, fmt.Errorf("malformed caption track list")
	}

	var tracks []captionTrack
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	if len(tracks) == 0 {
		return nil, fmt.Errorf("empty caption track list")
	}
	return tracks, nil
}

// jsonArrayAt returns the balanced JSON array starting at the first byte of
// s, tolerating brackets inside string literals.
func jsonArrayAt(s string) string {
	if len(s) == 0 || s[0] != '[' {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

// pickTrack returns the first track matching the language preference order,
// or the first available track.
func pickTrack(tracks []captionTrack, preferred []string) captionTrack {
	for _, lang := range preferred {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	return tracks[0]
}

type timedTextDoc struct {
	Texts []struct {
		Start float64 `xml:"start,attr"`
		Dur   float64 `xml:"dur,attr"`
		Body  string  `xml:",chardata"`
	} `xml:"text"`
}

// parseTimedText decodes the timedtext XML into cleaned segments plus total
// duration in seconds.
func parseTimedText(body []byte) ([]string, int, error) {
	var doc timedTextDoc
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode timedtext: %w", err)
	}

	segments := make([]string, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// Entities are double-encoded in timedtext payloads.
		segments = append(segments, html.UnescapeString(t.Body))
	}

	duration := 0
	if n := len(doc.Texts); n > 0 {
		last := doc.Texts[n-1]
		duration = int(last.Start + last.Dur)
	}
	return segments, duration, nil
}

// combineTranscript joins caption segments into readable text, trimming each
// segment and collapsing internal whitespace. Idempotent on clean input.
func combineTranscript(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		segment = strings.ReplaceAll(segment, "\n", " ")
		segment = whitespaceExpr.ReplaceAllString(segment, " ")
		segment = strings.TrimSpace(segment)
		if segment != "" {
			parts = append(parts, segment)
		}
	}
	return strings.Join(parts, " ")
}
