package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"engram/internal/domain"
)

func TestVideoID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		id   string
		ok   bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/v/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?t=10&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"https://vimeo.com/watch?v=dQw4w9WgXcQ", "", false},
		{"https://example.com/article", "", false},
		{"not a url", "", false},
	}

	for _, tt := range tests {
		id, ok := videoID(tt.url)
		if ok != tt.ok || id != tt.id {
			t.Errorf("videoID(%q) = (%q, %v), want (%q, %v)", tt.url, id, ok, tt.id, tt.ok)
		}
	}
}

func TestCanHandle(t *testing.T) {
	t.Parallel()

	e := NewExtractor(nil, nil, nil)
	if !e.CanHandle("https://youtu.be/dQw4w9WgXcQ") {
		t.Error("expected youtu.be short link to be handled")
	}
	if e.CanHandle("https://medium.com/some-post") {
		t.Error("expected non-youtube url to be rejected")
	}
}

func TestCombineTranscript(t *testing.T) {
	t.Parallel()

	got := combineTranscript([]string{"Hello ", "world!", "  How are you?  ", "", "\nfine\n"})
	want := "Hello world! How are you? fine"
	if got != want {
		t.Errorf("combineTranscript = %q, want %q", got, want)
	}
}

func TestJSONArrayAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{`[1,2,3] trailing`, `[1,2,3]`},
		{`[[1],[2]]x`, `[[1],[2]]`},
		{`[{"u":"a]b"}]rest`, `[{"u":"a]b"}]`},
		{`[{"u":"esc\"]"}]rest`, `[{"u":"esc\"]"}]`},
		{`no array`, ``},
		{`[unclosed`, ``},
	}
	for _, tt := range tests {
		if got := jsonArrayAt(tt.in); got != tt.want {
			t.Errorf("jsonArrayAt(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPickTrack(t *testing.T) {
	t.Parallel()

	tracks := []captionTrack{
		{BaseURL: "/fr", LanguageCode: "fr"},
		{BaseURL: "/en", LanguageCode: "en"},
		{BaseURL: "/zh", LanguageCode: "zh"},
	}

	if got := pickTrack(tracks, preferredLanguages); got.LanguageCode != "zh" {
		t.Errorf("expected zh to win over en, got %q", got.LanguageCode)
	}

	only := []captionTrack{{BaseURL: "/de", LanguageCode: "de"}}
	if got := pickTrack(only, preferredLanguages); got.LanguageCode != "de" {
		t.Errorf("expected fallback to first track, got %q", got.LanguageCode)
	}
}

func TestParseTimedText(t *testing.T) {
	t.Parallel()

	body := []byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello &amp;amp; welcome</text>
  <text start="2.5" dur="3.0">to the show</text>
</transcript>`)

	segments, duration, err := parseTimedText(body)
	if err != nil {
		t.Fatalf("parseTimedText: %v", err)
	}
	if len(segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segments))
	}
	if segments[0] != "Hello & welcome" {
		t.Errorf("entities not unescaped: %q", segments[0])
	}
	if duration != 5 {
		t.Errorf("duration = %d, want 5", duration)
	}
}

func TestExtractWithCaptions(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<transcript><text start="0" dur="4">First part</text><text start="4" dur="6">second part</text></transcript>`))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("v") != "dQw4w9WgXcQ" {
			http.NotFound(w, r)
			return
		}
		page := `{"captionTracks":[{"baseUrl":"` + srv.URL + `/timedtext","languageCode":"en","kind":""}]}`
		w.Write([]byte(page))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"title":"Test Video"}`))
	})

	e := NewExtractor(srv.Client(), nil, nil)
	e.watchBase = srv.URL
	e.oembedBase = srv.URL + "/oembed"

	result, err := e.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Title != "Test Video" {
		t.Errorf("title = %q", result.Title)
	}
	if result.Content != "First part second part" {
		t.Errorf("content = %q", result.Content)
	}
	if result.SourceType != domain.SourceYouTube {
		t.Errorf("source type = %q", result.SourceType)
	}
	if result.Language != "en" {
		t.Errorf("language = %q", result.Language)
	}
	if result.DurationSec != 10 {
		t.Errorf("duration = %d, want 10", result.DurationSec)
	}
}

type fakeTranscriber struct {
	available bool
	text      string
	err       error
	calledID  string
}

func (f *fakeTranscriber) Available() bool { return f.available }
func (f *fakeTranscriber) TranscribeVideo(_ context.Context, id string) (string, error) {
	f.calledID = id
	return f.text, f.err
}

func TestExtractFallsBackToTranscriber(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// Watch page carries no caption tracks; oEmbed fails, so the title
	// falls back to the synthesized form.
	mux.HandleFunc("/watch", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>no captions here</html>`))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	tr := &fakeTranscriber{available: true, text: "spoken words"}
	e := NewExtractor(srv.Client(), tr, nil)
	e.watchBase = srv.URL
	e.oembedBase = srv.URL + "/oembed"

	result, err := e.Extract(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if tr.calledID != "dQw4w9WgXcQ" {
		t.Errorf("transcriber called with %q", tr.calledID)
	}
	if result.Content != "spoken words" {
		t.Errorf("content = %q", result.Content)
	}
	if result.Title != "YouTube Video dQw4w9WgXcQ" {
		t.Errorf("title = %q", result.Title)
	}
}

func TestExtractNoTranscriptWithoutFallback(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/watch", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html>nothing</html>`))
	})
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	})

	e := NewExtractor(srv.Client(), nil, nil)
	e.watchBase = srv.URL
	e.oembedBase = srv.URL + "/oembed"

	_, err := e.Extract(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	if !errors.Is(err, domain.ErrNoTranscript) {
		t.Fatalf("expected ErrNoTranscript, got %v", err)
	}
}
