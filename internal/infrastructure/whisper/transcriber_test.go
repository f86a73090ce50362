package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAvailable(t *testing.T) {
	t.Parallel()

	if NewTranscriber("", "whisper-large-v3-turbo", nil).Available() {
		t.Error("transcriber without key reports available")
	}
	if !NewTranscriber("gsk-test", "whisper-large-v3-turbo", nil).Available() {
		t.Error("configured transcriber reports unavailable")
	}

	var nilTr *Transcriber
	if nilTr.Available() {
		t.Error("nil transcriber reports available")
	}
}

func TestTranscribeFile(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gsk-test" {
			t.Errorf("authorization = %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-large-v3-turbo" {
			t.Errorf("model = %q", got)
		}
		if got := r.FormValue("response_format"); got != "text" {
			t.Errorf("response_format = %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("file part missing: %v", err)
		}
		w.Write([]byte("  transcribed speech  \n"))
	}))
	defer srv.Close()

	audioPath := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(audioPath, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	tr := NewTranscriber("gsk-test", "whisper-large-v3-turbo", nil)
	tr.endpoint = srv.URL
	tr.client = srv.Client()

	text, err := tr.transcribeFile(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("transcribeFile: %v", err)
	}
	if text != "transcribed speech" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribeFileUpstreamError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	audioPath := filepath.Join(t.TempDir(), "audio.m4a")
	if err := os.WriteFile(audioPath, []byte("fake audio bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	tr := NewTranscriber("gsk-bad", "whisper-large-v3-turbo", nil)
	tr.endpoint = srv.URL
	tr.client = srv.Client()

	_, err := tr.transcribeFile(context.Background(), audioPath)
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if !strings.Contains(err.Error(), "invalid api key") {
		t.Errorf("upstream body not surfaced: %v", err)
	}
}

func TestTranscribeVideoUnconfigured(t *testing.T) {
	t.Parallel()

	tr := NewTranscriber("", "whisper-large-v3-turbo", nil)
	if _, err := tr.TranscribeVideo(context.Background(), "dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error without credentials")
	}
}
