package whisper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"engram/internal/ports"
)

// maxAudioBytes matches the Groq upload ceiling (25 MB free tier).
const maxAudioBytes = 25 * 1024 * 1024

const defaultEndpoint = "https://api.groq.com/openai/v1/audio/transcriptions"

// Transcriber downloads video audio with yt-dlp and transcribes it through
// the Groq Whisper API. It is only wired in when an API key is configured.
type Transcriber struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Transcriber = (*Transcriber)(nil)

// NewTranscriber builds a transcriber; model defaults upstream of this call.
func NewTranscriber(apiKey, model string, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		apiKey:   apiKey,
		model:    model,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		logger:   logger,
	}
}

// Available reports whether transcription credentials are configured.
func (t *Transcriber) Available() bool {
	return t != nil && t.apiKey != ""
}

// TranscribeVideo downloads the audio track for a video and transcribes it.
// The temp directory is removed regardless of outcome.
func (t *Transcriber) TranscribeVideo(ctx context.Context, videoID string) (string, error) {
	if !t.Available() {
		return "", fmt.Errorf("transcriber not configured")
	}

	audioPath, cleanup, err := t.downloadAudio(ctx, videoID)
	if err != nil {
		return "", err
	}
	defer cleanup()

	info, err := os.Stat(audioPath)
	if err != nil {
		return "", fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() > maxAudioBytes {
		return "", fmt.Errorf("audio file too large (%.1f MB, max %d MB)",
			float64(info.Size())/1024/1024, maxAudioBytes/1024/1024)
	}

	t.debug("transcribing audio", "video", videoID, "bytes", info.Size(), "model", t.model)
	return t.transcribeFile(ctx, audioPath)
}

// downloadAudio shells out to yt-dlp for the smallest audio format, skipping
// any ffmpeg post-processing. Videos over 30 minutes are rejected up front.
func (t *Transcriber) downloadAudio(ctx context.Context, videoID string) (string, func(), error) {
	tempDir, err := os.MkdirTemp("", "engram-audio-")
	if err != nil {
		return "", nil, fmt.Errorf("temp dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tempDir) }

	target := "https://www.youtube.com/watch?v=" + videoID
	cmd := exec.CommandContext(ctx, "yt-dlp",
		"--format", "worstaudio[ext=m4a]/worstaudio[ext=webm]/worstaudio",
		"--output", filepath.Join(tempDir, "audio.%(ext)s"),
		"--match-filter", "duration < 1800",
		"--extractor-args", "youtube:player_client=android",
		"--quiet", "--no-warnings",
		target,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("yt-dlp: %v: %s", err, strings.TrimSpace(stderr.String()))
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("read temp dir: %w", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "audio") {
			return filepath.Join(tempDir, entry.Name()), cleanup, nil
		}
	}

	cleanup()
	return "", nil, fmt.Errorf("no audio downloaded for video %s", videoID)
}

// transcribeFile uploads the audio as multipart form data and expects a
// plain-text response body.
func (t *Transcriber) transcribeFile(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return "", fmt.Errorf("form model: %w", err)
	}
	if err := writer.WriteField("response_format", "text"); err != nil {
		return "", fmt.Errorf("form format: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcribe request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("transcription error %s: %s", resp.Status, strings.TrimSpace(string(excerpt)))
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return strings.TrimSpace(string(text)), nil
}

func (t *Transcriber) debug(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Debug(msg, args...)
	}
}
