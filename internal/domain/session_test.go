package domain

import (
	"strings"
	"testing"
)

func TestNewSessionHistoryShape(t *testing.T) {
	t.Parallel()

	result := ExtractionResult{
		Title:      "A Talk",
		SourceURL:  "https://example.com/talk",
		SourceType: SourceYouTube,
		Content:    strings.Repeat("x", ContentLimit+1000),
	}

	s := NewSession(result, "the summary", "the instruction")

	if len(s.History) != 2 {
		t.Fatalf("history length = %d", len(s.History))
	}
	if s.History[0].Role != RoleSystem || s.History[0].Content != "the instruction" {
		t.Errorf("history[0] = %+v", s.History[0])
	}
	if s.History[1].Role != RoleAssistant || s.History[1].Content != "the summary" {
		t.Errorf("history[1] = %+v", s.History[1])
	}
	if len([]rune(s.Content)) != ContentLimit {
		t.Errorf("content kept %d runes, want %d", len([]rune(s.Content)), ContentLimit)
	}
}

func TestTurnCount(t *testing.T) {
	t.Parallel()

	s := NewSession(ExtractionResult{}, "summary", "system")
	if s.TurnCount() != 0 {
		t.Errorf("fresh session turns = %d", s.TurnCount())
	}

	s.AppendUser("q1")
	s.AppendAssistant("a1")
	if s.TurnCount() != 1 {
		t.Errorf("after one round turns = %d", s.TurnCount())
	}

	// An unanswered question does not count as a completed round.
	s.AppendUser("q2")
	if s.TurnCount() != 1 {
		t.Errorf("with pending question turns = %d", s.TurnCount())
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	if got := TruncateRunes("hello", 10); got != "hello" {
		t.Errorf("short string changed: %q", got)
	}
	if got := TruncateRunes("hello", 3); got != "hel" {
		t.Errorf("truncation = %q", got)
	}
	if got := TruncateRunes("中文内容测试", 2); got != "中文" {
		t.Errorf("multi-byte truncation = %q", got)
	}
	if got := TruncateRunes("anything", 0); got != "" {
		t.Errorf("zero limit = %q", got)
	}
}
