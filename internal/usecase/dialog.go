package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"engram/internal/domain"
	"engram/internal/ports"
)

// Follow-up chat runs warmer than summarization to allow more exploratory
// answers.
const followUpTemperature = 0.7

// ControllerDeps wires all driven adapters into the dialogue controller.
type ControllerDeps struct {
	Source ports.ContentExtractor
	LLM    ports.LLMRouter
	Sink   ports.NoteSink
	Index  ports.NoteIndex
	Logger *slog.Logger
}

// Controller owns per-user conversation state and routes each inbound
// message: a URL starts (or silently replaces) a session, plain text with an
// active session is a follow-up, plain text without one is a no-op prompt.
//
// Sessions live in memory only and are lost on restart. Each user key has
// its own exclusive lock; the transport delivers at most one message per
// user at a time, and different users never contend.
type Controller struct {
	source ports.ContentExtractor
	llm    ports.LLMRouter
	sink   ports.NoteSink
	index  ports.NoteIndex
	logger *slog.Logger

	mu    sync.Mutex
	slots map[int64]*userSlot
}

type userSlot struct {
	mu      sync.Mutex
	session *domain.Session
}

// NewController constructs the dialogue controller.
func NewController(deps ControllerDeps) *Controller {
	return &Controller{
		source: deps.Source,
		llm:    deps.LLM,
		sink:   deps.Sink,
		index:  deps.Index,
		logger: deps.Logger,
		slots:  map[int64]*userSlot{},
	}
}

func (c *Controller) slot(userID int64) *userSlot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.slots[userID]
	if !ok {
		s = &userSlot{}
		c.slots[userID] = s
	}
	return s
}

// HasSession reports whether the user currently has an active session.
func (c *Controller) HasSession(userID int64) bool {
	s := c.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session != nil
}

// HandleText routes a plain (non-command) inbound message and returns the
// reply. Only the first URL in the message is acted upon.
func (c *Controller) HandleText(ctx context.Context, userID int64, text string) string {
	s := c.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := FindURLs(text)
	switch {
	case len(urls) > 0:
		return c.startSession(ctx, s, text, urls[0])
	case s.session != nil:
		return c.followUp(ctx, s.session, text)
	default:
		return "💡 Send a link to capture its content\n\nSupported: YouTube, WeChat articles, web pages"
	}
}

// startSession runs the extraction+summarize pipeline. The slot is mutated
// only on success; any failure leaves the previous state untouched and
// surfaces the cause to the user.
func (c *Controller) startSession(ctx context.Context, s *userSlot, text, url string) string {
	instruction := ExtractInstruction(text, url)

	result, err := c.source.Extract(ctx, url)
	if err != nil {
		if errors.Is(err, domain.ErrNoExtractor) {
			return "❌ This link type is not supported yet\n\nSupported: YouTube, WeChat articles, web pages"
		}
		c.warn("extraction failed", "url", url, "error", err)
		return fmt.Sprintf("❌ Processing failed\n\nError: %v", err)
	}

	summary, err := c.llm.Summarize(ctx, result.Content, instruction)
	if err != nil {
		c.warn("summarize failed", "url", url, "error", err)
		return fmt.Sprintf("❌ Processing failed\n\nError: %v", err)
	}

	s.session = domain.NewSession(result, summary, systemPrompt(result, summary))
	c.info("session started", "url", url, "type", result.SourceType, "title", result.Title)

	return fmt.Sprintf("%s %s\n\n%s\n\n———\n🔗 %s\n\n💬 Ask follow-up questions, or /save to keep the note",
		emoji(result.SourceType), result.Title, summary, result.SourceURL)
}

// followUp appends the user's question, asks the model with the full
// accumulated history, and appends the answer. On failure the question turn
// stays in history so a bare retry resends it.
func (c *Controller) followUp(ctx context.Context, session *domain.Session, text string) string {
	session.AppendUser(text)

	answer, err := c.llm.Chat(ctx, session.History, followUpTemperature, 0)
	if err != nil {
		c.warn("follow-up failed", "error", err)
		return fmt.Sprintf("❌ Could not answer: %v", err)
	}

	session.AppendAssistant(answer)
	return answer + "\n\n———\n💬 Keep asking | /save to keep | /clear to reset"
}

// Start clears any session and greets.
func (c *Controller) Start(userID int64) string {
	s := c.slot(userID)
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()

	return `👋 Hi! I am Engram, your knowledge-capture assistant.

I can:
📺 extract YouTube video content
📄 summarize web articles
💬 answer follow-up questions
💾 save notes to your vault

How to use:
1. Send a link → get a summary
2. Keep asking → dig deeper
3. Send /save → keep the note

Send /help for more.`
}

// Help describes the command surface.
func (c *Controller) Help() string {
	return `📖 Engram guide

Basics
• Send a YouTube link → video summary
• Send an article link → article summary

Follow-ups
• After a summary, just type your question

Saving
• /save → save the current conversation
• /save My Title → save under a custom title

Other commands
• /clear → drop the current conversation
• /status → show session state`
}

// Clear unconditionally drops the session.
func (c *Controller) Clear(userID int64) string {
	s := c.slot(userID)
	s.mu.Lock()
	s.session = nil
	s.mu.Unlock()
	return "🗑️ Conversation cleared\n\nSend a new link to start a topic."
}

// Status reports title, source type, and completed turn count without
// mutating anything.
func (c *Controller) Status(userID int64) string {
	s := c.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "📭 No active session\n\nSend a link to start."
	}
	return fmt.Sprintf("📊 Current session\n\n📌 Title: %s\n🔗 Source: %s\n💬 Turns: %d\n\nKeep asking, /save to keep, /clear to reset.",
		s.session.Title, s.session.SourceType, s.session.TurnCount())
}

// Save formats the session into a note and writes it through the sink. The
// session is cleared only when the write succeeds, so a failed save can be
// retried without re-summarizing. A duplicate source is warned about, never
// blocked.
func (c *Controller) Save(ctx context.Context, userID int64, customTitle string) string {
	s := c.slot(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return "❌ Nothing to save\n\nSend a link first; once summarized you can save it."
	}

	title := strings.TrimSpace(customTitle)
	if title == "" {
		title = s.session.Title
	}

	duplicate := false
	if c.index != nil {
		if saved, err := c.index.AlreadySaved(ctx, s.session.SourceURL); err == nil {
			duplicate = saved
		}
	}

	now := time.Now()
	note := domain.Note{
		Title:      title,
		SourceURL:  s.session.SourceURL,
		SourceType: s.session.SourceType,
		CreatedAt:  now,
		Tags:       []string{"engram", string(s.session.SourceType)},
		Summary:    s.session.Summary,
		History:    append([]domain.Message(nil), s.session.History...),
	}

	filename, err := c.sink.SaveNote(ctx, note)
	if err != nil {
		c.warn("save failed", "title", title, "error", err)
		return fmt.Sprintf("❌ Save failed: %v", err)
	}

	if c.index != nil {
		if err := c.index.Record(ctx, domain.NoteRecord{
			Path:       filename,
			Title:      title,
			SourceURL:  note.SourceURL,
			SourceType: note.SourceType,
			SavedAt:    now,
		}); err != nil {
			c.warn("note index record failed", "error", err)
		}
	}

	s.session = nil

	reply := fmt.Sprintf("✅ Saved to vault\n\n📄 %s\n📁 Location: Inbox/\n\nSend a new link to start the next topic.", filename)
	if duplicate {
		reply += "\n\n⚠️ A note for this source was saved before."
	}
	return reply
}

func systemPrompt(result domain.ExtractionResult, summary string) string {
	return fmt.Sprintf(`You are a content analysis assistant. The user has just read a summary of the content below and may ask follow-up questions.

Title: %s
Type: %s
Summary:
%s

Original content (excerpt):
%s

Answer only from this content. When a question falls outside it, say so explicitly.`,
		result.Title, result.SourceType, summary, domain.TruncateRunes(result.Content, domain.ExcerptLimit))
}

func emoji(t domain.SourceType) string {
	switch t {
	case domain.SourceYouTube:
		return "📺"
	case domain.SourceArticle:
		return "📄"
	case domain.SourcePDF:
		return "📑"
	case domain.SourceImage:
		return "🖼️"
	default:
		return "📎"
	}
}

func (c *Controller) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Controller) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
