package domain

// Message roles used in the exchange history.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ContentLimit bounds the extracted content kept inside a Session.
// ExcerptLimit bounds the content excerpt embedded in the system instruction.
const (
	ContentLimit = 8000
	ExcerptLimit = 4000
)

// Message is a single turn in a chat exchange.
type Message struct {
	Role    string
	Content string
}

// Session is transient per-user conversation state. It exists only while a
// captured link is being discussed: created after extraction+summarization,
// destroyed by clear, successful save, or process exit.
//
// Invariants: History[0] is the system instruction, History[1] is the initial
// assistant summary, and later turns alternate user/assistant.
type Session struct {
	Title      string
	SourceURL  string
	SourceType SourceType
	Content    string // truncated to ContentLimit runes
	Summary    string
	History    []Message
}

// NewSession builds a session from extraction output, the generated summary,
// and the prepared system instruction.
func NewSession(result ExtractionResult, summary, systemPrompt string) *Session {
	return &Session{
		Title:      result.Title,
		SourceURL:  result.SourceURL,
		SourceType: result.SourceType,
		Content:    TruncateRunes(result.Content, ContentLimit),
		Summary:    summary,
		History: []Message{
			{Role: RoleSystem, Content: systemPrompt},
			{Role: RoleAssistant, Content: summary},
		},
	}
}

// AppendUser adds a user turn to the history.
func (s *Session) AppendUser(text string) {
	s.History = append(s.History, Message{Role: RoleUser, Content: text})
}

// AppendAssistant adds an assistant turn to the history.
func (s *Session) AppendAssistant(text string) {
	s.History = append(s.History, Message{Role: RoleAssistant, Content: text})
}

// TurnCount reports completed question/answer rounds, excluding the system
// instruction and the initial summary.
func (s *Session) TurnCount() int {
	return (len(s.History) - 1) / 2
}

// TruncateRunes caps a string at n runes without splitting multi-byte
// characters.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
