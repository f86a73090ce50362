package vault

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"engram/internal/domain"
)

// NoteMeta is the front-matter block of a persisted note.
type NoteMeta struct {
	Title      string   `yaml:"title"`
	Source     string   `yaml:"source"`
	SourceType string   `yaml:"source_type"`
	Created    string   `yaml:"created"`
	Tags       []string `yaml:"tags,flow"`
}

const createdLayout = "2006-01-02 15:04"

var sourceEmoji = map[domain.SourceType]string{
	domain.SourceYouTube: "📺",
	domain.SourceArticle: "📄",
	domain.SourcePDF:     "📑",
	domain.SourceImage:   "🖼️",
	domain.SourceText:    "📝",
}

// Emoji returns the marker used in chat replies and note headings.
func Emoji(t domain.SourceType) string {
	if e, ok := sourceEmoji[t]; ok {
		return e
	}
	return "📎"
}

// FormatNote renders a session note as Markdown with YAML front matter. The
// conversation section lists Q/A pairs, excluding the system instruction and
// the first assistant turn (which duplicates the summary).
func FormatNote(note domain.Note) (string, error) {
	meta := NoteMeta{
		Title:      note.Title,
		Source:     note.SourceURL,
		SourceType: string(note.SourceType),
		Created:    note.CreatedAt.Format(createdLayout),
		Tags:       note.Tags,
	}

	front, err := yaml.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s %s\n\n", Emoji(note.SourceType), note.Title)
	fmt.Fprintf(&b, "## Source\n%s\n\n", note.SourceURL)
	fmt.Fprintf(&b, "## Summary\n%s\n", note.Summary)

	conversation := renderConversation(note.History)
	if conversation != "" {
		b.WriteString("\n## Conversation\n\n")
		b.WriteString(conversation)
	}

	return b.String(), nil
}

// renderConversation formats follow-up turns as Q/A lines. A trailing
// unanswered question is kept as-is.
func renderConversation(history []domain.Message) string {
	var lines []string
	seenAssistant := false

	for _, msg := range history {
		switch msg.Role {
		case domain.RoleSystem:
			continue
		case domain.RoleAssistant:
			if !seenAssistant {
				// The first assistant turn is the summary itself.
				seenAssistant = true
				continue
			}
			lines = append(lines, fmt.Sprintf("**A:** %s\n", msg.Content))
		case domain.RoleUser:
			lines = append(lines, fmt.Sprintf("**Q:** %s", msg.Content))
		}
	}

	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n")
}

// ParseFrontMatter reads the YAML block back out of a rendered note.
func ParseFrontMatter(content string) (NoteMeta, error) {
	var meta NoteMeta

	rest, found := strings.CutPrefix(content, "---\n")
	if !found {
		return meta, fmt.Errorf("missing front matter")
	}
	block, _, found := strings.Cut(rest, "---\n")
	if !found {
		return meta, fmt.Errorf("unterminated front matter")
	}

	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, fmt.Errorf("parse front matter: %w", err)
	}
	return meta, nil
}
