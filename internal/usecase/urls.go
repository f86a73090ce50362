package usecase

import (
	"regexp"
	"strings"
)

// Generic URL scan, deliberately not restricted to recognized content hosts;
// host filtering is the registry's job.
var urlExpr = regexp.MustCompile(`https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// FindURLs returns every URL in the text, in order of appearance.
func FindURLs(text string) []string {
	return urlExpr.FindAllString(text, -1)
}

// ExtractInstruction returns any leading text before the URL's position; it
// is used as a custom summarization instruction.
func ExtractInstruction(text, url string) string {
	idx := strings.Index(text, url)
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(text[:idx])
}
