package article

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"engram/internal/domain"
)

// minContentLength guards against extracting navigation chrome instead of
// the article body.
const minContentLength = 100

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Publisher domains accepted outright.
var supportedDomains = []string{
	"mp.weixin.qq.com",
	"medium.com",
	"substack.com",
	"zhihu.com",
	"zhuanlan.zhihu.com",
	"juejin.cn",
	"36kr.com",
	"sspai.com",
}

// Non-article URLs rejected for unknown domains: video and social hosts,
// plus direct media/document links.
var excludedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)youtube\.com`),
	regexp.MustCompile(`(?i)youtu\.be`),
	regexp.MustCompile(`(?i)twitter\.com`),
	regexp.MustCompile(`(?i)x\.com`),
	regexp.MustCompile(`(?i)facebook\.com`),
	regexp.MustCompile(`(?i)instagram\.com`),
	regexp.MustCompile(`(?i)tiktok\.com`),
	regexp.MustCompile(`(?i)\.pdf$`),
	regexp.MustCompile(`(?i)\.jpg$`),
	regexp.MustCompile(`(?i)\.png$`),
	regexp.MustCompile(`(?i)\.gif$`),
}

// Generic content containers tried in order.
var contentSelectors = []string{
	"article",
	".article-content",
	".post-content",
	".entry-content",
	".content",
	"main",
	".rich_media_content",
}

// Extractor pulls article text out of web pages. WeChat articles get a
// platform-specific strategy; everything else goes through the generic
// container walk.
type Extractor struct {
	client *http.Client
	logger *slog.Logger
}

// NewExtractor wires an HTTP client; the default carries a 30s bound.
func NewExtractor(client *http.Client, logger *slog.Logger) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Extractor{client: client, logger: logger}
}

// Name identifies the extractor inside the registry.
func (e *Extractor) Name() string { return "article" }

// CanHandle accepts known publisher domains outright and any other http(s)
// URL that does not match the denylist.
func (e *Extractor) CanHandle(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Host)
	for _, known := range supportedDomains {
		if strings.Contains(host, known) {
			return true
		}
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	for _, pattern := range excludedPatterns {
		if pattern.MatchString(rawURL) {
			return false
		}
	}
	return true
}

// Extract fetches the page and applies the domain-selected strategy.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (domain.ExtractionResult, error) {
	doc, err := e.fetchDocument(ctx, rawURL)
	if err != nil {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: rawURL, Err: err}
	}

	parsed, _ := url.Parse(rawURL)
	host := ""
	if parsed != nil {
		host = strings.ToLower(parsed.Host)
	}

	var title, content string
	if strings.Contains(host, "mp.weixin.qq.com") {
		title, content = parseWeChat(doc)
	} else {
		title, content = parseGeneric(doc)
	}

	if len(strings.TrimSpace(content)) < minContentLength {
		return domain.ExtractionResult{}, &domain.ExtractionError{URL: rawURL, Err: domain.ErrInsufficientContent}
	}

	if title == "" {
		title = "Untitled Article"
	}

	if e.logger != nil {
		e.logger.Debug("extracted article", "url", rawURL, "chars", len(content))
	}

	return domain.ExtractionResult{
		Title:       title,
		Content:     content,
		SourceType:  domain.SourceArticle,
		SourceURL:   rawURL,
		Language:    detectLanguage(content),
		ExtractedAt: time.Now(),
	}, nil
}

func (e *Extractor) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d fetching %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// parseWeChat locates the known WeChat container elements.
func parseWeChat(doc *goquery.Document) (string, string) {
	title := strings.TrimSpace(doc.Find("h1.rich_media_title").First().Text())

	container := doc.Find("div.rich_media_content").First()
	if container.Length() == 0 {
		container = doc.Find("div#js_content").First()
	}
	if container.Length() == 0 {
		return title, ""
	}

	container.Find("script, style").Remove()

	var paragraphs []string
	container.Find("p, section").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len([]rune(text)) > 10 {
			paragraphs = append(paragraphs, text)
		}
	})

	return title, strings.Join(paragraphs, "\n\n")
}

// parseGeneric walks the ordered container selectors and keeps the first one
// yielding non-trivial text, falling back to every paragraph on the page.
func parseGeneric(doc *goquery.Document) (string, string) {
	doc.Find("script, style, nav, header, footer, aside").Remove()

	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	for _, selector := range contentSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find("p, h2, h3, li").Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len([]rune(text)) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})

		if len(paragraphs) > 0 {
			return title, strings.Join(paragraphs, "\n\n")
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len([]rune(text)) > 30 {
			paragraphs = append(paragraphs, text)
		}
	})
	return title, strings.Join(paragraphs, "\n\n")
}

// detectLanguage classifies content as "zh" when more than 30% of its runes
// fall in the CJK block.
func detectLanguage(content string) string {
	total := 0
	cjk := 0
	for _, r := range content {
		total++
		if r >= 0x4E00 && r <= 0x9FFF {
			cjk++
		}
	}
	if total > 0 && float64(cjk)/float64(total) > 0.3 {
		return "zh"
	}
	return "en"
}
