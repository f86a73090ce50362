package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var urlExpr = regexp.MustCompile(`https?://\S+`)

const (
	defaultAPIBase = "https://api.telegram.org"

	// Long-poll window; the HTTP client timeout must exceed it.
	pollTimeoutSec = 30
)

// Handler is the dialogue surface the bot drives. It mirrors the command
// set plus free-text routing of the dialogue controller.
type Handler interface {
	HandleText(ctx context.Context, userID int64, text string) string
	HasSession(userID int64) bool
	Start(userID int64) string
	Help() string
	Clear(userID int64) string
	Status(userID int64) string
	Save(ctx context.Context, userID int64, customTitle string) string
}

// Bot long-polls the Telegram Bot API and dispatches updates. Messages from
// one chat are processed strictly in order by a per-chat worker; different
// chats run concurrently.
type Bot struct {
	token   string
	apiBase string
	client  *http.Client
	handler Handler
	logger  *slog.Logger

	mu      sync.Mutex
	workers map[int64]chan incomingMessage
	wg      sync.WaitGroup
}

// NewBot wires the bot against a handler.
func NewBot(token string, handler Handler, logger *slog.Logger) *Bot {
	return &Bot{
		token:   token,
		apiBase: defaultAPIBase,
		client:  &http.Client{Timeout: (pollTimeoutSec + 20) * time.Second},
		handler: handler,
		logger:  logger,
		workers: map[int64]chan incomingMessage{},
	}
}

type update struct {
	UpdateID int64            `json:"update_id"`
	Message  *incomingMessage `json:"message"`
}

type incomingMessage struct {
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	Caption   string `json:"caption"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
}

// Run polls until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if b.token == "" {
		return fmt.Errorf("telegram bot token not configured")
	}

	b.info("bot polling started")
	var offset int64
	for {
		select {
		case <-ctx.Done():
			b.wg.Wait()
			return ctx.Err()
		default:
		}

		updates, err := b.getUpdates(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				b.wg.Wait()
				return ctx.Err()
			}
			b.warn("getUpdates failed", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			if upd.Message == nil {
				continue
			}
			b.dispatch(ctx, *upd.Message)
		}
	}
}

// dispatch hands the message to the chat's worker, creating one on first
// contact. Per-chat ordering is what lets the controller assume at most one
// in-flight handler per user.
func (b *Bot) dispatch(ctx context.Context, msg incomingMessage) {
	b.mu.Lock()
	ch, ok := b.workers[msg.Chat.ID]
	if !ok {
		ch = make(chan incomingMessage, 16)
		b.workers[msg.Chat.ID] = ch
		b.wg.Add(1)
		go b.chatWorker(ctx, ch)
	}
	b.mu.Unlock()

	select {
	case ch <- msg:
	default:
		b.warn("chat queue full, dropping message", "chat", msg.Chat.ID)
	}
}

func (b *Bot) chatWorker(ctx context.Context, ch <-chan incomingMessage) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ch:
			b.handle(ctx, msg)
		}
	}
}

func (b *Bot) handle(ctx context.Context, msg incomingMessage) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	chatID := msg.Chat.ID

	if cmd, args, ok := ParseCommand(text); ok {
		b.handleCommand(ctx, chatID, cmd, args)
		return
	}

	// URL processing and follow-ups are slow; show an editable status first.
	// This is UX only; the routing contract lives in the controller.
	slow := urlExpr.MatchString(text) || b.handler.HasSession(chatID)
	if !slow {
		b.reply(ctx, chatID, b.handler.HandleText(ctx, chatID, text))
		return
	}

	statusID, err := b.sendMessage(ctx, chatID, "🔄 Working on it…")
	reply := b.handler.HandleText(ctx, chatID, text)
	if err != nil || b.editMessage(ctx, chatID, statusID, reply) != nil {
		b.reply(ctx, chatID, reply)
	}
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start":
		b.reply(ctx, chatID, b.handler.Start(chatID))
	case "help":
		b.reply(ctx, chatID, b.handler.Help())
	case "clear":
		b.reply(ctx, chatID, b.handler.Clear(chatID))
	case "status":
		b.reply(ctx, chatID, b.handler.Status(chatID))
	case "save":
		statusID, err := b.sendMessage(ctx, chatID, "💾 Saving…")
		reply := b.handler.Save(ctx, chatID, args)
		if err != nil || b.editMessage(ctx, chatID, statusID, reply) != nil {
			b.reply(ctx, chatID, reply)
		}
	default:
		b.debug("ignoring unknown command", "command", cmd, "chat", chatID)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if _, err := b.sendMessage(ctx, chatID, text); err != nil {
		b.warn("sendMessage failed", "chat", chatID, "error", err)
	}
}

// ParseCommand splits "/save My Title" into ("save", "My Title", true). A
// bot-name suffix ("/save@engram_bot") is stripped.
func ParseCommand(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}

	token, args, _ := strings.Cut(text[1:], " ")
	token, _, _ = strings.Cut(token, "@")
	if token == "" {
		return "", "", false
	}
	return strings.ToLower(token), strings.TrimSpace(args), true
}

func (b *Bot) getUpdates(ctx context.Context, offset int64) ([]update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(pollTimeoutSec))
	form.Set("allowed_updates", `["message"]`)

	var result []update
	if err := b.call(ctx, "getUpdates", form, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (b *Bot) sendMessage(ctx context.Context, chatID int64, text string) (int64, error) {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)

	var result struct {
		MessageID int64 `json:"message_id"`
	}
	if err := b.call(ctx, "sendMessage", form, &result); err != nil {
		return 0, err
	}
	return result.MessageID, nil
}

func (b *Bot) editMessage(ctx context.Context, chatID, messageID int64, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("message_id", strconv.FormatInt(messageID, 10))
	form.Set("text", text)
	return b.call(ctx, "editMessageText", form, nil)
}

// call posts a form-encoded Bot API method and decodes the result envelope.
func (b *Bot) call(ctx context.Context, method string, form url.Values, result any) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", b.apiBase, b.token, method)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram %s: %s: %s", method, resp.Status, strings.TrimSpace(string(excerpt)))
	}

	var envelope struct {
		OK          bool            `json:"ok"`
		Result      json.RawMessage `json:"result"`
		Description string          `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s: %s", method, envelope.Description)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}
	return nil
}

func (b *Bot) info(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Info(msg, args...)
	}
}

func (b *Bot) warn(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Warn(msg, args...)
	}
}

func (b *Bot) debug(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}
