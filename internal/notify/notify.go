// Package notify delivers rendered alerts to Telegram.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"tradingview-relay/internal/config"
	apperrors "tradingview-relay/internal/errors"
	"tradingview-relay/internal/logging"
	"tradingview-relay/internal/models"
	"tradingview-relay/internal/security"
)

// DefaultTimeout bounds a single sendMessage call.
const DefaultTimeout = 5 * time.Second

// ParseModeHTML is the Telegram parse mode the formatter targets.
const ParseModeHTML = "HTML"

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// Sender delivers a notification. Implementations absorb every failure.
type Sender interface {
	Send(ctx context.Context, n models.Notification)
}

// Outcome is the result of one delivery attempt.
type Outcome string

const (
	OutcomeSent    Outcome = "sent"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// Result describes what happened to one notification.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Duration   time.Duration
	Err        error
}

// TelegramSender sends notifications with the Bot API sendMessage method.
type TelegramSender struct {
	botToken              string
	chatID                string
	apiURL                string
	buttonCaption         string
	disableWebPagePreview bool
	timeout               time.Duration
	client                *http.Client
	logger                *security.SafeLogger
}

// NewTelegramSender creates a new TelegramSender from cfg.
func NewTelegramSender(cfg config.TelegramConfig, logger zerolog.Logger) *TelegramSender {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TelegramSender{
		botToken:              strings.TrimSpace(cfg.BotToken),
		chatID:                strings.TrimSpace(cfg.ChatID),
		apiURL:                strings.TrimSuffix(cfg.APIURL, "/"),
		buttonCaption:         cfg.ButtonCaption,
		disableWebPagePreview: cfg.DisableWebPagePreview,
		timeout:               timeout,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: security.NewSafeLogger(logging.WithOperation(logger, "telegram")),
	}
}

// IsEnabled reports whether both bot token and chat id are set.
func (t *TelegramSender) IsEnabled() bool {
	return t.botToken != "" && t.chatID != ""
}

// Send delivers n and logs the outcome. It never returns an error: delivery
// is best-effort and independent of the webhook acknowledgement.
func (t *TelegramSender) Send(ctx context.Context, n models.Notification) {
	res := t.Deliver(ctx, n)

	log := t.logger
	if l := logging.FromContext(ctx); l.GetLevel() != zerolog.Disabled {
		log = security.NewSafeLogger(logging.WithOperation(l, "telegram"))
	}

	switch res.Outcome {
	case OutcomeSent:
		log.Info().
			Str("event", "delivery").
			Str("outcome", string(res.Outcome)).
			Int("status", res.StatusCode).
			Bool("button", n.HasLink()).
			Msg("Message sent to Telegram")
	case OutcomeSkipped:
		log.Warn().
			Str("event", "delivery").
			Str("outcome", string(res.Outcome)).
			Err(res.Err).
			Msg("Missing TELEGRAM_TOKEN or CHAT_ID, message not sent")
	default:
		log.Error().
			Str("event", "delivery").
			Str("outcome", string(res.Outcome)).
			Int("status", res.StatusCode).
			Err(res.Err).
			Msg("Telegram send failed")
	}
}

// sendMessageRequest is the sendMessage JSON body.
type sendMessageRequest struct {
	ChatID                string       `json:"chat_id"`
	Text                  string       `json:"text"`
	ParseMode             string       `json:"parse_mode"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup           *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// apiResponse is the envelope of every Bot API reply.
type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// BuildRequest returns the sendMessage body for n.
func (t *TelegramSender) BuildRequest(n models.Notification) ([]byte, error) {
	req := sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  n.Text,
		ParseMode:             ParseModeHTML,
		DisableWebPagePreview: t.disableWebPagePreview,
	}
	if n.HasLink() {
		req.ReplyMarkup = &replyMarkup{
			InlineKeyboard: [][]inlineButton{{{Text: t.buttonCaption, URL: n.LinkURL}}},
		}
	}
	return json.Marshal(req)
}

// Deliver performs one sendMessage call and reports the outcome. It never
// retries. The only log line it writes is the debug-level API call record;
// the outcome itself is logged by Send.
func (t *TelegramSender) Deliver(ctx context.Context, n models.Notification) Result {
	if !t.IsEnabled() {
		return Result{Outcome: OutcomeSkipped, Err: apperrors.ErrNotConfigured}
	}

	start := time.Now()
	status, err := t.post(ctx, n)
	res := Result{StatusCode: status, Duration: time.Since(start), Err: err}
	if err != nil {
		res.Outcome = OutcomeFailed
	} else {
		res.Outcome = OutcomeSent
	}

	logging.LogAPICall(t.logger.Logger(), http.MethodPost, "sendMessage", res.Duration, maskErr(err))
	return res
}

func (t *TelegramSender) post(ctx context.Context, n models.Notification) (int, error) {
	body, err := t.BuildRequest(n)
	if err != nil {
		return 0, fmt.Errorf("marshaling telegram payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating telegram request: %w", maskErr(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, apperrors.NewDeliveryError(0, 0, "", fmt.Errorf("sending telegram message: %w", maskErr(err)))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return resp.StatusCode, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return resp.StatusCode, apperrors.NewDeliveryError(resp.StatusCode, 0, "", fmt.Errorf("reading telegram response: %w", maskErr(err)))
	}

	var apiResp apiResponse
	if err := json.Unmarshal(data, &apiResp); err != nil || apiResp.Description == "" {
		return resp.StatusCode, apperrors.NewDeliveryError(resp.StatusCode, 0, strings.TrimSpace(string(data)), nil)
	}
	return resp.StatusCode, apperrors.NewDeliveryError(resp.StatusCode, apiResp.ErrorCode, apiResp.Description, nil)
}

// maskErr strips the bot token, which net/http errors carry inside the URL.
func maskErr(err error) error {
	if err == nil {
		return nil
	}
	return maskedError{msg: security.MaskSecrets(err.Error()), err: err}
}

type maskedError struct {
	msg string
	err error
}

func (e maskedError) Error() string { return e.msg }
func (e maskedError) Unwrap() error { return e.err }

// NoOpSender discards notifications.
type NoOpSender struct{}

// NewNoOpSender creates a new NoOpSender.
func NewNoOpSender() *NoOpSender {
	return &NoOpSender{}
}

// Send does nothing.
func (n *NoOpSender) Send(ctx context.Context, notif models.Notification) {}
