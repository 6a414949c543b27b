package security

import (
	"regexp"
	"strings"

	apperrors "tradingview-relay/internal/errors"
)

// Validation patterns
var (
	// Bot API tokens look like 123456789:AA...; the secret half is 35 chars today.
	botTokenPattern = regexp.MustCompile(`^\d{5,}:[A-Za-z0-9_-]{20,}$`)

	// Chat ids are signed integers (-100... for channels) or @channel usernames.
	chatIDPattern = regexp.MustCompile(`^(-?\d{1,20}|@[A-Za-z][A-Za-z0-9_]{4,31})$`)
)

// ValidateBotToken checks that token has the shape of a Telegram bot token.
// The token itself never appears in the returned error. Errors match
// errors.ErrConfigInvalid.
func ValidateBotToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return apperrors.NewValidationError("telegram.bot_token", "", "bot token cannot be empty")
	}
	if !botTokenPattern.MatchString(token) {
		return apperrors.NewValidationError("telegram.bot_token", MaskCredential(token), "invalid bot token format")
	}
	return nil
}

// ValidateChatID checks that id is a numeric chat id or an @channel username.
func ValidateChatID(id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperrors.NewValidationError("telegram.chat_id", "", "chat id cannot be empty")
	}
	if !chatIDPattern.MatchString(id) {
		return apperrors.NewValidationError("telegram.chat_id", id, "chat id must be numeric or an @channel username")
	}
	return nil
}

// MaskCredential masks a credential for display, showing only first/last few characters.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
