// Package payload recovers a structured record from an inbound webhook body.
//
// TradingView sends whatever the alert author typed into the message box, so a
// body may be proper JSON, JSON with a wrong content type, or JSON embedded in
// free text. Extract tries each in turn.
package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	apperrors "tradingview-relay/internal/errors"
	"tradingview-relay/internal/models"
)

// ExcerptLimit is how many characters of a rejected body are kept for logging.
const ExcerptLimit = 300

const byteOrderMark = "\ufeff"

// Extract returns the record carried by body. The error is ErrNotAPayload-wrapping:
// ErrEmptyPayload, ErrNotARecord, or a *errors.PayloadError with an excerpt.
func Extract(body []byte, contentType string) (models.Record, error) {
	if isJSONContentType(contentType) {
		rec, err := decodeRecord(body)
		switch {
		case err == nil:
			return rec, nil
		case apperrors.Is(err, apperrors.ErrNotARecord):
			return nil, err
		}
	}

	text := strings.ToValidUTF8(string(body), string(utf8.RuneError))
	text = strings.TrimPrefix(text, byteOrderMark)
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.ErrEmptyPayload
	}

	rec, err := decodeRecord([]byte(text))
	if err == nil || apperrors.Is(err, apperrors.ErrNotARecord) {
		return rec, err
	}

	if fragment, ok := outermostObject(text); ok {
		if rec, ferr := decodeRecord([]byte(fragment)); ferr == nil {
			return rec, nil
		}
	}

	return nil, apperrors.NewPayloadError("no JSON object found", Excerpt(text), err)
}

// Excerpt truncates text to ExcerptLimit runes.
func Excerpt(text string) string {
	if utf8.RuneCountInString(text) <= ExcerptLimit {
		return text
	}
	runes := []rune(text)
	return string(runes[:ExcerptLimit])
}

// outermostObject returns the span from the first '{' to the last '}'.
func outermostObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// decodeRecord strictly decodes exactly one JSON value. A valid document whose
// top-level value is not an object yields ErrNotARecord.
func decodeRecord(data []byte) (models.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, apperrors.Wrap(errTrailingData, "decoding JSON")
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil, apperrors.ErrNotARecord
	}
	return models.RecordFromMap(obj), nil
}

var errTrailingData = errors.New("trailing data after JSON value")

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
