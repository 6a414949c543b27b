// Package alert turns a decoded webhook record into display-ready alert fields.
package alert

import (
	"math/big"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"tradingview-relay/internal/models"
	"tradingview-relay/pkg/utils"
)

// Payload field names read by the normalizer.
const (
	FieldSymbol    = "symbol"
	FieldPrice     = "price"
	FieldCondition = "condition"
	FieldTime      = "time"
	FieldInterval  = "interval"
	FieldStrategy  = "strategy"
)

// Prices at or above maxPrice are passed through as text; rendering them in
// full would produce arbitrarily long strings.
var (
	maxPrice    = decimal.New(1, 30)
	maxPriceExp = int32(30)
)

// Below this exponent a value is checked for magnitude before rounding, so a
// literal like 1e-999999999 is never rescaled.
const minPriceExp = int32(-30)

const (
	isoLayout     = "2006-01-02T15:04:05"
	displayLayout = "2006-01-02 15:04 UTC"
)

// Normalizer coerces record fields into a models.Alert. It never fails.
type Normalizer struct {
	clock  clock.Clock
	logger zerolog.Logger
}

// NewNormalizer creates a Normalizer. A nil clock means the wall clock.
func NewNormalizer(clk clock.Clock, logger zerolog.Logger) *Normalizer {
	if clk == nil {
		clk = clock.New()
	}
	return &Normalizer{clock: clk, logger: logger}
}

// Normalize applies the per-field coercion and defaulting rules.
func (n *Normalizer) Normalize(rec models.Record) models.Alert {
	direction, label := ClassifyCondition(text(rec, FieldCondition))

	return models.Alert{
		Symbol:         n.symbol(rec),
		PriceText:      n.price(rec),
		Direction:      direction,
		DirectionLabel: label,
		TimeText:       n.time(rec),
		Interval:       strings.TrimSpace(text(rec, FieldInterval)),
		Strategy:       strings.TrimSpace(text(rec, FieldStrategy)),
	}
}

func (n *Normalizer) symbol(rec models.Record) string {
	s := text(rec, FieldSymbol)
	if strings.TrimSpace(s) == "" {
		return models.PlaceholderSymbol
	}
	return s
}

func (n *Normalizer) price(rec models.Record) string {
	raw, ok := rec.Text(FieldPrice)
	if !ok || strings.TrimSpace(raw) == "" {
		return models.PlaceholderSymbol
	}

	formatted, ok := FormatPrice(raw)
	if !ok {
		n.logger.Debug().Str("field", FieldPrice).Str("value", raw).Msg("Price is not numeric, passing through")
	}
	return formatted
}

func (n *Normalizer) time(rec models.Record) string {
	raw := strings.TrimSpace(text(rec, FieldTime))
	if raw == "" {
		return n.clock.Now().UTC().Format(displayLayout)
	}

	formatted, ok := FormatTime(raw)
	if !ok {
		n.logger.Debug().Str("field", FieldTime).Str("value", raw).Msg("Time is not ISO-8601, passing through")
	}
	return formatted
}

// FormatPrice parses raw as a decimal number, retrying with ',' read as the
// decimal mark, and renders it grouped with two decimals. When both attempts
// fail it returns raw unchanged and false.
func FormatPrice(raw string) (string, bool) {
	s := strings.TrimSpace(raw)

	d, err := decimal.NewFromString(s)
	if err != nil {
		d, err = decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	}
	if err != nil {
		return raw, false
	}
	if d.Exponent() > maxPriceExp || d.Abs().GreaterThanOrEqual(maxPrice) {
		return raw, false
	}
	if d.Exponent() < minPriceExp && roundsToZero(d) {
		return utils.FormatGrouped(decimal.Zero), true
	}
	return utils.FormatGrouped(d), true
}

// roundsToZero reports whether |d| < 0.001 without rescaling d. A coefficient of
// n digits at exponent e is below 10^(n+e).
func roundsToZero(d decimal.Decimal) bool {
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	return int64(digits)+int64(d.Exponent()) <= -3
}

// FormatTime reformats an ISO-8601 "YYYY-MM-DDTHH:MM:SS[Z]" timestamp as
// "YYYY-MM-DD HH:MM UTC". Anything else is returned unchanged with false.
func FormatTime(raw string) (string, bool) {
	if !strings.Contains(raw, "T") {
		return raw, false
	}

	t, err := time.Parse(isoLayout, strings.TrimSuffix(raw, "Z"))
	if err != nil {
		return raw, false
	}
	return t.Format(displayLayout), true
}

// ClassifyCondition maps condition text to a direction and its display label.
// BUY is checked first, so text mentioning both directions classifies as buy.
func ClassifyCondition(condition string) (models.Direction, string) {
	upper := strings.ToUpper(strings.TrimSpace(condition))

	switch {
	case strings.Contains(upper, "BUY"):
		return models.DirectionBuy, string(models.DirectionBuy)
	case strings.Contains(upper, "SELL"):
		return models.DirectionSell, string(models.DirectionSell)
	case upper == "":
		return models.DirectionUnknown, string(models.DirectionUnknown)
	default:
		return models.DirectionUnknown, upper
	}
}

func text(rec models.Record, key string) string {
	s, _ := rec.Text(key)
	return s
}
