// Package format renders a normalized alert as a Telegram HTML message.
package format

import (
	"net/url"
	"strings"

	"tradingview-relay/internal/models"
)

// DefaultChartBaseURL opens a symbol's chart on TradingView.
const DefaultChartBaseURL = "https://www.tradingview.com/chart/"

// Title is the message header text.
const Title = "TradingView Alert"

// Formatter renders alerts. It holds no mutable state and is safe for
// concurrent use.
type Formatter struct {
	chartBaseURL string
}

// NewFormatter creates a Formatter linking charts under chartBaseURL.
// An empty base URL means DefaultChartBaseURL.
func NewFormatter(chartBaseURL string) *Formatter {
	if chartBaseURL == "" {
		chartBaseURL = DefaultChartBaseURL
	}
	return &Formatter{chartBaseURL: chartBaseURL}
}

// Format renders the fixed message layout and, when the alert names a
// chartable symbol, the chart link.
func (f *Formatter) Format(a models.Alert) models.Notification {
	glyph := a.Direction.Glyph()

	var sb strings.Builder
	sb.WriteString(glyph + " <b>" + Title + "</b>\n\n")
	writeLine(&sb, "📊", "Symbol", a.Symbol)
	writeLine(&sb, "💰", "Price", a.PriceText)
	writeLine(&sb, "📈", "Condition", glyph+" "+a.DirectionLabel)
	writeLine(&sb, "⏰", "Time", a.TimeText)
	if a.Interval != "" {
		writeLine(&sb, "🕐", "Interval", a.Interval)
	}
	if a.Strategy != "" {
		writeLine(&sb, "🧠", "Strategy", a.Strategy)
	}

	n := models.Notification{Text: strings.TrimSuffix(sb.String(), "\n")}
	if a.HasSymbol() && ChartSymbol(a.Symbol) != "" {
		n.LinkURL = f.ChartURL(a.Symbol)
	}
	return n
}

// ChartURL returns the chart deeplink for symbol. Exchange prefixes and pair
// separators (':' and '/') are stripped first.
func (f *Formatter) ChartURL(symbol string) string {
	return f.chartBaseURL + "?symbol=" + url.QueryEscape(ChartSymbol(symbol))
}

// ChartSymbol strips ':' and '/' and surrounding whitespace from symbol.
func ChartSymbol(symbol string) string {
	return strings.TrimSpace(strings.NewReplacer(":", "", "/", "").Replace(symbol))
}

func writeLine(sb *strings.Builder, icon, label, value string) {
	sb.WriteString(icon + " " + label + ": <b>" + EscapeHTML(value) + "</b>\n")
}

// EscapeHTML escapes HTML special characters for Telegram.
func EscapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}
