// Package models defines the data types passed between the relay stages.
package models

// Direction is the trade direction an alert's condition text classifies to.
type Direction string

const (
	DirectionBuy     Direction = "BUY"
	DirectionSell    Direction = "SELL"
	DirectionUnknown Direction = "UNKNOWN"
)

// Glyph returns the colored circle shown next to the direction.
func (d Direction) Glyph() string {
	switch d {
	case DirectionBuy:
		return "🟢"
	case DirectionSell:
		return "🔴"
	default:
		return "⚪"
	}
}

// PlaceholderSymbol marks an alert that carried no symbol.
const PlaceholderSymbol = "?"

// Alert is a normalized TradingView alert. Every field holds display text.
type Alert struct {
	Symbol         string    `json:"symbol"`
	PriceText      string    `json:"price"`
	Direction      Direction `json:"direction"`
	DirectionLabel string    `json:"direction_label"` // BUY, SELL or the uppercased condition for unknown directions
	TimeText       string    `json:"time"`
	Interval       string    `json:"interval,omitempty"` // empty when absent
	Strategy       string    `json:"strategy,omitempty"` // empty when absent
}

// HasSymbol reports whether the alert names a real symbol.
func (a Alert) HasSymbol() bool {
	return a.Symbol != "" && a.Symbol != PlaceholderSymbol
}

// Notification is a rendered message ready for delivery.
type Notification struct {
	Text    string `json:"text"`
	LinkURL string `json:"link_url,omitempty"` // empty when no chart link can be built
}

// HasLink reports whether the notification carries a chart link.
func (n Notification) HasLink() bool {
	return n.LinkURL != ""
}
