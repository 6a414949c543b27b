package alert

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"tradingview-relay/internal/models"
)

func newTestNormalizer(t *testing.T) (*Normalizer, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 5, 1, 9, 5, 42, 0, time.UTC))
	return NewNormalizer(mock, zerolog.Nop()), mock
}

func TestNormalizeFullRecord(t *testing.T) {
	n, _ := newTestNormalizer(t)

	rec := models.Record{
		"symbol":    models.StringValue("BINANCE:BTCUSDT"),
		"price":     models.NumberValue(json.Number("67890.123")),
		"condition": models.StringValue("buy"),
		"time":      models.StringValue("2024-05-01T12:30:00Z"),
		"interval":  models.StringValue("15m"),
		"strategy":  models.StringValue(" EMA cross "),
	}

	got := n.Normalize(rec)
	want := models.Alert{
		Symbol:         "BINANCE:BTCUSDT",
		PriceText:      "67 890.12",
		Direction:      models.DirectionBuy,
		DirectionLabel: "BUY",
		TimeText:       "2024-05-01 12:30 UTC",
		Interval:       "15m",
		Strategy:       "EMA cross",
	}
	if got != want {
		t.Errorf("Normalize() =\n%+v\nwant\n%+v", got, want)
	}
}

func TestNormalizeEmptyRecordDefaults(t *testing.T) {
	n, _ := newTestNormalizer(t)

	for _, rec := range []models.Record{nil, {}} {
		got := n.Normalize(rec)
		want := models.Alert{
			Symbol:         "?",
			PriceText:      "?",
			Direction:      models.DirectionUnknown,
			DirectionLabel: "UNKNOWN",
			TimeText:       "2024-05-01 09:05 UTC",
		}
		if got != want {
			t.Errorf("Normalize(%v) = %+v, want %+v", rec, got, want)
		}
	}
}

func TestNormalizeUsesCurrentTimeWhenAbsent(t *testing.T) {
	n, mock := newTestNormalizer(t)

	mock.Add(2 * time.Hour)
	got := n.Normalize(models.Record{"time": models.Absent()})
	if got.TimeText != "2024-05-01 11:05 UTC" {
		t.Errorf("TimeText = %q", got.TimeText)
	}

	got = n.Normalize(models.Record{"time": models.StringValue("   ")})
	if got.TimeText != "2024-05-01 11:05 UTC" {
		t.Errorf("blank time should default to now, got %q", got.TimeText)
	}
}

func TestNormalizeKeepsSymbolVerbatim(t *testing.T) {
	n, _ := newTestNormalizer(t)

	got := n.Normalize(models.Record{"symbol": models.StringValue(" NASDAQ:AAPL ")})
	if got.Symbol != " NASDAQ:AAPL " {
		t.Errorf("Symbol = %q, want it unchanged", got.Symbol)
	}

	got = n.Normalize(models.Record{"symbol": models.StringValue(" \t ")})
	if got.Symbol != models.PlaceholderSymbol {
		t.Errorf("blank symbol = %q, want placeholder", got.Symbol)
	}
}

func TestNormalizeNonStringSymbol(t *testing.T) {
	n, _ := newTestNormalizer(t)
	got := n.Normalize(models.Record{"symbol": models.NumberValue("700")})
	if got.Symbol != "700" {
		t.Errorf("Symbol = %q", got.Symbol)
	}
}

func TestFormatPrice(t *testing.T) {
	testCases := []struct {
		in      string
		want    string
		numeric bool
	}{
		{"1234.5", "1 234.50", true},
		{"1234,56", "1 234.56", true},
		{"67890.123", "67 890.12", true},
		{"0", "0.00", true},
		{" 42 ", "42.00", true},
		{"-1500.256", "-1 500.26", true},
		{"1e3", "1 000.00", true},
		{"N/A", "N/A", false},
		{"1,234.56", "1,234.56", false},
		{"12abc", "12abc", false},
		{"NaN", "NaN", false},
		{"1e999999999", "1e999999999", false},
		{"1e-999999999", "0.00", true},
		{"1e-31", "0.00", true},
		{"-4e-40", "0.00", true},
		{"0.1000000000000000000000000000000", "0.10", true},
		{"12.3456789012345678901234567890123", "12.35", true},
		{"0.0050000000000000000000000000000001", "0.01", true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, numeric := FormatPrice(tc.in)
			if got != tc.want || numeric != tc.numeric {
				t.Errorf("FormatPrice(%q) = (%q, %v), want (%q, %v)", tc.in, got, numeric, tc.want, tc.numeric)
			}
		})
	}
}

func TestNormalizePriceKinds(t *testing.T) {
	n, _ := newTestNormalizer(t)

	testCases := []struct {
		name  string
		value models.Value
		want  string
	}{
		{"number", models.NumberValue("1234.5"), "1 234.50"},
		{"comma string", models.StringValue("1234,56"), "1 234.56"},
		{"text", models.StringValue("N/A"), "N/A"},
		{"bool", models.BoolValue(true), "true"},
		{"absent", models.Absent(), "?"},
		{"blank", models.StringValue(""), "?"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := n.Normalize(models.Record{"price": tc.value})
			if got.PriceText != tc.want {
				t.Errorf("PriceText = %q, want %q", got.PriceText, tc.want)
			}
		})
	}
}

func TestClassifyCondition(t *testing.T) {
	testCases := []struct {
		in        string
		direction models.Direction
		label     string
	}{
		{"STRONG BUY SIGNAL", models.DirectionBuy, "BUY"},
		{"buy", models.DirectionBuy, "BUY"},
		{"sell now", models.DirectionSell, "SELL"},
		{"  Sell  ", models.DirectionSell, "SELL"},
		{"", models.DirectionUnknown, "UNKNOWN"},
		{"   ", models.DirectionUnknown, "UNKNOWN"},
		{"crossing up", models.DirectionUnknown, "CROSSING UP"},
		{"sell then buy", models.DirectionBuy, "BUY"},
		{"BUYSELL", models.DirectionBuy, "BUY"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			direction, label := ClassifyCondition(tc.in)
			if direction != tc.direction || label != tc.label {
				t.Errorf("ClassifyCondition(%q) = (%s, %q), want (%s, %q)", tc.in, direction, label, tc.direction, tc.label)
			}
		})
	}
}

func TestFormatTime(t *testing.T) {
	testCases := []struct {
		in     string
		want   string
		parsed bool
	}{
		{"2024-05-01T12:30:00Z", "2024-05-01 12:30 UTC", true},
		{"2024-05-01T12:30:59", "2024-05-01 12:30 UTC", true},
		{"2024-05-01T12:30:00.123Z", "2024-05-01 12:30 UTC", true},
		{"sometime soon", "sometime soon", false},
		{"2024-05-01 12:30:00", "2024-05-01 12:30:00", false},
		{"2024-05-01T12:30:00+02:00", "2024-05-01T12:30:00+02:00", false},
		{"Tomorrow", "Tomorrow", false},
		{"1714566600", "1714566600", false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, parsed := FormatTime(tc.in)
			if got != tc.want || parsed != tc.parsed {
				t.Errorf("FormatTime(%q) = (%q, %v), want (%q, %v)", tc.in, got, parsed, tc.want, tc.parsed)
			}
		})
	}
}

func TestNormalizeOptionalFieldsOmitted(t *testing.T) {
	n, _ := newTestNormalizer(t)
	got := n.Normalize(models.Record{
		"interval": models.StringValue(""),
		"strategy": models.Absent(),
	})
	if got.Interval != "" || got.Strategy != "" {
		t.Errorf("expected optional fields to be empty, got %+v", got)
	}
}

// Property 4: Normalize never fails and always yields display text
func TestNormalizeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	n, _ := newTestNormalizer(t)

	genValue := gen.OneGenOf(
		gen.AnyString().Map(func(s string) models.Value { return models.StringValue(s) }),
		gen.Float64Range(-1e9, 1e9).Map(func(f float64) models.Value {
			data, _ := json.Marshal(f)
			return models.NumberValue(json.Number(data))
		}),
		gen.Bool().Map(func(b bool) models.Value { return models.BoolValue(b) }),
		gen.Const(models.Absent()),
	)
	keys := []string{FieldSymbol, FieldPrice, FieldCondition, FieldTime, FieldInterval, FieldStrategy}

	properties.Property("every field has display text", prop.ForAll(
		func(values []models.Value) bool {
			rec := models.Record{}
			for i, v := range values {
				rec[keys[i%len(keys)]] = v
			}

			a := n.Normalize(rec)
			if a.Symbol == "" || a.PriceText == "" || a.TimeText == "" || a.DirectionLabel == "" {
				t.Logf("empty field in %+v from %v", a, rec)
				return false
			}
			switch a.Direction {
			case models.DirectionBuy:
				return a.DirectionLabel == "BUY"
			case models.DirectionSell:
				return a.DirectionLabel == "SELL"
			case models.DirectionUnknown:
				return a.DirectionLabel == strings.ToUpper(a.DirectionLabel)
			default:
				return false
			}
		},
		gen.SliceOfN(6, genValue),
	))

	properties.Property("numeric prices always format with two decimals", prop.ForAll(
		func(f float64) bool {
			data, _ := json.Marshal(f)
			a := n.Normalize(models.Record{"price": models.NumberValue(json.Number(data))})
			dot := strings.LastIndex(a.PriceText, ".")
			return dot >= 0 && len(a.PriceText)-dot-1 == 2 && !strings.Contains(a.PriceText, ",")
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.TestingRun(t)
}
