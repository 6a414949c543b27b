package payload

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	apperrors "tradingview-relay/internal/errors"
	"tradingview-relay/internal/models"
)

func mustText(t *testing.T, rec models.Record, key string) string {
	t.Helper()
	v, ok := rec.Text(key)
	if !ok {
		t.Fatalf("field %q absent in %v", key, rec)
	}
	return v
}

func TestExtractJSONBody(t *testing.T) {
	body := []byte(`{"symbol":"BINANCE:BTCUSDT","price":67890.123,"condition":"buy","active":true,"note":null}`)

	rec, err := Extract(body, "application/json; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if got := mustText(t, rec, "symbol"); got != "BINANCE:BTCUSDT" {
		t.Errorf("symbol = %q", got)
	}
	price := rec.Get("price")
	if price.Kind() != models.KindNumber {
		t.Errorf("price kind = %v, want number", price.Kind())
	}
	if got := mustText(t, rec, "price"); got != "67890.123" {
		t.Errorf("price = %q, number text must be exact", got)
	}
	if rec.Get("active").Kind() != models.KindBool {
		t.Errorf("active kind = %v", rec.Get("active").Kind())
	}
	if !rec.Get("note").IsAbsent() {
		t.Error("null should read as absent")
	}
	if !rec.Get("missing").IsAbsent() {
		t.Error("missing key should read as absent")
	}
}

func TestExtractFallbacks(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		contentType string
		symbol      string
	}{
		{"json as text/plain", `{"symbol":"AAPL"}`, "text/plain", "AAPL"},
		{"no content type", `{"symbol":"AAPL"}`, "", "AAPL"},
		{"padded", "\n\t  {\"symbol\":\"AAPL\"}  \r\n", "text/plain", "AAPL"},
		{"byte order mark", "\ufeff{\"symbol\":\"AAPL\"}", "text/plain", "AAPL"},
		{"embedded", `noise{"symbol":"BTCUSD","price":100}more noise`, "text/plain", "BTCUSD"},
		{"embedded across lines", "Alert fired:\n{\n  \"symbol\": \"ETHUSD\"\n}\nthanks", "text/plain", "ETHUSD"},
		{"nested object embedded", `x {"symbol":"SOL","meta":{"a":1}} y`, "text/plain", "SOL"},
		{"broken json with json type", "prefix {\"symbol\":\"XRP\"}", "application/json", "XRP"},
		{"leading number", `5 {"symbol":"DOGE"}`, "text/plain", "DOGE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Extract([]byte(tc.body), tc.contentType)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got := mustText(t, rec, "symbol"); got != tc.symbol {
				t.Errorf("symbol = %q, want %q", got, tc.symbol)
			}
		})
	}
}

func TestExtractEmbeddedKeepsNumbers(t *testing.T) {
	rec, err := Extract([]byte(`noise{"symbol":"BTCUSD","price":100}more noise`), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if len(rec) != 2 {
		t.Errorf("expected 2 fields, got %v", rec)
	}
	if got := mustText(t, rec, "price"); got != "100" {
		t.Errorf("price = %q, want 100", got)
	}
}

func TestExtractNestedValuesBecomeJSONText(t *testing.T) {
	rec, err := Extract([]byte(`{"meta":{"a":1},"tags":["x","y"]}`), "application/json")
	if err != nil {
		t.Fatal(err)
	}
	if got := mustText(t, rec, "meta"); got != `{"a":1}` {
		t.Errorf("meta = %q", got)
	}
	if got := mustText(t, rec, "tags"); got != `["x","y"]` {
		t.Errorf("tags = %q", got)
	}
}

func TestExtractEmptyRecordIsPresent(t *testing.T) {
	rec, err := Extract([]byte(`{}`), "application/json")
	if err != nil {
		t.Fatalf("empty object must not be rejected: %v", err)
	}
	if rec == nil || len(rec) != 0 {
		t.Errorf("expected empty non-nil record, got %#v", rec)
	}
}

func TestExtractRejects(t *testing.T) {
	testCases := []struct {
		name        string
		body        string
		contentType string
		want        error
	}{
		{"empty", "", "application/json", apperrors.ErrEmptyPayload},
		{"whitespace", " \n\t ", "text/plain", apperrors.ErrEmptyPayload},
		{"array", `[{"symbol":"AAPL"}]`, "application/json", apperrors.ErrNotARecord},
		{"array as text", `[{"symbol":"AAPL"}]`, "text/plain", apperrors.ErrNotARecord},
		{"number", `42`, "application/json", apperrors.ErrNotARecord},
		{"string", `"hello"`, "text/plain", apperrors.ErrNotARecord},
		{"bool", `true`, "", apperrors.ErrNotARecord},
		{"plain text", `BTCUSD crossed 100`, "text/plain", apperrors.ErrNotAPayload},
		{"unbalanced", `{"symbol": "AAPL"`, "application/json", apperrors.ErrNotAPayload},
		{"reversed braces", `} nothing {`, "text/plain", apperrors.ErrNotAPayload},
		{"embedded array only", `see [1,2,3] here`, "text/plain", apperrors.ErrNotAPayload},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Extract([]byte(tc.body), tc.contentType)
			if err == nil {
				t.Fatalf("expected error, got record %v", rec)
			}
			if !apperrors.Is(err, tc.want) {
				t.Errorf("error = %v, want %v", err, tc.want)
			}
			if !apperrors.Is(err, apperrors.ErrNotAPayload) {
				t.Errorf("every rejection must match ErrNotAPayload: %v", err)
			}
		})
	}
}

func TestExtractRejectionCarriesExcerpt(t *testing.T) {
	body := strings.Repeat("é", 500)
	_, err := Extract([]byte(body), "text/plain")

	var pe *apperrors.PayloadError
	if !apperrors.As(err, &pe) {
		t.Fatalf("expected *PayloadError, got %v", err)
	}
	if n := utf8.RuneCountInString(pe.Excerpt); n != ExcerptLimit {
		t.Errorf("excerpt has %d runes, want %d", n, ExcerptLimit)
	}
}

func TestExtractInvalidUTF8(t *testing.T) {
	body := append([]byte{0xff, 0xfe, ' '}, []byte(`{"symbol":"AAPL","note":"a`)...)
	body = append(body, 0xc3)
	body = append(body, []byte(`b"}`)...)

	rec, err := Extract(body, "text/plain")
	if err != nil {
		t.Fatalf("invalid bytes must be replaced, not fatal: %v", err)
	}
	if got := mustText(t, rec, "symbol"); got != "AAPL" {
		t.Errorf("symbol = %q", got)
	}
	if got := mustText(t, rec, "note"); !utf8.ValidString(got) {
		t.Errorf("note is not valid UTF-8: %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if Excerpt("short") != "short" {
		t.Error("short text must be unchanged")
	}
	long := strings.Repeat("a", 1000)
	if len(Excerpt(long)) != ExcerptLimit {
		t.Errorf("len = %d", len(Excerpt(long)))
	}
}

// Property 1: Structured input round-trips unchanged
// Property 2: Empty and whitespace-only bodies are never a payload
// Property 3: An object embedded in noise is recovered
func TestExtractProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("string records round-trip through Extract", prop.ForAll(
		func(m map[string]string) bool {
			body, err := json.Marshal(m)
			if err != nil {
				return false
			}
			rec, err := Extract(body, "application/json")
			if err != nil {
				t.Logf("Extract(%s): %v", body, err)
				return false
			}
			if len(rec) != len(m) {
				return false
			}
			for k, want := range m {
				got, ok := rec.Text(k)
				if !ok || got != want || rec.Get(k).Kind() != models.KindString {
					t.Logf("field %q: got %q, want %q", k, got, want)
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.AlphaString(), gen.AnyString()),
	))

	properties.Property("integer values keep their text", prop.ForAll(
		func(key string, n int64) bool {
			body, _ := json.Marshal(map[string]int64{"k" + key: n})
			rec, err := Extract(body, "application/json")
			if err != nil {
				return false
			}
			got, _ := rec.Text("k" + key)
			want, _ := json.Marshal(n)
			return got == string(want)
		},
		gen.AlphaString(),
		gen.Int64(),
	))

	properties.Property("whitespace-only bodies are rejected", prop.ForAll(
		func(idx []int) bool {
			whitespace := []string{" ", "\t", "\n", "\r", "\v", "\f"}
			var sb strings.Builder
			for _, i := range idx {
				sb.WriteString(whitespace[i])
			}
			_, err := Extract([]byte(sb.String()), "text/plain")
			return apperrors.Is(err, apperrors.ErrEmptyPayload)
		},
		gen.SliceOf(gen.IntRange(0, 5)),
	))

	properties.Property("objects embedded in brace-free noise are recovered", prop.ForAll(
		func(prefix, suffix, symbol string) bool {
			obj, _ := json.Marshal(map[string]string{"symbol": symbol})
			body := "x" + prefix + string(obj) + suffix + "x"
			rec, err := Extract([]byte(body), "text/plain")
			if err != nil {
				t.Logf("Extract(%q): %v", body, err)
				return false
			}
			got, _ := rec.Text("symbol")
			return got == symbol
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
