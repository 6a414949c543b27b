// Package utils provides shared utility functions.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// GroupSeparator separates thousands groups. A space keeps the output readable
// whether the reader expects a comma or a dot as the decimal mark.
const GroupSeparator = " "

// FormatGrouped formats d with exactly two decimals and space-grouped thousands,
// e.g. 1234567.891 -> "1 234 567.89". Halves round away from zero.
func FormatGrouped(d decimal.Decimal) string {
	str := d.StringFixed(2)

	negative := strings.HasPrefix(str, "-")
	str = strings.TrimPrefix(str, "-")

	intPart, decPart, _ := strings.Cut(str, ".")
	result := GroupThousands(intPart, GroupSeparator) + "." + decPart

	if negative && strings.Trim(intPart+decPart, "0") != "" {
		result = "-" + result
	}
	return result
}

// GroupThousands inserts sep between every group of three digits, from the right.
func GroupThousands(s, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var sb strings.Builder
	head := n % 3
	if head > 0 {
		sb.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}
