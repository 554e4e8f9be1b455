package format

import (
	"strconv"
	"strings"

	"gatherly-api/internal/core/domain"
)

// Naira formats a kobo amount as a naira display string, e.g. "₦1,250,000".
// Kobo are dropped when zero, otherwise shown to two places.
func Naira(amount domain.Money) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	naira := int64(amount) / 100
	kobo := int64(amount) % 100

	var b strings.Builder
	if negative {
		b.WriteString("-")
	}
	b.WriteString("₦")
	b.WriteString(groupThousands(naira))
	if kobo != 0 {
		b.WriteString(".")
		if kobo < 10 {
			b.WriteString("0")
		}
		b.WriteString(strconv.FormatInt(kobo, 10))
	}
	return b.String()
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
