package common

import "strings"

// NormalizeSymbol canonicalizes a user query or ticker code for cache
// keys and lookups: trims whitespace, folds full-width characters to
// ASCII and uppercases.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(FoldFullWidth(raw)))
}

// FoldFullWidth converts full-width digits, letters and spaces (common
// in CJK input methods) to their ASCII equivalents.
func FoldFullWidth(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '０' && r <= '９':
			r = '0' + (r - '０')
		case r >= 'Ａ' && r <= 'Ｚ':
			r = 'A' + (r - 'Ａ')
		case r >= 'ａ' && r <= 'ｚ':
			r = 'a' + (r - 'ａ')
		case r == '　':
			r = ' '
		}
		b.WriteRune(r)
	}
	return b.String()
}
