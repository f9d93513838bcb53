package cep

import "strings"

// Digits strips everything but ASCII digits.
func Digits(v string) string {
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Format masks a postal code as 00000-000, truncating extra digits.
func Format(v string) string {
	d := Digits(v)
	if len(d) > 8 {
		d = d[:8]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// Complete reports whether v holds a full 8 digit code.
func Complete(v string) bool {
	return len(Digits(v)) == 8
}
